package kernel

import (
	"context"
	"io"

	"github.com/s3c/s3c/internal/s3gw"
)

// s3StreamReader adapts s3gw.Gateway.GetRange's offset/length verb into a
// sequential io.Reader, so downloads can be handed to fsgw.Write (which
// wants a single stream) without buffering the whole object in memory.
type s3StreamReader struct {
	ctx  context.Context
	gw   *s3gw.Gateway
	key  string
	size int64
	pos  int64
}

const streamReadChunk = 4 * 1024 * 1024

func (r *s3StreamReader) Read(p []byte) (int, error) {
	if r.pos >= r.size {
		return 0, io.EOF
	}
	want := int64(len(p))
	if want > streamReadChunk {
		want = streamReadChunk
	}
	if r.pos+want > r.size {
		want = r.size - r.pos
	}
	data, err := r.gw.GetRange(r.ctx, r.key, r.pos, want)
	if err != nil {
		return 0, err
	}
	n := copy(p, data)
	r.pos += int64(n)
	return n, nil
}
