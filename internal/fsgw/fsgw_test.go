package fsgw

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/s3c/s3c/internal/apperr"
	"github.com/s3c/s3c/internal/model"
)

func TestListSynthesizesUp(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.txt"), []byte("hi"), 0o644))

	g := New()
	listing, err := g.List(context.Background(), sub)
	require.NoError(t, err)
	require.Equal(t, model.Up, listing[0].Kind)
	require.Equal(t, "..", listing[0].Name)
}

func TestWriteThenReadRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	g := New()
	var progressed int64
	err := g.Write(context.Background(), path, bytes.NewReader([]byte("hello world")), func(n int64) { progressed = n })
	require.NoError(t, err)
	require.Equal(t, int64(11), progressed)

	data, err := g.ReadRange(context.Background(), path, 6, 5)
	require.NoError(t, err)
	require.Equal(t, "world", string(data))
}

// chunkThenCancel hands Write one chunk of "partial" data, then cancels
// its own context before the next loop iteration's ctx.Done() check, so
// the test exercises cancellation through the real gateway rather than a
// stub Runner closure.
type chunkThenCancel struct {
	cancel context.CancelFunc
	done   bool
}

func (r *chunkThenCancel) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	r.done = true
	n := copy(p, []byte("partial"))
	r.cancel()
	return n, nil
}

func TestWriteRemovesPartialFileOnCancellation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	g := New()
	ctx, cancel := context.WithCancel(context.Background())
	src := &chunkThenCancel{cancel: cancel}

	err := g.Write(ctx, path, src, nil)

	require.True(t, apperr.Is(err, apperr.Canceled))
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "a canceled Write must remove the partial file it created")
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	g := New()
	err := g.Delete(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err) // os.RemoveAll on a missing path is a no-op, not an error
}

func TestHeadMissingIsNotFound(t *testing.T) {
	g := New()
	_, _, err := g.Head(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
