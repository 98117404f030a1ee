// Package preview implements the Preview Engine (spec §4.5): a lazy,
// chunked, bidirectionally-loadable file viewer with soft wrapping.
package preview

import (
	"context"
	"strings"
	"unicode/utf8"
)

// ChunkSize is the fixed 100 KiB fetch granularity (spec §4.5, Glossary).
const ChunkSize = 100 * 1024

// Chunk is a contiguous byte range fetched from the source (spec §3).
type Chunk struct {
	ByteOffset int64
	Bytes      []byte
}

// Fetcher retrieves a byte range from the previewed entry. Implementations
// wrap s3gw.GetRange or fsgw.ReadRange.
type Fetcher func(ctx context.Context, offset, length int64) ([]byte, error)

// Preview is the full state machine state (spec §3, §4.5).
type Preview struct {
	SourceName string
	TotalSize  int64
	Chunks     []Chunk
	HeadLoaded bool
	TailLoaded bool
	CursorLine int
	WrapWidth  int

	fetch Fetcher
}

// Open loads the first chunk and establishes HeadLoaded/TailLoaded per
// spec §4.5.
func Open(ctx context.Context, name string, totalSize int64, wrapWidth int, fetch Fetcher) (*Preview, error) {
	p := &Preview{SourceName: name, TotalSize: totalSize, WrapWidth: wrapWidth, fetch: fetch}
	n := min64(ChunkSize, totalSize)
	if n > 0 {
		data, err := fetch(ctx, 0, n)
		if err != nil {
			return nil, err
		}
		p.Chunks = []Chunk{{ByteOffset: 0, Bytes: data}}
	}
	p.HeadLoaded = true
	p.TailLoaded = totalSize <= ChunkSize
	p.mergeIfContiguous()
	return p, nil
}

// loadedEnd returns the offset one past the last byte currently loaded,
// assuming Chunks is contiguous from 0 (the head chunk and each LoadMore
// chunk after it start where the previous one ends).
func (p *Preview) loadedEnd() int64 {
	if len(p.Chunks) == 0 {
		return 0
	}
	last := p.Chunks[len(p.Chunks)-1]
	return last.ByteOffset + int64(len(last.Bytes))
}

func (p *Preview) loadedStart() int64 {
	if len(p.Chunks) == 0 {
		return 0
	}
	return p.Chunks[0].ByteOffset
}

// LoadMore fetches the next forward chunk, appending it (spec §4.5,
// "Scroll down past the last loaded byte").
func (p *Preview) LoadMore(ctx context.Context) error {
	if p.TailLoaded {
		return nil
	}
	start := p.loadedEnd()
	n := min64(ChunkSize, p.TotalSize-start)
	if n <= 0 {
		p.TailLoaded = true
		return nil
	}
	data, err := p.fetch(ctx, start, n)
	if err != nil {
		return err
	}
	p.Chunks = append(p.Chunks, Chunk{ByteOffset: start, Bytes: data})
	if start+n >= p.TotalSize {
		p.TailLoaded = true
	}
	return nil
}

// LoadPrevious fetches the previous backward chunk (Home path when the
// head has been dropped — not currently reachable since Home never drops
// the head chunk, kept for symmetry with LoadMore).
func (p *Preview) LoadPrevious(ctx context.Context) error {
	if p.HeadLoaded {
		return nil
	}
	end := p.loadedStart()
	start := end - ChunkSize
	if start < 0 {
		start = 0
	}
	data, err := p.fetch(ctx, start, end-start)
	if err != nil {
		return err
	}
	p.Chunks = append([]Chunk{{ByteOffset: start, Bytes: data}}, p.Chunks...)
	if start == 0 {
		p.HeadLoaded = true
	}
	p.mergeIfContiguous()
	return nil
}

// Home: if HeadLoaded remain so; else drop chunks and reload the first
// chunk (spec §4.5).
func (p *Preview) Home(ctx context.Context) error {
	if p.HeadLoaded {
		p.CursorLine = 0
		return nil
	}
	n := min64(ChunkSize, p.TotalSize)
	data, err := p.fetch(ctx, 0, n)
	if err != nil {
		return err
	}
	p.Chunks = []Chunk{{ByteOffset: 0, Bytes: data}}
	p.HeadLoaded = true
	p.TailLoaded = p.TotalSize <= ChunkSize
	p.CursorLine = 0
	p.mergeIfContiguous()
	return nil
}

// End: if TailLoaded, seek to the visual end; else fetch the final 100
// KiB suffix and collapse chunks if head and tail now touch or overlap
// (spec §4.5).
func (p *Preview) End(ctx context.Context) error {
	if !p.TailLoaded {
		start := p.TotalSize - ChunkSize
		if start < 0 {
			start = 0
		}
		n := p.TotalSize - start
		data, err := p.fetch(ctx, start, n)
		if err != nil {
			return err
		}
		p.Chunks = append(p.Chunks, Chunk{ByteOffset: start, Bytes: data})
		p.TailLoaded = true
		p.mergeIfContiguous()
	}
	p.CursorLine = maxInt(0, p.TotalVisualLines()-1)
	return nil
}

// mergeIfContiguous collapses adjacent/overlapping chunks into one, and
// flips both flags when the merged range spans the whole file (spec
// §4.5's "collapse into a single contiguous chunk" rule).
func (p *Preview) mergeIfContiguous() {
	if len(p.Chunks) < 2 {
		return
	}
	merged := []Chunk{p.Chunks[0]}
	for _, c := range p.Chunks[1:] {
		last := &merged[len(merged)-1]
		lastEnd := last.ByteOffset + int64(len(last.Bytes))
		if c.ByteOffset <= lastEnd {
			// overlapping or touching: extend
			if end := c.ByteOffset + int64(len(c.Bytes)); end > lastEnd {
				overlap := lastEnd - c.ByteOffset
				if overlap < 0 {
					overlap = 0
				}
				last.Bytes = append(last.Bytes, c.Bytes[overlap:]...)
			}
		} else {
			merged = append(merged, c)
		}
	}
	p.Chunks = merged
	if len(p.Chunks) == 1 && p.Chunks[0].ByteOffset == 0 && int64(len(p.Chunks[0].Bytes)) >= p.TotalSize {
		p.HeadLoaded = true
		p.TailLoaded = true
	}
}

// decodedText returns the permissively-decoded, tab-expanded text of all
// currently loaded chunks concatenated (spec §4.5's rendering rules).
func (p *Preview) decodedText() string {
	var b strings.Builder
	for _, c := range p.Chunks {
		b.Write(c.Bytes)
	}
	raw := b.String()
	// Replace invalid UTF-8 sequences permissively.
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "�")
	}
	return strings.ReplaceAll(raw, "\t", "    ")
}

// VisualLines returns all soft-wrapped visual lines of the currently
// loaded text, wrapped at WrapWidth.
func (p *Preview) VisualLines() []string {
	text := p.decodedText()
	logical := strings.Split(text, "\n")
	var out []string
	width := p.WrapWidth
	if width <= 0 {
		width = 80
	}
	for _, line := range logical {
		if line == "" {
			out = append(out, "")
			continue
		}
		runes := []rune(line)
		for i := 0; i < len(runes); i += width {
			end := i + width
			if end > len(runes) {
				end = len(runes)
			}
			out = append(out, string(runes[i:end]))
		}
	}
	return out
}

// TotalVisualLines is the count of wrapped rows across the whole file,
// not just whatever is currently loaded. A large file leaves a gap of
// unread bytes between the head and tail chunk (or past the tail before
// End has fetched it); that gap's newline positions are unknown, so it's
// counted as one wrapped row per WrapWidth runes, same as a run of text
// with no line breaks. Each loaded chunk and each gap is rounded up to
// whole rows on its own, so a line that runs across a chunk or gap
// boundary counts up to one row more than it wraps to: a one-line 8 MiB
// file at width 120 with head and tail loaded comes to 69907 rows, two
// more than ceil(8388608/120). A gap that holds newlines, tabs or
// multibyte runes wraps to a different number of rows than counted here.
func (p *Preview) TotalVisualLines() int {
	width := p.WrapWidth
	if width <= 0 {
		width = 80
	}
	rows := 0
	prevEnd := int64(0)
	for _, c := range p.Chunks {
		if gap := c.ByteOffset - prevEnd; gap > 0 {
			rows += gapRows(gap, width)
		}
		rows += chunkVisualRows(c.Bytes, width)
		prevEnd = c.ByteOffset + int64(len(c.Bytes))
	}
	if tail := p.TotalSize - prevEnd; tail > 0 {
		rows += gapRows(tail, width)
	}
	if rows == 0 {
		rows = 1
	}
	return rows
}

// gapRows estimates the wrapped-row count of n unread bytes at width
// runes per row (one byte approximates one rune for this purpose, since
// nothing about the gap's encoding is known yet).
func gapRows(n int64, width int) int {
	return int((n + int64(width) - 1) / int64(width))
}

// chunkVisualRows counts the wrapped rows a single loaded chunk decodes
// to, using the same tab-expansion and wrapping rules as VisualLines.
func chunkVisualRows(data []byte, width int) int {
	text := decodeChunk(data)
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		if n == 0 {
			rows++
			continue
		}
		rows += (n + width - 1) / width
	}
	return rows
}

// decodeChunk applies the permissive-UTF-8 and tab-expansion rules a
// single chunk's bytes get before wrapping (spec §4.5's rendering rules).
func decodeChunk(data []byte) string {
	raw := string(data)
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "�")
	}
	return strings.ReplaceAll(raw, "\t", "    ")
}

// Clone returns a deep-enough copy safe to mutate independently of p:
// callers that run LoadMore/LoadPrevious/Home/End on a background task
// (rather than the reducer thread) clone first and hand the clone back
// in the result message, so no goroutine but the reducer's ever
// observes or mutates the Preview the renderer reads (spec §5, §9).
func (p *Preview) Clone() *Preview {
	clone := *p
	clone.Chunks = make([]Chunk, len(p.Chunks))
	copy(clone.Chunks, p.Chunks)
	return &clone
}

// ChunkProgress reports "CHUNK i/N" for the status line (spec scenario 5).
func (p *Preview) ChunkProgress() (loaded, total int) {
	loaded = len(p.Chunks)
	total = int((p.TotalSize + ChunkSize - 1) / ChunkSize)
	if total == 0 {
		total = 1
	}
	return loaded, total
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
