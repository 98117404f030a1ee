package preview

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeFetcher(data []byte) Fetcher {
	return func(ctx context.Context, offset, length int64) ([]byte, error) {
		end := offset + length
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		return data[offset:end], nil
	}
}

func TestOpenSmallFileLoadsEverything(t *testing.T) {
	data := []byte("hello world")
	p, err := Open(context.Background(), "f.txt", int64(len(data)), 80, makeFetcher(data))
	require.NoError(t, err)
	require.True(t, p.HeadLoaded)
	require.True(t, p.TailLoaded)
}

func TestHomeThenEndLoadsAtMostTwoChunks(t *testing.T) {
	total := int64(8 * 1024 * 1024)
	data := strings.Repeat("x", int(total))
	p, err := Open(context.Background(), "big.json", total, 120, makeFetcher([]byte(data)))
	require.NoError(t, err)
	require.Len(t, p.Chunks, 1)

	require.NoError(t, p.Home(context.Background()))
	require.NoError(t, p.End(context.Background()))
	require.Len(t, p.Chunks, 2, "head and tail chunk should not touch for an 8MiB file")

	// The file is one unbroken line. TotalVisualLines counts the whole
	// 8MiB (not just the ~200KiB of loaded head+tail chunks) as the 100KiB
	// head chunk's rows, plus the unloaded middle gap's rows, plus the
	// 100KiB tail chunk's rows, each ceil-divided by the 120-rune wrap
	// width independently: ceil(102400/120)*2 + ceil(8183808/120). The
	// separate rounding puts this two rows above ceil(8388608/120).
	const chunkRows = (100*1024 + 119) / 120
	const middleGapRows = (8*1024*1024 - 2*100*1024 + 119) / 120
	const wantLines = 2*chunkRows + middleGapRows

	require.Equal(t, wantLines, p.TotalVisualLines())
	require.Equal(t, wantLines-1, p.CursorLine)
}

func TestEndOnFileSmallerThanChunkUsesOneChunk(t *testing.T) {
	data := []byte("short file\nsecond line")
	p, err := Open(context.Background(), "f.txt", int64(len(data)), 80, makeFetcher(data))
	require.NoError(t, err)
	require.NoError(t, p.End(context.Background()))
	require.Len(t, p.Chunks, 1)
}

func TestLoadMoreAppendsForwardChunk(t *testing.T) {
	total := int64(3 * ChunkSize)
	data := make([]byte, total)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	p, err := Open(context.Background(), "f.bin", total, 100, makeFetcher(data))
	require.NoError(t, err)
	require.False(t, p.TailLoaded)
	require.NoError(t, p.LoadMore(context.Background()))
	require.Len(t, p.Chunks, 2)
}

func TestMergeCollapsesOverlappingHeadAndTail(t *testing.T) {
	total := int64(ChunkSize + 10)
	data := make([]byte, total)
	p, err := Open(context.Background(), "f.bin", total, 100, makeFetcher(data))
	require.NoError(t, err)
	require.NoError(t, p.End(context.Background()))
	require.Len(t, p.Chunks, 1)
	require.True(t, p.HeadLoaded)
	require.True(t, p.TailLoaded)
}

func TestTabsExpandToFourSpaces(t *testing.T) {
	data := []byte("a\tb")
	p, err := Open(context.Background(), "f.txt", int64(len(data)), 80, makeFetcher(data))
	require.NoError(t, err)
	require.Equal(t, "a    b", p.decodedText())
}

func TestCloneLoadMoreDoesNotMutateOriginal(t *testing.T) {
	total := int64(3 * ChunkSize)
	data := make([]byte, total)
	p, err := Open(context.Background(), "f.bin", total, 100, makeFetcher(data))
	require.NoError(t, err)

	clone := p.Clone()
	require.NoError(t, clone.LoadMore(context.Background()))

	require.Len(t, clone.Chunks, 2)
	require.Len(t, p.Chunks, 1, "mutating the clone must not affect the original Preview")
}
