package panel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/s3c/s3c/internal/model"
)

func TestPushPopGenerationAndStack(t *testing.T) {
	p := New(Left)
	require.Equal(t, ModeSelect, p.Current().Kind)
	g0 := p.Generation

	p.Push(Frame{Kind: ProfileList})
	require.Equal(t, ProfileList, p.Current().Kind)
	require.Greater(t, p.Generation, g0)

	p.Push(Frame{Kind: BucketList, Profile: "work"})
	frame, ok := p.Pop()
	require.True(t, ok)
	require.Equal(t, ProfileList, frame.Kind)

	_, ok = p.Pop()
	require.True(t, ok)
	require.Equal(t, ModeSelect, p.Current().Kind)

	_, ok = p.Pop()
	require.False(t, ok, "popping the root frame is a no-op")
}

func TestCursorInvariantAfterSetListing(t *testing.T) {
	p := New(Left)
	p.SetListing(model.Listing{{Name: "a"}, {Name: "b"}})
	p.MoveCursor(10)
	require.Equal(t, 1, p.Cursor)

	p.SetListing(model.Listing{})
	require.Equal(t, 0, p.Cursor)
}

func TestFilterIdempotent(t *testing.T) {
	p := New(Left)
	p.SetListing(model.Listing{{Name: "Alpha", Kind: model.File}, {Name: "beta", Kind: model.File}, {Name: "alphabet", Kind: model.File}})
	p.SetFilter("alph")
	once := p.Filtered()
	p.SetFilter("alph")
	twice := p.Filtered()
	require.Equal(t, once, twice)
	require.Len(t, once, 2)
}

func TestSortNameAscIgnoresCaseReversingDirectionReverses(t *testing.T) {
	p := New(Left)
	p.SetListing(model.Listing{
		{Name: "banana", Kind: model.File},
		{Name: "Apple", Kind: model.File},
		{Name: "cherry", Kind: model.File},
	})
	p.SetSort(model.SortKey{Field: model.SortName, Dir: model.Asc})
	asc := p.Filtered()
	require.Equal(t, []string{"Apple", "banana", "cherry"}, names(asc))

	p.SetSort(model.SortKey{Field: model.SortName, Dir: model.Desc})
	desc := p.Filtered()
	require.Equal(t, []string{"cherry", "banana", "Apple"}, names(desc))
}

func names(l model.Listing) []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.Name
	}
	return out
}
