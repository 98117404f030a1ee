package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/s3c/s3c/internal/model"
)

func TestTruncateFitsWithinWidth(t *testing.T) {
	require.Equal(t, "hello", truncate("hello", 10))
	require.Equal(t, "he…", truncate("hello", 3))
	require.Equal(t, "…", truncate("hello", 1))
	require.Equal(t, "", truncate("hello", 0))
}

func TestFormatEntryMarksDirectoriesAndOrphans(t *testing.T) {
	dir := formatEntry(model.Entry{Name: "docs", Kind: model.Directory}, 20)
	require.True(t, strings.HasPrefix(dir, "docs/"))

	orphan := formatEntry(model.Entry{Name: "p", Kind: model.Profile, Metadata: map[string]string{"orphan": "1"}}, 20)
	require.Contains(t, orphan, "no credentials")
}

func TestRenderProducesNonEmptyFrame(t *testing.T) {
	f := Frame{
		Width: 100, Height: 30,
		Left:  PanelView{Title: "s3", Entries: model.Listing{{Name: "a.txt", Kind: model.File}}, Active: true},
		Right: PanelView{Title: "local", Loading: true},
		FooterLabels: [10]string{"Help", "", "", "", "", "", "", "", "", "Quit"},
	}
	out := Render(f)
	require.Contains(t, out, "s3")
	require.Contains(t, out, "local")
	require.Contains(t, out, "loading")
}

func TestRenderShowsModalCentered(t *testing.T) {
	f := Frame{
		Width: 80, Height: 24,
		ModalVisible: true, ModalTitle: "Sort", ModalBody: "Name  Asc",
	}
	out := Render(f)
	require.Contains(t, out, "Sort")
	require.Contains(t, out, "Name  Asc")
}
