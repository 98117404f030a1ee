package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "f2":
		return tea.KeyMsg{Type: tea.KeyF2}
	case "f5":
		return tea.KeyMsg{Type: tea.KeyF5}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestTranslateNavCursorAndEnter(t *testing.T) {
	require.Equal(t, CursorMove{Delta: -1}, Translate(key("up"), S3Browser, false, DialogModeDefault))
	require.Equal(t, CursorMove{Delta: 1}, Translate(key("down"), S3Browser, false, DialogModeDefault))
	require.Equal(t, EnterPressed{}, Translate(key("enter"), S3Browser, false, DialogModeDefault))
}

func TestTranslateF2SuppressedInPreview(t *testing.T) {
	require.Equal(t, OpenDialog{Kind: DialogSort}, Translate(key("f2"), S3Browser, false, DialogModeDefault))
	require.Nil(t, Translate(key("f2"), Preview, false, DialogModeDefault))
}

func TestTranslateF5OnlyInBrowserModes(t *testing.T) {
	require.Equal(t, CopyPressed{}, Translate(key("f5"), S3Browser, false, DialogModeDefault))
	require.Equal(t, CopyPressed{}, Translate(key("f5"), LocalBrowser, false, DialogModeDefault))
	require.Nil(t, Translate(key("f5"), ProfileList, false, DialogModeDefault))
}

func TestTranslateCtrlTOpensQueueDialog(t *testing.T) {
	require.Equal(t, OpenDialog{Kind: DialogQueue}, Translate(key("ctrl+t"), S3Browser, false, DialogModeDefault))
}

func TestTranslateModalRoutesAwayFromNav(t *testing.T) {
	require.Equal(t, DialogSubmit{}, Translate(key("enter"), S3Browser, true, DialogModeDefault))
	require.Equal(t, DialogCancel{}, Translate(key("esc"), S3Browser, true, DialogModeDefault))
	require.Equal(t, DialogChar{Char: 'a'}, Translate(key("a"), S3Browser, true, DialogModeDefault))
}

func TestTranslateQueueModeBindsActionLettersNotText(t *testing.T) {
	require.Equal(t, DialogCancelSelected{}, Translate(key("x"), S3Browser, true, DialogModeQueue))
	require.Equal(t, DialogClearCompleted{}, Translate(key("c"), S3Browser, true, DialogModeQueue))
	require.Equal(t, DialogDeleteSelected{}, Translate(key("d"), S3Browser, true, DialogModeQueue))
	require.Equal(t, DialogUp{}, Translate(key("up"), S3Browser, true, DialogModeQueue))
	require.Nil(t, Translate(key("z"), S3Browser, true, DialogModeQueue), "queue overlay has no free-text field")
}

func TestIsPrintableExcludesControlAndDEL(t *testing.T) {
	require.True(t, isPrintable('a'))
	require.False(t, isPrintable(0x1b))
	require.False(t, isPrintable(0x7f))
}
