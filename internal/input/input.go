// Package input implements the Input Translator (spec §4.10): a
// deterministic map from (KeyEvent, ActivePanelMode, ModalOpen?) to a
// kernel Message, grounded in original_source/src/handlers/key_to_message.rs
// and the teacher's string-switch-on-tea.KeyMsg idiom (_examples/slmtnm-s4/tui.go).
//
// This package knows nothing about package kernel (avoiding an import
// cycle, since kernel depends on input for Translate): it emits its own
// small vocabulary of message structs, which kernel's Update converts
// into its own Msg types via fromInput / dialogKindFromInput in
// kernel/input_bridge.go.
package input

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Mode mirrors panel.Kind without importing the panel package.
type Mode int

const (
	ModeSelect Mode = iota
	ProfileList
	BucketList
	S3Browser
	LocalRoots
	LocalBrowser
	Preview
)

// DialogKind mirrors kernel.ModalKind for the subset a key can open
// directly.
type DialogKind int

const (
	DialogHelp DialogKind = iota
	DialogSort
	DialogFilter
	DialogCreateFolder
	DialogRename
	DialogDeleteConfirm
	DialogProfileForm
	DialogBucketForm
	DialogQueue
)

// DialogMode distinguishes the transfer queue overlay from every other
// modal for key-translation purposes: the queue has no free-text field
// and instead binds a few letters to queue-specific actions, where every
// other modal treats the same letters as text to type. The caller (which
// does know the open Modal's concrete kind) passes this in; input stays
// free of any dependency on kernel.ModalKind itself.
type DialogMode int

const (
	DialogModeDefault DialogMode = iota
	DialogModeQueue
)

type (
	QuitPressed          struct{}
	TabPressed           struct{}
	EnterPressed         struct{}
	BackPressed          struct{}
	CursorMove           struct{ Delta int }
	CursorHome           struct{}
	CursorEnd            struct{}
	CancelTransfer       struct{}
	ToggleAdvancedMode   struct{}
	CopyPressed          struct{}
	OpenDialog           struct{ Kind DialogKind }
	DialogChar           struct{ Char rune }
	DialogBackspace      struct{}
	DialogSubmit         struct{}
	DialogCancel         struct{}
	DialogUp             struct{}
	DialogDown           struct{}
	DialogLeft           struct{}
	DialogRight          struct{}
	// DialogCancelSelected/DialogClearCompleted/DialogDeleteSelected are
	// only produced when DialogModeQueue is in effect (SUPPLEMENTED
	// FEATURES transfer queue panel).
	DialogCancelSelected struct{}
	DialogClearCompleted struct{}
	DialogDeleteSelected struct{}
)

// Translate maps one key event to one of this package's message
// structs, or nil if the key has no meaning in this (mode, modalOpen,
// dialogMode) context. dialogMode is meaningless when modalOpen is
// false.
func Translate(key tea.KeyMsg, mode Mode, modalOpen bool, dialogMode DialogMode) tea.Msg {
	if modalOpen {
		return translateModal(key, dialogMode)
	}
	return translateNav(key, mode)
}

func translateModal(key tea.KeyMsg, dialogMode DialogMode) tea.Msg {
	switch key.String() {
	case "esc":
		return DialogCancel{}
	case "enter":
		return DialogSubmit{}
	case "backspace":
		return DialogBackspace{}
	case "up":
		return DialogUp{}
	case "down", "tab":
		return DialogDown{}
	case "left":
		return DialogLeft{}
	case "right":
		return DialogRight{}
	}
	if dialogMode == DialogModeQueue {
		switch key.String() {
		case "x":
			return DialogCancelSelected{}
		case "c":
			return DialogClearCompleted{}
		case "d":
			return DialogDeleteSelected{}
		}
		return nil // the queue overlay has no free-text field to type into
	}
	if r := key.Runes; len(r) == 1 && isPrintable(r[0]) {
		return DialogChar{Char: r[0]}
	}
	return nil
}

func translateNav(key tea.KeyMsg, mode Mode) tea.Msg {
	switch key.String() {
	case "q", "ctrl+c":
		return QuitPressed{}
	case "tab":
		return TabPressed{}
	case "up", "k":
		return CursorMove{Delta: -1}
	case "down", "j":
		return CursorMove{Delta: 1}
	case "pgup":
		return CursorMove{Delta: -10}
	case "pgdown":
		return CursorMove{Delta: 10}
	case "home", "g":
		return CursorHome{}
	case "end", "G":
		return CursorEnd{}
	case "enter", "l":
		return EnterPressed{}
	case "esc", "backspace", "h":
		return BackPressed{}
	case "x":
		return CancelTransfer{}
	case "?", "f1":
		return OpenDialog{Kind: DialogHelp}
	case "f2":
		if mode != Preview {
			return OpenDialog{Kind: DialogSort}
		}
	case "f3":
		switch mode {
		case ProfileList:
			return OpenDialog{Kind: DialogProfileForm}
		case BucketList:
			return OpenDialog{Kind: DialogBucketForm}
		case S3Browser, LocalBrowser:
			return EnterPressed{}
		}
	case "f4":
		if mode != Preview {
			return OpenDialog{Kind: DialogFilter}
		}
	case "f5":
		if mode == S3Browser || mode == LocalBrowser {
			return CopyPressed{}
		}
	case "f6":
		if mode == S3Browser || mode == LocalBrowser {
			return OpenDialog{Kind: DialogRename}
		}
	case "f7":
		switch mode {
		case BucketList:
			return OpenDialog{Kind: DialogBucketForm}
		case S3Browser, LocalBrowser:
			return OpenDialog{Kind: DialogCreateFolder}
		}
	case "f8":
		switch mode {
		case BucketList, S3Browser, LocalBrowser:
			return OpenDialog{Kind: DialogDeleteConfirm}
		}
	case "f9":
		return ToggleAdvancedMode{}
	case "f10":
		return QuitPressed{}
	case "ctrl+t":
		return OpenDialog{Kind: DialogQueue}
	}
	return nil
}

func isPrintable(r rune) bool {
	return r >= 0x20 && r != 0x7f
}
