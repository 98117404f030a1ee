// Package kernel implements the Message Loop (spec §4.8): the central
// reducer that consumes input and async-result messages, updates State,
// and spawns follow-up commands. Message family naming follows
// original_source/src/message.rs, translated into Go's tagged-union-by-
// interface idiom (tea.Msg) rather than a Rust enum.
package kernel

import (
	"github.com/s3c/s3c/internal/config"
	"github.com/s3c/s3c/internal/model"
	"github.com/s3c/s3c/internal/preview"
	"github.com/s3c/s3c/internal/s3gw"
)

// --- Navigation -------------------------------------------------------

type EnterPressedMsg struct{}
type BackPressedMsg struct{}
type TabPressedMsg struct{}
type FocusPanelMsg struct{ Side int }
type CursorMoveMsg struct{ Delta int }
type CursorHomeMsg struct{}
type CursorEndMsg struct{}

// --- Async results -----------------------------------------------------

// ListingLoadedMsg is tagged with the generation the request was issued
// under, so stale results (the panel has since navigated away) are
// discarded by the reducer (spec §5, §8).
type ListingLoadedMsg struct {
	Side       int
	Generation int
	Listing    model.Listing
	Err        error
}

// PreviewOpenedMsg carries the freshly-built *preview.Preview rather
// than having the task assign it into Model directly: tasks return
// Messages, only the reducer writes State (spec §5, §9).
type PreviewOpenedMsg struct {
	Side       int
	Generation int
	Name       string
	TotalSize  int64
	Preview    *preview.Preview
	Err        error
}

// PreviewChunkLoadedMsg carries the mutated clone of the Preview the
// background fetch operated on; the reducer installs it in place of
// Model.Previews[Side] rather than the task mutating that pointer
// directly (spec §5, §9).
type PreviewChunkLoadedMsg struct {
	Side       int
	Generation int
	Preview    *preview.Preview
	Err        error
}

type TransferProgressMsg struct {
	JobID       string
	Transferred int64
}

type TransferCompletedMsg struct {
	JobID string
	Err   error
	// RefreshSide is not set by listenTransferCompletion and not read by
	// the reducer; the panel to reload on completion comes from
	// Model.jobRefreshSide, keyed by JobID.
	RefreshSide int
}

// CredentialsResolvedMsg carries the bound *s3gw.Gateway, same reasoning
// as PreviewOpenedMsg.Preview above.
type CredentialsResolvedMsg struct {
	Side        int
	Generation  int
	ProfileName string
	BucketCfg   config.Bucket
	Gateway     *s3gw.Gateway
	Err         error
}

type ConfigSavedMsg struct{ Err error }

type MkdirDoneMsg struct {
	Side int
	Err  error
}

type DeleteDoneMsg struct {
	Side int
	Err  error
}

type RenameDoneMsg struct {
	Side int
	Err  error
}

// --- Modal --------------------------------------------------------------

type OpenDialogMsg struct{ Kind ModalKind }
type DialogCharMsg struct{ Char rune }
type DialogBackspaceMsg struct{}
type DialogSubmitMsg struct{}
type DialogCancelMsg struct{}
type DialogUpMsg struct{}
type DialogDownMsg struct{}
type DialogLeftMsg struct{}
type DialogRightMsg struct{}

// DialogCancelSelectedMsg/DialogClearCompletedMsg/DialogDeleteSelectedMsg
// are only produced while the transfer queue overlay (ModalQueue) is
// open (SUPPLEMENTED FEATURES: QueueNavigateUp/Down reuse DialogUp/Down
// above, DeleteFromQueue and ClearCompletedTransfers get these).
type DialogCancelSelectedMsg struct{}
type DialogClearCompletedMsg struct{}
type DialogDeleteSelectedMsg struct{}

// --- Shell ---------------------------------------------------------------

// SuspendForScriptMsg asks the reducer to hand the terminal to a setup
// script subprocess (spec §4.2, §5's TTY suspension contract). It carries
// everything resolveCredentialsCmd was working on so the reducer can
// resume the credential-resolution chain from ScriptFinishedMsg without
// re-deriving it from Model (which may have moved on by the time the
// script exits).
type SuspendForScriptMsg struct {
	Side        int
	Generation  int
	Script      string
	ProfileName string
	Profile     config.Profile
	BucketCfg   config.Bucket
}

type ScriptFinishedMsg struct {
	Side        int
	Generation  int
	ExitCode    int
	Err         error
	ProfileName string
	Profile     config.Profile
	BucketCfg   config.Bucket
}

// --- Transfer queue / foreground job ------------------------------------

// CancelTransferMsg (the "x" key outside any modal) cancels the
// foregrounded job; DialogCancelSelectedMsg (the "x" key inside the
// queue overlay) cancels whichever job the queue cursor is on, which may
// not be the foregrounded one.
type CancelTransferMsg struct{}

// --- Misc ---------------------------------------------------------------

type ShowBannerMsg struct {
	Message string
	IsError bool
}
type ClearBannerMsg struct{}
type ToggleAdvancedModeMsg struct{}
type QuitMsg struct{}

// CopyPressedMsg is F5: submit a transfer from the active panel's
// selected entry to the inactive panel (spec §4.7 "The inactive panel
// determines the target of Copy").
type CopyPressedMsg struct{}
