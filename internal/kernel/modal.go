package kernel

import "github.com/s3c/s3c/internal/model"

// ModalKind enumerates the dialog overlays a panel side can have open.
// Grounded in original_source/src/app/state.rs's Modal enum, supplemented
// per SPEC_FULL.md with Sort, DeleteConfirm, ProfileForm, BucketForm, and
// Queue (none of which spec.md itself names, since they were dropped in
// the distillation).
type ModalKind int

const (
	ModalNone ModalKind = iota
	ModalHelp
	ModalSort
	ModalFilter
	ModalCreateFolder
	ModalRename
	ModalDeleteConfirm
	ModalProfileForm
	ModalBucketForm
	ModalQueue
)

// Modal holds the transient state of whichever dialog is open on a panel
// side. Like panel.Frame, it is a flat tagged struct rather than one
// variant type per Kind, matching the spec's "tagged variant, not a
// common base class" note for heterogeneous per-entry state (§9); a modal
// is effectively one entry in the set of things a panel can be showing.
type Modal struct {
	Kind ModalKind

	// Free-text dialogs (CreateFolder, Rename, Filter)
	Input      string
	FieldIndex int // which field of a multi-field form (ProfileForm, BucketForm) has focus
	Fields     []string

	// Sort dialog
	SortField model.SortField
	SortDir   model.SortDirection

	// DeleteConfirm: name of the entry pending deletion, for the
	// confirmation prompt text
	PendingDeleteName string

	// ProfileForm / BucketForm: whether this is editing an existing entry
	// (by name) rather than creating a new one
	EditingName string

	// Queue: index into Transfers.All() the cursor is on
	QueueCursor int
}

func newFilterModal(current string) *Modal {
	return &Modal{Kind: ModalFilter, Input: current}
}

func newCreateFolderModal() *Modal {
	return &Modal{Kind: ModalCreateFolder}
}

func newRenameModal(currentName string) *Modal {
	return &Modal{Kind: ModalRename, Input: currentName}
}

func newDeleteConfirmModal(name string) *Modal {
	return &Modal{Kind: ModalDeleteConfirm, PendingDeleteName: name}
}

func newSortModal(key model.SortKey) *Modal {
	return &Modal{Kind: ModalSort, SortField: key.Field, SortDir: key.Dir}
}

func newProfileFormModal(editing string, fields []string) *Modal {
	return &Modal{Kind: ModalProfileForm, EditingName: editing, Fields: fields}
}

func newBucketFormModal(editing string, fields []string) *Modal {
	return &Modal{Kind: ModalBucketForm, EditingName: editing, Fields: fields}
}
