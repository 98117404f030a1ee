package kernel

import "github.com/s3c/s3c/internal/input"

// fromInput converts one of package input's generic message structs
// into this package's own Msg vocabulary. Kept as a single pure
// function (no import cycle: input never imports kernel) rather than
// sharing types directly.
func fromInput(msg interface{}) interface{} {
	switch v := msg.(type) {
	case input.QuitPressed:
		return QuitMsg{}
	case input.TabPressed:
		return TabPressedMsg{}
	case input.EnterPressed:
		return EnterPressedMsg{}
	case input.BackPressed:
		return BackPressedMsg{}
	case input.CursorMove:
		return CursorMoveMsg{Delta: v.Delta}
	case input.CursorHome:
		return CursorHomeMsg{}
	case input.CursorEnd:
		return CursorEndMsg{}
	case input.CancelTransfer:
		return CancelTransferMsg{}
	case input.ToggleAdvancedMode:
		return ToggleAdvancedModeMsg{}
	case input.CopyPressed:
		return CopyPressedMsg{}
	case input.OpenDialog:
		return OpenDialogMsg{Kind: dialogKindFromInput(v.Kind)}
	case input.DialogChar:
		return DialogCharMsg{Char: v.Char}
	case input.DialogBackspace:
		return DialogBackspaceMsg{}
	case input.DialogSubmit:
		return DialogSubmitMsg{}
	case input.DialogCancel:
		return DialogCancelMsg{}
	case input.DialogUp:
		return DialogUpMsg{}
	case input.DialogDown:
		return DialogDownMsg{}
	case input.DialogLeft:
		return DialogLeftMsg{}
	case input.DialogRight:
		return DialogRightMsg{}
	case input.DialogCancelSelected:
		return DialogCancelSelectedMsg{}
	case input.DialogClearCompleted:
		return DialogClearCompletedMsg{}
	case input.DialogDeleteSelected:
		return DialogDeleteSelectedMsg{}
	}
	return msg
}

func dialogKindFromInput(k input.DialogKind) ModalKind {
	switch k {
	case input.DialogHelp:
		return ModalHelp
	case input.DialogSort:
		return ModalSort
	case input.DialogFilter:
		return ModalFilter
	case input.DialogCreateFolder:
		return ModalCreateFolder
	case input.DialogRename:
		return ModalRename
	case input.DialogDeleteConfirm:
		return ModalDeleteConfirm
	case input.DialogProfileForm:
		return ModalProfileForm
	case input.DialogBucketForm:
		return ModalBucketForm
	case input.DialogQueue:
		return ModalQueue
	default:
		return ModalHelp
	}
}
