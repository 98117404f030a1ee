package kernel

import (
	"os"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s3c/s3c/internal/apperr"
	"github.com/s3c/s3c/internal/config"
	"github.com/s3c/s3c/internal/input"
	"github.com/s3c/s3c/internal/model"
	"github.com/s3c/s3c/internal/panel"
	"github.com/s3c/s3c/internal/s3gw"
)

// Init kicks off the two initial ModeSelect listing loads and arms the
// transfer event listeners (spec §4.8).
func (m *Model) Init() tea.Cmd {
	m.Panels[panel.Left].Loading = true
	m.Panels[panel.Right].Loading = true
	return tea.Batch(
		listenTransferProgress(m.Transfers), listenTransferCompletion(m.Transfers),
		m.loadListingCmd(panel.Left), m.loadListingCmd(panel.Right),
	)
}

func (m *Model) View() string {
	return render(m)
}

// Update is the reducer: update(State, Message) -> (State, [Command])
// (spec §4.8), expressed in bubbletea's (Model, Cmd) idiom. It is
// intentionally one big dispatch: the mode/modal combinations it must
// cover are the heart of the application and splitting them into many
// tiny methods hides the control flow the spec is built around.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width, m.Height = v.Width, v.Height
		return m, nil

	case tea.KeyMsg:
		translated := input.Translate(v, m.activeMode(), m.Modal != nil, m.dialogMode())
		if translated == nil {
			return m, nil
		}
		return m.Update(fromInput(translated))

	case EnterPressedMsg:
		return m.handleEnter()
	case BackPressedMsg:
		return m.handleBack()
	case TabPressedMsg:
		if m.Active == panel.Left {
			m.Active = panel.Right
		} else {
			m.Active = panel.Left
		}
		return m, nil
	case FocusPanelMsg:
		m.Active = panel.Side(v.Side)
		return m, nil
	case CursorMoveMsg:
		return m.handleCursorMove(v.Delta)
	case CursorHomeMsg:
		return m.handleCursorHome()
	case CursorEndMsg:
		return m.handleCursorEnd()

	case ListingLoadedMsg:
		return m.handleListingLoaded(v)
	case CredentialsResolvedMsg:
		return m.handleCredentialsResolved(v)
	case PreviewOpenedMsg:
		return m.handlePreviewOpened(v)
	case PreviewChunkLoadedMsg:
		return m.handlePreviewChunkLoaded(v)

	case TransferProgressMsg:
		return m, listenTransferProgress(m.Transfers)
	case TransferCompletedMsg:
		return m.handleTransferCompleted(v)

	case ConfigSavedMsg:
		if v.Err != nil {
			m.setBanner(v.Err.Error(), true)
		}
		return m, nil
	case MkdirDoneMsg:
		return m.handleMutationDone(v.Side, v.Err)
	case DeleteDoneMsg:
		return m.handleMutationDone(v.Side, v.Err)
	case RenameDoneMsg:
		return m.handleMutationDone(v.Side, v.Err)

	case OpenDialogMsg:
		return m.handleOpenDialog(v.Kind)
	case DialogCharMsg:
		m.dialogAppend(string(v.Char))
		return m, nil
	case DialogBackspaceMsg:
		m.dialogBackspace()
		return m, nil
	case DialogUpMsg:
		return m.handleDialogUpDown(-1)
	case DialogDownMsg:
		return m.handleDialogUpDown(1)
	case DialogLeftMsg:
		return m.handleDialogLeftRight(-1)
	case DialogRightMsg:
		return m.handleDialogLeftRight(1)
	case DialogSubmitMsg:
		return m.handleDialogSubmit()
	case DialogCancelMsg:
		m.Modal = nil
		return m, nil
	case DialogCancelSelectedMsg:
		return m.handleQueueCancelSelected()
	case DialogClearCompletedMsg:
		return m.handleQueueClearCompleted()
	case DialogDeleteSelectedMsg:
		return m.handleQueueDeleteSelected()

	case CancelTransferMsg:
		if m.ForegroundJobID != "" {
			m.Transfers.Cancel(m.ForegroundJobID)
		}
		return m, nil

	case ShowBannerMsg:
		m.setBanner(v.Message, v.IsError)
		if !v.IsError {
			return m, clearBannerAfter(bannerExpiry)
		}
		return m, nil
	case ClearBannerMsg:
		m.tickBanner(time.Now())
		return m, nil
	case ToggleAdvancedModeMsg:
		m.AdvancedMode = !m.AdvancedMode
		return m, nil
	case QuitMsg:
		m.Quitting = true
		return m, tea.Quit
	case CopyPressedMsg:
		return m.handleCopy()

	case SuspendForScriptMsg:
		return m.handleSuspendForScript(v)
	case ScriptFinishedMsg:
		return m.handleScriptFinished(v)
	}
	return m, nil
}

// handleSuspendForScript hands the terminal to the profile's setup script
// via tea.ExecProcess, which releases bubbletea's raw mode/alt screen for
// the subprocess's duration and restores them on return (spec §4.2, §5).
func (m *Model) handleSuspendForScript(v SuspendForScriptMsg) (tea.Model, tea.Cmd) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.Command(shell, "-c", v.Script)
	return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
		code := 0
		if err != nil {
			code = 1
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			}
		}
		return ScriptFinishedMsg{
			Side: v.Side, Generation: v.Generation, ExitCode: code, Err: err,
			ProfileName: v.ProfileName, Profile: v.Profile, BucketCfg: v.BucketCfg,
		}
	})
}

func (m *Model) handleScriptFinished(v ScriptFinishedMsg) (tea.Model, tea.Cmd) {
	p := m.panelAt(panel.Side(v.Side))
	if v.Generation != p.Generation {
		return m, nil
	}
	if v.Err != nil {
		p.Loading = false
		m.setBanner(apperr.SetupFailed(v.ExitCode).Error(), true)
		return m, nil
	}
	return m, m.resolveAfterScriptCmd(panel.Side(v.Side), v.Generation, v.Profile, v.BucketCfg)
}

// dialogAppend and dialogBackspace edit whichever text field the open
// Modal currently has focus on: Input for single-field dialogs, or
// Fields[FieldIndex] for the multi-field Profile/Bucket forms.
func (m *Model) dialogAppend(s string) {
	if m.Modal == nil {
		return
	}
	if len(m.Modal.Fields) > 0 {
		m.Modal.Fields[m.Modal.FieldIndex] += s
		return
	}
	m.Modal.Input += s
}

func (m *Model) dialogBackspace() {
	if m.Modal == nil {
		return
	}
	if len(m.Modal.Fields) > 0 {
		f := m.Modal.Fields[m.Modal.FieldIndex]
		if len(f) == 0 {
			return
		}
		r := []rune(f)
		m.Modal.Fields[m.Modal.FieldIndex] = string(r[:len(r)-1])
		return
	}
	if len(m.Modal.Input) == 0 {
		return
	}
	r := []rune(m.Modal.Input)
	m.Modal.Input = string(r[:len(r)-1])
}

// activeMode reports the active panel's current Frame.Kind, translated
// to input.Mode (input.Mode is a deliberately separate type so the input
// package does not need to import panel just to read one field).
func (m *Model) activeMode() input.Mode {
	return input.Mode(m.activePanel().Current().Kind)
}

// dialogMode reports whether the open Modal is the transfer queue
// overlay, the one modal kind whose keys mean something other than text
// entry (input.DialogMode is a deliberately separate type so the input
// package does not need to import kernel's ModalKind).
func (m *Model) dialogMode() input.DialogMode {
	if m.Modal != nil && m.Modal.Kind == ModalQueue {
		return input.DialogModeQueue
	}
	return input.DialogModeDefault
}

// handleEnter dispatches by the active panel's current mode (spec
// §4.7's transition table). A panel already Loading drops further Enter
// presses (spec §4.8 "further Enter presses targeting the same panel
// are dropped until resolution").
func (m *Model) handleEnter() (tea.Model, tea.Cmd) {
	p := m.activePanel()
	if p.Loading {
		return m, nil
	}
	if m.Modal != nil {
		return m.handleDialogSubmit()
	}

	entry, ok := p.SelectedEntry()
	if !ok {
		return m, nil
	}
	frame := p.Current()
	side := m.Active

	switch frame.Kind {
	case panel.ModeSelect:
		return m.enterModeSelect(entry)

	case panel.ProfileList:
		if entry.Kind == model.Up {
			return m, nil
		}
		if entry.Metadata["orphan"] == "1" {
			m.setBanner(apperr.New(apperr.ProfileMissingCredentials, entry.Name).Error(), true)
			return m, nil
		}
		p.Push(panel.Frame{Kind: panel.BucketList, Profile: entry.Name})
		p.Loading = true
		return m, m.loadListingCmd(side)

	case panel.BucketList:
		if entry.Kind == model.Up {
			_, _ = p.Pop()
			return m, nil
		}
		bucket := config.FindBucket(m.Cfg, frame.Profile, entry.Name)
		if bucket == nil {
			m.setBanner("bucket not found in config", true)
			return m, nil
		}
		if resolved := m.Resolver.Get(frame.Profile, bucket.Name); resolved != nil {
			m.s3Gateways[side] = s3gw.New(resolved.Client, bucket.Name)
			p.Push(panel.Frame{Kind: panel.S3Browser, Profile: frame.Profile, Bucket: bucket.Name, Prefix: bucket.BasePrefix})
			p.Loading = true
			return m, m.loadListingCmd(side)
		}
		p.Loading = true
		return m, m.resolveCredentialsCmd(side, frame.Profile, *bucket)

	case panel.S3Browser:
		if entry.Kind == model.Up {
			_, _ = p.Pop()
			if p.Current().Kind == panel.BucketList {
				m.Resolver.Drop(frame.Profile, frame.Bucket)
				m.s3Gateways[side] = nil
				return m, nil
			}
			p.Loading = true
			return m, m.loadListingCmd(side)
		}
		if entry.Kind == model.Directory {
			p.Push(panel.Frame{Kind: panel.S3Browser, Profile: frame.Profile, Bucket: frame.Bucket, Prefix: frame.Prefix + entry.Name + "/"})
			p.Loading = true
			return m, m.loadListingCmd(side)
		}
		p.Push(panel.Frame{Kind: panel.Preview, Profile: frame.Profile, Bucket: frame.Bucket, Prefix: frame.Prefix})
		p.Loading = true
		return m, m.openPreviewCmd(side, entry.Name)

	case panel.LocalRoots:
		if entry.Kind == model.Up {
			return m, nil
		}
		p.Push(panel.Frame{Kind: panel.LocalBrowser, Path: entry.Name})
		p.Loading = true
		return m, m.loadListingCmd(side)

	case panel.LocalBrowser:
		if entry.Kind == model.Up {
			_, _ = p.Pop()
			p.Loading = true
			return m, m.loadListingCmd(side)
		}
		if entry.Kind == model.Directory {
			p.Push(panel.Frame{Kind: panel.LocalBrowser, Path: joinPath(frame.Path, entry.Name)})
			p.Loading = true
			return m, m.loadListingCmd(side)
		}
		p.Push(panel.Frame{Kind: panel.Preview, Path: frame.Path})
		p.Loading = true
		return m, m.openPreviewCmd(side, entry.Name)
	}
	return m, nil
}

// enterModeSelect picks ProfileList vs LocalRoots based on which of the
// two ModeChoice rows the panel has selected (spec.md doesn't name a
// ModeSelect entry list explicitly; SPEC_FULL.md's supplemented design
// gives each panel an independent choice rather than assuming Left is
// always object storage and Right is always local, since the two panels
// are symmetric per spec §3).
func (m *Model) enterModeSelect(entry model.Entry) (tea.Model, tea.Cmd) {
	p := m.activePanel()
	switch entry.Metadata["target"] {
	case "local":
		p.Push(panel.Frame{Kind: panel.LocalRoots})
	default:
		p.Push(panel.Frame{Kind: panel.ProfileList})
	}
	p.Loading = true
	return m, m.loadListingCmd(m.Active)
}

func (m *Model) handleBack() (tea.Model, tea.Cmd) {
	if m.Modal != nil {
		m.Modal = nil
		return m, nil
	}
	p := m.activePanel()
	frame := p.Current()
	if frame.Kind == panel.S3Browser {
		if _, ok := p.Pop(); ok && p.Current().Kind == panel.BucketList {
			m.Resolver.Drop(frame.Profile, frame.Bucket)
			m.s3Gateways[m.Active] = nil
			return m, nil
		}
		p.Loading = true
		return m, m.loadListingCmd(m.Active)
	}
	if _, ok := p.Pop(); ok {
		if p.Current().Kind != panel.ModeSelect {
			p.Loading = true
			return m, m.loadListingCmd(m.Active)
		}
	}
	return m, nil
}

// handleCursorMove advances the panel cursor, or for an open Preview
// advances CursorLine and, when the move runs past the last loaded
// visual line, issues a fetch for the next chunk (spec §4.5 "Scroll
// down past the last loaded byte").
func (m *Model) handleCursorMove(delta int) (tea.Model, tea.Cmd) {
	p := m.activePanel()
	if p.Current().Kind == panel.Preview {
		prev := m.Previews[m.Active]
		if prev == nil {
			return m, nil
		}
		prev.CursorLine += delta
		if prev.CursorLine < 0 {
			prev.CursorLine = 0
		}
		total := prev.TotalVisualLines()
		if prev.CursorLine >= len(prev.VisualLines())-1 && !prev.TailLoaded {
			return m, m.loadMorePreviewCmd(m.Active)
		}
		if prev.CursorLine <= 0 && !prev.HeadLoaded {
			return m, m.loadPreviousPreviewCmd(m.Active)
		}
		if prev.CursorLine >= total {
			prev.CursorLine = total - 1
		}
		return m, nil
	}
	p.MoveCursor(delta)
	return m, nil
}

func (m *Model) handleCursorHome() (tea.Model, tea.Cmd) {
	p := m.activePanel()
	if p.Current().Kind == panel.Preview {
		return m, m.previewHomeCmd(m.Active)
	}
	p.MoveCursor(-len(p.Filtered()))
	return m, nil
}

func (m *Model) handleCursorEnd() (tea.Model, tea.Cmd) {
	p := m.activePanel()
	if p.Current().Kind == panel.Preview {
		return m, m.previewEndCmd(m.Active)
	}
	p.MoveCursor(len(p.Filtered()))
	return m, nil
}

func (m *Model) handleListingLoaded(v ListingLoadedMsg) (tea.Model, tea.Cmd) {
	side := panel.Side(v.Side)
	p := m.panelAt(side)
	if v.Generation != p.Generation {
		return m, nil // stale, spec §5/§8
	}
	p.Loading = false
	if v.Err != nil {
		m.setBanner(v.Err.Error(), true)
		return m, nil
	}
	p.SetListing(v.Listing)
	return m, nil
}

func (m *Model) handleCredentialsResolved(v CredentialsResolvedMsg) (tea.Model, tea.Cmd) {
	side := panel.Side(v.Side)
	p := m.panelAt(side)
	if v.Generation != p.Generation {
		return m, nil
	}
	p.Loading = false
	if v.Err != nil {
		m.setBanner(v.Err.Error(), true)
		return m, nil
	}
	m.s3Gateways[side] = v.Gateway
	p.Push(panel.Frame{Kind: panel.S3Browser, Profile: v.ProfileName, Bucket: v.BucketCfg.Name, Prefix: v.BucketCfg.BasePrefix})
	p.Loading = true
	return m, m.loadListingCmd(side)
}

func (m *Model) handlePreviewOpened(v PreviewOpenedMsg) (tea.Model, tea.Cmd) {
	side := panel.Side(v.Side)
	p := m.panelAt(side)
	if v.Generation != p.Generation {
		return m, nil
	}
	p.Loading = false
	if v.Err != nil {
		m.setBanner(v.Err.Error(), true)
		_, _ = p.Pop()
		return m, nil
	}
	m.Previews[side] = v.Preview
	return m, nil
}

func (m *Model) handlePreviewChunkLoaded(v PreviewChunkLoadedMsg) (tea.Model, tea.Cmd) {
	side := panel.Side(v.Side)
	p := m.panelAt(side)
	if v.Generation != p.Generation {
		return m, nil
	}
	if v.Err != nil {
		m.setBanner(v.Err.Error(), true)
	}
	if v.Preview != nil {
		m.Previews[side] = v.Preview
	}
	return m, nil
}

func (m *Model) handleTransferCompleted(v TransferCompletedMsg) (tea.Model, tea.Cmd) {
	side, hasRefresh := m.jobRefreshSide[v.JobID]
	delete(m.jobRefreshSide, v.JobID)

	isErr := v.Err != nil
	switch {
	case apperr.Is(v.Err, apperr.Canceled):
		m.setBanner("transfer canceled", false)
		isErr = false
	case isErr:
		m.setBanner(v.Err.Error(), true)
	default:
		m.setBanner("transfer complete", false)
	}
	if m.ForegroundJobID == v.JobID {
		m.ForegroundJobID = ""
	}

	cmds := []tea.Cmd{listenTransferCompletion(m.Transfers)}
	if hasRefresh {
		p := m.panelAt(side)
		p.Loading = true
		cmds = append(cmds, m.loadListingCmd(side))
	}
	if !isErr {
		cmds = append(cmds, clearBannerAfter(bannerExpiry))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleMutationDone(sideInt int, err error) (tea.Model, tea.Cmd) {
	side := panel.Side(sideInt)
	p := m.panelAt(side)
	m.Modal = nil
	if err != nil {
		m.setBanner(err.Error(), true)
		return m, nil
	}
	p.Loading = true
	return m, m.loadListingCmd(side)
}
