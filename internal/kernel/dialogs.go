package kernel

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go.uber.org/zap"

	"github.com/s3c/s3c/internal/config"
	"github.com/s3c/s3c/internal/model"
	"github.com/s3c/s3c/internal/panel"
	"github.com/s3c/s3c/internal/transfer"
)

// handleOpenDialog builds the right Modal for the requested kind given
// the active panel's current mode and selection (SPEC_FULL.md's
// supplemented Sort/Delete/Create/Rename dialogs, F2/F6/F7/F8 in §6's
// key table).
func (m *Model) handleOpenDialog(kind ModalKind) (tea.Model, tea.Cmd) {
	p := m.activePanel()
	frame := p.Current()

	switch kind {
	case ModalHelp:
		m.Modal = &Modal{Kind: ModalHelp}
		m.ModalSide = m.Active
		return m, nil

	case ModalSort:
		m.Modal = newSortModal(p.Sort)
		m.ModalSide = m.Active
		return m, nil

	case ModalFilter:
		m.Modal = newFilterModal(p.Filter)
		m.ModalSide = m.Active
		return m, nil

	case ModalQueue:
		m.Modal = &Modal{Kind: ModalQueue, QueueCursor: 0}
		m.ModalSide = m.Active
		return m, nil

	case ModalCreateFolder:
		switch frame.Kind {
		case panel.S3Browser, panel.LocalBrowser:
			m.Modal = newCreateFolderModal()
			m.ModalSide = m.Active
		case panel.BucketList:
			m.Modal = newBucketFormModal("", []string{"", "", "", ""})
			m.ModalSide = m.Active
		}
		return m, nil

	case ModalRename:
		entry, ok := p.SelectedEntry()
		if !ok || entry.Kind == model.Up {
			return m, nil
		}
		if frame.Kind == panel.S3Browser || frame.Kind == panel.LocalBrowser {
			m.Modal = newRenameModal(entry.Name)
			m.ModalSide = m.Active
		}
		return m, nil

	case ModalDeleteConfirm:
		entry, ok := p.SelectedEntry()
		if !ok || entry.Kind == model.Up {
			return m, nil
		}
		if frame.Kind == panel.S3Browser || frame.Kind == panel.LocalBrowser || frame.Kind == panel.BucketList {
			m.Modal = newDeleteConfirmModal(entry.Name)
			m.ModalSide = m.Active
		}
		return m, nil

	case ModalProfileForm:
		if frame.Kind != panel.ProfileList {
			return m, nil
		}
		entry, ok := p.SelectedEntry()
		if ok && entry.Kind != model.Up {
			prof := config.FindProfile(m.Cfg, entry.Name)
			if prof != nil {
				m.Modal = newProfileFormModal(prof.Name, []string{prof.Name, prof.Description, prof.SetupScript})
				m.ModalSide = m.Active
				return m, nil
			}
		}
		m.Modal = newProfileFormModal("", []string{"", "", ""})
		m.ModalSide = m.Active
		return m, nil

	case ModalBucketForm:
		if frame.Kind != panel.BucketList {
			return m, nil
		}
		entry, ok := p.SelectedEntry()
		if ok && entry.Kind != model.Up {
			b := config.FindBucket(m.Cfg, frame.Profile, entry.Name)
			if b != nil {
				m.Modal = newBucketFormModal(b.Name, []string{b.Name, b.Region, b.BasePrefix, b.Description})
				m.ModalSide = m.Active
				return m, nil
			}
		}
		m.Modal = newBucketFormModal("", []string{"", "", "", ""})
		m.ModalSide = m.Active
		return m, nil
	}
	return m, nil
}

// handleDialogUpDown cycles the Sort dialog's direction, or moves focus
// between a form's fields.
func (m *Model) handleDialogUpDown(delta int) (tea.Model, tea.Cmd) {
	if m.Modal == nil {
		return m, nil
	}
	switch m.Modal.Kind {
	case ModalSort:
		if m.Modal.SortDir == model.Asc {
			m.Modal.SortDir = model.Desc
		} else {
			m.Modal.SortDir = model.Asc
		}
	case ModalProfileForm, ModalBucketForm:
		m.cycleField(delta)
	case ModalQueue:
		m.moveQueueCursor(delta)
	}
	return m, nil
}

// moveQueueCursor clamps the queue overlay's selection to the current
// job count (QueueNavigateUp/Down, SUPPLEMENTED FEATURES).
func (m *Model) moveQueueCursor(delta int) {
	n := len(m.Transfers.All())
	if n == 0 {
		m.Modal.QueueCursor = 0
		return
	}
	c := m.Modal.QueueCursor + delta
	if c < 0 {
		c = 0
	}
	if c > n-1 {
		c = n - 1
	}
	m.Modal.QueueCursor = c
}

// handleQueueCancelSelected cancels whichever job the queue cursor is on
// (DeleteFromQueue's cancel-in-place cousin: "x" inside the overlay,
// distinct from CancelTransferMsg's foreground-job-only "x" outside it).
func (m *Model) handleQueueCancelSelected() (tea.Model, tea.Cmd) {
	jobs := m.Transfers.All()
	if m.Modal.QueueCursor < len(jobs) {
		m.Transfers.Cancel(jobs[m.Modal.QueueCursor].ID)
	}
	return m, nil
}

// handleQueueClearCompleted drops every Done/Failed job from the queue
// (ClearCompletedTransfers, SUPPLEMENTED FEATURES).
func (m *Model) handleQueueClearCompleted() (tea.Model, tea.Cmd) {
	m.Transfers.ClearCompleted()
	m.moveQueueCursor(0)
	return m, nil
}

// handleQueueDeleteSelected removes the job under the cursor from the
// queue's bookkeeping regardless of its state (DeleteFromQueue,
// SUPPLEMENTED FEATURES).
func (m *Model) handleQueueDeleteSelected() (tea.Model, tea.Cmd) {
	jobs := m.Transfers.All()
	if m.Modal.QueueCursor < len(jobs) {
		m.Transfers.Remove(jobs[m.Modal.QueueCursor].ID)
	}
	m.moveQueueCursor(0)
	return m, nil
}

// handleDialogLeftRight cycles the Sort dialog's field, or moves form
// focus the same as up/down (so either arrow pair works on a form).
func (m *Model) handleDialogLeftRight(delta int) (tea.Model, tea.Cmd) {
	if m.Modal == nil {
		return m, nil
	}
	switch m.Modal.Kind {
	case ModalSort:
		n := int(model.SortDate) + 1
		f := (int(m.Modal.SortField) + delta + n) % n
		m.Modal.SortField = model.SortField(f)
	case ModalProfileForm, ModalBucketForm:
		m.cycleField(delta)
	}
	return m, nil
}

func (m *Model) cycleField(delta int) {
	n := len(m.Modal.Fields)
	if n > 0 {
		m.Modal.FieldIndex = ((m.Modal.FieldIndex + delta) + n) % n
	}
}

// handleDialogSubmit applies whichever modal is open (SPEC_FULL.md's
// supplemented dialogs), persisting Config mutations and issuing
// gateway mutation commands as appropriate.
func (m *Model) handleDialogSubmit() (tea.Model, tea.Cmd) {
	if m.Modal == nil {
		return m, nil
	}
	side := m.ModalSide
	modal := m.Modal

	switch modal.Kind {
	case ModalHelp, ModalQueue:
		m.Modal = nil
		return m, nil

	case ModalSort:
		m.panelAt(side).SetSort(model.SortKey{Field: modal.SortField, Dir: modal.SortDir})
		m.Modal = nil
		return m, nil

	case ModalFilter:
		m.panelAt(side).SetFilter(modal.Input)
		m.Modal = nil
		return m, nil

	case ModalCreateFolder:
		m.Modal = nil
		if modal.Input == "" {
			return m, nil
		}
		return m, m.mkdirCmd(side, modal.Input)

	case ModalRename:
		m.Modal = nil
		entry, ok := m.panelAt(side).SelectedEntry()
		if !ok || modal.Input == "" {
			return m, nil
		}
		return m, m.renameCmd(side, entry, modal.Input)

	case ModalDeleteConfirm:
		m.Modal = nil
		frame := m.panelAt(side).Current()
		if frame.Kind == panel.BucketList {
			m.Cfg = config.RemoveBucket(m.Cfg, frame.Profile, modal.PendingDeleteName)
			return m, m.saveConfigCmd()
		}
		entry, ok := m.panelAt(side).SelectedEntry()
		if !ok {
			return m, nil
		}
		return m, m.deleteCmd(side, entry)

	case ModalProfileForm:
		m.Modal = nil
		if len(modal.Fields) < 3 || modal.Fields[0] == "" {
			return m, nil
		}
		m.Cfg = config.AddOrReplaceProfile(m.Cfg, config.Profile{
			Name: modal.Fields[0], Description: modal.Fields[1], SetupScript: modal.Fields[2],
		})
		p := m.panelAt(side)
		p.Loading = true
		return m, tea.Batch(m.saveConfigCmd(), m.loadListingCmd(side))

	case ModalBucketForm:
		m.Modal = nil
		if len(modal.Fields) < 4 || modal.Fields[0] == "" || modal.Fields[1] == "" {
			return m, nil
		}
		frame := m.panelAt(side).Current()
		m.Cfg = config.AddOrReplaceBucket(m.Cfg, frame.Profile, config.Bucket{
			Name: modal.Fields[0], Region: modal.Fields[1], BasePrefix: modal.Fields[2], Description: modal.Fields[3],
		})
		p := m.panelAt(side)
		p.Loading = true
		return m, tea.Batch(m.saveConfigCmd(), m.loadListingCmd(side))
	}
	return m, nil
}

// handleCopy submits a transfer job from the active panel's selected
// entry to the inactive panel's current location (spec §4.6, §4.7).
func (m *Model) handleCopy() (tea.Model, tea.Cmd) {
	src := m.activePanel()
	dst := m.inactivePanel()
	entry, ok := src.SelectedEntry()
	if !ok || entry.Kind == model.Up || entry.Kind == model.Directory {
		return m, nil // Non-goal: directory/recursive copy and S3<->S3 are out of scope
	}
	srcFrame := src.Current()
	dstFrame := dst.Current()

	switch {
	case srcFrame.Kind == panel.S3Browser && dstFrame.Kind == panel.LocalBrowser:
		return m.submitDownload(entry, srcFrame, dstFrame)
	case srcFrame.Kind == panel.LocalBrowser && dstFrame.Kind == panel.S3Browser:
		return m.submitUpload(entry, srcFrame, dstFrame)
	default:
		m.setBanner("copy requires one S3 panel and one filesystem panel", true)
		return m, nil
	}
}

func (m *Model) submitDownload(entry model.Entry, srcFrame, dstFrame panel.Frame) (tea.Model, tea.Cmd) {
	srcSide := m.Active
	destSide := otherSide(m.Active)
	gw := m.s3Gateways[srcSide]
	key := srcFrame.Prefix + entry.Name
	destPath := joinPath(dstFrame.Path, entry.Name)

	job := m.Transfers.Submit(context.Background(), transfer.Down, key, destPath, entry.Size,
		func(ctx context.Context, job *transfer.Job, report func(int64)) error {
			src := &s3StreamReader{ctx: ctx, gw: gw, key: key, size: entry.Size}
			return m.FS.Write(ctx, destPath, transfer.WithCancel(ctx, src), report)
		})
	m.jobRefreshSide[job.ID] = destSide
	m.ForegroundJobID = job.ID
	m.setBanner("downloading "+entry.Name, false)
	if m.Logger != nil {
		m.Logger.Info("transfer submitted", zap.String("job_id", job.ID), zap.String("direction", "download"), zap.String("key", key), zap.Int64("size", entry.Size))
	}
	return m, nil
}

func (m *Model) submitUpload(entry model.Entry, srcFrame, dstFrame panel.Frame) (tea.Model, tea.Cmd) {
	destSide := otherSide(m.Active)
	gw := m.s3Gateways[destSide]
	srcPath := joinPath(srcFrame.Path, entry.Name)
	destKey := dstFrame.Prefix + entry.Name

	job := m.Transfers.Submit(context.Background(), transfer.Up, srcPath, destKey, entry.Size,
		func(ctx context.Context, job *transfer.Job, report func(int64)) error {
			f, err := os.Open(srcPath)
			if err != nil {
				return err
			}
			defer f.Close()
			return gw.Put(ctx, destKey, transfer.WithCancel(ctx, f), entry.Size, report)
		})
	m.jobRefreshSide[job.ID] = destSide
	m.ForegroundJobID = job.ID
	m.setBanner("uploading "+entry.Name, false)
	if m.Logger != nil {
		m.Logger.Info("transfer submitted", zap.String("job_id", job.ID), zap.String("direction", "upload"), zap.String("key", destKey), zap.Int64("size", entry.Size))
	}
	return m, nil
}

func otherSide(s panel.Side) panel.Side {
	if s == panel.Left {
		return panel.Right
	}
	return panel.Left
}
