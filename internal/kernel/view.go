package kernel

import (
	"fmt"
	"strings"

	"github.com/s3c/s3c/internal/model"
	"github.com/s3c/s3c/internal/panel"
	"github.com/s3c/s3c/internal/transfer"
	"github.com/s3c/s3c/internal/ui"
)

// render projects the Model to a ui.Frame and delegates to ui.Render
// (spec §4.9). Kept as a free function, not a Model method named View,
// so kernel_test.go can exercise frame construction without dragging in
// an actual terminal.
func render(m *Model) string {
	return ui.Render(m.toFrame())
}

func (m *Model) toFrame() ui.Frame {
	f := ui.Frame{
		Width: m.Width, Height: m.Height,
		Banner: m.Banner, BannerIsError: m.BannerIsError,
		AdvancedMode: m.AdvancedMode,
	}
	f.Left = m.toPanelView(panel.Left)
	f.Right = m.toPanelView(panel.Right)
	f.FooterLabels = footerLabels(m.activePanel().Current().Kind)

	if m.Modal != nil {
		f.ModalVisible = true
		f.ModalTitle, f.ModalBody = renderModal(m)
	}
	return f
}

func (m *Model) toPanelView(side panel.Side) ui.PanelView {
	p := m.panelAt(side)
	frame := p.Current()
	pv := ui.PanelView{
		Title:      titleFor(frame.Kind),
		Breadcrumb: breadcrumbFor(frame),
		Entries:    p.Filtered(),
		Cursor:     p.Cursor,
		Active:     m.Active == side,
		Loading:    p.Loading,
		Filter:     p.Filter,
	}
	if frame.Kind == panel.Preview {
		if prev := m.Previews[side]; prev != nil {
			pv.IsPreview = true
			pv.PreviewText = prev.VisualLines()
			pv.PreviewLine = prev.CursorLine
		}
	}
	return pv
}

func titleFor(k panel.Kind) string {
	switch k {
	case panel.ModeSelect:
		return "s3c"
	case panel.ProfileList:
		return "profiles"
	case panel.BucketList:
		return "buckets"
	case panel.S3Browser:
		return "s3"
	case panel.LocalRoots:
		return "drives"
	case panel.LocalBrowser:
		return "local"
	case panel.Preview:
		return "preview"
	default:
		return ""
	}
}

func breadcrumbFor(f panel.Frame) string {
	switch f.Kind {
	case panel.BucketList:
		return f.Profile
	case panel.S3Browser, panel.Preview:
		if f.Bucket != "" {
			return f.Bucket + "/" + f.Prefix
		}
		return f.Path
	case panel.LocalBrowser:
		return f.Path
	default:
		return ""
	}
}

// footerLabels maps the active panel's mode to the ten F-key labels per
// spec §6's key table. LocalRoots (drive selection) is treated like the
// Profile column minus Edit, since drives can't be renamed/deleted.
func footerLabels(mode panel.Kind) [10]string {
	switch mode {
	case panel.ModeSelect:
		return [10]string{"Help", "", "", "", "", "", "", "", "Advanced", "Quit"}
	case panel.ProfileList:
		return [10]string{"Help", "Sort", "Edit", "Filter", "", "", "", "", "Advanced", "Quit"}
	case panel.BucketList:
		return [10]string{"Help", "Sort", "Edit", "Filter", "", "", "Create", "Delete", "Advanced", "Quit"}
	case panel.S3Browser:
		return [10]string{"Help", "Sort", "View", "Filter", "Copy", "Rename", "Mkdir", "Delete", "Advanced", "Quit"}
	case panel.LocalRoots:
		return [10]string{"Help", "Sort", "", "Filter", "", "", "", "", "Advanced", "Quit"}
	case panel.LocalBrowser:
		return [10]string{"Help", "Sort", "View", "Filter", "Copy", "Rename", "Mkdir", "Delete", "Advanced", "Quit"}
	case panel.Preview:
		return [10]string{"Help", "", "", "", "", "", "", "", "", "Quit"}
	default:
		return [10]string{}
	}
}

func renderModal(model *Model) (title, body string) {
	m := model.Modal
	switch m.Kind {
	case ModalHelp:
		return "Help", helpText()
	case ModalSort:
		return "Sort", sortFieldName(m.SortField) + "  " + sortDirName(m.SortDir) + "\n\n←/→ field  ↑/↓/tab direction  enter apply"
	case ModalFilter:
		return "Filter", m.Input + "_"
	case ModalCreateFolder:
		return "New folder", m.Input + "_"
	case ModalRename:
		return "Rename", m.Input + "_"
	case ModalDeleteConfirm:
		return "Delete?", "Delete \"" + m.PendingDeleteName + "\"? enter to confirm, esc to cancel"
	case ModalProfileForm:
		return "Profile", renderFormFields([]string{"name", "description", "setup script"}, m.Fields, m.FieldIndex)
	case ModalBucketForm:
		return "Bucket", renderFormFields([]string{"name", "region", "base prefix", "description"}, m.Fields, m.FieldIndex)
	case ModalQueue:
		return "Transfers", renderQueue(model)
	default:
		return "", ""
	}
}

// renderQueue lists every submitted Job (SPEC_FULL.md's supplemented
// transfer-queue overlay, grounded in original_source's operations/queue.rs),
// not just the single foregrounded one the status line tracks. The
// cursor (>) marks the row QueueNavigateUp/Down, x, c, and d act on.
func renderQueue(m *Model) string {
	jobs := m.Transfers.All()
	if len(jobs) == 0 {
		return "no transfers yet\n\nenter/esc close"
	}
	var b strings.Builder
	for i, j := range jobs {
		marker := "   "
		if i == m.Modal.QueueCursor {
			marker = " > "
		}
		fg := " "
		if j.ID == m.ForegroundJobID {
			fg = "*"
		}
		pct := 0
		if j.TotalBytes > 0 {
			pct = int(j.TransferredBytes * 100 / j.TotalBytes)
		}
		fmt.Fprintf(&b, "%s%s%-10s %3d%%  %s\n", marker, fg, jobStateName(j.State), pct, j.Dst)
	}
	b.WriteString("\nup/down move   x cancel   d delete   c clear completed   enter/esc close")
	return b.String()
}

func jobStateName(s transfer.State) string {
	switch s {
	case transfer.Queued:
		return "queued"
	case transfer.Running:
		return "running"
	case transfer.Cancelling:
		return "canceling"
	case transfer.Done:
		return "done"
	case transfer.Failed:
		return "failed"
	default:
		return "?"
	}
}

func renderFormFields(labels, values []string, focus int) string {
	out := ""
	for i, l := range labels {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		marker := "  "
		if i == focus {
			marker = "> "
		}
		out += marker + l + ": " + v + "\n"
	}
	return out
}

func sortFieldName(f model.SortField) string {
	switch f {
	case model.SortSize:
		return "Size"
	case model.SortDate:
		return "Date"
	default:
		return "Name"
	}
}

func sortDirName(d model.SortDirection) string {
	if d == model.Desc {
		return "Desc"
	}
	return "Asc"
}

func helpText() string {
	return "Tab switch panel   Enter open   Esc/Backspace back\n" +
		"F1 help  F2 sort  F3 edit/view  F4 filter\n" +
		"F5 copy  F6 rename  F7 create  F8 delete\n" +
		"F9 advanced  F10 quit   x cancel transfer"
}
