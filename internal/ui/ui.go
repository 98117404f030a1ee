// Package ui implements the View Renderer (spec §4.9): a pure
// projection of kernel state to a terminal frame, styled with
// lipgloss in the teacher's minimalistic palette
// (_examples/slmtnm-s4/tui.go's titleStyle/selectedStyle/etc.), column
// layout and truncation grounded in the same file's renderBrowser.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/s3c/s3c/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("#00aaff"))

	inactivePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("#555555"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Reverse(true)

	directoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0066cc")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbbbbb"))

	orphanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffffff")).
				Background(lipgloss.Color("#990000")).
				Padding(0, 1)

	okBannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#006600")).
			Padding(0, 1)

	footerKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#444444"))

	footerLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#cccccc"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00aaff")).
			Padding(1, 2)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Italic(true)
)

// PanelView is everything the renderer needs about one panel, decoupled
// from kernel.Model's concrete types so this package stays a leaf with
// no dependency on package kernel (kernel depends on ui, not the
// reverse).
type PanelView struct {
	Title       string
	Breadcrumb  string
	Entries     model.Listing
	Cursor      int
	Active      bool
	Loading     bool
	Filter      string
	PreviewText []string
	PreviewLine int
	IsPreview   bool
}

// Frame is the full renderable state (spec §4.9's "frame primitives").
type Frame struct {
	Width, Height int
	Left, Right   PanelView
	Banner        string
	BannerIsError bool
	FooterLabels  [10]string
	ModalTitle    string
	ModalBody     string
	ModalVisible  bool
	AdvancedMode  bool
}

// Render projects a Frame to a terminal string.
func Render(f Frame) string {
	header := titleStyle.Render(" s3c ")
	if f.AdvancedMode {
		header += lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00")).Render(" [advanced]")
	}

	panelWidth := (f.Width - 4) / 2
	if panelWidth < 20 {
		panelWidth = 20
	}
	panelHeight := f.Height - 4
	if panelHeight < 5 {
		panelHeight = 5
	}

	left := renderPanel(f.Left, panelWidth, panelHeight)
	right := renderPanel(f.Right, panelWidth, panelHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	banner := renderBanner(f.Banner, f.BannerIsError)
	footer := renderFooter(f.FooterLabels)

	view := lipgloss.JoinVertical(lipgloss.Left, header, body, banner, footer)

	if f.ModalVisible {
		modal := modalStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render(f.ModalTitle), "", f.ModalBody))
		return lipgloss.Place(f.Width, f.Height, lipgloss.Center, lipgloss.Center, modal)
	}
	return view
}

func renderPanel(p PanelView, width, height int) string {
	style := inactivePanelStyle
	if p.Active {
		style = activePanelStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", truncate(p.Title+" "+p.Breadcrumb, width-2))
	if p.Filter != "" {
		fmt.Fprintf(&b, "filter: %s\n", truncate(p.Filter, width-2))
	}

	switch {
	case p.IsPreview:
		renderPreviewBody(&b, p, width, height)
	case p.Loading:
		b.WriteString(loadingStyle.Render("loading..."))
	default:
		renderEntries(&b, p, width, height)
	}

	return style.Width(width).Height(height).Render(b.String())
}

func renderEntries(b *strings.Builder, p PanelView, width, height int) {
	nameWidth := width - 20
	if nameWidth < 8 {
		nameWidth = 8
	}
	rows := height - 2
	if rows < 1 {
		rows = 1
	}
	start := 0
	if p.Cursor >= rows {
		start = p.Cursor - rows + 1
	}
	end := start + rows
	if end > len(p.Entries) {
		end = len(p.Entries)
	}
	for i := start; i < end; i++ {
		e := p.Entries[i]
		line := formatEntry(e, nameWidth)
		if i == p.Cursor && p.Active {
			line = selectedStyle.Render(line)
		} else {
			line = styleForEntry(e).Render(line)
		}
		fmt.Fprintln(b, line)
	}
}

func formatEntry(e model.Entry, nameWidth int) string {
	name := e.Name
	if e.Kind == model.Directory || e.Kind == model.Bucket {
		name += "/"
	}
	name = truncate(name, nameWidth)
	size := ""
	if e.HasSize {
		size = humanize.Bytes(uint64(e.Size))
	}
	mtime := ""
	if e.HasMTime {
		mtime = e.MTime.Format("2006-01-02 15:04")
	}
	if e.Metadata != nil && e.Metadata["orphan"] == "1" {
		name += " (no credentials)"
	}
	return fmt.Sprintf("%-*s %8s  %s", nameWidth, name, size, mtime)
}

func styleForEntry(e model.Entry) lipgloss.Style {
	switch e.Kind {
	case model.Directory, model.Bucket:
		return directoryStyle
	case model.Profile:
		if e.Metadata != nil && e.Metadata["orphan"] == "1" {
			return orphanStyle
		}
		return fileStyle
	default:
		return fileStyle
	}
}

func renderPreviewBody(b *strings.Builder, p PanelView, width, height int) {
	rows := height - 2
	if rows < 1 {
		rows = 1
	}
	start := p.PreviewLine - rows/2
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > len(p.PreviewText) {
		end = len(p.PreviewText)
		start = end - rows
		if start < 0 {
			start = 0
		}
	}
	for i := start; i < end; i++ {
		line := p.PreviewText[i]
		if i == p.PreviewLine {
			line = selectedStyle.Render(line)
		}
		fmt.Fprintln(b, line)
	}
}

func renderBanner(msg string, isError bool) string {
	if msg == "" {
		return ""
	}
	if isError {
		return errorBannerStyle.Render(msg)
	}
	return okBannerStyle.Render(msg)
}

func renderFooter(labels [10]string) string {
	var parts []string
	for i, label := range labels {
		if label == "" {
			continue
		}
		parts = append(parts, footerKeyStyle.Render(fmt.Sprintf("F%d", i+1))+footerLabelStyle.Render(" "+label))
	}
	return strings.Join(parts, "  ")
}

// truncate ellipsis-truncates s to fit width display columns, measured
// with runewidth so wide runes don't overrun the column (spec §4.9).
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, width-1, "") + "…"
}

// FormatElapsed returns the time elapsed since since, rounded to whole
// seconds.
func FormatElapsed(since time.Time) string {
	d := time.Since(since).Round(time.Second)
	return d.String()
}
