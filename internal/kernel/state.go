package kernel

import (
	"time"

	"go.uber.org/zap"

	"github.com/s3c/s3c/internal/config"
	"github.com/s3c/s3c/internal/creds"
	"github.com/s3c/s3c/internal/fsgw"
	"github.com/s3c/s3c/internal/panel"
	"github.com/s3c/s3c/internal/preview"
	"github.com/s3c/s3c/internal/s3gw"
	"github.com/s3c/s3c/internal/transfer"
)

// Model is the root application state (spec §3's top-level State) plus
// the gateway handles the reducer needs to issue commands. It implements
// tea.Model: Init/Update/View are the message loop's three hooks,
// mirroring the teacher's tui.go shape but generalized to a dual-panel
// layout with modal overlays.
type Model struct {
	ConfigDir          string
	Cfg                config.Config
	CredentialProfiles []string

	Panels [2]*panel.State
	Active panel.Side

	Resolver  *creds.Resolver
	Transfers *transfer.Manager
	FS        *fsgw.Gateway

	// s3Gateways holds the bound Gateway per side while that side is
	// inside an S3Browser frame; cleared on Pop back out of the bucket.
	s3Gateways [2]*s3gw.Gateway

	Previews [2]*preview.Preview

	// Modal is, at most, one open dialog; ModalSide names which panel it
	// belongs to (the dialog always operates on the active panel at the
	// time it opened, so this is set once and not reconsulted for
	// active-panel switches while the modal is up).
	Modal     *Modal
	ModalSide panel.Side

	ForegroundJobID string
	// jobRefreshSide records, per submitted transfer Job ID, which panel
	// side to reload once that job completes (its destination panel).
	jobRefreshSide map[string]panel.Side

	Banner        string
	BannerIsError bool
	bannerSetAt   time.Time

	AdvancedMode bool
	Width        int
	Height       int
	Quitting     bool

	Logger *zap.Logger
}

// New builds the initial Model: both panels at ModeSelect, config loaded
// by the caller (cmd/s3c) and passed in.
func New(configDir string, cfg config.Config, credProfiles []string, resolver *creds.Resolver, transfers *transfer.Manager, fs *fsgw.Gateway, logger *zap.Logger) *Model {
	return &Model{
		ConfigDir:          configDir,
		Cfg:                cfg,
		CredentialProfiles: credProfiles,
		Panels:             [2]*panel.State{panel.New(panel.Left), panel.New(panel.Right)},
		Active:             panel.Left,
		Resolver:           resolver,
		Transfers:          transfers,
		FS:                 fs,
		Logger:             logger,
		jobRefreshSide:     make(map[string]panel.Side),
	}
}

func (m *Model) activePanel() *panel.State  { return m.Panels[m.Active] }
func (m *Model) inactivePanel() *panel.State {
	if m.Active == panel.Left {
		return m.Panels[panel.Right]
	}
	return m.Panels[panel.Left]
}

func (m *Model) panelAt(side panel.Side) *panel.State { return m.Panels[side] }

func (m *Model) setBanner(msg string, isError bool) {
	m.Banner = msg
	m.BannerIsError = isError
	m.bannerSetAt = time.Now()
	if isError && m.Logger != nil {
		m.Logger.Error("banner", zap.String("message", msg))
	}
}

// bannerExpiry is how long a non-error banner lingers before the next
// tick clears it (spec §9's "transient status banner, ephemeral").
const bannerExpiry = 5 * time.Second

func (m *Model) tickBanner(now time.Time) {
	if m.Banner == "" || m.BannerIsError {
		return
	}
	if now.Sub(m.bannerSetAt) >= bannerExpiry {
		m.Banner = ""
	}
}
