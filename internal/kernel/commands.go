package kernel

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s3c/s3c/internal/config"
	"github.com/s3c/s3c/internal/fsgw"
	"github.com/s3c/s3c/internal/model"
	"github.com/s3c/s3c/internal/panel"
	"github.com/s3c/s3c/internal/preview"
	"github.com/s3c/s3c/internal/s3gw"
	"github.com/s3c/s3c/internal/transfer"
)

// loadListingCmd dispatches to the S3 or filesystem gateway depending on
// the panel's current Frame.Kind, tagging the result with the
// generation the request was issued under so a stale reply can be
// dropped by the reducer (spec §5, §8).
func (m *Model) loadListingCmd(side panel.Side) tea.Cmd {
	p := m.panelAt(side)
	frame := p.Current()
	gen := p.Generation

	switch frame.Kind {
	case panel.ModeSelect:
		entries := model.Listing{
			{Name: "Object Storage", Kind: model.ModeChoice, Metadata: map[string]string{"target": "s3"}},
			{Name: "Local Filesystem", Kind: model.ModeChoice, Metadata: map[string]string{"target": "local"}},
		}
		return func() tea.Msg {
			return ListingLoadedMsg{Side: int(side), Generation: gen, Listing: entries}
		}
	case panel.ProfileList:
		entries := profileListing(m.Cfg, m.CredentialProfiles)
		return func() tea.Msg {
			return ListingLoadedMsg{Side: int(side), Generation: gen, Listing: entries}
		}
	case panel.BucketList:
		prof := config.FindProfile(m.Cfg, frame.Profile)
		var buckets []model.Entry
		if prof != nil {
			for _, b := range prof.Buckets {
				buckets = append(buckets, model.Entry{Name: b.Name, Kind: model.Bucket})
			}
		}
		entries := model.WithUp(buckets, true)
		return func() tea.Msg {
			return ListingLoadedMsg{Side: int(side), Generation: gen, Listing: entries}
		}
	case panel.S3Browser:
		gw := m.s3Gateways[side]
		if gw == nil {
			return func() tea.Msg {
				return ListingLoadedMsg{Side: int(side), Generation: gen, Err: errNoGateway}
			}
		}
		prefix := frame.Prefix
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			entries, err := gw.List(ctx, prefix)
			if err == nil {
				entries = model.WithUp(entries, true)
			}
			return ListingLoadedMsg{Side: int(side), Generation: gen, Listing: entries, Err: err}
		}
	case panel.LocalRoots:
		return func() tea.Msg {
			entries, err := m.FS.List(context.Background(), fsgw.PseudoRoot)
			return ListingLoadedMsg{Side: int(side), Generation: gen, Listing: entries, Err: err}
		}
	case panel.LocalBrowser:
		path := frame.Path
		return func() tea.Msg {
			entries, err := m.FS.List(context.Background(), path)
			return ListingLoadedMsg{Side: int(side), Generation: gen, Listing: entries, Err: err}
		}
	default:
		return nil
	}
}

var errNoGateway = errKind("no active bucket connection")

type errKind string

func (e errKind) Error() string { return string(e) }

// profileListing turns the union of credentials-file and config-only
// profiles into a Listing, tagging orphans in Metadata for the renderer.
func profileListing(cfg config.Config, credProfiles []string) model.Listing {
	entries := config.ProfileEntries(cfg, credProfiles)
	out := make(model.Listing, 0, len(entries))
	for _, e := range entries {
		meta := map[string]string{}
		if e.Orphan {
			meta["orphan"] = "1"
		}
		out = append(out, model.Entry{Name: e.Name, Kind: model.Profile, Metadata: meta})
	}
	return out
}

func bucketBasePrefix(cfg config.Config, profileName, bucketName string) string {
	b := config.FindBucket(cfg, profileName, bucketName)
	if b == nil {
		return ""
	}
	return b.BasePrefix
}

// resolveCredentialsCmd runs the full setup-script + role-chain algorithm
// (creds.Resolver.Resolve) and reports the result. Intermediate
// role-chain steps are not surfaced as separate reducer round-trips; the panel shows a single
// "resolving credentials" loading state for the whole operation.
func (m *Model) resolveCredentialsCmd(side panel.Side, profileName string, bucket config.Bucket) tea.Cmd {
	gen := m.panelAt(side).Generation
	prof := config.FindProfile(m.Cfg, profileName)
	if prof == nil {
		prof = &config.Profile{Name: profileName}
	}
	p := *prof
	if p.SetupScript != "" {
		return func() tea.Msg {
			return SuspendForScriptMsg{Side: int(side), Generation: gen, Script: p.SetupScript, ProfileName: profileName, Profile: p, BucketCfg: bucket}
		}
	}
	return m.resolveAfterScriptCmd(side, gen, p, bucket)
}

// resolveAfterScriptCmd runs the rest of the Credential Resolver algorithm
// (AWS config load + role chain) once any setup script has already run.
// It clears Profile.SetupScript on its local copy so Resolver.Resolve
// doesn't run the script a second time.
func (m *Model) resolveAfterScriptCmd(side panel.Side, gen int, p config.Profile, bucket config.Bucket) tea.Cmd {
	p.SetupScript = ""
	resolver := m.Resolver
	return func() tea.Msg {
		resolved, err := resolver.Resolve(context.Background(), p, bucket)
		if err != nil {
			return CredentialsResolvedMsg{Side: int(side), Generation: gen, ProfileName: p.Name, BucketCfg: bucket, Err: err}
		}
		gw := s3gw.New(resolved.Client, bucket.Name)
		return CredentialsResolvedMsg{Side: int(side), Generation: gen, ProfileName: p.Name, BucketCfg: bucket, Gateway: gw}
	}
}

// openPreviewCmd heads the entry to learn its size, then opens the first
// chunk.
func (m *Model) openPreviewCmd(side panel.Side, name string) tea.Cmd {
	gen := m.panelAt(side).Generation
	fetch, totalSize, err := m.previewFetcher(side, name)
	if err != nil {
		return func() tea.Msg { return PreviewOpenedMsg{Side: int(side), Generation: gen, Err: err} }
	}
	width := m.previewWrapWidth()
	return func() tea.Msg {
		p, err := preview.Open(context.Background(), name, totalSize, width, fetch)
		if err != nil {
			return PreviewOpenedMsg{Side: int(side), Generation: gen, Err: err}
		}
		return PreviewOpenedMsg{Side: int(side), Generation: gen, Name: name, TotalSize: totalSize, Preview: p}
	}
}

func (m *Model) previewWrapWidth() int {
	w := m.Width/2 - 4
	if w < 20 {
		w = 20
	}
	return w
}

// previewFetcher resolves the byte-range Fetcher and total size for
// whichever entry is selected, dispatching on the panel's current Frame
// kind (S3Browser vs LocalBrowser).
func (m *Model) previewFetcher(side panel.Side, name string) (preview.Fetcher, int64, error) {
	frame := m.panelAt(side).Current()
	switch frame.Kind {
	case panel.S3Browser:
		gw := m.s3Gateways[side]
		if gw == nil {
			return nil, 0, errNoGateway
		}
		key := frame.Prefix + name
		info, err := gw.Head(context.Background(), key)
		if err != nil {
			return nil, 0, err
		}
		fetch := func(ctx context.Context, offset, length int64) ([]byte, error) {
			return gw.GetRange(ctx, key, offset, length)
		}
		return fetch, info.Size, nil
	case panel.LocalBrowser:
		path := joinPath(frame.Path, name)
		size, _, err := m.FS.Head(context.Background(), path)
		if err != nil {
			return nil, 0, err
		}
		fetch := func(ctx context.Context, offset, length int64) ([]byte, error) {
			return m.FS.ReadRange(ctx, path, offset, length)
		}
		return fetch, size, nil
	default:
		return nil, 0, errKind("selected entry cannot be previewed")
	}
}

func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, `\`) {
		return dir + name
	}
	return dir + "/" + name
}

func (m *Model) loadMorePreviewCmd(side panel.Side) tea.Cmd {
	gen := m.panelAt(side).Generation
	live := m.Previews[side]
	if live == nil {
		return nil
	}
	clone := live.Clone()
	return func() tea.Msg {
		err := clone.LoadMore(context.Background())
		return PreviewChunkLoadedMsg{Side: int(side), Generation: gen, Preview: clone, Err: err}
	}
}

func (m *Model) loadPreviousPreviewCmd(side panel.Side) tea.Cmd {
	gen := m.panelAt(side).Generation
	live := m.Previews[side]
	if live == nil {
		return nil
	}
	clone := live.Clone()
	return func() tea.Msg {
		err := clone.LoadPrevious(context.Background())
		return PreviewChunkLoadedMsg{Side: int(side), Generation: gen, Preview: clone, Err: err}
	}
}

func (m *Model) previewHomeCmd(side panel.Side) tea.Cmd {
	gen := m.panelAt(side).Generation
	live := m.Previews[side]
	if live == nil {
		return nil
	}
	clone := live.Clone()
	return func() tea.Msg {
		err := clone.Home(context.Background())
		return PreviewChunkLoadedMsg{Side: int(side), Generation: gen, Preview: clone, Err: err}
	}
}

func (m *Model) previewEndCmd(side panel.Side) tea.Cmd {
	gen := m.panelAt(side).Generation
	live := m.Previews[side]
	if live == nil {
		return nil
	}
	clone := live.Clone()
	return func() tea.Msg {
		err := clone.End(context.Background())
		return PreviewChunkLoadedMsg{Side: int(side), Generation: gen, Preview: clone, Err: err}
	}
}

// listenTransferProgress blocks on the shared Progress channel and emits
// one TransferProgressMsg per receive. The reducer re-issues this command
// after every delivery so the listen loop never stalls (the standard
// bubbletea "listen on a channel" idiom).
func listenTransferProgress(t *transfer.Manager) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-t.Progress
		if !ok {
			return nil
		}
		return TransferProgressMsg{JobID: ev.JobID, Transferred: ev.Transferred}
	}
}

// listenTransferCompletion mirrors listenTransferProgress for the
// Completion channel. It leaves RefreshSide unset: handleTransferCompleted
// looks up the panel to reload in Model.jobRefreshSide by JobID.
func listenTransferCompletion(t *transfer.Manager) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-t.Completion
		if !ok {
			return nil
		}
		return TransferCompletedMsg{JobID: ev.JobID, Err: ev.Err}
	}
}

func (m *Model) saveConfigCmd() tea.Cmd {
	cfg := m.Cfg
	dir := m.ConfigDir
	return func() tea.Msg {
		err := config.Save(dir, cfg)
		return ConfigSavedMsg{Err: err}
	}
}

func (m *Model) mkdirCmd(side panel.Side, name string) tea.Cmd {
	frame := m.panelAt(side).Current()
	switch frame.Kind {
	case panel.S3Browser:
		gw := m.s3Gateways[side]
		prefix := frame.Prefix + name + "/"
		return func() tea.Msg { return MkdirDoneMsg{Side: int(side), Err: gw.Mkdir(context.Background(), prefix)} }
	case panel.LocalBrowser:
		path := joinPath(frame.Path, name)
		fs := m.FS
		return func() tea.Msg { return MkdirDoneMsg{Side: int(side), Err: fs.Mkdir(context.Background(), path)} }
	default:
		return nil
	}
}

func (m *Model) deleteCmd(side panel.Side, entry model.Entry) tea.Cmd {
	frame := m.panelAt(side).Current()
	switch frame.Kind {
	case panel.S3Browser:
		gw := m.s3Gateways[side]
		key := frame.Prefix + entry.Name
		if entry.Kind == model.Directory {
			key += "/"
		}
		return func() tea.Msg { return DeleteDoneMsg{Side: int(side), Err: gw.Delete(context.Background(), key)} }
	case panel.LocalBrowser:
		path := joinPath(frame.Path, entry.Name)
		fs := m.FS
		return func() tea.Msg { return DeleteDoneMsg{Side: int(side), Err: fs.Delete(context.Background(), path)} }
	default:
		return nil
	}
}

func (m *Model) renameCmd(side panel.Side, entry model.Entry, newName string) tea.Cmd {
	frame := m.panelAt(side).Current()
	switch frame.Kind {
	case panel.S3Browser:
		gw := m.s3Gateways[side]
		srcKey := frame.Prefix + entry.Name
		dstKey := frame.Prefix + newName
		if entry.Kind == model.Directory {
			srcKey += "/"
			dstKey += "/"
		}
		return func() tea.Msg { return RenameDoneMsg{Side: int(side), Err: gw.Rename(context.Background(), srcKey, dstKey)} }
	case panel.LocalBrowser:
		src := joinPath(frame.Path, entry.Name)
		dst := joinPath(frame.Path, newName)
		fs := m.FS
		return func() tea.Msg { return RenameDoneMsg{Side: int(side), Err: fs.Rename(context.Background(), src, dst)} }
	default:
		return nil
	}
}

func clearBannerAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return ClearBannerMsg{} })
}
