package kernel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"

	"github.com/s3c/s3c/internal/apperr"
	"github.com/s3c/s3c/internal/config"
	"github.com/s3c/s3c/internal/creds"
	"github.com/s3c/s3c/internal/fsgw"
	"github.com/s3c/s3c/internal/model"
	"github.com/s3c/s3c/internal/panel"
	"github.com/s3c/s3c/internal/preview"
	"github.com/s3c/s3c/internal/s3gw"
	"github.com/s3c/s3c/internal/transfer"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	return New(t.TempDir(), config.Config{}, nil, creds.NewResolver(), transfer.NewManager(), fsgw.New(), nil)
}

func TestHandleListingLoadedDiscardsStaleGeneration(t *testing.T) {
	m := newTestModel(t)
	p := m.panelAt(panel.Left)
	stale := p.Generation

	p.Push(panel.Frame{Kind: panel.ProfileList}) // bumps Generation
	_, _ = m.handleListingLoaded(ListingLoadedMsg{
		Side: int(panel.Left), Generation: stale, Listing: model.Listing{{Name: "ignored"}},
	})
	require.Empty(t, p.Listing, "a reply tagged with a superseded generation must not mutate the panel")
}

func TestHandleCredentialsResolvedInstallsGatewayAndPushesFrame(t *testing.T) {
	m := newTestModel(t)
	side := panel.Left
	p := m.panelAt(side)
	gen := p.Generation
	gw := s3gw.New(nil, "my-bucket")

	_, _ = m.handleCredentialsResolved(CredentialsResolvedMsg{
		Side: int(side), Generation: gen, ProfileName: "work",
		BucketCfg: config.Bucket{Name: "my-bucket", BasePrefix: "root/"}, Gateway: gw,
	})

	require.Same(t, gw, m.s3Gateways[side])
	require.Equal(t, panel.S3Browser, p.Current().Kind)
	require.Equal(t, "root/", p.Current().Prefix)
}

func TestHandleCredentialsResolvedErrorLeavesGatewayUnset(t *testing.T) {
	m := newTestModel(t)
	side := panel.Left
	gen := m.panelAt(side).Generation

	_, _ = m.handleCredentialsResolved(CredentialsResolvedMsg{
		Side: int(side), Generation: gen, Err: errKind("access denied"),
	})

	require.Nil(t, m.s3Gateways[side])
	require.True(t, m.BannerIsError)
}

func TestHandleEnterBucketListCacheHitSkipsRoleChainRerun(t *testing.T) {
	// Resolve loads the named profile from the AWS SDK's shared config, so
	// point that at a scratch file defining "work".
	awsDir := t.TempDir()
	awsConfig := filepath.Join(awsDir, "config")
	require.NoError(t, os.WriteFile(awsConfig, []byte("[profile work]\nregion = us-east-1\n"), 0o600))
	t.Setenv("AWS_CONFIG_FILE", awsConfig)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(awsDir, "credentials"))

	m := newTestModel(t)
	m.Cfg = config.Config{Profiles: []config.Profile{{
		Name:    "work",
		Buckets: []config.Bucket{{Name: "my-bucket", Region: "us-east-1", RoleChain: []string{"arn:aws:iam::1:role/ok"}}},
	}}}
	assumeCalls := 0
	m.Resolver.RunScript = func(ctx context.Context, script string) error { return nil }
	m.Resolver.AssumeRole = func(ctx context.Context, cfg aws.Config, arn string) (aws.Credentials, error) {
		assumeCalls++
		return aws.Credentials{AccessKeyID: "x", SecretAccessKey: "y"}, nil
	}

	enterBucketList := func(side panel.Side) {
		p := m.panelAt(side)
		p.Push(panel.Frame{Kind: panel.BucketList, Profile: "work"})
		p.SetListing(model.WithUp(model.Listing{{Name: "my-bucket", Kind: model.Bucket}}, true))
		p.Cursor = 1
	}

	// Left panel enters the bucket first: a cache miss runs the full
	// setup-script + role-chain command.
	m.Active = panel.Left
	enterBucketList(panel.Left)
	_, cmd := m.handleEnter()
	require.NotNil(t, cmd)
	resolvedMsg, ok := cmd().(CredentialsResolvedMsg)
	require.True(t, ok)
	_, _ = m.handleCredentialsResolved(resolvedMsg)
	require.Equal(t, panel.S3Browser, m.panelAt(panel.Left).Current().Kind)
	require.Equal(t, 1, assumeCalls)

	// Right panel enters the same (profile, bucket): the cache built by
	// the left panel's resolution must be reused, pushing S3Browser
	// synchronously without rerunning the role chain.
	m.Active = panel.Right
	enterBucketList(panel.Right)
	_, cmd2 := m.handleEnter()

	require.Equal(t, panel.S3Browser, m.panelAt(panel.Right).Current().Kind, "a cache hit must push S3Browser synchronously")
	require.NotNil(t, m.s3Gateways[panel.Right])
	require.Equal(t, 1, assumeCalls, "a cached (profile, bucket) resolution must not rerun the role-assumption chain")
	if cmd2 != nil {
		_ = cmd2() // only the listing load remains; no further credential work
	}
}

func TestHandlePreviewChunkLoadedInstallsCloneWithoutAliasingLive(t *testing.T) {
	m := newTestModel(t)
	side := panel.Left
	live := &preview.Preview{SourceName: "f.txt", TotalSize: 10}
	m.Previews[side] = live
	gen := m.panelAt(side).Generation

	clone := live.Clone()
	clone.CursorLine = 3

	_, _ = m.handlePreviewChunkLoaded(PreviewChunkLoadedMsg{
		Side: int(side), Generation: gen, Preview: clone,
	})

	require.Same(t, clone, m.Previews[side])
	require.NotSame(t, live, m.Previews[side])
	require.Equal(t, 0, live.CursorLine, "the original preview must be untouched by a background task's mutation")
}

func TestEnterModeSelectDispatchesByTarget(t *testing.T) {
	m := newTestModel(t)
	_, _ = m.enterModeSelect(model.Entry{Name: "Local Filesystem", Kind: model.ModeChoice, Metadata: map[string]string{"target": "local"}})
	require.Equal(t, panel.LocalRoots, m.activePanel().Current().Kind)

	m2 := newTestModel(t)
	_, _ = m2.enterModeSelect(model.Entry{Name: "Object Storage", Kind: model.ModeChoice, Metadata: map[string]string{"target": "s3"}})
	require.Equal(t, panel.ProfileList, m2.activePanel().Current().Kind)
}

func TestHandleTransferCompletedCanceledIsNotTreatedAsError(t *testing.T) {
	m := newTestModel(t)
	_, _ = m.handleTransferCompleted(TransferCompletedMsg{JobID: "job-1", Err: apperr.New(apperr.Canceled, "")})
	require.False(t, m.BannerIsError)
	require.Equal(t, "transfer canceled", m.Banner)
}

func TestTabTogglesActivePanel(t *testing.T) {
	m := newTestModel(t)
	require.Equal(t, panel.Left, m.Active)
	_, _ = m.Update(TabPressedMsg{})
	require.Equal(t, panel.Right, m.Active)
	_, _ = m.Update(TabPressedMsg{})
	require.Equal(t, panel.Left, m.Active)
}

func TestCtrlTOpensQueueOverlay(t *testing.T) {
	m := newTestModel(t)
	require.Nil(t, m.Modal)
	_, _ = m.Update(OpenDialogMsg{Kind: ModalQueue})
	require.NotNil(t, m.Modal)
	require.Equal(t, ModalQueue, m.Modal.Kind)
}

func TestQueueCancelSelectedCancelsJobUnderCursorNotJustForeground(t *testing.T) {
	m := newTestModel(t)
	started := make(chan struct{})
	run := func(ctx context.Context, job *transfer.Job, report func(int64)) error {
		close(started)
		<-ctx.Done()
		return apperr.New(apperr.Canceled, "")
	}
	other := m.Transfers.Submit(context.Background(), transfer.Up, "a", "a", 1, run)
	<-started
	m.Modal = &Modal{Kind: ModalQueue, QueueCursor: 0}
	m.ForegroundJobID = "some-other-job"

	_, _ = m.handleQueueCancelSelected()

	select {
	case ev := <-m.Transfers.Completion:
		require.Equal(t, other.ID, ev.JobID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancellation")
	}
}

func TestQueueClearCompletedRemovesDoneJobsFromOverlay(t *testing.T) {
	m := newTestModel(t)
	run := func(ctx context.Context, job *transfer.Job, report func(int64)) error { return nil }
	job := m.Transfers.Submit(context.Background(), transfer.Up, "a", "a", 1, run)
	<-m.Transfers.Completion
	m.Modal = &Modal{Kind: ModalQueue}

	_, _ = m.handleQueueClearCompleted()

	_, ok := m.Transfers.Job(job.ID)
	require.False(t, ok)
}

func TestQueueDeleteSelectedRemovesJobRegardlessOfState(t *testing.T) {
	m := newTestModel(t)
	started := make(chan struct{})
	run := func(ctx context.Context, job *transfer.Job, report func(int64)) error {
		close(started)
		<-ctx.Done()
		return apperr.New(apperr.Canceled, "")
	}
	job := m.Transfers.Submit(context.Background(), transfer.Up, "a", "a", 1, run)
	<-started
	m.Modal = &Modal{Kind: ModalQueue, QueueCursor: 0}

	_, _ = m.handleQueueDeleteSelected()

	require.Empty(t, m.Transfers.All())
	m.Transfers.Cancel(job.ID) // no-op: Remove already canceled the running job
	<-m.Transfers.Completion
}
