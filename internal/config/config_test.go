package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFailsOpen(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, cfg.Profiles)
}

func TestLoadCorruptConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o644))
	_, err := Load(dir)
	require.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Profiles: []Profile{
		{
			Name: "a",
			Buckets: []Bucket{
				{Name: "b1", Region: "eu-west-1", RoleChain: []string{"arn:aws:iam::1:role/x"}},
			},
		},
	}}
	require.NoError(t, Save(dir, cfg))
	got, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestProfileEntriesCredentialsProfilesAreNotOrphans(t *testing.T) {
	cfg := Config{Profiles: []Profile{{Name: "b"}}}
	entries := ProfileEntries(cfg, []string{"a", "b"})
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].Name)
	require.False(t, entries[0].Orphan)
	require.Equal(t, "b", entries[1].Name)
	require.False(t, entries[1].Orphan)
}

func TestProfileEntriesConfigOnlyIsOrphan(t *testing.T) {
	cfg := Config{Profiles: []Profile{{Name: "ghost"}}}
	entries := ProfileEntries(cfg, []string{"a"})
	require.Len(t, entries, 2)
	require.Equal(t, "ghost", entries[1].Name)
	require.True(t, entries[1].Orphan)
}

func TestAddOrReplaceBucket(t *testing.T) {
	var cfg Config
	cfg = AddOrReplaceBucket(cfg, "p", Bucket{Name: "b1", Region: "eu-west-1"})
	cfg = AddOrReplaceBucket(cfg, "p", Bucket{Name: "b1", Region: "us-east-1"})
	require.Len(t, cfg.Profiles, 1)
	require.Len(t, cfg.Profiles[0].Buckets, 1)
	require.Equal(t, "us-east-1", cfg.Profiles[0].Buckets[0].Region)
}

func TestRemoveBucket(t *testing.T) {
	cfg := Config{Profiles: []Profile{{Name: "p", Buckets: []Bucket{{Name: "b1"}, {Name: "b2"}}}}}
	cfg = RemoveBucket(cfg, "p", "b1")
	require.Len(t, cfg.Profiles[0].Buckets, 1)
	require.Equal(t, "b2", cfg.Profiles[0].Buckets[0].Name)
}
