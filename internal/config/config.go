// Package config implements the Config Store (spec §4.1): the persistent
// profile/bucket registry at <user-config>/s3c/config.json, and profile
// discovery from the ambient AWS credentials file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/s3c/s3c/internal/apperr"
)

// Bucket is one entry in Profile.Buckets (spec §3).
type Bucket struct {
	Name        string   `json:"name"`
	Region      string   `json:"region"`
	Description string   `json:"description,omitempty"`
	BasePrefix  string   `json:"base_prefix,omitempty"`
	RoleChain   []string `json:"role_chain,omitempty"`
	EndpointURL string   `json:"endpoint_url,omitempty"`
	PathStyle   bool     `json:"path_style,omitempty"`
}

// Profile is one entry in Config.Profiles (spec §3).
type Profile struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	SetupScript string   `json:"setup_script,omitempty"`
	Buckets     []Bucket `json:"buckets"`
}

// Config is the whole persisted registry.
type Config struct {
	Profiles []Profile `json:"profiles"`
}

// ProfileEntry is a profile as surfaced in the UI-facing union of
// credentials-file profiles and Config-only profiles (spec §4.1).
type ProfileEntry struct {
	Name    string
	Profile *Profile // nil if the profile exists only in the credentials file
	Orphan  bool      // true if the profile has no credentials-file entry
}

// DefaultConfigDir resolves <user-config>/s3c following the platform
// convention (XDG_CONFIG_HOME on Linux, AppData on Windows, ~/Library on
// macOS via os.UserConfigDir), matching original_source's dirs::home_dir
// usage but through Go's stdlib equivalent.
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "s3c"), nil
}

func configPath(dir string) string { return filepath.Join(dir, "config.json") }

// Load reads the Config from <dir>/config.json. A missing file fails open
// to an empty Config (spec §4.1); a parse error is ConfigCorrupt.
func Load(dir string) (Config, error) {
	path := configPath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, apperr.WrapMsg(apperr.PersistenceError, path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, apperr.WrapMsg(apperr.ConfigCorrupt, path, err)
	}
	return cfg, nil
}

// Save atomically persists the Config: write-temp + rename (spec §4.1).
func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.WrapMsg(apperr.PersistenceError, dir, err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return apperr.WrapMsg(apperr.PersistenceError, "marshal", err)
	}
	path := configPath(dir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.WrapMsg(apperr.PersistenceError, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperr.WrapMsg(apperr.PersistenceError, path, err)
	}
	return nil
}

// CredentialsFilePath is <home>/.aws/credentials (spec §6).
func CredentialsFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".aws", "credentials"), nil
}

// ListCredentialProfileNames enumerates [section] headers from the
// credentials file, in file order. A missing file yields an empty list,
// not an error: the file is optional ambient configuration.
func ListCredentialProfileNames() ([]string, error) {
	path, err := CredentialsFilePath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	file, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, sec := range file.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		names = append(names, sec.Name())
	}
	return names, nil
}

// ProfileEntries returns the UI-facing union described in spec §4.1:
// credentials-file profiles first (in file order), then any Config-only
// profiles, each tagged Orphan when it has no credentials-file entry.
func ProfileEntries(cfg Config, credentialProfiles []string) []ProfileEntry {
	inCreds := make(map[string]bool, len(credentialProfiles))
	for _, n := range credentialProfiles {
		inCreds[n] = true
	}
	byName := make(map[string]*Profile, len(cfg.Profiles))
	for i := range cfg.Profiles {
		byName[cfg.Profiles[i].Name] = &cfg.Profiles[i]
	}

	seen := make(map[string]bool)
	var out []ProfileEntry
	for _, n := range credentialProfiles {
		out = append(out, ProfileEntry{Name: n, Profile: byName[n], Orphan: false})
		seen[n] = true
	}
	for _, p := range cfg.Profiles {
		if seen[p.Name] {
			continue
		}
		out = append(out, ProfileEntry{Name: p.Name, Profile: &p, Orphan: !inCreds[p.Name]})
		seen[p.Name] = true
	}
	return out
}

// FindProfile looks up a Profile by name, returning nil if Config-unknown.
func FindProfile(cfg Config, name string) *Profile {
	for i := range cfg.Profiles {
		if cfg.Profiles[i].Name == name {
			return &cfg.Profiles[i]
		}
	}
	return nil
}

// FindBucket looks up a Bucket by (profile, bucket) name pair.
func FindBucket(cfg Config, profile, bucket string) *Bucket {
	p := FindProfile(cfg, profile)
	if p == nil {
		return nil
	}
	for i := range p.Buckets {
		if p.Buckets[i].Name == bucket {
			return &p.Buckets[i]
		}
	}
	return nil
}

// AddOrReplaceProfile upserts a Profile by name, preserving its existing
// bucket list when one is not supplied on the replacement (the Profile
// edit dialog only touches name/description/setup_script).
func AddOrReplaceProfile(cfg Config, p Profile) Config {
	for i := range cfg.Profiles {
		if cfg.Profiles[i].Name == p.Name {
			if p.Buckets == nil {
				p.Buckets = cfg.Profiles[i].Buckets
			}
			cfg.Profiles[i] = p
			return cfg
		}
	}
	cfg.Profiles = append(cfg.Profiles, p)
	return cfg
}

// RemoveProfile deletes a profile and its buckets from Config.
func RemoveProfile(cfg Config, name string) Config {
	out := cfg.Profiles[:0]
	for _, p := range cfg.Profiles {
		if p.Name != name {
			out = append(out, p)
		}
	}
	cfg.Profiles = out
	return cfg
}

// AddOrReplaceBucket upserts a Bucket within a Profile, creating the
// Profile if absent (grounded in original_source's
// add_bucket_to_profile).
func AddOrReplaceBucket(cfg Config, profileName string, b Bucket) Config {
	for i := range cfg.Profiles {
		if cfg.Profiles[i].Name != profileName {
			continue
		}
		for j := range cfg.Profiles[i].Buckets {
			if cfg.Profiles[i].Buckets[j].Name == b.Name {
				cfg.Profiles[i].Buckets[j] = b
				return cfg
			}
		}
		cfg.Profiles[i].Buckets = append(cfg.Profiles[i].Buckets, b)
		return cfg
	}
	cfg.Profiles = append(cfg.Profiles, Profile{Name: profileName, Buckets: []Bucket{b}})
	return cfg
}

// RemoveBucket deletes a Bucket from a Profile.
func RemoveBucket(cfg Config, profileName, bucketName string) Config {
	for i := range cfg.Profiles {
		if cfg.Profiles[i].Name != profileName {
			continue
		}
		buckets := cfg.Profiles[i].Buckets[:0]
		for _, b := range cfg.Profiles[i].Buckets {
			if b.Name != bucketName {
				buckets = append(buckets, b)
			}
		}
		cfg.Profiles[i].Buckets = buckets
		return cfg
	}
	return cfg
}
