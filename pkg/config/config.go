package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

const (
	settingsFilename = "settings.json"
	vipFilename      = "vip.json"
	statesFilename   = "states.json"
)

// Settings mirrors setup/settings.json. The file may be hand-edited while the
// bot is running, so callers re-read it through Store instead of holding on to
// a parsed copy.
type Settings struct {
	Prefix    FlexibleStringSlice `json:"prefix" env:"CHALDEA_PREFIX"`
	Owner     FlexibleStringSlice `json:"owner"`
	DevID     FlexibleStringSlice `json:"devID"`
	OwnerOnly bool                `json:"ownerOnly" env:"CHALDEA_OWNER_ONLY"`
	TimeZone  string              `json:"timeZone" env:"CHALDEA_TIMEZONE"`
}

// VIP mirrors setup/vip.json.
type VIP struct {
	UID FlexibleStringSlice `json:"uid"`
}

// States mirrors setup/states.json. One token per bot instance; the number of
// tokens determines the shard count.
type States struct {
	Tokens []string `json:"tokens" env:"CHALDEA_TOKENS" envSeparator:","`
}

// Prefixes returns the configured command prefixes, defaulting to "/" when
// none is set. Empty entries are dropped.
func (s *Settings) Prefixes() []string {
	out := make([]string, 0, len(s.Prefix))
	for _, p := range s.Prefix {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"/"}
	}
	return out
}

// IsOwner reports whether the id is in the owner or developer list.
func (s *Settings) IsOwner(id string) bool {
	return s.Owner.Contains(id) || s.DevID.Contains(id)
}

// IsDeveloper reports whether the id is in the developer list.
func (s *Settings) IsDeveloper(id string) bool {
	return s.DevID.Contains(id)
}

// Store reads and writes the flat JSON state files under a setup directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (st *Store) Dir() string { return st.dir }

func (st *Store) SettingsPath() string { return filepath.Join(st.dir, settingsFilename) }
func (st *Store) VIPPath() string      { return filepath.Join(st.dir, vipFilename) }
func (st *Store) StatesPath() string   { return filepath.Join(st.dir, statesFilename) }

// Settings reads settings.json and applies env overrides.
func (st *Store) Settings() (*Settings, error) {
	var s Settings
	if err := st.readJSON(st.SettingsPath(), &s); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("settings env overrides: %w", err)
	}
	return &s, nil
}

// VIP reads vip.json. A missing file is treated as an empty VIP list, matching
// how the vip management command lazily creates it.
func (st *Store) VIP() (*VIP, error) {
	var v VIP
	if err := st.readJSON(st.VIPPath(), &v); err != nil {
		if os.IsNotExist(err) {
			return &VIP{UID: FlexibleStringSlice{}}, nil
		}
		return nil, fmt.Errorf("load vip: %w", err)
	}
	if v.UID == nil {
		v.UID = FlexibleStringSlice{}
	}
	return &v, nil
}

// States reads states.json and applies env overrides.
func (st *Store) States() (*States, error) {
	var s States
	if err := st.readJSON(st.StatesPath(), &s); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load states: %w", err)
		}
	}
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("states env overrides: %w", err)
	}
	if len(s.Tokens) == 0 {
		return nil, fmt.Errorf("no bot tokens configured in %s", st.StatesPath())
	}
	return &s, nil
}

func (st *Store) SaveSettings(s *Settings) error {
	return st.writeJSON(st.SettingsPath(), s)
}

func (st *Store) SaveVIP(v *VIP) error {
	return st.writeJSON(st.VIPPath(), v)
}

func (st *Store) readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes through a temp file and renames it into place so a crashed
// writer never leaves a truncated state file behind.
func (st *Store) writeJSON(path string, in any) error {
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(st.dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(append(data, '\n')); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}
