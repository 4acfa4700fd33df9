// Package runtimeEnv bundles the small pieces of OS-level setup the daemon
// needs before the core pipeline can start: environment loading, resolving
// where persisted state lives, and the device identity used by cloud sync.
package runtimeEnv

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lootwatch/lootwatchd/pkg/log"
)

// LoadDotEnv loads key=value pairs from file into the process environment.
// A missing file is not an error: the two cloud variables are optional.
func LoadDotEnv(file string) error {
	if err := godotenv.Load(file); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

// DataDir returns the directory persisted state (store file, rotated logs,
// device UUID) lives under. In portable mode that is the directory holding
// the executable; otherwise it is a per-user application data directory,
// created if missing.
func DataDir(portable bool) (string, error) {
	if portable {
		exe, err := os.Executable()
		if err != nil {
			return "", err
		}
		return filepath.Dir(exe), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "lootwatch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// DeviceUUID returns the persisted device identity used for cloud sync
// submissions, generating and storing a new UUIDv4 on first run. No other
// identifying information is ever derived from or stored alongside it.
func DeviceUUID(dataDir string) (string, error) {
	path := filepath.Join(dataDir, "device-id")
	if b, err := os.ReadFile(path); err == nil {
		if id, err := uuid.Parse(string(b)); err == nil {
			return id.String(), nil
		}
		log.Warn("runtimeEnv: device-id file is corrupt, regenerating")
	}

	id := uuid.New().String()
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", err
	}
	return id, nil
}

// MigrateLegacyStore probes a deprecated store path and, if found and the
// canonical path does not yet exist, copies it into place so installs
// upgrading from an older layout keep their data. It never overwrites an
// existing canonical store.
func MigrateLegacyStore(legacyPath, canonicalPath string) error {
	if _, err := os.Stat(canonicalPath); err == nil {
		return nil
	}
	src, err := os.Open(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(canonicalPath), 0o755); err != nil {
		return err
	}
	dst, err := os.OpenFile(canonicalPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(canonicalPath)
		return err
	}
	log.Infof("runtimeEnv: migrated legacy store from %s to %s", legacyPath, canonicalPath)
	return nil
}
