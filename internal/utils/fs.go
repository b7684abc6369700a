package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// IsFile reports whether path names a regular file. A directory sitting in
// the file's place counts as missing.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// WritableDir creates dir when missing and reports whether files can be
// created in it.
func WritableDir(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Debugf("Cannot create directory %s: %v", dir, err)
		return false
	}
	f, err := os.CreateTemp(dir, ".phrasekit-*")
	if err != nil {
		log.Debugf("Cannot write to directory %s: %v", dir, err)
		return false
	}
	f.Close()
	os.Remove(f.Name())
	return true
}

// FirstWritableDir returns the first of dirs accepted by WritableDir.
func FirstWritableDir(dirs ...string) (string, bool) {
	for _, dir := range dirs {
		if WritableDir(dir) {
			return dir, true
		}
	}
	return "", false
}

// WriteTOML encodes data to a temp file beside path and renames it into
// place, so a watcher never reads a half written file. Missing parent
// directories are created.
func WriteTOML(path string, data any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
