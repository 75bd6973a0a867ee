// Package cache remembers content hashes of files scanned in previous runs
// so unchanged files can keep their baseline records without a rescan.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	xxhash "github.com/cespare/xxhash/v2"
)

type DB struct {
	// Fingerprint identifies the detector and filter configuration the
	// entries were produced with. Entries are void when it changes.
	Fingerprint string `json:"fingerprint"`
	// Path relative to the scan root -> content hash (xxhash64 hex)
	Entries map[string]string `json:"entries"`
}

// Hit reports whether path was last scanned with the same configuration
// and content.
func (db DB) Hit(fingerprint, path, sum string) bool {
	return db.Fingerprint == fingerprint && db.Entries != nil && db.Entries[path] == sum
}

func defaultPath(root string) string {
	// Prefer storing cache under .git to avoid accidental commits
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "baselinercache.json")
	}
	return filepath.Join(root, ".baselinercache.json")
}

func Load(root string) (DB, error) {
	var db DB
	f, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if err := json.Unmarshal(f, &db); err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(defaultPath(root), b, 0o644)
}

// Sum returns the hex xxhash64 of b.
func Sum(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

// Fingerprint hashes a configuration value through its JSON form. Map keys
// are sorted by encoding/json so equal configurations agree.
func Fingerprint(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return Sum(b)
}
