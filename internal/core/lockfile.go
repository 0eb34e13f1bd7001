package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	lockFileName       = "linkrow.lock.json"
	currentLockVersion = 1
)

// LockFilePath returns the full path to the lock file in the given directory.
func LockFilePath(dir string) string {
	return filepath.Join(dir, lockFileName)
}

// ReadLockFile reads and parses the lock file from the given directory.
// Returns nil, nil if the file does not exist.
func ReadLockFile(dir string) (*LockFile, error) {
	data, err := os.ReadFile(LockFilePath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}

	var lf LockFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing lock file: %w", err)
	}
	return &lf, nil
}

// WriteLockFile writes the lock file to the given directory atomically.
// Modules and their platforms are sorted for deterministic output.
func WriteLockFile(dir string, lf *LockFile) error {
	sort.Slice(lf.Modules, func(i, j int) bool {
		return lf.Modules[i].Name < lf.Modules[j].Name
	})
	for i := range lf.Modules {
		sort.Strings(lf.Modules[i].Platforms)
	}
	if lf.LockVersion == 0 {
		lf.LockVersion = currentLockVersion
	}

	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	// Ensure trailing newline.
	data = append(data, '\n')

	return writeFileAtomic(LockFilePath(dir), data)
}

// AddOrUpdateLockEntries upserts module entries in the lock file by name.
// Platforms of an existing entry are merged with the new ones. Creates the
// lock file if it does not exist.
func AddOrUpdateLockEntries(dir string, entries ...LockedModule) error {
	lf, err := ReadLockFile(dir)
	if err != nil {
		return err
	}
	if lf == nil {
		lf = &LockFile{
			LockVersion: currentLockVersion,
			Modules:     []LockedModule{},
		}
	}

	for _, entry := range entries {
		found := false
		for i, m := range lf.Modules {
			if m.Name == entry.Name {
				entry.Platforms = mergePlatforms(m.Platforms, entry.Platforms)
				lf.Modules[i] = entry
				found = true
				break
			}
		}
		if !found {
			lf.Modules = append(lf.Modules, entry)
		}
	}

	return WriteLockFile(dir, lf)
}

// LockEntries turns the successful part of a link result into lock file
// entries. Platforms that failed are left out; dependencies without any
// successful platform produce no entry.
func LockEntries(result *LinkResult) []LockedModule {
	var entries []LockedModule
	for _, d := range result.Linked() {
		entry := LockedModule{
			Name:    d.Dependency.Name,
			Version: d.Dependency.Version,
			Assets:  d.Dependency.Assets,
		}
		for _, p := range d.Platforms {
			if p.Outcome != OutcomeFailed {
				entry.Platforms = append(entry.Platforms, string(p.Platform))
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func mergePlatforms(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, p := range append(append([]string{}, a...), b...) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
