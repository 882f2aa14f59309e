package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ImportDir scans dir for .mp3 files and appends entries for any that are
// not yet listed in the manifest at manifestPath. Clip names are derived
// from the file name without extension, NFC-normalized so names typed in a
// browser match names produced by any filesystem. The manifest is written
// back with indentation and the newly added clips are returned in file-name
// order.
//
// A missing manifest is treated as an empty one, so ImportDir can bootstrap
// a fresh board.
func ImportDir(manifestPath, dir string) ([]Clip, error) {
	var m manifest
	data, err := os.ReadFile(manifestPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &LoadError{Source: manifestPath, Reason: "invalid JSON", cause: err}
		}
	case os.IsNotExist(err):
		// start from an empty manifest
	default:
		return nil, &LoadError{Source: manifestPath, Reason: "unreadable", cause: err}
	}

	existing := make(map[string]bool, len(m.Clips))
	for _, clip := range m.Clips {
		existing[clip.File] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read clip directory %s: %w", dir, err)
	}

	var added []Clip
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		file := filepath.ToSlash(filepath.Join(filepath.Base(dir), entry.Name()))
		if existing[file] {
			continue
		}
		name := norm.NFC.String(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		added = append(added, Clip{Name: name, File: file})
	}

	sort.Slice(added, func(i, j int) bool { return added[i].File < added[j].File })
	m.Clips = append(m.Clips, added...)

	out, err := json.MarshalIndent(&m, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, append(out, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest %s: %w", manifestPath, err)
	}

	return added, nil
}
