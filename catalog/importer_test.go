package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeClipDir(t *testing.T, files ...string) (manifest, dir string) {
	t.Helper()
	root := t.TempDir()
	dir = filepath.Join(root, "audio-clips")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(root, "soundclips.json"), dir
}

func TestImportDirBootstrapsManifest(t *testing.T) {
	manifest, dir := writeClipDir(t, "airhorn.mp3", "cymbal.mp3", "notes.txt")

	added, err := ImportDir(manifest, dir)
	if err != nil {
		t.Fatalf("ImportDir() error = %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("added %d clips, expected 2 (non-mp3 files skipped)", len(added))
	}
	if added[0].Name != "airhorn" || added[0].File != "audio-clips/airhorn.mp3" {
		t.Errorf("unexpected first clip %+v", added[0])
	}

	// The written manifest loads cleanly
	svc := NewService(manifest)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("written manifest did not load: %v", err)
	}
	if svc.Len() != 2 {
		t.Errorf("Len() = %d, expected 2", svc.Len())
	}
}

func TestImportDirSkipsExistingEntries(t *testing.T) {
	manifest, dir := writeClipDir(t, "airhorn.mp3", "cymbal.mp3")

	if _, err := ImportDir(manifest, dir); err != nil {
		t.Fatal(err)
	}

	// A second clip appears; only it is added
	if err := os.WriteFile(filepath.Join(dir, "gong.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	added, err := ImportDir(manifest, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 || added[0].Name != "gong" {
		t.Errorf("added = %+v, expected just the gong clip", added)
	}

	svc := NewService(manifest)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if svc.Len() != 3 {
		t.Errorf("Len() = %d, expected 3", svc.Len())
	}
}

func TestImportDirNoNewClips(t *testing.T) {
	manifest, dir := writeClipDir(t, "airhorn.mp3")

	if _, err := ImportDir(manifest, dir); err != nil {
		t.Fatal(err)
	}
	added, err := ImportDir(manifest, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 0 {
		t.Errorf("added = %+v, expected none", added)
	}
}
