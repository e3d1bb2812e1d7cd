package detector

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeModel(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("onnx"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return path
}

func TestResolveModelPathPicksNewest(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	writeModel(t, dir, "runs/v1/best.onnx", base)
	newest := writeModel(t, dir, "runs/v2/best.onnx", base.Add(48*time.Hour))
	writeModel(t, dir, "runs/v3/best.onnx", base.Add(24*time.Hour))

	got, err := ResolveModelPath(dir, "**/*.onnx")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != newest {
		t.Errorf("expected %s, got %s", newest, got)
	}
}

func TestResolveModelPathIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	want := writeModel(t, dir, "best.onnx", now.Add(-time.Hour))
	writeModel(t, dir, "best.pt", now)
	writeModel(t, dir, "notes.txt", now)

	got, err := ResolveModelPath(dir, "**/*.onnx")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestResolveModelPathNoMatch(t *testing.T) {
	got, err := ResolveModelPath(t.TempDir(), "**/*.onnx")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty path, got %s", got)
	}
}

func TestResolveModelPathSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "weights.onnx"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := writeModel(t, dir, "real.onnx", time.Now().Add(-time.Hour))

	got, err := ResolveModelPath(dir, "*.onnx")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
