package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileDownloadsOnce(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "data", "obs.fits")

	if err := File(context.Background(), srv.Client(), srv.URL, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "payload" {
		t.Fatalf("body mismatch: %q", body)
	}

	// Second call must hit the cache, not the server.
	if err := File(context.Background(), srv.Client(), srv.URL, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("server hits: got %d want 1", hits)
	}
}

func TestFileBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "missing.fits")

	if err := File(context.Background(), srv.Client(), srv.URL, dest); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("failed download left a file behind")
	}
}

func zipArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return buf.Bytes()
}

func TestArchiveDownloadsAndExtracts(t *testing.T) {
	payload := zipArchive(t, map[string]string{
		"obs/target.oifits":     "fits bytes",
		"obs/calibrator.oifits": "more fits bytes",
	})

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(payload)
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "dataset")

	if err := Archive(context.Background(), srv.Client(), srv.URL, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body, err := os.ReadFile(filepath.Join(dir, "obs", "target.oifits"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "fits bytes" {
		t.Fatalf("body mismatch: %q", body)
	}

	// Populated directory short-circuits the second call.
	if err := Archive(context.Background(), srv.Client(), srv.URL, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("server hits: got %d want 1", hits)
	}
}

func TestUnzipCapsEntrySize(t *testing.T) {
	payload := zipArchive(t, map[string]string{
		"big.bin": strings.Repeat("a", 256),
	})

	src := filepath.Join(t.TempDir(), "big.zip")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	old := extractLimit
	extractLimit = 64
	t.Cleanup(func() { extractLimit = old })

	err := Unzip(src, filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("error mismatch: got %v want ErrTooLarge", err)
	}
}

func TestUnzipRejectsEscapingPaths(t *testing.T) {
	payload := zipArchive(t, map[string]string{
		"../evil.txt": "nope",
	})

	src := filepath.Join(t.TempDir(), "evil.zip")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Unzip(src, filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("error mismatch: got %v want ErrUnsafePath", err)
	}
}
