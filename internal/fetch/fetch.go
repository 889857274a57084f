// Package fetch downloads observation datasets over HTTP and unpacks
// zip archives, skipping work that is already on disk so repeated runs
// stay cheap.
package fetch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxDownloadBytes caps a single transfer; observation archives are at
// most a few hundred megabytes.
const maxDownloadBytes = 512 << 20

// extractLimit caps the decompressed size of one archive entry.
var extractLimit int64 = maxDownloadBytes

var (
	// ErrUnsafePath is returned when an archive entry would escape the
	// extraction directory.
	ErrUnsafePath = errors.New("fetch: archive entry escapes destination")
	// ErrTooLarge is returned when a download exceeds the transfer cap.
	ErrTooLarge = errors.New("fetch: download exceeds size cap")
)

// File downloads url to dest unless dest already exists. The download
// goes through a temporary file so a failed transfer never leaves a
// truncated dest behind. A nil client falls back to
// http.DefaultClient.
func File(ctx context.Context, client *http.Client, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("fetch: request %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch: get %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("fetch: mkdir for %s: %w", dest, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return fmt.Errorf("fetch: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("fetch: download %s: %w", url, err)
	}
	if n > maxDownloadBytes {
		tmp.Close()
		return fmt.Errorf("%w: %s", ErrTooLarge, url)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fetch: close temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("fetch: rename: %w", err)
	}

	return nil
}

// Archive downloads a zip archive from url and extracts it into dir.
// If dir already exists and is non-empty the whole step is skipped.
func Archive(ctx context.Context, client *http.Client, url, dir string) error {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return nil
	}

	tmp, err := os.CreateTemp("", "fetch-*.zip")
	if err != nil {
		return fmt.Errorf("fetch: temp archive: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	// The stat-skip in File never triggers for a fresh temp path, so
	// remove the empty placeholder first.
	os.Remove(tmp.Name())

	if err := File(ctx, client, url, tmp.Name()); err != nil {
		return err
	}

	return Unzip(tmp.Name(), dir)
}

// Unzip extracts a zip archive into dir, rejecting entries whose paths
// would escape it.
func Unzip(src, dir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("fetch: open archive %s: %w", src, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractOne(f, dir); err != nil {
			return err
		}
	}

	return nil
}

func extractOne(f *zip.File, dir string) error {
	dest := filepath.Join(dir, filepath.FromSlash(f.Name))

	rel, err := filepath.Rel(dir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("fetch: mkdir: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("fetch: open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("fetch: create %s: %w", dest, err)
	}

	n, err := io.Copy(out, io.LimitReader(rc, extractLimit+1))
	if err != nil {
		out.Close()
		return fmt.Errorf("fetch: extract %s: %w", f.Name, err)
	}
	if n > extractLimit {
		out.Close()
		return fmt.Errorf("%w: %s", ErrTooLarge, f.Name)
	}

	return out.Close()
}
