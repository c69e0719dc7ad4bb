// Package fetcher implements the Update Fetcher (spec §4.5): retrieving
// remote update metadata and the payload archive over HTTP, and
// unpacking the archive into a slot directory.
//
// Grounded on codex-helper/internal/update/update.go's HTTP-client
// construction and temp-file-then-install pipeline (downloadReleaseAsset).
// ZIP extraction uses the stdlib archive/zip: no example repo in this
// corpus imports a third-party ZIP library, and archive/zip is already
// the complete, idiomatic surface for the spec's ZIP archive extraction
// requirement (spec §6) — there is no third-party concern left for a
// dependency to serve here. Extraction preserves each entry's
// normalized relative path (internal/manifest.NormalizePath) rather
// than flattening to its basename, matching the nested paths the
// manifest verifier expects.
package fetcher

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meinefirma/meineapp-launcher/internal/manifest"
)

// UpdateInfo is the remote metadata document (spec §3/§6): no integrity
// metadata of its own — trust is anchored entirely in the manifest
// inside the payload.
type UpdateInfo struct {
	Version string `json:"Version"`
	Url     string `json:"Url"`
}

// Stage names the step of downloadAndInstall that failed, per spec §7's
// InstallFailure(stage).
type Stage string

const (
	StageFetchArchive   Stage = "fetch_archive"
	StageRemoveExisting Stage = "remove_existing"
	StageRecreateSlot   Stage = "recreate_slot"
	StageExtract        Stage = "extract"
)

// InstallError reports which stage of downloadAndInstall failed. The
// slot is left partially populated by design (spec §4.5): the next
// cycle re-attempts and either completes a fresh install or the
// Orchestrator falls back to the other slot.
type InstallError struct {
	Stage Stage
	Err   error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install failed at stage %s: %v", e.Stage, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Fetcher retrieves UpdateInfo and payload archives over HTTP. It
// performs at most one install at a time (spec §4.5 "No concurrency");
// callers serialize calls themselves (the Orchestrator is single
// threaded, and slotstore.Store's lock further enforces this across
// processes).
type Fetcher struct {
	UpdateInfoURL string
	HTTPClient    *http.Client
	TempZipPath   string
}

// New constructs a Fetcher with a bounded HTTP client, grounded on
// update.go's pattern of a fresh *http.Client with an explicit Timeout
// per call rather than a shared client with no deadline.
func New(updateInfoURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		UpdateInfoURL: updateInfoURL,
		HTTPClient:    &http.Client{Timeout: timeout},
		TempZipPath:   filepath.Join(os.TempDir(), "MeineApp_Update.zip"),
	}
}

// FetchInfo retrieves and parses UpdateInfo from UpdateInfoURL.
func (f *Fetcher) FetchInfo(ctx context.Context) (UpdateInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.UpdateInfoURL, nil)
	if err != nil {
		return UpdateInfo{}, fmt.Errorf("fetcher: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return UpdateInfo{}, fmt.Errorf("fetcher: network: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UpdateInfo{}, fmt.Errorf("fetcher: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UpdateInfo{}, fmt.Errorf("fetcher: read body: %w", err)
	}

	var info UpdateInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return UpdateInfo{}, fmt.Errorf("fetcher: parse: %w", err)
	}
	if strings.TrimSpace(info.Version) == "" || strings.TrimSpace(info.Url) == "" {
		return UpdateInfo{}, fmt.Errorf("fetcher: update info missing Version or Url")
	}
	return info, nil
}

// DownloadAndInstall retrieves the archive at info.Url, writes it to
// the shared scratch path, wipes slotDir if present, and extracts the
// archive into a freshly created slotDir, keeping each entry's
// normalized relative path (spec §4.5 steps 1-4).
func (f *Fetcher) DownloadAndInstall(ctx context.Context, slotDir string, info UpdateInfo) error {
	if err := f.downloadArchive(ctx, info.Url); err != nil {
		return &InstallError{Stage: StageFetchArchive, Err: err}
	}

	if _, err := os.Stat(slotDir); err == nil {
		if err := os.RemoveAll(slotDir); err != nil {
			return &InstallError{Stage: StageRemoveExisting, Err: err}
		}
	} else if !os.IsNotExist(err) {
		return &InstallError{Stage: StageRemoveExisting, Err: err}
	}

	if err := os.MkdirAll(slotDir, 0o755); err != nil {
		return &InstallError{Stage: StageRecreateSlot, Err: err}
	}

	if err := extractZip(f.TempZipPath, slotDir); err != nil {
		return &InstallError{Stage: StageExtract, Err: err}
	}

	return nil
}

func (f *Fetcher) downloadArchive(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("network: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(f.TempZipPath)
	if err != nil {
		return fmt.Errorf("create temp zip: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write temp zip: %w", err)
	}
	return nil
}

// extractZip extracts every entry of zipPath into destDir, preserving
// nested directory structure so the layout matches what the manifest
// verifier expects (manifest.NormalizePath keeps intermediate path
// segments, and verifyFile joins them back onto slotDir). Entries whose
// normalized name would escape destDir via a ".." segment are rejected,
// per the same rule the verifier applies to manifest paths.
func extractZip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		relPath, err := manifest.NormalizePath(entry.Name)
		if err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
		destPath := filepath.Join(destDir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
		if err := extractZipEntry(entry, destPath); err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
	}
	return nil
}

func extractZipEntry(entry *zip.File, destPath string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode().Perm()|0o600)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return nil
}
