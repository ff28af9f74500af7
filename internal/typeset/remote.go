package typeset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const maxTableBytes = 1 << 20

// Remote is a renderer whose symbol table is fetched over HTTP on first load
// and cached on disk.
type Remote struct {
	url      string
	cacheDir string
	client   *http.Client

	mu       sync.Mutex
	table    *Table
	cached   bool
	cacheErr error
}

// NewRemote returns a renderer loading its table from url. A nil client uses
// a client with a 60 second timeout. An empty cacheDir disables caching.
func NewRemote(url, cacheDir string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Remote{url: url, cacheDir: cacheDir, client: client}
}

// Loaded implements Renderer.
func (r *Remote) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table != nil
}

// FromCache reports whether the loaded table came from the disk cache.
func (r *Remote) FromCache() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached
}

// Load implements Renderer. The disk cache is consulted before the network.
func (r *Remote) Load(ctx context.Context) error {
	if r.Loaded() {
		return nil
	}
	if table, ok := r.readCache(); ok {
		r.set(table, true)
		return nil
	}

	data, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	table, err := DecodeTable(data)
	if err != nil {
		return err
	}
	r.set(table, false)
	cacheErr := r.writeCache(data)
	r.mu.Lock()
	r.cacheErr = cacheErr
	r.mu.Unlock()
	return nil
}

// CacheError returns the error from writing the fetched table to the disk
// cache, if any. The renderer stays usable when the write fails.
func (r *Remote) CacheError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cacheErr
}

// Render implements Renderer.
func (r *Remote) Render(tex string) (string, error) {
	r.mu.Lock()
	table := r.table
	r.mu.Unlock()
	if table == nil {
		return "", fmt.Errorf("remote renderer is not loaded")
	}
	return render(*table, tex)
}

func (r *Remote) set(table Table, cached bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = &table
	r.cached = cached
}

func (r *Remote) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected symbol table status: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTableBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol table: %w", err)
	}
	return data, nil
}

func (r *Remote) cachePath() string {
	if r.cacheDir == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.url))
	return filepath.Join(r.cacheDir, "table-"+hex.EncodeToString(sum[:8])+".toml")
}

func (r *Remote) readCache() (Table, bool) {
	path := r.cachePath()
	if path == "" {
		return Table{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, false
	}
	table, err := DecodeTable(data)
	if err != nil {
		return Table{}, false
	}
	return table, true
}

func (r *Remote) writeCache(data []byte) error {
	path := r.cachePath()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(r.cacheDir, "table-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp table: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("failed to move table into cache: %w", err)
	}
	return nil
}
