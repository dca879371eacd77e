package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/docpress/pkg/document"
	"github.com/yourorg/docpress/pkg/logging"
)

const filePrefix = "docpress-"

var (
	// ErrNotFound means no output with that id was ever published.
	ErrNotFound = errors.New("output not found")
	// ErrExpired means the output existed but its retention window passed.
	ErrExpired = errors.New("output expired")
	// ErrTooLarge means the upload stream exceeded the configured ceiling.
	ErrTooLarge = errors.New("upload exceeds size limit")
)

// StagedInput is an upload written into the workspace, ready for conversion.
type StagedInput struct {
	// Path is where the upload bytes live.
	Path string
	// OutputPath is where the converter must leave the PDF.
	OutputPath string
	// SHA256 is the hex digest of the upload.
	SHA256 string
	// Size is the number of bytes written.
	Size int64
}

// Entry is one published output awaiting download.
type Entry struct {
	ID           string
	Path         string
	DownloadName string
	Size         int64
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Workspace owns every temporary file the service creates. Inputs are removed
// as soon as their conversion finishes; outputs are retained for the TTL so
// the client can download them, then swept by the janitor.
type Workspace struct {
	root     string
	ownsRoot bool
	ttl      time.Duration
	logger   logging.Logger

	mu      sync.Mutex
	entries map[string]*Entry

	done     chan struct{}
	stopOnce sync.Once
	janitor  sync.WaitGroup
}

// NewWorkspace creates the working directory and starts the janitor. When dir
// is empty a fresh directory under the system temp root is created and removed
// again on Close; an explicit dir is created if needed but left in place.
func NewWorkspace(dir string, ttl, sweepInterval time.Duration, logger logging.Logger) (*Workspace, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ownsRoot := false
	if dir == "" {
		created, err := os.MkdirTemp("", filePrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to create workspace: %w", err)
		}
		dir = created
		ownsRoot = true
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create workspace: %w", err)
		}
	}

	w := &Workspace{
		root:     dir,
		ownsRoot: ownsRoot,
		ttl:      ttl,
		logger:   logger.With(logging.NewField("workspace", dir)),
		entries:  make(map[string]*Entry),
		done:     make(chan struct{}),
	}
	w.logger.Info("Workspace ready",
		logging.NewField("ttl", ttl),
		logging.NewField("sweep_interval", sweepInterval),
	)

	if sweepInterval > 0 {
		w.janitor.Add(1)
		go w.run(sweepInterval)
	}
	return w, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// SaveInput streams an upload into the workspace under a content-addressed
// name and reserves the matching output path. maxBytes of 0 means unlimited.
func (w *Workspace) SaveInput(t document.Type, id, filename string, r io.Reader, maxBytes int64) (*StagedInput, error) {
	tmp, err := os.CreateTemp(w.root, filePrefix+"upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	hasher := sha256.New()
	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	size, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if maxBytes > 0 && size > maxBytes {
		os.Remove(tmpPath)
		return nil, ErrTooLarge
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	stem := fmt.Sprintf("%s%s-%s-%s", filePrefix, t, digest[:8], shortID(id))
	inputPath := filepath.Join(w.root, stem+"-in"+strings.ToLower(filepath.Ext(filename)))
	if err := os.Rename(tmpPath, inputPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to place upload: %w", err)
	}

	return &StagedInput{
		Path:       inputPath,
		OutputPath: filepath.Join(w.root, stem+"-out.pdf"),
		SHA256:     digest,
		Size:       size,
	}, nil
}

// Discard removes a workspace file, logging rather than failing when the
// file is already gone.
func (w *Workspace) Discard(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("Failed to remove workspace file",
			logging.NewField("path", path),
			logging.NewField("error", err.Error()),
		)
		return
	}
	w.logger.Debug("Removed workspace file", logging.NewField("path", path))
}

// Publish registers a finished output for download until the TTL passes.
func (w *Workspace) Publish(id, downloadName, path string, size int64) *Entry {
	now := time.Now()
	entry := &Entry{
		ID:           id,
		Path:         path,
		DownloadName: downloadName,
		Size:         size,
		CreatedAt:    now,
		ExpiresAt:    now.Add(w.ttl),
	}
	w.mu.Lock()
	w.entries[id] = entry
	w.mu.Unlock()

	w.logger.Debug("Published output",
		logging.NewField("id", id),
		logging.NewField("download_name", downloadName),
		logging.NewField("size", size),
	)
	return entry
}

// Claim looks an output up for download. Claiming does not extend the TTL;
// a download can be repeated until the janitor sweeps the entry.
func (w *Workspace) Claim(id string) (*Entry, error) {
	w.mu.Lock()
	entry, ok := w.entries[id]
	w.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.ExpiresAt) {
		w.expire(entry)
		return nil, ErrExpired
	}
	if _, err := os.Stat(entry.Path); err != nil {
		return nil, ErrExpired
	}
	return entry, nil
}

func (w *Workspace) expire(entry *Entry) {
	w.mu.Lock()
	delete(w.entries, entry.ID)
	w.mu.Unlock()
	w.Discard(entry.Path)
}

func (w *Workspace) run(interval time.Duration) {
	defer w.janitor.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep removes expired outputs and any stray workspace files older than the
// TTL, such as inputs orphaned by a crashed conversion.
func (w *Workspace) Sweep() {
	now := time.Now()

	w.mu.Lock()
	var expired []*Entry
	live := make(map[string]struct{}, len(w.entries))
	for id, entry := range w.entries {
		if now.After(entry.ExpiresAt) {
			expired = append(expired, entry)
			delete(w.entries, id)
			continue
		}
		live[entry.Path] = struct{}{}
	}
	w.mu.Unlock()

	removed := 0
	for _, entry := range expired {
		w.Discard(entry.Path)
		removed++
	}

	dirEntries, err := os.ReadDir(w.root)
	if err != nil {
		w.logger.Warn("Failed to scan workspace", logging.NewField("error", err.Error()))
		return
	}
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasPrefix(de.Name(), filePrefix) {
			continue
		}
		path := filepath.Join(w.root, de.Name())
		if _, ok := live[path]; ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > w.ttl {
			w.Discard(path)
			removed++
		}
	}

	if removed > 0 {
		w.logger.Info("Swept workspace", logging.NewField("removed", removed))
	}
}

// Close stops the janitor and removes everything the workspace still holds.
func (w *Workspace) Close() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.janitor.Wait()

	w.mu.Lock()
	entries := make([]*Entry, 0, len(w.entries))
	for _, entry := range w.entries {
		entries = append(entries, entry)
	}
	w.entries = make(map[string]*Entry)
	w.mu.Unlock()

	for _, entry := range entries {
		w.Discard(entry.Path)
	}

	if w.ownsRoot {
		if err := os.RemoveAll(w.root); err != nil {
			return fmt.Errorf("failed to remove workspace: %w", err)
		}
		return nil
	}
	// an explicit directory stays, but our files do not
	dirEntries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("failed to scan workspace: %w", err)
	}
	for _, de := range dirEntries {
		if !de.IsDir() && strings.HasPrefix(de.Name(), filePrefix) {
			w.Discard(filepath.Join(w.root, de.Name()))
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
