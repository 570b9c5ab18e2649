package downloads

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lfmartins/naturadocs/internal/types"
)

// ErrTimeout reports that no matching download completed within the deadline.
var ErrTimeout = errors.New("download timeout")

// validExtensions are the file types the portal serves as attachments.
var validExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Watcher observes a shared download directory by polling. It never reads
// file contents and never deletes files; callers own cleanup.
type Watcher struct {
	dir          string
	pollInterval time.Duration
	log          *zap.Logger
}

// NewWatcher builds a watcher over dir polling at the given interval.
func NewWatcher(dir string, pollInterval time.Duration, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{dir: dir, pollInterval: pollInterval, log: log}
}

// Snapshot records the current completed downloads as name to size. Taken
// immediately before a click so new files can be told apart from whatever the
// directory already held.
func (w *Watcher) Snapshot() (map[string]int64, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read download dir %s: %w", w.dir, err)
	}

	snap := make(map[string]int64, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isDownloadFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snap[entry.Name()] = info.Size()
	}
	return snap, nil
}

// Await waits for a new download to appear and finish, up to timeout. before
// is the snapshot taken ahead of the triggering click; candidateName, when
// known, steers matching toward the expected attachment. Completion means two
// size reads at least one poll interval apart agree on a nonzero size.
func (w *Watcher) Await(ctx context.Context, before map[string]int64, candidateName string, timeout time.Duration) (types.DownloadedFile, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Size observed on the previous poll, per file. A file completes once the
	// current read repeats the previous one.
	lastSizes := make(map[string]int64)

	for {
		newFiles, err := w.newSince(before)
		if err != nil {
			return types.DownloadedFile{}, err
		}

		if len(newFiles) > 0 {
			name, method := pickCandidate(newFiles, candidateName)
			size := newFiles[name].size

			if prev, seen := lastSizes[name]; seen && prev == size && size > 0 {
				path := filepath.Join(w.dir, name)
				w.log.Info("download complete",
					zap.String("file", name),
					zap.Int64("size", size),
					zap.String("matched_by", string(method)))
				return types.DownloadedFile{
					Path:       path,
					DetectedAt: time.Now(),
					SizeStable: true,
					MatchedBy:  method,
				}, nil
			}
			if prev, seen := lastSizes[name]; seen && prev != size {
				w.log.Debug("download still growing",
					zap.String("file", name),
					zap.Int64("previous", prev),
					zap.Int64("current", size))
			}
			for n, f := range newFiles {
				lastSizes[n] = f.size
			}
		}

		if time.Now().After(deadline) {
			return types.DownloadedFile{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		select {
		case <-ctx.Done():
			return types.DownloadedFile{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

type fileState struct {
	size    int64
	modTime time.Time
}

// newSince lists completed download files absent from the snapshot.
func (w *Watcher) newSince(before map[string]int64) (map[string]fileState, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read download dir %s: %w", w.dir, err)
	}

	newFiles := make(map[string]fileState)
	for _, entry := range entries {
		if entry.IsDir() || !isDownloadFile(entry.Name()) {
			continue
		}
		if _, existed := before[entry.Name()]; existed {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		newFiles[entry.Name()] = fileState{size: info.Size(), modTime: info.ModTime()}
	}
	return newFiles, nil
}

// pickCandidate chooses which new file to track. Exact normalized name match
// first, then fuzzy match, then the most recently modified file.
func pickCandidate(files map[string]fileState, candidateName string) (string, types.MatchMethod) {
	if candidateName != "" {
		for name := range files {
			if normalizeFilename(name) == normalizeFilename(candidateName) {
				return name, types.MatchExactName
			}
		}
		for name := range files {
			if FilenamesMatch(name, candidateName) {
				return name, types.MatchFuzzyName
			}
		}
	}

	var newest string
	var newestAt time.Time
	for name, f := range files {
		if newest == "" || f.modTime.After(newestAt) {
			newest = name
			newestAt = f.modTime
		}
	}
	return newest, types.MatchMostRecent
}

// isDownloadFile filters for attachment file types, skipping in-progress
// browser downloads.
func isDownloadFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".crdownload") || strings.HasSuffix(lower, ".part") || strings.HasSuffix(lower, ".tmp") {
		return false
	}
	return validExtensions[filepath.Ext(lower)]
}
