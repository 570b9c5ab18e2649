package downloads

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfmartins/naturadocs/internal/types"
)

const testPoll = 10 * time.Millisecond

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestSnapshotSkipsPartialsAndForeignTypes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "done.pdf", 10)
	writeFile(t, dir, "in-progress.pdf.crdownload", 10)
	writeFile(t, dir, "notes.txt", 10)

	w := NewWatcher(dir, testPoll, nil)
	snap, err := w.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"done.pdf": 10}, snap)
}

func TestAwaitDetectsStableNewFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.pdf", 5)

	w := NewWatcher(dir, testPoll, nil)
	before, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "certidao de nascimento.pdf", 1000)

	got, err := w.Await(context.Background(), before, "Certidão de Nascimento.pdf", time.Second)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "certidao de nascimento.pdf"), got.Path)
	assert.True(t, got.SizeStable)
	assert.Equal(t, types.MatchExactName, got.MatchedBy)
}

func TestAwaitWaitsForGrowingFileToSettle(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, testPoll, nil)
	before, err := w.Snapshot()
	require.NoError(t, err)

	path := writeFile(t, dir, "anexo.pdf", 1000)
	go func() {
		time.Sleep(2 * testPoll)
		_ = os.WriteFile(path, make([]byte, 2000), 0o644)
	}()

	got, err := w.Await(context.Background(), before, "anexo.pdf", time.Second)
	require.NoError(t, err)
	assert.True(t, got.SizeStable)

	info, err := os.Stat(got.Path)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, info.Size())
}

func TestAwaitTimesOutWhenNothingArrives(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, testPoll, nil)
	before, err := w.Snapshot()
	require.NoError(t, err)

	_, err = w.Await(context.Background(), before, "anexo.pdf", 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAwaitIgnoresZeroByteFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, testPoll, nil)
	before, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "empty.pdf", 0)

	_, err = w.Await(context.Background(), before, "empty.pdf", 60*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAwaitFallsBackToMostRecent(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, testPoll, nil)
	before, err := w.Snapshot()
	require.NoError(t, err)

	writeFile(t, dir, "unrelated-name.pdf", 500)

	got, err := w.Await(context.Background(), before, "Comprovante de Residência.pdf", time.Second)
	require.NoError(t, err)
	assert.Equal(t, types.MatchMostRecent, got.MatchedBy)
}

func TestAwaitHonorsContextCancel(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, testPoll, nil)
	before, err := w.Snapshot()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Await(ctx, before, "anexo.pdf", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
