package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cardforge/internal/pipeline"
)

func sampleSnaps(n int) []pipeline.Snapshot {
	out := make([]pipeline.Snapshot, n)
	for i := range out {
		out[i] = pipeline.Snapshot{
			Iteration: i,
			Rewrite:   "rewrite",
			Analysis:  "analysis",
			Verdict:   pipeline.VerdictRefine,
			CreatedAt: time.Now().UTC(),
		}
	}
	return out
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFile(t.TempDir())

	require.Nil(t, s.Load(ctx, "Captain"), "fresh store should be empty")

	snaps := sampleSnaps(3)
	require.NoError(t, s.Save(ctx, "Captain", snaps))

	got := s.Load(ctx, "Captain")
	require.Len(t, got, 3)
	require.Equal(t, snaps[2].Iteration, got[2].Iteration)

	require.NoError(t, s.Delete(ctx, "Captain"))
	require.Nil(t, s.Load(ctx, "Captain"))
	// Deleting a missing key is not an error.
	require.NoError(t, s.Delete(ctx, "Captain"))
}

func TestFileStoreTrimsOversizedHistory(t *testing.T) {
	ctx := context.Background()
	s := NewFile(t.TempDir())

	require.NoError(t, s.Save(ctx, "Captain", sampleSnaps(pipeline.MaxHistory+5)))
	got := s.Load(ctx, "Captain")
	require.Len(t, got, pipeline.MaxHistory)
	// The newest snapshots survive the trim.
	require.Equal(t, pipeline.MaxHistory+4, got[len(got)-1].Iteration)
}

func TestFileStoreSanitizesCardKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFile(dir)

	require.NoError(t, s.Save(ctx, "a/b: c", sampleSnaps(1)))
	got := s.Load(ctx, "a/b: c")
	require.Len(t, got, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotContains(t, entries[0].Name(), "/")
}

func TestFileStoreCorruptFileDegrades(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFile(dir)

	require.NoError(t, s.Save(ctx, "Captain", sampleSnaps(1)))
	require.NoError(t, os.WriteFile(s.filePath("Captain"), []byte("{corrupt"), 0o644))
	require.Nil(t, s.Load(ctx, "Captain"))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "histories.db"))
	require.NoError(t, err)
	defer s.Close()

	require.Nil(t, s.Load(ctx, "Captain"))
	require.NoError(t, s.Save(ctx, "Captain", sampleSnaps(2)))

	got := s.Load(ctx, "Captain")
	require.Len(t, got, 2)

	// Upsert replaces, never appends.
	require.NoError(t, s.Save(ctx, "Captain", sampleSnaps(4)))
	require.Len(t, s.Load(ctx, "Captain"), 4)

	require.NoError(t, s.Delete(ctx, "Captain"))
	require.Nil(t, s.Load(ctx, "Captain"))
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	s := NewFile(t.TempDir())
	require.Error(t, s.Save(context.Background(), "  ", nil))
	require.Nil(t, s.Load(context.Background(), ""))
}
