package indexer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/flowlens/pkg/analyzer"
	"github.com/gnana997/flowlens/pkg/util"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	logger := util.NewLogger(util.LoggerConfig{Level: util.LevelError, Format: util.FormatText})

	idx := NewIndex(DefaultIndexConfig(), logger)
	t.Cleanup(idx.Close)
	return idx
}

func resultFor(filePath string) *analyzer.Result {
	return &analyzer.Result{
		FilePath:  filePath,
		Framework: "react",
	}
}

func TestIndex_PutAndGet(t *testing.T) {
	idx := newTestIndex(t)

	hash := ComputeContentHash([]byte("const a = 1;"))
	idx.Put("/app/A.tsx", hash, resultFor("/app/A.tsx"))

	fa, stale, found := idx.Get("/app/A.tsx")
	require.True(t, found)
	assert.False(t, stale)
	assert.Equal(t, hash, fa.ContentHash)
	assert.Equal(t, "react", fa.Result.Framework)

	_, _, found = idx.Get("/app/missing.tsx")
	assert.False(t, found)
}

func TestIndex_InvalidateIsLazy(t *testing.T) {
	idx := newTestIndex(t)

	hash := ComputeContentHash([]byte("x"))
	idx.Put("/app/A.tsx", hash, resultFor("/app/A.tsx"))

	idx.Invalidate("/app/A.tsx")
	require.True(t, idx.IsDirty("/app/A.tsx"))

	fa, stale, found := idx.Get("/app/A.tsx")
	require.True(t, found, "invalidation keeps the cached result available")
	assert.True(t, stale)
	assert.NotNil(t, fa.Result)
}

func TestIndex_FreshClearsDirtyOnHashMatch(t *testing.T) {
	idx := newTestIndex(t)

	content := []byte("const a = 1;")
	hash := ComputeContentHash(content)
	idx.Put("/app/A.tsx", hash, resultFor("/app/A.tsx"))
	idx.Invalidate("/app/A.tsx")

	fa, ok := idx.Fresh("/app/A.tsx", hash)
	require.True(t, ok, "matching hash proves the content did not change")
	assert.Equal(t, "/app/A.tsx", fa.FilePath)
	assert.False(t, idx.IsDirty("/app/A.tsx"))

	_, ok = idx.Fresh("/app/A.tsx", ComputeContentHash([]byte("changed")))
	assert.False(t, ok)
}

func TestIndex_Remove(t *testing.T) {
	idx := newTestIndex(t)

	idx.Put("/app/A.tsx", "h1", resultFor("/app/A.tsx"))
	idx.Invalidate("/app/A.tsx")
	idx.Remove("/app/A.tsx")

	_, _, found := idx.Get("/app/A.tsx")
	assert.False(t, found)
	assert.False(t, idx.IsDirty("/app/A.tsx"))
}

func TestIndex_Stats(t *testing.T) {
	idx := newTestIndex(t)

	idx.Put("/app/A.tsx", "h1", resultFor("/app/A.tsx"))
	idx.Put("/app/B.tsx", "h2", resultFor("/app/B.tsx"))
	idx.Invalidate("/app/B.tsx")

	idx.Get("/app/A.tsx")
	idx.Get("/app/missing.tsx")

	stats := idx.Stats()
	assert.Equal(t, 2, stats.AnalyzedFiles)
	assert.Equal(t, 2, stats.CachedFiles)
	assert.Equal(t, 1, stats.DirtyFiles)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.InDelta(t, 0.5, stats.CacheHitRate, 0.001)
}

func TestIndex_LRUEviction(t *testing.T) {
	logger := util.NewLogger(util.LoggerConfig{Level: util.LevelError, Format: util.FormatText})

	idx := NewIndex(IndexConfig{MaxCachedFiles: 2}, logger)
	defer idx.Close()

	idx.Put("/app/A.tsx", "h1", resultFor("/app/A.tsx"))
	idx.Put("/app/B.tsx", "h2", resultFor("/app/B.tsx"))
	idx.Put("/app/C.tsx", "h3", resultFor("/app/C.tsx"))

	_, _, found := idx.Get("/app/A.tsx")
	assert.False(t, found, "oldest entry is evicted at capacity")
	assert.Equal(t, int64(1), idx.Stats().Evictions)
}

func TestIndex_SnapshotRoundTrip(t *testing.T) {
	idx := newTestIndex(t)

	res := resultFor("/app/A.tsx")
	res.Diagnostics = []string{"useBoom at line 3: boom"}
	idx.Put("/app/A.tsx", "h1", res)
	idx.Put("/app/B.vue", "h2", &analyzer.Result{FilePath: "/app/B.vue", Framework: "vue"})

	path := filepath.Join(t.TempDir(), "cache", "index.msgpack")
	require.NoError(t, idx.SaveSnapshot(path))

	restored := newTestIndex(t)
	loaded, err := restored.LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	fa, ok := restored.Fresh("/app/A.tsx", "h1")
	require.True(t, ok)
	assert.Equal(t, []string{"useBoom at line 3: boom"}, fa.Result.Diagnostics)

	fb, _, found := restored.Get("/app/B.vue")
	require.True(t, found)
	assert.Equal(t, "vue", fb.Result.Framework)
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.LoadSnapshot(filepath.Join(t.TempDir(), "nope.msgpack"))
	assert.Error(t, err)
}

func TestComputeContentHash(t *testing.T) {
	a := ComputeContentHash([]byte("hello"))
	b := ComputeContentHash([]byte("hello"))
	c := ComputeContentHash([]byte("world"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
