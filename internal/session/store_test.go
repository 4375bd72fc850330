package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
	"docchat/internal/embedding/tfidf"
	"docchat/internal/index"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	store := NewStore(t.TempDir(), 0, nil)
	a := store.GetOrCreate("s1")
	b := store.GetOrCreate("s1")
	assert.Same(t, a, b)
}

func TestAppendExchangeAndHistory(t *testing.T) {
	store := NewStore(t.TempDir(), 0, nil)
	sess := store.GetOrCreate("s1")
	sess.AppendExchange("What is the grace period?", "Five days.")

	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)

	q, ok := sess.LastUserQuestion()
	require.True(t, ok)
	assert.Equal(t, "What is the grace period?", q)
}

func TestConcurrentExchangesNeverTearTurns(t *testing.T) {
	store := NewStore(t.TempDir(), 0, nil)
	sess := store.GetOrCreate("s1")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess.AppendExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		}(i)
	}
	wg.Wait()

	history := sess.History()
	require.Len(t, history, 2*n)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, domain.RoleUser, history[i].Role)
		assert.Equal(t, domain.RoleAssistant, history[i+1].Role)
		// Each reply must directly follow its own question.
		assert.Equal(t, "a"+history[i].Content[1:], history[i+1].Content)
	}
}

func TestIndexForAbsentSession(t *testing.T) {
	store := NewStore(t.TempDir(), 0, nil)
	assert.Nil(t, store.IndexFor("nope"))

	store.GetOrCreate("s1")
	assert.Nil(t, store.IndexFor("s1"), "a session without uploads has no index")
}

func TestIndexSwap(t *testing.T) {
	store := NewStore(t.TempDir(), 0, nil)
	sess := store.GetOrCreate("s1")

	ix := index.New(tfidf.NewEmbedder(), nil)
	require.NoError(t, ix.Build(context.Background(), []domain.Passage{
		{Text: "Uploaded addendum about parking fees.", Meta: domain.Metadata{Source: "addendum.txt"}},
	}, ""))
	sess.SetIndex(ix)

	require.NotNil(t, store.IndexFor("s1"))
	got, err := store.IndexFor("s1").Search(context.Background(), "parking fees", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestClearBehavesLikeBrandNewSession(t *testing.T) {
	uploads := t.TempDir()
	store := NewStore(uploads, 0, nil)
	sess := store.GetOrCreate("s1")
	sess.AppendExchange("q", "a")
	sess.SetIndex(index.New(tfidf.NewEmbedder(), nil))

	dir := store.UploadDir("s1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("x"), 0o644))

	store.Clear("s1")

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "file area must be removed")
	assert.Nil(t, store.IndexFor("s1"))

	fresh := store.GetOrCreate("s1")
	assert.Empty(t, fresh.History())
	assert.Nil(t, fresh.Index())
}

func TestTTLEvictionCleansFileArea(t *testing.T) {
	uploads := t.TempDir()
	store := NewStore(uploads, 30*time.Millisecond, nil)
	store.GetOrCreate("s1")

	dir := store.UploadDir("s1")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.Eventually(t, func() bool {
		_, err := os.Stat(dir)
		return os.IsNotExist(err)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestUploadDirSanitizesID(t *testing.T) {
	uploads := t.TempDir()
	store := NewStore(uploads, 0, nil)
	dir := store.UploadDir("../../etc")
	assert.True(t, filepath.Dir(dir) == filepath.Clean(uploads), "session dir must stay under the uploads root")
}

func TestGetOrCreateConcurrentReturnsTableSession(t *testing.T) {
	store := NewStore(t.TempDir(), 0, nil)

	const n = 32
	got := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = store.GetOrCreate("contested")
		}(i)
	}
	wg.Wait()

	// Every caller must hold the session that lives in the table, never a
	// private copy whose history would be orphaned.
	canonical := store.GetOrCreate("contested")
	for i, sess := range got {
		assert.Same(t, canonical, sess, "goroutine %d", i)
	}
}
