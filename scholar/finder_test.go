package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const finderFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<entry>
  <id>http://arxiv.org/abs/2401.12345v1</id>
  <title>Sleep and Memory</title>
  <summary>Sleep helps.</summary>
  <published>2024-01-15T12:00:00Z</published>
  <author><name>Ada Lovelace</name></author>
  <link href="http://arxiv.org/pdf/2401.12345v1" rel="related" title="pdf"/>
</entry>
</feed>`

func newFinder(t *testing.T, handler http.HandlerFunc) (*Finder, *store.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := arxiv.NewClient(zap.NewNop(), arxiv.WithBaseURL(srv.URL))
	st := store.New(t.TempDir(), zap.NewNop())
	return NewFinder(client, st, zap.NewNop()), st
}

func TestFinder_FindPersistsResults(t *testing.T) {
	f, st := newFinder(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, finderFeed)
	})

	articles, err := f.Find(context.Background(), "sleep and memory", 5, arxiv.SortRelevance, "", "")
	require.NoError(t, err)
	require.Len(t, articles, 1)

	saved, ok := st.Get("2401.12345v1")
	require.True(t, ok)
	assert.Equal(t, "Sleep and Memory", saved.Title)
}

func TestFinder_ClampsMaxResults(t *testing.T) {
	var gotMax []string
	f, _ := newFinder(t, func(w http.ResponseWriter, r *http.Request) {
		gotMax = append(gotMax, r.URL.Query().Get("max_results"))
		fmt.Fprint(w, finderFeed)
	})

	_, err := f.Find(context.Background(), "x", 0, arxiv.SortRelevance, "", "")
	require.NoError(t, err)
	_, err = f.Find(context.Background(), "x", 100, arxiv.SortRelevance, "", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"5", "20"}, gotMax)
}

func TestFinder_PropagatesRateLimit(t *testing.T) {
	f, st := newFinder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := f.Find(context.Background(), "x", 5, arxiv.SortRelevance, "", "")
	assert.ErrorIs(t, err, arxiv.ErrRateLimited)
	assert.Empty(t, st.ListTopics())
}
