// Package scholar implements the paper-facing services: search with local
// persistence, summarization, simple explanations, per-paper chat, and
// topic suggestion. These are the collaborators the agent tools and the
// REST handlers are wired to.
package scholar

import (
	"context"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/store"
	"go.uber.org/zap"
)

// DefaultMaxResults is the number of articles returned when the caller
// does not ask for a specific count.
const DefaultMaxResults = 5

// Finder searches arXiv and persists every fetched article's metadata so
// later get/summarize/chat calls can resolve ids without another network trip.
type Finder struct {
	client *arxiv.Client
	store  *store.Store
	logger *zap.Logger
}

func NewFinder(client *arxiv.Client, st *store.Store, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{client: client, store: st, logger: logger}
}

// Find searches arXiv and upserts the results into the metadata store.
// Persistence failures are logged but do not fail the search; the caller
// still gets the fetched articles.
func (f *Finder) Find(ctx context.Context, topic string, maxResults int, sort arxiv.SortBy, dateFrom, dateTo string) ([]arxiv.Article, error) {
	if maxResults < 1 {
		maxResults = DefaultMaxResults
	}
	if maxResults > 20 {
		maxResults = 20
	}

	articles, err := f.client.Search(ctx, topic, maxResults, sort, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	if len(articles) > 0 {
		if err := f.store.SaveAll(topic, articles); err != nil {
			f.logger.Warn("failed to persist search results", zap.String("topic", topic), zap.Error(err))
		}
	}
	return articles, nil
}
