package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"go.uber.org/zap"
)

const metadataFile = "articles.json"

// Store persists article metadata as one JSON file per topic
// (<dir>/<topic_slug>/articles.json), keyed by arXiv short id.
//
// Writes are idempotent upserts with last-writer-wins per topic; the
// process-wide mutex plus atomic rename keeps concurrent agent runs from
// corrupting a topic file. No cross-topic transaction is attempted.
type Store struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Slug normalizes a topic into a directory name.
func Slug(topic string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(topic)), " ", "_")
}

// SaveAll upserts the given articles into the topic's metadata file,
// merging with whatever is already stored there.
func (s *Store) SaveAll(topic string, articles []arxiv.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topicDir := filepath.Join(s.dir, Slug(topic))
	if err := os.MkdirAll(topicDir, 0o755); err != nil {
		return fmt.Errorf("failed to create topic dir: %w", err)
	}

	metadataPath := filepath.Join(topicDir, metadataFile)
	existing := s.readTopicFile(metadataPath)

	for _, a := range articles {
		existing[a.ID] = a
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// 临时文件 + rename，保证读者永远看到完整的 JSON
	tmp := metadataPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := os.Rename(tmp, metadataPath); err != nil {
		return fmt.Errorf("failed to replace metadata: %w", err)
	}

	s.logger.Info("articles saved",
		zap.String("topic", topic),
		zap.Int("count", len(articles)),
		zap.Int("total", len(existing)))
	return nil
}

// Get looks up an article by id across all topic directories.
func (s *Store) Get(id string) (arxiv.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read store dir", zap.Error(err))
		}
		return arxiv.Article{}, false
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		articles := s.readTopicFile(filepath.Join(s.dir, entry.Name(), metadataFile))
		if a, ok := articles[id]; ok {
			return a, true
		}
	}
	return arxiv.Article{}, false
}

// ListTopics returns the slugs of all topics with saved articles, sorted.
func (s *Store) ListTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var topics []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, entry.Name(), metadataFile)); err == nil {
			topics = append(topics, entry.Name())
		}
	}
	sort.Strings(topics)
	return topics
}

// ByTopic returns all saved articles for a topic slug, keyed by id.
func (s *Store) ByTopic(slug string) map[string]arxiv.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readTopicFile(filepath.Join(s.dir, slug, metadataFile))
}

// readTopicFile loads one topic's metadata; a missing or corrupt file is
// treated as empty so a bad write never blocks future searches.
func (s *Store) readTopicFile(path string) map[string]arxiv.Article {
	out := make(map[string]arxiv.Article)
	data, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("corrupt metadata file, treating as empty", zap.String("path", path), zap.Error(err))
		return make(map[string]arxiv.Article)
	}
	return out
}
