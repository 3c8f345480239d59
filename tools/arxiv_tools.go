package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hirenpurabiya/arxiv-scholar-ai/arxiv"
	"github.com/hirenpurabiya/arxiv-scholar-ai/scholar"
	"github.com/hirenpurabiya/arxiv-scholar-ai/store"
	"go.uber.org/zap"
)

// Services bundles the collaborators the built-in tools delegate to.
type Services struct {
	Finder     *scholar.Finder
	Store      *store.Store
	Summarizer *scholar.Summarizer
	Chat       *scholar.ChatEngine
}

// RegisterArxivTools installs the built-in paper tools into the registry.
func RegisterArxivTools(r *Registry, svc Services, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	tools := []struct {
		desc Descriptor
		fn   Handler
	}{
		{
			desc: Descriptor{
				Name: "search",
				Description: "Search arXiv for research papers on a topic. " +
					"Returns paper ids, titles, authors and publication dates as JSON.",
				Parameters: map[string]Param{
					"topic":       {Type: "string", Description: "The research topic to search for"},
					"max_results": {Type: "integer", Description: "How many papers to return (1-20, default 5)"},
					"sort_by":     {Type: "string", Description: "Sort order", Enum: []string{"relevance", "date", "updated"}},
					"date_from":   {Type: "string", Description: "Only papers published on or after this date (YYYY-MM-DD)"},
					"date_to":     {Type: "string", Description: "Only papers published on or before this date (YYYY-MM-DD)"},
				},
				Required: []string{"topic"},
			},
			fn: searchHandler(svc.Finder),
		},
		{
			desc: Descriptor{
				Name: "get_item",
				Description: "Get the full saved metadata of a paper by its arXiv id, " +
					"including the abstract. The paper must have been found by a previous search.",
				Parameters: map[string]Param{
					"paper_id": {Type: "string", Description: "The arXiv id, e.g. 2301.12345"},
				},
				Required: []string{"paper_id"},
			},
			fn: getItemHandler(svc.Store),
		},
		{
			desc: Descriptor{
				Name: "summarize",
				Description: "Summarize a paper in 5-8 plain sentences. " +
					"Uses the saved abstract; the paper must have been found by a previous search.",
				Parameters: map[string]Param{
					"paper_id": {Type: "string", Description: "The arXiv id of the paper to summarize"},
				},
				Required: []string{"paper_id"},
			},
			fn: summarizeHandler(svc.Store, svc.Summarizer),
		},
		{
			desc: Descriptor{
				Name: "explain_simple",
				Description: "Explain a paper the way you would to a 10-year-old: " +
					"the problem, what the authors built, and why it is cool.",
				Parameters: map[string]Param{
					"paper_id": {Type: "string", Description: "The arXiv id of the paper to explain"},
				},
				Required: []string{"paper_id"},
			},
			fn: explainHandler(svc.Store),
		},
		{
			desc: Descriptor{
				Name: "chat",
				Description: "Ask a question about a specific paper and get a " +
					"kid-friendly answer grounded in its abstract.",
				Parameters: map[string]Param{
					"paper_id": {Type: "string", Description: "The arXiv id of the paper the question is about"},
					"message":  {Type: "string", Description: "The question to ask about the paper"},
				},
				Required: []string{"paper_id", "message"},
			},
			fn: chatHandler(svc.Store, svc.Chat),
		},
	}

	for _, t := range tools {
		if err := r.Register(t.desc, t.fn); err != nil {
			return err
		}
	}
	return nil
}

// searchResult is the JSON shape the model sees for a search call. The
// abstract is deliberately omitted to keep results small; get_item fetches it.
type searchResult struct {
	Count   int             `json:"count"`
	Papers  []searchedPaper `json:"papers,omitempty"`
	Message string          `json:"message,omitempty"`
}

type searchedPaper struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Authors   string `json:"authors"`
	Published string `json:"published"`
	PDFURL    string `json:"pdf_url"`
}

func searchHandler(finder *scholar.Finder) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		topic := strings.TrimSpace(argString(args, "topic"))
		if topic == "" {
			return "", fmt.Errorf("topic is required")
		}

		maxResults := argInt(args, "max_results", scholar.DefaultMaxResults)
		sort := arxiv.ParseSortBy(argString(args, "sort_by"))
		dateFrom := argString(args, "date_from")
		dateTo := argString(args, "date_to")

		articles, err := finder.Find(ctx, topic, maxResults, sort, dateFrom, dateTo)
		if err != nil {
			if errors.Is(err, arxiv.ErrRateLimited) {
				return marshalResult(searchResult{
					Count: 0,
					Message: "arXiv is rate-limiting requests right now. " +
						"Do NOT retry this tool; tell the user to try again in a minute.",
				}), nil
			}
			return "", err
		}

		out := searchResult{Count: len(articles)}
		if len(articles) == 0 {
			out.Message = fmt.Sprintf("No papers found for topic '%s'. Try a broader or different topic.", topic)
			return marshalResult(out), nil
		}

		for _, a := range articles {
			out.Papers = append(out.Papers, searchedPaper{
				ID:        a.ID,
				Title:     a.Title,
				Authors:   strings.Join(a.Authors, ", "),
				Published: a.Published,
				PDFURL:    a.PDFURL,
			})
		}
		return marshalResult(out), nil
	}
}

func getItemHandler(st *store.Store) Handler {
	return func(_ context.Context, args map[string]any) (string, error) {
		id := strings.TrimSpace(argString(args, "paper_id"))
		if id == "" {
			return "", fmt.Errorf("paper_id is required")
		}

		article, ok := st.Get(id)
		if !ok {
			return marshalResult(map[string]string{
				"error": fmt.Sprintf("Paper %s not found. Search for it first.", id),
			}), nil
		}
		return marshalResult(article), nil
	}
}

func summarizeHandler(st *store.Store, summarizer *scholar.Summarizer) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		id := strings.TrimSpace(argString(args, "paper_id"))
		if id == "" {
			return "", fmt.Errorf("paper_id is required")
		}

		article, ok := st.Get(id)
		if !ok {
			return fmt.Sprintf("Paper %s not found. Search for it first.", id), nil
		}
		return summarizer.Summarize(ctx, article), nil
	}
}

func explainHandler(st *store.Store) Handler {
	return func(_ context.Context, args map[string]any) (string, error) {
		id := strings.TrimSpace(argString(args, "paper_id"))
		if id == "" {
			return "", fmt.Errorf("paper_id is required")
		}

		article, ok := st.Get(id)
		if !ok {
			return fmt.Sprintf("Paper %s not found. Search for it first.", id), nil
		}
		return scholar.ExplainLikeTen(article.Summary), nil
	}
}

func chatHandler(st *store.Store, engine *scholar.ChatEngine) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		id := strings.TrimSpace(argString(args, "paper_id"))
		message := strings.TrimSpace(argString(args, "message"))
		if id == "" || message == "" {
			return "", fmt.Errorf("paper_id and message are required")
		}

		article, ok := st.Get(id)
		if !ok {
			return fmt.Sprintf("Paper %s not found. Search for it first.", id), nil
		}

		reply := engine.Chat(ctx, article, message, nil, "")
		return reply.Response, nil
	}
}

func marshalResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// argInt reads an integer argument. JSON numbers decode as float64; some
// models also send numbers as strings, which we tolerate.
func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n
		}
	}
	return def
}
