package domain

import "math"

// CatalogItem is a single row of the loaded item catalog.
// Position is a dense 0-based index, stable for the lifetime of one load;
// it joins catalog rows to their cached embedding vectors.
type CatalogItem struct {
	Position    int
	Code        string
	Description string
}

// SearchResult is one ranked match for a query, ordered by descending score.
type SearchResult struct {
	ItemCode    string  `json:"item_code"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Hit is a raw similarity hit from a vector index: the catalog position of
// the matched row and its unrounded similarity score.
type Hit struct {
	Position int
	Score    float64
}

// FeedbackStatus classifies how a human's confirmed answer relates to the
// suggestions made for one query.
type FeedbackStatus string

const (
	StatusNoMatches     FeedbackStatus = "No matches suggested"
	StatusSkipped       FeedbackStatus = "Feedback skipped by user"
	StatusTopConfirmed  FeedbackStatus = "Top match confirmed by user"
	StatusOtherSelected FeedbackStatus = "Other suggested match selected by user"
	StatusNewCode       FeedbackStatus = "New code provided by user"
	StatusNoFeedback    FeedbackStatus = "No feedback given"
)

// FeedbackRecord is one immutable entry of the feedback ledger.
type FeedbackRecord struct {
	Query            string         `json:"query"`
	Timestamp        string         `json:"timestamp"`
	SuggestedTopCode string         `json:"suggested_top_code,omitempty"`
	Results          []SearchResult `json:"all_results"`
	UserSelectedCode string         `json:"user_selected_code,omitempty"`
	FeedbackStatus   FeedbackStatus `json:"feedback_status"`
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
	EmbedBatch(texts []string) ([][]float64, error)
}

// RoundScore rounds a similarity score to 4 decimal places for display.
// Threshold comparisons use the unrounded value.
func RoundScore(s float64) float64 {
	return math.Round(s*10000) / 10000
}
