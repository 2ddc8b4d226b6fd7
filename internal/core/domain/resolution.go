package domain

import "time"

// LineItemRequest is one discrete position extracted from a user query.
// It only lives for the duration of a single resolution.
type LineItemRequest struct {
	Description   string `json:"description"`
	Quantity      int    `json:"quantity"`
	Specification string `json:"specification,omitempty"`
	SourcePhrase  string `json:"source_phrase,omitempty"`
}

// Decomposition is the outcome of splitting a query into line items.
// Structured reports whether the language-model path produced it; false
// means the deterministic fallback fired.
type Decomposition struct {
	Lines      []LineItemRequest
	Structured bool
}

// MatchCandidate references a catalog item by id; the item itself stays
// owned by the catalog snapshot. Higher score is more similar.
type MatchCandidate struct {
	ItemID int64   `json:"item_id"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}

// ProductRef is the display projection of a matched catalog item.
type ProductRef struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Score     float64 `json:"score"`
}

// ResolvedLine is one line of the final answer. BestMatch is nil when the
// index returned no candidate for the requested item.
type ResolvedLine struct {
	RequestedItem string       `json:"requested_item"`
	Quantity      int          `json:"quantity"`
	BestMatch     *ProductRef  `json:"best_match"`
	Alternatives  []ProductRef `json:"alternatives,omitempty"`
	UnitPrice     float64      `json:"unit_price"`
	LineTotal     float64      `json:"line_total"`
}

type ResolutionResult struct {
	OriginalQuery string         `json:"original_query"`
	Items         []ResolvedLine `json:"items"`
	TotalItems    int            `json:"total_items"`
	FoundItems    int            `json:"found_items"`
	TotalCost     float64        `json:"total_cost"`
	Currency      string         `json:"currency"`
	Decomposed    bool           `json:"decomposed"`
}

// ResolveOptions are the per-request knobs exposed at the pipeline boundary.
type ResolveOptions struct {
	TopK             int
	UseLanguageModel bool
}

// HistoryEntry is a persisted record of one completed resolution.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	LineCount  int       `json:"line_count"`
	FoundCount int       `json:"found_count"`
	TotalCost  float64   `json:"total_cost"`
	Decomposed bool      `json:"decomposed"`
	CreatedAt  time.Time `json:"created_at"`
}
