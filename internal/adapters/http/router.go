package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
	"github.com/naladwepo/procurement-assistant/internal/core/ports"
	"github.com/naladwepo/procurement-assistant/internal/observability/metrics"
)

// Options tunes the traffic-control middleware. Zero values disable the
// corresponding gate.
type Options struct {
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration
	Metrics          *metrics.HTTPServerMetrics
}

type Router struct {
	resolver  ports.QueryResolver
	rebuilder ports.CatalogRebuilder
	history   ports.HistoryReader
	index     ports.SimilarityIndex
	opts      Options
}

func NewRouter(
	resolver ports.QueryResolver,
	rebuilder ports.CatalogRebuilder,
	history ports.HistoryReader,
	index ports.SimilarityIndex,
	opts Options,
) *Router {
	return &Router{
		resolver:  resolver,
		rebuilder: rebuilder,
		history:   history,
		index:     index,
		opts:      opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/resolve", rt.resolve)
	mux.HandleFunc("/v1/catalog/reload", rt.reloadCatalog)
	mux.HandleFunc("/v1/catalog/items/", rt.similarItems)
	mux.HandleFunc("/v1/history", rt.listHistory)
	if rt.opts.Metrics != nil {
		mux.Handle("/metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(handler)
	}
	if rt.opts.MaxConcurrent > 0 {
		wait := rt.opts.BackpressureWait
		if wait <= 0 {
			wait = 200 * time.Millisecond
		}
		handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, wait)
	}
	if rt.opts.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !rt.index.Ready() {
		status = "index not ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":       status,
		"catalog_size": rt.index.Size(),
	})
}

func (rt *Router) resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query  string `json:"query"`
		TopK   int    `json:"top_k"`
		UseLLM *bool  `json:"use_llm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	useLLM := true
	if req.UseLLM != nil {
		useLLM = *req.UseLLM
	}

	result, err := rt.resolver.Resolve(r.Context(), req.Query, domain.ResolveOptions{
		TopK:             req.TopK,
		UseLanguageModel: useLLM,
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*domain.ResolutionResult
		TotalCostDisplay string `json:"total_cost_display"`
	}{result, domain.FormatPrice(result.TotalCost, currencyTag(result.Currency))})
}

// currencyTag maps an ISO currency code to its display suffix.
func currencyTag(currency string) string {
	if currency == "RUB" {
		return "руб."
	}
	return currency
}

func (rt *Router) reloadCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	size, err := rt.rebuilder.Rebuild(r.Context(), true)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": size})
}

func (rt *Router) similarItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/catalog/items/")
	idText, ok := strings.CutSuffix(rest, "/similar")
	if !ok || idText == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	itemID, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item id must be an integer"})
		return
	}

	k := 5
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil || k < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "k must be a positive integer"})
			return
		}
	}

	candidates, err := rt.index.SimilarTo(r.Context(), itemID, k)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	refs := make([]domain.ProductRef, 0, len(candidates))
	for _, c := range candidates {
		item, ok := rt.index.Item(c.ItemID)
		if !ok {
			continue
		}
		refs = append(refs, domain.ProductRef{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.Cost,
			Score:     c.Score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"item_id": itemID, "similar": refs})
}

func (rt *Router) listHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history is disabled"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := rt.history.ListRecent(r.Context(), limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
