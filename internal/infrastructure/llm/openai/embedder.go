// Package openai provides an embedding backend for OpenAI-compatible
// servers (vLLM, LocalAI, text-embeddings-inference). It is an alternative
// to the Ollama embedder, selected via EMBEDDING_PROVIDER.
package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Query/passage framing must match the Ollama embedder so an index built
// with one provider is searchable after switching only if rebuilt: the
// prefixes are identical, the vector spaces are not.
const (
	queryPrefix   = "query: "
	passagePrefix = "passage: "
)

type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

func NewEmbedder(baseURL, model string, logger *slog.Logger) (*Embedder, error) {
	// "none" satisfies clients of local services that skip auth.
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		embedder: embedder,
		logger:   logger.With("component", "openai-embedder"),
	}, nil
}

func (e *Embedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = passagePrefix + text
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, inputs)
	if err != nil {
		e.logger.Error("embed passages failed", "count", len(texts), "error", err)
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, queryPrefix+text)
	if err != nil {
		e.logger.Error("embed query failed", "error", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vector, nil
}
