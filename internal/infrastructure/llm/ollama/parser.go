package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/resilience"
)

// Parser is the language-model path of query decomposition. Any failure,
// whether transport, malformed JSON or an empty item list, comes back
// wrapped as ErrDecompositionFailed so the caller falls through to the
// heuristic.
type Parser struct {
	client   *Client
	executor *resilience.Executor
}

func NewParser(client *Client) *Parser {
	return &Parser{client: client}
}

// NewParserWithExecutor runs generation calls through executor. The parse
// path wants its own breaker so a flapping generation model cannot open the
// embedding circuit.
func NewParserWithExecutor(client *Client, executor *resilience.Executor) *Parser {
	return &Parser{client: client, executor: executor}
}

type parsedItem struct {
	Name          string          `json:"name"`
	Quantity      json.RawMessage `json:"quantity"`
	Specification string          `json:"specification"`
}

func (p *Parser) ParseLineItems(ctx context.Context, query string) ([]domain.LineItemRequest, error) {
	raw, err := p.generate(ctx, buildParsePrompt(query))
	if err != nil {
		return nil, domain.WrapError(domain.ErrDecompositionFailed, "llm parse", err)
	}

	var payload struct {
		Items []parsedItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, domain.WrapError(domain.ErrDecompositionFailed, "decode line items", err)
	}

	lines := make([]domain.LineItemRequest, 0, len(payload.Items))
	for _, item := range payload.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		lines = append(lines, domain.LineItemRequest{
			Description:   name,
			Quantity:      coerceQuantity(item.Quantity),
			Specification: strings.TrimSpace(item.Specification),
			SourcePhrase:  query,
		})
	}
	if len(lines) == 0 {
		return nil, domain.WrapError(domain.ErrDecompositionFailed, "validate line items",
			fmt.Errorf("no usable items in model output"))
	}
	return lines, nil
}

func (p *Parser) generate(ctx context.Context, prompt string) (string, error) {
	if p.executor == nil {
		return p.client.generateJSON(ctx, prompt)
	}
	var raw string
	err := p.executor.Execute(ctx, "ollama.parse", func(ctx context.Context) error {
		var callErr error
		raw, callErr = p.client.generateJSON(ctx, prompt)
		return callErr
	}, ClassifyError)
	return raw, err
}

// coerceQuantity accepts whatever the model produced for quantity (number,
// quoted number, missing) and clamps anything unusable to 1.
func coerceQuantity(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}

	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" {
		return 1
	}
	if n, err := strconv.Atoi(text); err == nil {
		if n < 1 {
			return 1
		}
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f >= 1 {
		return int(f)
	}
	return 1
}
