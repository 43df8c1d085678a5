package coinlore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"cryptoview/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Prober decides, from one cheap probe request, whether a source's data is
// worth ingesting. It carries its own short-timeout client so probing many
// candidate sources does not stall the whole filtering pass.
type Prober struct {
	client *resty.Client
	logger *zap.Logger
}

// NewProber creates a prober using the probe timeout, which is deliberately
// shorter than the main ingestion timeout.
func NewProber(cfg *config.API, logger *zap.Logger) *Prober {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.ProbeTimeout) * time.Second)

	return &Prober{client: client, logger: logger}
}

// Probe fetches the detail endpoint for one source id and applies the
// validity heuristic. Any fetch, timeout or decode problem means invalid.
// Verdicts are not persisted; they are computed fresh per session.
func (p *Prober) Probe(ctx context.Context, sourceID string) bool {
	resp, err := p.client.R().SetContext(ctx).Get(ExchangeURL(sourceID))
	if err != nil || resp.IsError() {
		return false
	}
	return looksIngestible(resp.Body())
}

// looksIngestible is a heuristic, not a strict schema check. It is tuned to
// accept the same format variety the payload parsers accept, so a source
// judged valid here is always ingestible.
func looksIngestible(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "{}" || trimmed == "[]" {
		return false
	}

	if strings.HasPrefix(trimmed, "{") {
		// An object is valid when it carries a non-empty pairs array.
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return false
		}
		pairsRaw, ok := fields["pairs"]
		if !ok {
			return false
		}
		var elements []json.RawMessage
		if err := json.Unmarshal(pairsRaw, &elements); err != nil {
			return false
		}
		return len(elements) > 0
	}

	// An array is valid when it has more than a few entries and at least one
	// of the first three looks like a trading pair.
	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		return false
	}
	if len(elements) <= 3 {
		return false
	}
	for i, raw := range elements {
		if i >= 3 {
			break
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		_, hasBase := fields["base"]
		_, hasSymbol := fields["symbol"]
		_, hasQuote := fields["quote"]
		_, hasPrice := fields["price"]
		_, hasPriceUsd := fields["price_usd"]
		if (hasBase || hasSymbol) && (hasQuote || hasPrice || hasPriceUsd) {
			return true
		}
	}
	return false
}

// ProbeResult is one step of a filtering pass. Checked and ValidCount are
// running totals so the caller can render progress before the pass ends.
type ProbeResult struct {
	ID         string
	Valid      bool
	Checked    int
	ValidCount int
}

// FilterSources probes each candidate serially and streams verdicts as they
// arrive. The channel closes when every candidate has been checked or the
// context is cancelled.
func (p *Prober) FilterSources(ctx context.Context, ids []string) <-chan ProbeResult {
	results := make(chan ProbeResult)
	go func() {
		defer close(results)
		valid := 0
		for i, id := range ids {
			ok := p.Probe(ctx, id)
			if ok {
				valid++
			}
			p.logger.Debug("Probed source",
				zap.String("id", id),
				zap.Bool("valid", ok),
				zap.Int("checked", i+1),
			)
			select {
			case results <- ProbeResult{ID: id, Valid: ok, Checked: i + 1, ValidCount: valid}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return results
}
