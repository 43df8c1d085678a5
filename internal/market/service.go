package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"cryptoview/internal/coinlore"
	"cryptoview/internal/models"
	"go.uber.org/zap"
)

// HistoryRecorder receives one price sample per favorite symbol after each
// successful refresh. Nil disables sampling.
type HistoryRecorder interface {
	FavoriteSymbols() ([]string, error)
	SaveHistoricalPrice(sample models.HistoricalPrice) error
}

// Service drives the refresh cycle: fetch the selected source, classify and
// parse the payload, and hand the normalized pair set to the snapshot in a
// single atomic replace.
type Service struct {
	logger  *zap.Logger
	fetcher coinlore.Fetcher
	parser  *coinlore.Parser
	snap    *Snapshot
	history HistoryRecorder
}

// NewService creates a refresh service.
func NewService(logger *zap.Logger, fetcher coinlore.Fetcher, parser *coinlore.Parser, snap *Snapshot, history HistoryRecorder) *Service {
	return &Service{
		logger:  logger,
		fetcher: fetcher,
		parser:  parser,
		snap:    snap,
		history: history,
	}
}

// Snapshot exposes the snapshot for read-only consumers.
func (s *Service) Snapshot() *Snapshot {
	return s.snap
}

// Refresh fetches the detail endpoint for one source and, on success,
// replaces the snapshot wholesale. Parse failures leave the previous
// snapshot in place and mark the source unusable for this cycle only.
func (s *Service) Refresh(ctx context.Context, sourceID string) (coinlore.Result, error) {
	url := coinlore.ExchangeURL(sourceID)
	ok, body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return coinlore.Result{}, fmt.Errorf("fetch source %s: %w", sourceID, err)
	}
	if !ok {
		return coinlore.Result{}, &coinlore.TransportError{URL: url}
	}

	res, err := s.parser.Parse(body)
	if err != nil {
		return coinlore.Result{}, err
	}

	s.snap.Replace(res.Pairs)
	s.logger.Info("Snapshot replaced",
		zap.String("source", sourceID),
		zap.Int("pairs", len(res.Pairs)),
	)

	s.sampleHistory(res.Pairs)
	return res, nil
}

// sampleHistory appends one historical price row per favorite symbol present
// in the fresh pair set. Failures are logged, never escalated.
func (s *Service) sampleHistory(pairs []models.TradingPair) {
	if s.history == nil {
		return
	}
	symbols, err := s.history.FavoriteSymbols()
	if err != nil {
		s.logger.Warn("Could not list favorites for history sampling", zap.Error(err))
		return
	}
	if len(symbols) == 0 {
		return
	}
	favorites := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		favorites[sym] = struct{}{}
	}
	for _, pair := range pairs {
		if _, ok := favorites[pair.Symbol()]; !ok {
			continue
		}
		sample := models.HistoricalPrice{
			Symbol:    pair.Symbol(),
			Price:     pair.PriceUsd,
			Timestamp: pair.Time,
		}
		if err := s.history.SaveHistoricalPrice(sample); err != nil {
			s.logger.Warn("Failed to save price sample",
				zap.String("symbol", pair.Symbol()), zap.Error(err))
		}
	}
}

// Sources fetches the exchange listing and returns the entries sorted by
// name. Entries that fail to decode or carry no name are dropped.
func (s *Service) Sources(ctx context.Context) ([]models.Exchange, error) {
	url := coinlore.ExchangesURL()
	ok, body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch exchange listing: %w", err)
	}
	if !ok {
		return nil, &coinlore.TransportError{URL: url}
	}

	var listing map[string]json.RawMessage
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode exchange listing: %w", err)
	}

	// The map key is the source id; the value's own id field is not trusted
	// because some sources send it as a number.
	out := make([]models.Exchange, 0, len(listing))
	for id, raw := range listing {
		var entry struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Name == "" {
			continue
		}
		out = append(out, models.Exchange{ID: id, Name: entry.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
