package market

import (
	"sync"

	"cryptoview/internal/models"
)

// Snapshot holds the complete pair set currently considered "current" for
// the selected source. Writers replace the whole slice in one hand-off;
// readers get the slice value and must treat it as immutable. No lock is
// ever held across a fetch.
type Snapshot struct {
	mu    sync.RWMutex
	pairs []models.TradingPair
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Replace swaps in a freshly parsed pair set. Last write wins: a stale
// fetch that completes after a newer one simply gets overwritten.
func (s *Snapshot) Replace(pairs []models.TradingPair) {
	s.mu.Lock()
	s.pairs = pairs
	s.mu.Unlock()
}

// Current returns the pair set as of the last refresh.
func (s *Snapshot) Current() []models.TradingPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pairs
}

// Find returns the pair with the given symbol, if present.
func (s *Snapshot) Find(symbol string) (models.TradingPair, bool) {
	for _, p := range s.Current() {
		if p.Symbol() == symbol {
			return p, true
		}
	}
	return models.TradingPair{}, false
}

// Len reports the number of pairs currently held.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pairs)
}
