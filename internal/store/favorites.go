package store

import (
	"fmt"
	"strings"
	"time"

	"cryptoview/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

const timeLayout = "2006-01-02 15:04:05"

// isMissingColumn reports the sqlite "no such column" class of error, which
// can still appear at runtime when another writer races the migration.
func isMissingColumn(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such column") || strings.Contains(msg, "no column named")
}

// AddFavorite stores a symbol, with enrichment when the schema allows it.
// In degraded mode, or when the enriched insert hits a missing column, the
// write retries once through the symbol-only path.
func (s *Store) AddFavorite(fav models.Favorite) error {
	if s.mode == ModeDegraded {
		return s.addFavoriteBasic(fav.Symbol)
	}

	if fav.CreatedAt == nil {
		now := time.Now().Unix()
		fav.CreatedAt = &now
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		UpdateAll: true,
	}).Create(&fav).Error
	if isMissingColumn(err) {
		s.logger.Warn("Enriched insert failed, retrying symbol-only",
			zap.String("symbol", fav.Symbol), zap.Error(err))
		return s.addFavoriteBasic(fav.Symbol)
	}
	if err != nil {
		return fmt.Errorf("failed to add favorite %s: %w", fav.Symbol, err)
	}
	return nil
}

func (s *Store) addFavoriteBasic(symbol string) error {
	fav := models.Favorite{Symbol: symbol}
	err := s.db.Select("Symbol").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoNothing: true,
	}).Create(&fav).Error
	if err != nil {
		return fmt.Errorf("failed to add favorite %s: %w", symbol, err)
	}
	return nil
}

// RemoveFavorite deletes every row for the symbol, duplicates included.
func (s *Store) RemoveFavorite(symbol string) error {
	if err := s.db.Where("symbol = ?", symbol).Delete(&models.Favorite{}).Error; err != nil {
		return fmt.Errorf("failed to remove favorite %s: %w", symbol, err)
	}
	return nil
}

// FavoriteSymbols returns just the saved symbols.
func (s *Store) FavoriteSymbols() ([]string, error) {
	var symbols []string
	if err := s.db.Model(&models.Favorite{}).Pluck("symbol", &symbols).Error; err != nil {
		return nil, fmt.Errorf("failed to list favorite symbols: %w", err)
	}
	return symbols, nil
}

// ListFavorites returns saved symbols as display pairs. In degraded mode, or
// when the enriched query hits a missing column, the read retries through
// the symbol-only path, reconstructing base and quote from the symbol.
func (s *Store) ListFavorites() ([]models.TradingPair, error) {
	if s.mode == ModeDegraded {
		return s.listFavoritesBasic()
	}

	var favs []models.Favorite
	err := s.db.Order("created_at desc").Find(&favs).Error
	if isMissingColumn(err) {
		s.logger.Warn("Enriched favorites query failed, retrying symbol-only", zap.Error(err))
		return s.listFavoritesBasic()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	pairs := make([]models.TradingPair, 0, len(favs))
	for _, fav := range favs {
		pairs = append(pairs, favoriteToPair(fav))
	}
	return pairs, nil
}

func (s *Store) listFavoritesBasic() ([]models.TradingPair, error) {
	symbols, err := s.FavoriteSymbols()
	if err != nil {
		return nil, err
	}
	// Symbol-only rows carry no live data; the display time says so.
	saved := time.Now().Local().Format(timeLayout) + " (Saved)"
	pairs := make([]models.TradingPair, 0, len(symbols))
	for _, symbol := range symbols {
		base, quote := splitSymbol(symbol)
		pairs = append(pairs, models.TradingPair{
			Base:          base,
			Quote:         quote,
			FormattedTime: saved,
		})
	}
	return pairs, nil
}

// favoriteToPair maps an enriched row to a display pair, reconstructing
// base/quote from the symbol when the enrichment columns are empty.
func favoriteToPair(fav models.Favorite) models.TradingPair {
	base, quote := "Unknown", "Unknown"
	if fav.Base != nil && *fav.Base != "" {
		base = *fav.Base
	}
	if fav.Quote != nil && *fav.Quote != "" {
		quote = *fav.Quote
	}
	if base == "Unknown" || quote == "Unknown" {
		if b, q := splitSymbol(fav.Symbol); b != "Unknown" && q != "Unknown" {
			base, quote = b, q
		}
	}

	pair := models.TradingPair{Base: base, Quote: quote}
	if fav.LastPrice != nil {
		pair.PriceUsd = *fav.LastPrice
	}
	if fav.CreatedAt != nil {
		pair.Time = *fav.CreatedAt
		pair.FormattedTime = time.Unix(*fav.CreatedAt, 0).Local().Format(timeLayout)
	} else {
		pair.FormattedTime = time.Now().Local().Format(timeLayout)
	}
	if fav.LastExchange != nil && *fav.LastExchange != "" {
		pair.FormattedTime += " (" + *fav.LastExchange + ")"
	}
	return pair
}

// splitSymbol breaks "BTC/USD" into its sides, defaulting each empty side
// to "Unknown".
func splitSymbol(symbol string) (string, string) {
	parts := strings.SplitN(symbol, "/", 2)
	base, quote := "Unknown", "Unknown"
	if parts[0] != "" {
		base = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		quote = parts[1]
	}
	return base, quote
}
