package store

import (
	"fmt"

	"cryptoview/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Mode says whether the favorites table carries the enriched column set or
// the store fell back to symbol-only operations.
type Mode int

const (
	ModeEnriched Mode = iota
	ModeDegraded
)

func (m Mode) String() string {
	if m == ModeDegraded {
		return "degraded"
	}
	return "enriched"
}

// enrichedColumns are the favorite columns added after the symbol-only
// schema generation, in the order they are ensured.
var enrichedColumns = []string{"base", "quote", "last_price", "last_exchange", "created_at"}

// Store is the durable user state: favorites, alerts, historical prices and
// settings, backed by a local sqlite file. Every operation uses a
// short-lived implicit transaction; no locks are held across calls.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	mode   Mode
}

// New opens the database, ensures the base tables exist and upgrades the
// favorites schema in place. A failed upgrade is recovered locally and
// never surfaced; the store just runs degraded. The favorites cleanup pass
// runs on every startup.
func New(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	if err := s.CleanupFavorites(); err != nil {
		logger.Warn("Favorites cleanup failed", zap.Error(err))
	}
	return s, nil
}

// Mode reports the favorites schema mode for the life of this process.
func (s *Store) Mode() Mode {
	return s.mode
}

// migrate ensures the base tables and upgrades the favorites table. Base
// table creation is idempotent; the favorites upgrade adds the enriched
// columns one at a time, each step safe to repeat.
func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&models.HistoricalPrice{}, &models.PriceAlert{}, &models.Setting{}); err != nil {
		return fmt.Errorf("failed to migrate base tables: %w", err)
	}

	m := s.db.Migrator()
	if !m.HasTable(&models.Favorite{}) {
		if err := m.CreateTable(&models.Favorite{}); err != nil {
			return fmt.Errorf("failed to create favorites table: %w", err)
		}
		s.mode = ModeEnriched
		return nil
	}

	if err := s.ensureColumns(); err != nil {
		s.recreateFavorites(err)
	} else {
		s.mode = ModeEnriched
	}
	s.logger.Info("Favorites schema ready", zap.Stringer("mode", s.mode))
	return nil
}

func (s *Store) ensureColumns() error {
	m := s.db.Migrator()
	for _, col := range enrichedColumns {
		// A column that already exists is a no-op for that step.
		if m.HasColumn(&models.Favorite{}, col) {
			continue
		}
		if err := m.AddColumn(&models.Favorite{}, col); err != nil {
			return fmt.Errorf("failed to add favorites column %s: %w", col, err)
		}
		s.logger.Info("Added favorites column", zap.String("column", col))
	}
	return nil
}

// recreateFavorites is the explicit recovery strategy when the in-place
// upgrade fails: drop the table and recreate it with the full schema.
// Losing the rows on this path is accepted. If even that fails the store
// runs degraded with whatever table is there.
func (s *Store) recreateFavorites(cause error) {
	s.logger.Warn("Favorites migration failed, recreating table", zap.Error(cause))
	m := s.db.Migrator()
	if err := m.DropTable(&models.Favorite{}); err != nil {
		s.logger.Error("Failed to drop favorites table", zap.Error(err))
		s.mode = ModeDegraded
		return
	}
	if err := m.CreateTable(&models.Favorite{}); err != nil {
		s.logger.Error("Failed to recreate favorites table", zap.Error(err))
		s.mode = ModeDegraded
		return
	}
	s.mode = ModeEnriched
}

// Reset drops every table and reinitializes the schema from scratch. All
// saved state is lost.
func (s *Store) Reset() error {
	m := s.db.Migrator()
	if err := m.DropTable(&models.HistoricalPrice{}, &models.PriceAlert{}, &models.Favorite{}, &models.Setting{}); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return s.migrate()
}

// CleanupFavorites removes duplicate favorite rows, keeping the lowest row
// id per symbol, and rows whose symbol is empty or missing one side of the
// pair. Idempotent, safe to run on every startup.
func (s *Store) CleanupFavorites() error {
	res := s.db.Exec(`
		DELETE FROM Favorites
		WHERE id NOT IN (
			SELECT MIN(id) FROM Favorites GROUP BY symbol
		)
		OR symbol IS NULL
		OR symbol = ''
		OR symbol LIKE '%/'
		OR symbol LIKE '/%'`)
	if res.Error != nil {
		return fmt.Errorf("failed to clean up favorites: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("Cleaned up favorites", zap.Int64("removed", res.RowsAffected))
	}
	return nil
}
