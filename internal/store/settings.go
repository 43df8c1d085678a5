package store

import (
	"errors"
	"fmt"

	"cryptoview/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetSetting stores or replaces a key/value setting.
func (s *Store) SetSetting(key, value string) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// GetSetting returns the stored value, or "" when the key is absent.
func (s *Store) GetSetting(key string) (string, error) {
	var setting models.Setting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting.Value, nil
}

// DeleteSetting removes a key. Deleting an absent key is not an error.
func (s *Store) DeleteSetting(key string) error {
	if err := s.db.Where("key = ?", key).Delete(&models.Setting{}).Error; err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
