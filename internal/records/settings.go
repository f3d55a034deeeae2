package records

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

const (
	opGetSetting = "records.get_setting"
	opSetSetting = "records.set_setting"
)

// GetSetting reads a settings value. The boolean reports whether the key was
// present.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var setting Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		s.logError(opGetSetting, "query_failed", err)
		return "", false, newStoreError(opGetSetting, "query_failed", err)
	}
	return setting.Value, true, nil
}

// SetSetting writes a settings value, overwriting any previous one.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	setting := Setting{Key: key, Value: value}
	if err := s.db.WithContext(ctx).Save(&setting).Error; err != nil {
		s.logError(opSetSetting, "save_failed", err)
		return newStoreError(opSetSetting, "save_failed", err)
	}
	return nil
}
