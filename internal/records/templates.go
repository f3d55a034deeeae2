package records

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opListTemplates  = "records.list_templates"
	opSaveTemplate   = "records.save_template"
	opRemoveTemplate = "records.remove_template"
)

// ListTemplates returns every diet template ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]Template, error) {
	var templates []Template
	if err := s.db.WithContext(ctx).
		Order("name ASC").
		Find(&templates).Error; err != nil {
		s.logError(opListTemplates, "query_failed", err)
		return nil, newStoreError(opListTemplates, "query_failed", err)
	}
	return templates, nil
}

// GetTemplate fetches a single template by identifier.
func (s *Store) GetTemplate(ctx context.Context, localID string) (Template, error) {
	var template Template
	err := s.db.WithContext(ctx).Where("local_id = ?", localID).Take(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Template{}, ErrNotFound
	}
	if err != nil {
		s.logError(opListTemplates, "query_failed", err, zap.String("local_id", localID))
		return Template{}, newStoreError(opListTemplates, "query_failed", err)
	}
	return template, nil
}

// SaveTemplate upserts a template, issuing a LocalID for new records.
func (s *Store) SaveTemplate(ctx context.Context, template Template) (Template, error) {
	localID, err := s.ensureID(template.LocalID)
	if err != nil {
		s.logError(opSaveTemplate, "id_generation_failed", err)
		return Template{}, newStoreError(opSaveTemplate, "id_generation_failed", err)
	}
	template.LocalID = localID
	if template.MealsJSON == "" {
		template.MealsJSON = "[]"
	}

	if err := s.db.WithContext(ctx).Save(&template).Error; err != nil {
		s.logError(opSaveTemplate, "template_save_failed", err, zap.String("local_id", template.LocalID))
		return Template{}, newStoreError(opSaveTemplate, "template_save_failed", err)
	}
	return template, nil
}

// RemoveTemplate deletes a template by identifier.
func (s *Store) RemoveTemplate(ctx context.Context, localID string) error {
	result := s.db.WithContext(ctx).Where("local_id = ?", localID).Delete(&Template{})
	if result.Error != nil {
		s.logError(opRemoveTemplate, "template_delete_failed", result.Error, zap.String("local_id", localID))
		return newStoreError(opRemoveTemplate, "template_delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountTemplates reports how many templates are stored locally.
func (s *Store) CountTemplates(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Template{}).Count(&count).Error; err != nil {
		return 0, newStoreError(opListTemplates, "count_failed", err)
	}
	return count, nil
}
