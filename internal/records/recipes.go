package records

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opListRecipes  = "records.list_recipes"
	opSaveRecipe   = "records.save_recipe"
	opRemoveRecipe = "records.remove_recipe"
)

// ListRecipes returns every recipe ordered by name.
func (s *Store) ListRecipes(ctx context.Context) ([]Recipe, error) {
	var recipes []Recipe
	if err := s.db.WithContext(ctx).
		Order("name ASC").
		Find(&recipes).Error; err != nil {
		s.logError(opListRecipes, "query_failed", err)
		return nil, newStoreError(opListRecipes, "query_failed", err)
	}
	return recipes, nil
}

// GetRecipe fetches a single recipe by identifier.
func (s *Store) GetRecipe(ctx context.Context, localID string) (Recipe, error) {
	var recipe Recipe
	err := s.db.WithContext(ctx).Where("local_id = ?", localID).Take(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Recipe{}, ErrNotFound
	}
	if err != nil {
		s.logError(opListRecipes, "query_failed", err, zap.String("local_id", localID))
		return Recipe{}, newStoreError(opListRecipes, "query_failed", err)
	}
	return recipe, nil
}

// SaveRecipe upserts a recipe, issuing a LocalID for new records.
func (s *Store) SaveRecipe(ctx context.Context, recipe Recipe) (Recipe, error) {
	localID, err := s.ensureID(recipe.LocalID)
	if err != nil {
		s.logError(opSaveRecipe, "id_generation_failed", err)
		return Recipe{}, newStoreError(opSaveRecipe, "id_generation_failed", err)
	}
	recipe.LocalID = localID
	if recipe.ContentsJSON == "" {
		recipe.ContentsJSON = "{}"
	}
	if recipe.SeasonsJSON == "" {
		recipe.SeasonsJSON = "[]"
	}

	if err := s.db.WithContext(ctx).Save(&recipe).Error; err != nil {
		s.logError(opSaveRecipe, "recipe_save_failed", err, zap.String("local_id", recipe.LocalID))
		return Recipe{}, newStoreError(opSaveRecipe, "recipe_save_failed", err)
	}
	return recipe, nil
}

// RemoveRecipe deletes a recipe by identifier.
func (s *Store) RemoveRecipe(ctx context.Context, localID string) error {
	result := s.db.WithContext(ctx).Where("local_id = ?", localID).Delete(&Recipe{})
	if result.Error != nil {
		s.logError(opRemoveRecipe, "recipe_delete_failed", result.Error, zap.String("local_id", localID))
		return newStoreError(opRemoveRecipe, "recipe_delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRecipes reports how many recipes are stored locally.
func (s *Store) CountRecipes(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Recipe{}).Count(&count).Error; err != nil {
		return 0, newStoreError(opListRecipes, "count_failed", err)
	}
	return count, nil
}
