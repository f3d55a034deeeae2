package records

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opListNotes   = "records.list_notes"
	opSaveNote    = "records.save_note"
	opRemoveNote  = "records.remove_note"
	opPruneNotes  = "records.prune_blank_notes"
	opSeedWelcome = "records.seed_welcome_note"
)

const (
	welcomeNoteTitle   = "Hoş Geldiniz! 📝"
	welcomeNoteContent = "DiyetKent notlar bölümüne hoş geldiniz."
)

// ListNotes returns every note, pinned first, newest first within each group.
func (s *Store) ListNotes(ctx context.Context) ([]Note, error) {
	var notes []Note
	if err := s.db.WithContext(ctx).
		Order("pinned DESC, created_at DESC").
		Find(&notes).Error; err != nil {
		s.logError(opListNotes, "query_failed", err)
		return nil, newStoreError(opListNotes, "query_failed", err)
	}
	return notes, nil
}

// GetNote fetches a single note by identifier.
func (s *Store) GetNote(ctx context.Context, localID string) (Note, error) {
	var note Note
	err := s.db.WithContext(ctx).Where("local_id = ?", localID).Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		s.logError(opListNotes, "query_failed", err, zap.String("local_id", localID))
		return Note{}, newStoreError(opListNotes, "query_failed", err)
	}
	return note, nil
}

// SaveNote upserts a note, issuing a LocalID for new records and applying the
// default color. A save with no identifier while a blank note already exists
// returns that blank note instead of inserting a second one.
func (s *Store) SaveNote(ctx context.Context, note Note) (Note, error) {
	if note.LocalID == "" && note.Blank() {
		existing, found, err := s.findBlankNote(ctx)
		if err != nil {
			return Note{}, err
		}
		if found {
			return existing, nil
		}
	}

	localID, err := s.ensureID(note.LocalID)
	if err != nil {
		s.logError(opSaveNote, "id_generation_failed", err)
		return Note{}, newStoreError(opSaveNote, "id_generation_failed", err)
	}
	note.LocalID = localID
	if note.Color == "" {
		note.Color = DefaultNoteColor
	}
	if note.TagsJSON == "" {
		note.TagsJSON = "[]"
	}

	if err := s.db.WithContext(ctx).Save(&note).Error; err != nil {
		s.logError(opSaveNote, "note_save_failed", err, zap.String("local_id", note.LocalID))
		return Note{}, newStoreError(opSaveNote, "note_save_failed", err)
	}
	return note, nil
}

// RemoveNote deletes a note by identifier. Removing an unknown note reports
// ErrNotFound so callers can distinguish a stale UI state.
func (s *Store) RemoveNote(ctx context.Context, localID string) error {
	result := s.db.WithContext(ctx).Where("local_id = ?", localID).Delete(&Note{})
	if result.Error != nil {
		s.logError(opRemoveNote, "note_delete_failed", result.Error, zap.String("local_id", localID))
		return newStoreError(opRemoveNote, "note_delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PruneBlankNotes deletes notes with no title and no content. It is invoked
// when focus leaves a note, never while one is being edited.
func (s *Store) PruneBlankNotes(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("trim(title) = '' AND trim(content) = ''").
		Delete(&Note{})
	if result.Error != nil {
		s.logError(opPruneNotes, "prune_failed", result.Error)
		return 0, newStoreError(opPruneNotes, "prune_failed", result.Error)
	}
	return result.RowsAffected, nil
}

// SeedWelcomeNote inserts the pinned welcome note into a store with no notes.
func (s *Store) SeedWelcomeNote(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Note{}).Count(&count).Error; err != nil {
		s.logError(opSeedWelcome, "count_failed", err)
		return newStoreError(opSeedWelcome, "count_failed", err)
	}
	if count > 0 {
		return nil
	}

	localID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opSeedWelcome, "id_generation_failed", err)
		return newStoreError(opSeedWelcome, "id_generation_failed", err)
	}
	welcome := Note{
		LocalID: localID,
		Title:   welcomeNoteTitle,
		Content: welcomeNoteContent,
		Color:   DefaultNoteColor,
		Pinned:  true,
	}
	if err := s.db.WithContext(ctx).Create(&welcome).Error; err != nil {
		s.logError(opSeedWelcome, "insert_failed", err)
		return newStoreError(opSeedWelcome, "insert_failed", err)
	}
	return nil
}

// CountNotes reports how many notes are stored locally.
func (s *Store) CountNotes(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Note{}).Count(&count).Error; err != nil {
		return 0, newStoreError(opListNotes, "count_failed", err)
	}
	return count, nil
}

func (s *Store) findBlankNote(ctx context.Context) (Note, bool, error) {
	var note Note
	err := s.db.WithContext(ctx).
		Where("trim(title) = '' AND trim(content) = ''").
		Order("created_at DESC").
		Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, false, nil
	}
	if err != nil {
		s.logError(opSaveNote, "blank_lookup_failed", err)
		return Note{}, false, newStoreError(opSaveNote, "blank_lookup_failed", err)
	}
	return note, true, nil
}
