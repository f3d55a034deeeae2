package records

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opListAppointments  = "records.list_appointments"
	opSaveAppointment   = "records.save_appointment"
	opRemoveAppointment = "records.remove_appointment"
)

// ListAppointments returns every appointment ordered by date and time.
func (s *Store) ListAppointments(ctx context.Context) ([]Appointment, error) {
	var appointments []Appointment
	if err := s.db.WithContext(ctx).
		Order("date ASC, time ASC").
		Find(&appointments).Error; err != nil {
		s.logError(opListAppointments, "query_failed", err)
		return nil, newStoreError(opListAppointments, "query_failed", err)
	}
	return appointments, nil
}

// GetAppointment fetches a single appointment by identifier.
func (s *Store) GetAppointment(ctx context.Context, localID string) (Appointment, error) {
	var appointment Appointment
	err := s.db.WithContext(ctx).Where("local_id = ?", localID).Take(&appointment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		s.logError(opListAppointments, "query_failed", err, zap.String("local_id", localID))
		return Appointment{}, newStoreError(opListAppointments, "query_failed", err)
	}
	return appointment, nil
}

// SaveAppointment upserts an appointment, issuing a LocalID for new records
// and defaulting the status to pending.
func (s *Store) SaveAppointment(ctx context.Context, appointment Appointment) (Appointment, error) {
	localID, err := s.ensureID(appointment.LocalID)
	if err != nil {
		s.logError(opSaveAppointment, "id_generation_failed", err)
		return Appointment{}, newStoreError(opSaveAppointment, "id_generation_failed", err)
	}
	appointment.LocalID = localID
	if appointment.Status == "" {
		appointment.Status = DefaultAppointmentStatus
	}
	if appointment.TypesJSON == "" {
		appointment.TypesJSON = "[]"
	}

	if err := s.db.WithContext(ctx).Save(&appointment).Error; err != nil {
		s.logError(opSaveAppointment, "appointment_save_failed", err, zap.String("local_id", appointment.LocalID))
		return Appointment{}, newStoreError(opSaveAppointment, "appointment_save_failed", err)
	}
	return appointment, nil
}

// RemoveAppointment deletes an appointment by identifier.
func (s *Store) RemoveAppointment(ctx context.Context, localID string) error {
	result := s.db.WithContext(ctx).Where("local_id = ?", localID).Delete(&Appointment{})
	if result.Error != nil {
		s.logError(opRemoveAppointment, "appointment_delete_failed", result.Error, zap.String("local_id", localID))
		return newStoreError(opRemoveAppointment, "appointment_delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAppointments reports how many appointments are stored locally.
func (s *Store) CountAppointments(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Appointment{}).Count(&count).Error; err != nil {
		return 0, newStoreError(opListAppointments, "count_failed", err)
	}
	return count, nil
}
