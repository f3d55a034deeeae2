package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidTenant indicates the caller supplied no usable tenant identifier.
var ErrInvalidTenant = errors.New("profile: invalid tenant")

// ServiceConfig describes the dependencies of the profile service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service reads and updates the per-tenant dietitian profile.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs the profile service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("profile: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, now: clock}, nil
}

// Get returns the profile for the tenant, creating an empty row on first
// access so later updates are plain saves.
func (s *Service) Get(ctx context.Context, tenantID string) (Dietitian, error) {
	tenant := strings.TrimSpace(tenantID)
	if tenant == "" {
		return Dietitian{}, ErrInvalidTenant
	}

	var profile Dietitian
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenant).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = Dietitian{TenantID: tenant, LastSeenAt: s.now().UTC()}
		if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
			return Dietitian{}, fmt.Errorf("profile: create: %w", err)
		}
		return profile, nil
	}
	if err != nil {
		return Dietitian{}, fmt.Errorf("profile: query: %w", err)
	}
	return profile, nil
}

// Update overwrites the editable profile fields for the tenant.
func (s *Service) Update(ctx context.Context, tenantID string, updated Dietitian) (Dietitian, error) {
	current, err := s.Get(ctx, tenantID)
	if err != nil {
		return Dietitian{}, err
	}

	current.FullName = strings.TrimSpace(updated.FullName)
	current.Title = strings.TrimSpace(updated.Title)
	current.Email = strings.TrimSpace(updated.Email)
	current.Phone = strings.TrimSpace(updated.Phone)
	current.ClinicName = strings.TrimSpace(updated.ClinicName)
	current.AvatarURL = strings.TrimSpace(updated.AvatarURL)
	current.LastSeenAt = s.now().UTC()

	if err := s.db.WithContext(ctx).Save(&current).Error; err != nil {
		return Dietitian{}, fmt.Errorf("profile: save: %w", err)
	}
	return current, nil
}
