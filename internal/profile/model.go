package profile

import "time"

// Dietitian captures the signed-in dietitian's profile as shown on the
// profile page. One row per tenant.
type Dietitian struct {
	TenantID    string    `gorm:"column:tenant_id;primaryKey;size:190;not null" json:"-"`
	FullName    string    `gorm:"column:full_name;size:320" json:"fullName"`
	Title       string    `gorm:"column:title;size:190" json:"title,omitempty"`
	Email       string    `gorm:"column:email;size:320" json:"email,omitempty"`
	Phone       string    `gorm:"column:phone;size:64" json:"phone,omitempty"`
	ClinicName  string    `gorm:"column:clinic_name;size:320" json:"clinicName,omitempty"`
	AvatarURL   string    `gorm:"column:avatar_url;size:512" json:"avatarUrl,omitempty"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at;autoUpdateTime" json:"-"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName exposes the table backing dietitian profiles.
func (Dietitian) TableName() string {
	return "dietitian_profiles"
}
