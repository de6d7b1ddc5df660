package models

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleDriver     Role = "driver"
)

// Account holds login credentials. Its ID is shared with the Profile row.
type Account struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
}

// Profile is the person behind an Account: an administrator or a driver.
type Profile struct {
	Base
	Email    string `gorm:"not null" json:"email"`
	FullName string `gorm:"not null" json:"full_name"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`
	Phone    string `json:"phone,omitempty"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}

func (p *Profile) Active() bool { return p.IsActive }
func (p *Profile) SetActive(active bool) { p.IsActive = active }

// HasRole reports whether the profile holds role r.
func (p *Profile) HasRole(r Role) bool { return p.Role == r }
