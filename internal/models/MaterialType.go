package models

// MaterialType is a category of collected material (green waste, wood, ...).
type MaterialType struct {
	Base
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `gorm:"not null" json:"is_active"`
}

func (m *MaterialType) Active() bool { return m.IsActive }
func (m *MaterialType) SetActive(active bool) { m.IsActive = active }
