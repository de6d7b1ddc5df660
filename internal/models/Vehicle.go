package models

type Vehicle struct {
	Base
	Name         string `gorm:"not null" json:"name"`
	LicensePlate string `gorm:"uniqueIndex;not null" json:"license_plate"`
	VehicleType  string `json:"vehicle_type"`
	IsActive     bool   `gorm:"not null" json:"is_active"`
}

func (v *Vehicle) Active() bool { return v.IsActive }
func (v *Vehicle) SetActive(active bool) { v.IsActive = active }
