package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MissionStatus string

const (
	MissionDraft     MissionStatus = "draft"
	MissionCompleted MissionStatus = "completed"
	MissionValidated MissionStatus = "validated"
)

// Mission is one weighed transport from a collection site to a deposit site.
// NetWeightTons is always derived from the two weighings, never taken from input.
type Mission struct {
	Base
	ClientID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client           *Client         `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT;" json:"client,omitempty"`
	DriverID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"driver_id"`
	Driver           *Profile        `gorm:"foreignKey:DriverID;constraint:OnDelete:RESTRICT;" json:"driver,omitempty"`
	CollectionSiteID uuid.UUID       `gorm:"type:uuid;not null;index" json:"collection_site_id"`
	CollectionSite   *CollectionSite `gorm:"foreignKey:CollectionSiteID;constraint:OnDelete:RESTRICT;" json:"collection_site,omitempty"`
	DepositSiteID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"deposit_site_id"`
	DepositSite      *DepositSite    `gorm:"foreignKey:DepositSiteID;constraint:OnDelete:RESTRICT;" json:"deposit_site,omitempty"`
	VehicleID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle          *Vehicle        `gorm:"foreignKey:VehicleID;constraint:OnDelete:RESTRICT;" json:"vehicle,omitempty"`
	MaterialTypeID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"material_type_id"`
	MaterialType     *MaterialType   `gorm:"foreignKey:MaterialTypeID;constraint:OnDelete:RESTRICT;" json:"material_type,omitempty"`

	MissionDate    time.Time       `gorm:"type:date;not null;index" json:"mission_date"`
	EmptyWeightKg  decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"empty_weight_kg"`
	LoadedWeightKg decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"loaded_weight_kg"`
	NetWeightTons  decimal.Decimal `gorm:"type:numeric(15,6);not null" json:"net_weight_tons"`

	DriverComment     string     `json:"driver_comment,omitempty"`
	OrderNumber       string     `gorm:"index" json:"order_number,omitempty"`
	ClientMissionID   string     `json:"client_mission_id,omitempty"`
	ClientRequestDate *time.Time `gorm:"type:date" json:"client_request_date,omitempty"`
	MissionRequestID  *uuid.UUID `gorm:"type:uuid;index" json:"mission_request_id,omitempty"`

	Status      MissionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ValidatedAt *time.Time    `json:"validated_at,omitempty"`
	Version     int           `gorm:"not null" json:"version"`
}
