package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestViewed    RequestStatus = "viewed"
	RequestConverted RequestStatus = "converted_to_mission"
)

// MissionRequest is a collection asked for by a client through the tracking
// portal. Clients never modify a request once submitted.
type MissionRequest struct {
	Base
	ClientID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client              *Client         `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE;" json:"client,omitempty"`
	CollectionSiteID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"collection_site_id"`
	CollectionSite      *CollectionSite `gorm:"foreignKey:CollectionSiteID;constraint:OnDelete:CASCADE;" json:"collection_site,omitempty"`
	EstimatedWeightTons decimal.Decimal `gorm:"type:numeric(10,3);not null" json:"estimated_weight_tons"`
	ClientMissionID     string          `json:"client_mission_id,omitempty"`
	ClientRequestDate   *time.Time      `gorm:"type:date" json:"client_request_date,omitempty"`

	Status             RequestStatus `gorm:"type:varchar(30);not null;index" json:"status"`
	ViewedByAdminAt    *time.Time    `json:"viewed_by_admin_at,omitempty"`
	ViewedByDriverAt   *time.Time    `json:"viewed_by_driver_at,omitempty"`
	ConvertedAt        *time.Time    `json:"converted_at,omitempty"`
	ConvertedMissionID *uuid.UUID    `gorm:"type:uuid" json:"converted_mission_id,omitempty"`
}
