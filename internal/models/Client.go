package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer whose sites are collected from. TrackingToken is a
// bearer capability granting read access to the client's own missions.
type Client struct {
	Base
	Name          string `gorm:"not null" json:"name"`
	Siret         string `json:"siret,omitempty"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	TrackingToken string `gorm:"uniqueIndex;not null" json:"-"`
	IsActive      bool   `gorm:"not null" json:"is_active"`

	CollectionSites []CollectionSite `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"collection_sites,omitempty"`
}

func (c *Client) Active() bool { return c.IsActive }
func (c *Client) SetActive(active bool) { c.IsActive = active }

// RetiredTrackingToken keeps a rotated token resolvable for a grace period so
// links already handed to the client keep working until it expires.
type RetiredTrackingToken struct {
	Base
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	RetiredAt time.Time `gorm:"not null" json:"retired_at"`
}

func (RetiredTrackingToken) TableName() string { return "client_tracking_tokens" }
func (t *RetiredTrackingToken) OwnerClientID() uuid.UUID { return t.ClientID }
