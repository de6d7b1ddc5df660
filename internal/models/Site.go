package models

import "github.com/google/uuid"

// CollectionSite is a pickup location owned by exactly one client.
// Location holds an optional WKB-encoded point.
type CollectionSite struct {
	Base
	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client   *Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Name     string    `gorm:"not null" json:"name"`
	Address  string    `gorm:"not null" json:"address"`
	Location []byte    `gorm:"type:bytea" json:"-"`
	IsActive bool      `gorm:"not null" json:"is_active"`
}

func (s *CollectionSite) Active() bool { return s.IsActive }
func (s *CollectionSite) SetActive(active bool) { s.IsActive = active }
func (s *CollectionSite) OwnerClientID() uuid.UUID { return s.ClientID }

// DepositSite is a drop-off location shared across all clients.
type DepositSite struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Address  string `gorm:"not null" json:"address"`
	Location []byte `gorm:"type:bytea" json:"-"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}

func (s *DepositSite) Active() bool { return s.IsActive }
func (s *DepositSite) SetActive(active bool) { s.IsActive = active }
