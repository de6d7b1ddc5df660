// Package store persists the tracking data model. Gorm is the production
// implementation; Memory backs the service and controller tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"waste_tracker/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate key")
	ErrForeignKey      = errors.New("foreign key violation")
	ErrVersionConflict = errors.New("version conflict")
)

// Record is satisfied by pointers to every model embedding models.Base.
type Record[T any] interface {
	*T
	GetBase() *models.Base
}

// Query narrows Repository.List. Zero values mean "no filter".
type Query struct {
	ActiveOnly bool
	ClientID   uuid.UUID
	Role       models.Role
}

type Repository[T any] interface {
	Create(ctx context.Context, v *T) error
	Save(ctx context.Context, v *T) error
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, q Query) ([]T, error)
	// Delete removes the row; a missing id is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

type MissionQuery struct {
	ID               uuid.UUID
	ClientID         uuid.UUID
	DriverID         uuid.UUID
	CollectionSiteID uuid.UUID
	DepositSiteID    uuid.UUID
	VehicleID        uuid.UUID
	MaterialTypeID   uuid.UUID
	Statuses         []models.MissionStatus
	From, To         *time.Time
}

type RequestQuery struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	Statuses []models.RequestStatus
}

type Store interface {
	Accounts() Repository[models.Account]
	Profiles() Repository[models.Profile]
	Clients() Repository[models.Client]
	RetiredTokens() Repository[models.RetiredTrackingToken]
	CollectionSites() Repository[models.CollectionSite]
	DepositSites() Repository[models.DepositSite]
	Vehicles() Repository[models.Vehicle]
	MaterialTypes() Repository[models.MaterialType]
	Missions() Repository[models.Mission]
	MissionRequests() Repository[models.MissionRequest]

	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	FindClientByToken(ctx context.Context, token string) (*models.Client, error)
	FindRetiredToken(ctx context.Context, token string) (*models.RetiredTrackingToken, error)

	// UpdateMission writes m only if the stored version still equals expected.
	UpdateMission(ctx context.Context, m *models.Mission, expected int) error
	// ListMissions returns matches with every association loaded, newest mission date first.
	ListMissions(ctx context.Context, q MissionQuery) ([]models.Mission, error)
	CountMissions(ctx context.Context, q MissionQuery) (int64, error)
	// ListMissionRequests returns matches with client and collection site loaded, newest first.
	ListMissionRequests(ctx context.Context, q RequestQuery) ([]models.MissionRequest, error)

	// Transaction runs fn against a transactional Store; any error rolls every write back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
