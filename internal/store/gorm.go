package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"waste_tracker/internal/models"
)

// Gorm is the postgres-backed Store. The handle is expected to be opened over
// the lib/pq driver so constraint violations surface as *pq.Error.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

type gormRepo[T any] struct {
	db *gorm.DB
}

func (r gormRepo[T]) Create(ctx context.Context, v *T) error {
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error)
}

func (r gormRepo[T]) Save(ctx context.Context, v *T) error {
	return classify(r.db.WithContext(ctx).Omit(clause.Associations).Save(v).Error)
}

func (r gormRepo[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var v T
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &v, nil
}

func (r gormRepo[T]) List(ctx context.Context, q Query) ([]T, error) {
	tx := r.db.WithContext(ctx).Model(new(T))
	if q.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if q.ClientID != uuid.Nil {
		tx = tx.Where("client_id = ?", q.ClientID)
	}
	if q.Role != "" {
		tx = tx.Where("role = ?", q.Role)
	}
	var out []T
	if err := tx.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r gormRepo[T]) Delete(ctx context.Context, id uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Delete(new(T), "id = ?", id).Error)
}

func (s *Gorm) Accounts() Repository[models.Account] { return gormRepo[models.Account]{s.db} }
func (s *Gorm) Profiles() Repository[models.Profile] { return gormRepo[models.Profile]{s.db} }
func (s *Gorm) Clients() Repository[models.Client] { return gormRepo[models.Client]{s.db} }
func (s *Gorm) RetiredTokens() Repository[models.RetiredTrackingToken] {
	return gormRepo[models.RetiredTrackingToken]{s.db}
}
func (s *Gorm) CollectionSites() Repository[models.CollectionSite] {
	return gormRepo[models.CollectionSite]{s.db}
}
func (s *Gorm) DepositSites() Repository[models.DepositSite] {
	return gormRepo[models.DepositSite]{s.db}
}
func (s *Gorm) Vehicles() Repository[models.Vehicle] { return gormRepo[models.Vehicle]{s.db} }
func (s *Gorm) MaterialTypes() Repository[models.MaterialType] {
	return gormRepo[models.MaterialType]{s.db}
}
func (s *Gorm) Missions() Repository[models.Mission] { return gormRepo[models.Mission]{s.db} }
func (s *Gorm) MissionRequests() Repository[models.MissionRequest] {
	return gormRepo[models.MissionRequest]{s.db}
}

func (s *Gorm) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).Where("lower(email) = lower(?)", email).First(&a).Error; err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

func (s *Gorm) FindClientByToken(ctx context.Context, token string) (*models.Client, error) {
	var c models.Client
	if err := s.db.WithContext(ctx).Where("tracking_token = ?", token).First(&c).Error; err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

func (s *Gorm) FindRetiredToken(ctx context.Context, token string) (*models.RetiredTrackingToken, error) {
	var t models.RetiredTrackingToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

func (s *Gorm) UpdateMission(ctx context.Context, m *models.Mission, expected int) error {
	res := s.db.WithContext(ctx).Model(m).
		Select("*").
		Omit("CreatedAt", clause.Associations).
		Where("version = ?", expected).
		Updates(m)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *Gorm) ListMissions(ctx context.Context, q MissionQuery) ([]models.Mission, error) {
	tx := s.db.WithContext(ctx).Model(&models.Mission{}).
		Preload("Client").
		Preload("Driver").
		Preload("CollectionSite").
		Preload("DepositSite").
		Preload("Vehicle").
		Preload("MaterialType")
	var out []models.Mission
	if err := whereMission(tx, q).Order("mission_date DESC, created_at DESC").Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *Gorm) CountMissions(ctx context.Context, q MissionQuery) (int64, error) {
	var n int64
	if err := whereMission(s.db.WithContext(ctx).Model(&models.Mission{}), q).Count(&n).Error; err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func whereMission(tx *gorm.DB, q MissionQuery) *gorm.DB {
	if q.ID != uuid.Nil {
		tx = tx.Where("missions.id = ?", q.ID)
	}
	if q.ClientID != uuid.Nil {
		tx = tx.Where("client_id = ?", q.ClientID)
	}
	if q.DriverID != uuid.Nil {
		tx = tx.Where("driver_id = ?", q.DriverID)
	}
	if q.CollectionSiteID != uuid.Nil {
		tx = tx.Where("collection_site_id = ?", q.CollectionSiteID)
	}
	if q.DepositSiteID != uuid.Nil {
		tx = tx.Where("deposit_site_id = ?", q.DepositSiteID)
	}
	if q.VehicleID != uuid.Nil {
		tx = tx.Where("vehicle_id = ?", q.VehicleID)
	}
	if q.MaterialTypeID != uuid.Nil {
		tx = tx.Where("material_type_id = ?", q.MaterialTypeID)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}
	if q.From != nil {
		tx = tx.Where("mission_date >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("mission_date <= ?", *q.To)
	}
	return tx
}

func (s *Gorm) ListMissionRequests(ctx context.Context, q RequestQuery) ([]models.MissionRequest, error) {
	tx := s.db.WithContext(ctx).Model(&models.MissionRequest{}).
		Preload("Client").
		Preload("CollectionSite")
	if q.ID != uuid.Nil {
		tx = tx.Where("mission_requests.id = ?", q.ID)
	}
	if q.ClientID != uuid.Nil {
		tx = tx.Where("client_id = ?", q.ClientID)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}
	var out []models.MissionRequest
	if err := tx.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *Gorm) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case "23503":
			return fmt.Errorf("%w: %s", ErrForeignKey, pqErr.Constraint)
		}
	}
	return err
}
