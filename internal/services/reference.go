package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"waste_tracker/internal/models"
	"waste_tracker/internal/store"
)

// ReferenceService manages clients, sites, vehicles and material types.
// Writes are admin only; drivers read active records.
type ReferenceService struct {
	store store.Store
	grace time.Duration
	now   func() time.Time
}

// NewReferenceService returns a service whose rotated tracking tokens keep
// resolving for grace after rotation.
func NewReferenceService(s store.Store, grace time.Duration) *ReferenceService {
	return &ReferenceService{store: s, grace: grace, now: time.Now}
}

type ClientInput struct {
	Name     string `json:"name"`
	Siret    string `json:"siret"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	IsActive *bool  `json:"is_active"`
}

func (in ClientInput) apply(c *models.Client) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name", "is required")
	}
	c.Name = name
	c.Siret = strings.TrimSpace(in.Siret)
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Address = strings.TrimSpace(in.Address)
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return nil
}

type SiteInput struct {
	ClientID uuid.UUID `json:"client_id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	// Location is a GeoJSON Point; empty clears it.
	Location string `json:"location"`
	IsActive *bool  `json:"is_active"`
}

func (in SiteInput) fields() (name, address string, location []byte, err error) {
	name = strings.TrimSpace(in.Name)
	address = strings.TrimSpace(in.Address)
	if name == "" {
		return "", "", nil, invalid("name", "is required")
	}
	if address == "" {
		return "", "", nil, invalid("address", "is required")
	}
	location, err = encodeLocation(in.Location)
	return name, address, location, err
}

type VehicleInput struct {
	Name         string `json:"name"`
	LicensePlate string `json:"license_plate"`
	VehicleType  string `json:"vehicle_type"`
	IsActive     *bool  `json:"is_active"`
}

func (in VehicleInput) apply(v *models.Vehicle) error {
	name := strings.TrimSpace(in.Name)
	plate := strings.ToUpper(strings.TrimSpace(in.LicensePlate))
	if name == "" {
		return invalid("name", "is required")
	}
	if plate == "" {
		return invalid("license_plate", "is required")
	}
	v.Name = name
	v.LicensePlate = plate
	v.VehicleType = strings.TrimSpace(in.VehicleType)
	if in.IsActive != nil {
		v.IsActive = *in.IsActive
	}
	return nil
}

type MaterialTypeInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (in MaterialTypeInput) apply(m *models.MaterialType) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name", "is required")
	}
	m.Name = name
	m.Description = strings.TrimSpace(in.Description)
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	return nil
}

func activeOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Clients

func (s *ReferenceService) CreateClient(ctx context.Context, sess Session, in ClientInput) (*models.Client, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	c := &models.Client{IsActive: activeOr(in.IsActive, true)}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	token, err := newTrackingToken()
	if err != nil {
		return nil, fmt.Errorf("generate tracking token: %w", err)
	}
	c.TrackingToken = token
	if err := s.store.Clients().Create(ctx, c); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// UpdateClient edits the client's identity. The tracking token is never
// touched here; see RotateTrackingToken.
func (s *ReferenceService) UpdateClient(ctx context.Context, sess Session, id uuid.UUID, in ClientInput) (*models.Client, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	c, err := s.store.Clients().Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.store.Clients().Save(ctx, c); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *ReferenceService) GetClient(ctx context.Context, sess Session, id uuid.UUID) (*models.Client, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	c, err := s.store.Clients().Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !sess.IsAdmin() && !c.IsActive {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *ReferenceService) ListClients(ctx context.Context, sess Session, activeOnly bool) ([]models.Client, error) {
	return listReference(ctx, sess, s.store.Clients(), store.Query{ActiveOnly: activeOnly})
}

func (s *ReferenceService) SetClientActive(ctx context.Context, sess Session, id uuid.UUID, active bool) (*models.Client, error) {
	return setActive(ctx, sess, s.store.Clients(), id, active)
}

// DeleteClient removes a client with its sites, requests and retired tokens.
// Clients referenced by missions cannot be deleted.
func (s *ReferenceService) DeleteClient(ctx context.Context, sess Session, id uuid.UUID) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx store.Store) error {
		if err := noMissions(ctx, tx, store.MissionQuery{ClientID: id}, "client"); err != nil {
			return err
		}
		requests, err := tx.ListMissionRequests(ctx, store.RequestQuery{ClientID: id})
		if err != nil {
			return translate(err)
		}
		for _, r := range requests {
			if err := tx.MissionRequests().Delete(ctx, r.ID); err != nil {
				return translate(err)
			}
		}
		sites, err := tx.CollectionSites().List(ctx, store.Query{ClientID: id})
		if err != nil {
			return translate(err)
		}
		for _, site := range sites {
			if err := tx.CollectionSites().Delete(ctx, site.ID); err != nil {
				return translate(err)
			}
		}
		retired, err := tx.RetiredTokens().List(ctx, store.Query{ClientID: id})
		if err != nil {
			return translate(err)
		}
		for _, t := range retired {
			if err := tx.RetiredTokens().Delete(ctx, t.ID); err != nil {
				return translate(err)
			}
		}
		return translate(tx.Clients().Delete(ctx, id))
	})
}

// RotateTrackingToken issues a fresh token. The previous one is retired and
// keeps resolving until the grace period elapses.
func (s *ReferenceService) RotateTrackingToken(ctx context.Context, sess Session, id uuid.UUID) (*models.Client, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	token, err := newTrackingToken()
	if err != nil {
		return nil, fmt.Errorf("generate tracking token: %w", err)
	}
	var out *models.Client
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		c, err := tx.Clients().Get(ctx, id)
		if err != nil {
			return translate(err)
		}
		retired := &models.RetiredTrackingToken{
			ClientID:  c.ID,
			Token:     c.TrackingToken,
			RetiredAt: s.now().UTC(),
		}
		if err := tx.RetiredTokens().Create(ctx, retired); err != nil {
			return translate(err)
		}
		c.TrackingToken = token
		if err := tx.Clients().Save(ctx, c); err != nil {
			return translate(err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithField("client_id", id).Info("tracking token rotated")
	return out, nil
}

// ResolveTrackingToken returns the active client owning token. Every failure
// is reported as ErrNotFound so callers learn nothing beyond found/not found.
func (s *ReferenceService) ResolveTrackingToken(ctx context.Context, token string) (*models.Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	c, err := s.store.FindClientByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		c, err = s.resolveRetired(ctx, token)
	}
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logrus.WithError(err).Error("resolve tracking token")
			return nil, err
		}
		return nil, ErrNotFound
	}
	if !c.IsActive {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *ReferenceService) resolveRetired(ctx context.Context, token string) (*models.Client, error) {
	t, err := s.store.FindRetiredToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(t.RetiredAt.Add(s.grace)) {
		return nil, store.ErrNotFound
	}
	return s.store.Clients().Get(ctx, t.ClientID)
}

// Collection sites

func (s *ReferenceService) CreateCollectionSite(ctx context.Context, sess Session, in SiteInput) (*models.CollectionSite, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if in.ClientID == uuid.Nil {
		return nil, invalid("client_id", "is required")
	}
	if _, err := s.store.Clients().Get(ctx, in.ClientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid("client_id", "does not exist")
		}
		return nil, translate(err)
	}
	name, address, location, err := in.fields()
	if err != nil {
		return nil, err
	}
	site := &models.CollectionSite{
		ClientID: in.ClientID,
		Name:     name,
		Address:  address,
		Location: location,
		IsActive: activeOr(in.IsActive, true),
	}
	if err := s.store.CollectionSites().Create(ctx, site); err != nil {
		return nil, translate(err)
	}
	return site, nil
}

// UpdateCollectionSite edits a site. Its owning client cannot change.
func (s *ReferenceService) UpdateCollectionSite(ctx context.Context, sess Session, id uuid.UUID, in SiteInput) (*models.CollectionSite, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	site, err := s.store.CollectionSites().Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if in.ClientID != uuid.Nil && in.ClientID != site.ClientID {
		return nil, invalid("client_id", "cannot be changed")
	}
	name, address, location, err := in.fields()
	if err != nil {
		return nil, err
	}
	site.Name, site.Address, site.Location = name, address, location
	if in.IsActive != nil {
		site.IsActive = *in.IsActive
	}
	if err := s.store.CollectionSites().Save(ctx, site); err != nil {
		return nil, translate(err)
	}
	return site, nil
}

// ListCollectionSites lists sites, restricted to one client when clientID is set.
func (s *ReferenceService) ListCollectionSites(ctx context.Context, sess Session, clientID uuid.UUID, activeOnly bool) ([]models.CollectionSite, error) {
	return listReference(ctx, sess, s.store.CollectionSites(), store.Query{ClientID: clientID, ActiveOnly: activeOnly})
}

// ClientSites lists the active collection sites of an already resolved client.
func (s *ReferenceService) ClientSites(ctx context.Context, clientID uuid.UUID) ([]models.CollectionSite, error) {
	sites, err := s.store.CollectionSites().List(ctx, store.Query{ClientID: clientID, ActiveOnly: true})
	return sites, translate(err)
}

func (s *ReferenceService) SetCollectionSiteActive(ctx context.Context, sess Session, id uuid.UUID, active bool) (*models.CollectionSite, error) {
	return setActive(ctx, sess, s.store.CollectionSites(), id, active)
}

func (s *ReferenceService) DeleteCollectionSite(ctx context.Context, sess Session, id uuid.UUID) error {
	return deleteReference(ctx, sess, s.store, s.store.CollectionSites(), id,
		store.MissionQuery{CollectionSiteID: id}, "collection site")
}

// Deposit sites

func (s *ReferenceService) CreateDepositSite(ctx context.Context, sess Session, in SiteInput) (*models.DepositSite, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	name, address, location, err := in.fields()
	if err != nil {
		return nil, err
	}
	site := &models.DepositSite{
		Name:     name,
		Address:  address,
		Location: location,
		IsActive: activeOr(in.IsActive, true),
	}
	if err := s.store.DepositSites().Create(ctx, site); err != nil {
		return nil, translate(err)
	}
	return site, nil
}

func (s *ReferenceService) UpdateDepositSite(ctx context.Context, sess Session, id uuid.UUID, in SiteInput) (*models.DepositSite, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	site, err := s.store.DepositSites().Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	name, address, location, err := in.fields()
	if err != nil {
		return nil, err
	}
	site.Name, site.Address, site.Location = name, address, location
	if in.IsActive != nil {
		site.IsActive = *in.IsActive
	}
	if err := s.store.DepositSites().Save(ctx, site); err != nil {
		return nil, translate(err)
	}
	return site, nil
}

func (s *ReferenceService) ListDepositSites(ctx context.Context, sess Session, activeOnly bool) ([]models.DepositSite, error) {
	return listReference(ctx, sess, s.store.DepositSites(), store.Query{ActiveOnly: activeOnly})
}

func (s *ReferenceService) SetDepositSiteActive(ctx context.Context, sess Session, id uuid.UUID, active bool) (*models.DepositSite, error) {
	return setActive(ctx, sess, s.store.DepositSites(), id, active)
}

func (s *ReferenceService) DeleteDepositSite(ctx context.Context, sess Session, id uuid.UUID) error {
	return deleteReference(ctx, sess, s.store, s.store.DepositSites(), id,
		store.MissionQuery{DepositSiteID: id}, "deposit site")
}

// Vehicles

func (s *ReferenceService) CreateVehicle(ctx context.Context, sess Session, in VehicleInput) (*models.Vehicle, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	v := &models.Vehicle{IsActive: activeOr(in.IsActive, true)}
	if err := in.apply(v); err != nil {
		return nil, err
	}
	if err := s.store.Vehicles().Create(ctx, v); err != nil {
		return nil, translate(err)
	}
	return v, nil
}

func (s *ReferenceService) UpdateVehicle(ctx context.Context, sess Session, id uuid.UUID, in VehicleInput) (*models.Vehicle, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	v, err := s.store.Vehicles().Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := in.apply(v); err != nil {
		return nil, err
	}
	if err := s.store.Vehicles().Save(ctx, v); err != nil {
		return nil, translate(err)
	}
	return v, nil
}

func (s *ReferenceService) ListVehicles(ctx context.Context, sess Session, activeOnly bool) ([]models.Vehicle, error) {
	return listReference(ctx, sess, s.store.Vehicles(), store.Query{ActiveOnly: activeOnly})
}

func (s *ReferenceService) SetVehicleActive(ctx context.Context, sess Session, id uuid.UUID, active bool) (*models.Vehicle, error) {
	return setActive(ctx, sess, s.store.Vehicles(), id, active)
}

func (s *ReferenceService) DeleteVehicle(ctx context.Context, sess Session, id uuid.UUID) error {
	return deleteReference(ctx, sess, s.store, s.store.Vehicles(), id,
		store.MissionQuery{VehicleID: id}, "vehicle")
}

// Material types

func (s *ReferenceService) CreateMaterialType(ctx context.Context, sess Session, in MaterialTypeInput) (*models.MaterialType, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	m := &models.MaterialType{IsActive: activeOr(in.IsActive, true)}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	if err := s.store.MaterialTypes().Create(ctx, m); err != nil {
		return nil, translate(err)
	}
	return m, nil
}

func (s *ReferenceService) UpdateMaterialType(ctx context.Context, sess Session, id uuid.UUID, in MaterialTypeInput) (*models.MaterialType, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	m, err := s.store.MaterialTypes().Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	if err := s.store.MaterialTypes().Save(ctx, m); err != nil {
		return nil, translate(err)
	}
	return m, nil
}

func (s *ReferenceService) ListMaterialTypes(ctx context.Context, sess Session, activeOnly bool) ([]models.MaterialType, error) {
	return listReference(ctx, sess, s.store.MaterialTypes(), store.Query{ActiveOnly: activeOnly})
}

func (s *ReferenceService) SetMaterialTypeActive(ctx context.Context, sess Session, id uuid.UUID, active bool) (*models.MaterialType, error) {
	return setActive(ctx, sess, s.store.MaterialTypes(), id, active)
}

func (s *ReferenceService) DeleteMaterialType(ctx context.Context, sess Session, id uuid.UUID) error {
	return deleteReference(ctx, sess, s.store, s.store.MaterialTypes(), id,
		store.MissionQuery{MaterialTypeID: id}, "material type")
}

// FormOptions are the selection lists behind the mission forms.
type FormOptions struct {
	Clients         []models.Client         `json:"clients"`
	CollectionSites []models.CollectionSite `json:"collection_sites"`
	DepositSites    []models.DepositSite    `json:"deposit_sites"`
	Vehicles        []models.Vehicle        `json:"vehicles"`
	MaterialTypes   []models.MaterialType   `json:"material_types"`
	Drivers         []models.Profile        `json:"drivers,omitempty"`
}

// FormOptions loads every active selection list concurrently. Drivers are
// listed for admins only.
func (s *ReferenceService) FormOptions(ctx context.Context, sess Session) (*FormOptions, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	active := store.Query{ActiveOnly: true}
	var opts FormOptions
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		opts.Clients, err = s.store.Clients().List(gctx, active)
		return err
	})
	g.Go(func() (err error) {
		opts.CollectionSites, err = s.store.CollectionSites().List(gctx, active)
		return err
	})
	g.Go(func() (err error) {
		opts.DepositSites, err = s.store.DepositSites().List(gctx, active)
		return err
	})
	g.Go(func() (err error) {
		opts.Vehicles, err = s.store.Vehicles().List(gctx, active)
		return err
	})
	g.Go(func() (err error) {
		opts.MaterialTypes, err = s.store.MaterialTypes().List(gctx, active)
		return err
	})
	if sess.IsAdmin() {
		g.Go(func() (err error) {
			opts.Drivers, err = s.store.Profiles().List(gctx, store.Query{ActiveOnly: true, Role: models.RoleDriver})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, translate(err)
	}
	return &opts, nil
}

// listReference forces the active filter for drivers.
func listReference[T any](ctx context.Context, sess Session, repo store.Repository[T], q store.Query) ([]T, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	if !sess.IsAdmin() {
		q.ActiveOnly = true
	}
	out, err := repo.List(ctx, q)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

type activatable[T any] interface {
	store.Record[T]
	SetActive(bool)
}

func setActive[T any, PT activatable[T]](ctx context.Context, sess Session, repo store.Repository[T], id uuid.UUID, active bool) (*T, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	v, err := repo.Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	PT(v).SetActive(active)
	if err := repo.Save(ctx, v); err != nil {
		return nil, translate(err)
	}
	return v, nil
}

// deleteReference removes a reference row unless missions still point at it.
// Deactivating is the way to retire a record that has history.
func deleteReference[T any](ctx context.Context, sess Session, st store.Store, repo store.Repository[T], id uuid.UUID, q store.MissionQuery, what string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if _, err := repo.Get(ctx, id); err != nil {
		return translate(err)
	}
	if err := noMissions(ctx, st, q, what); err != nil {
		return err
	}
	return translate(repo.Delete(ctx, id))
}

func noMissions(ctx context.Context, st store.Store, q store.MissionQuery, what string) error {
	n, err := st.CountMissions(ctx, q)
	if err != nil {
		return translate(err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s is referenced by %d mission(s)", ErrIntegrity, what, n)
	}
	return nil
}
