package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"waste_tracker/internal/models"
	"waste_tracker/internal/store"
)

const dateLayout = "2006-01-02"

// MissionInput is the writable part of a mission. Status is optional; Version,
// when set on update, must match the stored version.
type MissionInput struct {
	ClientID          uuid.UUID           `json:"client_id"`
	DriverID          uuid.UUID           `json:"driver_id"`
	CollectionSiteID  uuid.UUID           `json:"collection_site_id"`
	DepositSiteID     uuid.UUID           `json:"deposit_site_id"`
	VehicleID         uuid.UUID           `json:"vehicle_id"`
	MaterialTypeID    uuid.UUID           `json:"material_type_id"`
	MissionDate       string              `json:"mission_date"`
	EmptyWeightKg     decimal.NullDecimal `json:"empty_weight_kg"`
	LoadedWeightKg    decimal.NullDecimal `json:"loaded_weight_kg"`
	DriverComment     string              `json:"driver_comment"`
	OrderNumber       string              `json:"order_number"`
	ClientMissionID   string              `json:"client_mission_id"`
	ClientRequestDate string              `json:"client_request_date"`
	Status            string              `json:"status"`
	Version           *int                `json:"version"`
}

type MissionService struct {
	store store.Store
	now   func() time.Time
}

func NewMissionService(s store.Store) *MissionService {
	return &MissionService{store: s, now: time.Now}
}

// Create records a new mission. Drivers always record for themselves and
// cannot validate; admin-entered missions default to validated.
func (s *MissionService) Create(ctx context.Context, sess Session, in MissionInput) (*models.Mission, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	return s.create(ctx, s.store, sess, in, nil)
}

func (s *MissionService) create(ctx context.Context, st store.Store, sess Session, in MissionInput, requestID *uuid.UUID) (*models.Mission, error) {
	if sess.IsDriver() {
		in.DriverID = sess.UserID
	}
	status := models.MissionCompleted
	if sess.IsAdmin() {
		status = models.MissionValidated
	}
	if in.Status != "" {
		var err error
		if status, err = parseStatus(in.Status); err != nil {
			return nil, err
		}
	}
	if status == models.MissionValidated && !sess.IsAdmin() {
		return nil, ErrForbidden
	}

	m := &models.Mission{Status: status, MissionRequestID: requestID, Version: 1}
	if err := s.apply(ctx, st, m, nil, in); err != nil {
		return nil, err
	}
	if status == models.MissionValidated {
		now := s.now().UTC()
		m.ValidatedAt = &now
	}
	if err := st.Missions().Create(ctx, m); err != nil {
		return nil, translate(err)
	}
	return m, nil
}

// Update rewrites a mission and recomputes its net weight. Validation is
// stamped the first time the mission reaches validated and never cleared here.
func (s *MissionService) Update(ctx context.Context, sess Session, id uuid.UUID, in MissionInput) (*models.Mission, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	cur, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if sess.IsDriver() {
		in.DriverID = sess.UserID
	}
	status := cur.Status
	if in.Status != "" {
		if status, err = parseStatus(in.Status); err != nil {
			return nil, err
		}
	}
	if err := Transition(cur.Status, status); err != nil {
		return nil, err
	}
	if status == models.MissionValidated && cur.Status != models.MissionValidated && !sess.IsAdmin() {
		return nil, ErrForbidden
	}

	next := *cur
	next.Status = status
	if err := s.apply(ctx, s.store, &next, cur, in); err != nil {
		return nil, err
	}
	if status == models.MissionValidated && next.ValidatedAt == nil {
		now := s.now().UTC()
		next.ValidatedAt = &now
	}
	expected := cur.Version
	if in.Version != nil {
		expected = *in.Version
	}
	if err := s.write(ctx, &next, expected); err != nil {
		return nil, err
	}
	return &next, nil
}

// Validate moves a draft or completed mission to validated.
func (s *MissionService) Validate(ctx context.Context, sess Session, id uuid.UUID) (*models.Mission, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	m, err := s.get(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := Transition(m.Status, models.MissionValidated); err != nil {
		return nil, err
	}
	m.Status = models.MissionValidated
	if m.ValidatedAt == nil {
		now := s.now().UTC()
		m.ValidatedAt = &now
	}
	if err := s.write(ctx, m, m.Version); err != nil {
		return nil, err
	}
	return m, nil
}

// Unvalidate reopens a validated mission as completed and clears its
// validation timestamp.
func (s *MissionService) Unvalidate(ctx context.Context, sess Session, id uuid.UUID) (*models.Mission, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	m, err := s.get(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MissionValidated {
		return nil, ErrInvalidTransition
	}
	m.Status = models.MissionCompleted
	m.ValidatedAt = nil
	if err := s.write(ctx, m, m.Version); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a mission for good. A missing id is a successful no-op.
func (s *MissionService) Delete(ctx context.Context, sess Session, id uuid.UUID) error {
	if err := requireStaff(sess); err != nil {
		return err
	}
	if _, err := s.owned(ctx, sess, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.store.Missions().Delete(ctx, id); err != nil {
		logrus.WithError(err).WithField("mission_id", id).Error("delete mission")
		return translate(err)
	}
	return nil
}

// Get returns a mission with its associations loaded.
func (s *MissionService) Get(ctx context.Context, sess Session, id uuid.UUID) (*models.Mission, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	list, err := s.store.ListMissions(ctx, store.MissionQuery{ID: id})
	if err != nil {
		return nil, translate(err)
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	if sess.IsDriver() && list[0].DriverID != sess.UserID {
		return nil, ErrForbidden
	}
	return &list[0], nil
}

// List returns missions newest first. Drivers only see their own.
func (s *MissionService) List(ctx context.Context, sess Session, q store.MissionQuery) ([]models.Mission, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	if sess.IsDriver() {
		q.DriverID = sess.UserID
	}
	out, err := s.store.ListMissions(ctx, q)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// ForClient lists the validated missions of a client resolved from its
// tracking token.
func (s *MissionService) ForClient(ctx context.Context, clientID uuid.UUID) ([]models.Mission, error) {
	out, err := s.store.ListMissions(ctx, store.MissionQuery{
		ClientID: clientID,
		Statuses: []models.MissionStatus{models.MissionValidated},
	})
	return out, translate(err)
}

func (s *MissionService) get(ctx context.Context, st store.Store, id uuid.UUID) (*models.Mission, error) {
	m, err := st.Missions().Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return m, nil
}

func (s *MissionService) owned(ctx context.Context, sess Session, id uuid.UUID) (*models.Mission, error) {
	m, err := s.get(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if sess.IsDriver() && m.DriverID != sess.UserID {
		return nil, ErrForbidden
	}
	return m, nil
}

// write bumps the version and fails with ErrConflict if another writer got there first.
func (s *MissionService) write(ctx context.Context, m *models.Mission, expected int) error {
	m.Version = expected + 1
	if err := s.store.UpdateMission(ctx, m, expected); err != nil {
		if !errors.Is(err, store.ErrVersionConflict) {
			logrus.WithError(err).WithField("mission_id", m.ID).Error("update mission")
		}
		return translate(err)
	}
	return nil
}

// apply validates in and copies it onto m. prev is the stored mission on
// update; references that did not change may have been deactivated since.
func (s *MissionService) apply(ctx context.Context, st store.Store, m, prev *models.Mission, in MissionInput) error {
	date, err := parseDate("mission_date", in.MissionDate)
	if err != nil {
		return err
	}
	if date == nil {
		return invalid("mission_date", "is required")
	}
	empty, err := requireWeight("empty_weight_kg", in.EmptyWeightKg)
	if err != nil {
		return err
	}
	loaded, err := requireWeight("loaded_weight_kg", in.LoadedWeightKg)
	if err != nil {
		return err
	}
	net, err := NetWeightTons(empty, loaded)
	if err != nil {
		return err
	}
	requestDate, err := parseDate("client_request_date", in.ClientRequestDate)
	if err != nil {
		return err
	}

	var was models.Mission
	if prev != nil {
		was = *prev
	}
	r := refCheck{ctx: ctx, st: st}
	client := r.client(in.ClientID, was.ClientID)
	driver := r.driver(in.DriverID, was.DriverID)
	site := r.collectionSite(in.CollectionSiteID, was.CollectionSiteID)
	r.deposit(in.DepositSiteID, was.DepositSiteID)
	r.vehicle(in.VehicleID, was.VehicleID)
	r.material(in.MaterialTypeID, was.MaterialTypeID)
	if r.err != nil {
		return r.err
	}
	if site.ClientID != client.ID {
		return invalid("collection_site_id", "does not belong to the client")
	}
	if driver.Role != models.RoleDriver {
		return invalid("driver_id", "is not a driver")
	}

	m.ClientID = in.ClientID
	m.DriverID = in.DriverID
	m.CollectionSiteID = in.CollectionSiteID
	m.DepositSiteID = in.DepositSiteID
	m.VehicleID = in.VehicleID
	m.MaterialTypeID = in.MaterialTypeID
	m.MissionDate = *date
	m.EmptyWeightKg = empty
	m.LoadedWeightKg = loaded
	m.NetWeightTons = net
	m.DriverComment = strings.TrimSpace(in.DriverComment)
	m.OrderNumber = strings.TrimSpace(in.OrderNumber)
	m.ClientMissionID = strings.TrimSpace(in.ClientMissionID)
	m.ClientRequestDate = requestDate
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and keeps only the calendar day.
// An empty string yields nil.
func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		ts, err2 := time.Parse(time.RFC3339, s)
		if err2 != nil {
			return nil, invalid(field, "must be a date (YYYY-MM-DD)")
		}
		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &t, nil
}

// refCheck resolves mission references, keeping the first failure.
type refCheck struct {
	ctx context.Context
	st  store.Store
	err error
}

type activeRecord interface {
	Active() bool
}

func lookup[T any](r *refCheck, repo store.Repository[T], field string, id, was uuid.UUID) *T {
	if r.err != nil {
		return nil
	}
	if id == uuid.Nil {
		r.err = invalid(field, "is required")
		return nil
	}
	v, err := repo.Get(r.ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.err = invalid(field, "does not exist")
		} else {
			r.err = translate(err)
		}
		return nil
	}
	if a, ok := any(v).(activeRecord); ok && id != was && !a.Active() {
		r.err = invalid(field, "is inactive")
		return nil
	}
	return v
}

func (r *refCheck) client(id, was uuid.UUID) *models.Client {
	return lookup(r, r.st.Clients(), "client_id", id, was)
}

func (r *refCheck) driver(id, was uuid.UUID) *models.Profile {
	return lookup(r, r.st.Profiles(), "driver_id", id, was)
}

func (r *refCheck) collectionSite(id, was uuid.UUID) *models.CollectionSite {
	return lookup(r, r.st.CollectionSites(), "collection_site_id", id, was)
}

func (r *refCheck) deposit(id, was uuid.UUID) {
	lookup(r, r.st.DepositSites(), "deposit_site_id", id, was)
}

func (r *refCheck) vehicle(id, was uuid.UUID) {
	lookup(r, r.st.Vehicles(), "vehicle_id", id, was)
}

func (r *refCheck) material(id, was uuid.UUID) {
	lookup(r, r.st.MaterialTypes(), "material_type_id", id, was)
}
