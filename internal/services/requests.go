package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"waste_tracker/internal/models"
	"waste_tracker/internal/store"
)

type RequestInput struct {
	CollectionSiteID    uuid.UUID           `json:"collection_site_id"`
	EstimatedWeightTons decimal.NullDecimal `json:"estimated_weight_tons"`
	ClientMissionID     string              `json:"client_mission_id"`
	ClientRequestDate   string              `json:"client_request_date"`
}

// RequestService runs the queue of collections asked for by clients.
type RequestService struct {
	store    store.Store
	refs     *ReferenceService
	missions *MissionService
	now      func() time.Time
}

func NewRequestService(s store.Store, refs *ReferenceService, missions *MissionService) *RequestService {
	return &RequestService{store: s, refs: refs, missions: missions, now: time.Now}
}

// Create queues a request on behalf of the client owning token.
func (s *RequestService) Create(ctx context.Context, token string, in RequestInput) (*models.MissionRequest, error) {
	client, err := s.refs.ResolveTrackingToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if in.CollectionSiteID == uuid.Nil {
		return nil, invalid("collection_site_id", "is required")
	}
	site, err := s.store.CollectionSites().Get(ctx, in.CollectionSiteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid("collection_site_id", "does not belong to this client")
		}
		return nil, translate(err)
	}
	if site.ClientID != client.ID {
		return nil, invalid("collection_site_id", "does not belong to this client")
	}
	if !site.IsActive {
		return nil, invalid("collection_site_id", "is inactive")
	}
	if !in.EstimatedWeightTons.Valid || !in.EstimatedWeightTons.Decimal.IsPositive() {
		return nil, invalid("estimated_weight_tons", "must be greater than zero")
	}
	requestDate, err := parseDate("client_request_date", in.ClientRequestDate)
	if err != nil {
		return nil, err
	}

	r := &models.MissionRequest{
		ClientID:            client.ID,
		CollectionSiteID:    site.ID,
		EstimatedWeightTons: in.EstimatedWeightTons.Decimal,
		ClientMissionID:     strings.TrimSpace(in.ClientMissionID),
		ClientRequestDate:   requestDate,
		Status:              models.RequestPending,
	}
	if err := s.store.MissionRequests().Create(ctx, r); err != nil {
		return nil, translate(err)
	}
	logrus.WithFields(logrus.Fields{"request_id": r.ID, "client_id": client.ID}).Info("mission request queued")
	return r, nil
}

// ForClient lists the requests of a client resolved from its tracking token.
func (s *RequestService) ForClient(ctx context.Context, clientID uuid.UUID) ([]models.MissionRequest, error) {
	out, err := s.store.ListMissionRequests(ctx, store.RequestQuery{ClientID: clientID})
	return out, translate(err)
}

func (s *RequestService) List(ctx context.Context, sess Session, statuses []models.RequestStatus) ([]models.MissionRequest, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	out, err := s.store.ListMissionRequests(ctx, store.RequestQuery{Statuses: statuses})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *RequestService) Get(ctx context.Context, sess Session, id uuid.UUID) (*models.MissionRequest, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	list, err := s.store.ListMissionRequests(ctx, store.RequestQuery{ID: id})
	if err != nil {
		return nil, translate(err)
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// MarkViewed stamps the viewer's timestamp, overwriting any earlier one.
// A converted request keeps its status.
func (s *RequestService) MarkViewed(ctx context.Context, sess Session, id uuid.UUID) (*models.MissionRequest, error) {
	if err := requireStaff(sess); err != nil {
		return nil, err
	}
	r, err := s.store.MissionRequests().Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	now := s.now().UTC()
	if sess.IsAdmin() {
		r.ViewedByAdminAt = &now
	} else {
		r.ViewedByDriverAt = &now
	}
	if r.Status != models.RequestConverted {
		r.Status = models.RequestViewed
	}
	if err := s.store.MissionRequests().Save(ctx, r); err != nil {
		return nil, translate(err)
	}
	return r, nil
}

func (s *RequestService) Delete(ctx context.Context, sess Session, id uuid.UUID) error {
	if err := requireStaff(sess); err != nil {
		return err
	}
	return translate(s.store.MissionRequests().Delete(ctx, id))
}

// ConvertToMission creates a mission seeded from the request and marks the
// request converted. Both writes commit together or not at all.
func (s *RequestService) ConvertToMission(ctx context.Context, sess Session, id uuid.UUID, in MissionInput) (*models.Mission, *models.MissionRequest, error) {
	if err := requireStaff(sess); err != nil {
		return nil, nil, err
	}
	var (
		mission *models.Mission
		request *models.MissionRequest
	)
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		r, err := tx.MissionRequests().Get(ctx, id)
		if err != nil {
			return translate(err)
		}
		if r.Status == models.RequestConverted {
			return fmt.Errorf("%w: request already converted", ErrConflict)
		}
		in.ClientID = r.ClientID
		in.CollectionSiteID = r.CollectionSiteID
		if in.ClientMissionID == "" {
			in.ClientMissionID = r.ClientMissionID
		}
		if in.ClientRequestDate == "" && r.ClientRequestDate != nil {
			in.ClientRequestDate = r.ClientRequestDate.Format(dateLayout)
		}

		m, err := s.missions.create(ctx, tx, sess, in, &r.ID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		r.Status = models.RequestConverted
		r.ConvertedAt = &now
		r.ConvertedMissionID = &m.ID
		if err := tx.MissionRequests().Save(ctx, r); err != nil {
			return translate(err)
		}
		mission, request = m, r
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrValidation) && !errors.Is(err, ErrConflict) && !errors.Is(err, ErrForbidden) {
			logrus.WithError(err).WithField("request_id", id).Error("convert mission request")
		}
		return nil, nil, err
	}
	return mission, request, nil
}
