package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"waste_tracker/internal/models"
	"waste_tracker/internal/report"
	"waste_tracker/internal/services"
	"waste_tracker/internal/store"
)

const queryDateLayout = "2006-01-02"

// queryParser collects the first malformed query parameter.
type queryParser struct {
	c   *gin.Context
	err error
}

func (p *queryParser) id(name string) uuid.UUID {
	raw := p.c.Query(name)
	if raw == "" || p.err != nil {
		return uuid.Nil
	}
	id, err := parseUUID(name, raw)
	if err != nil {
		p.err = err
	}
	return id
}

func (p *queryParser) date(name string) *time.Time {
	raw := p.c.Query(name)
	if raw == "" || p.err != nil {
		return nil
	}
	t, err := time.Parse(queryDateLayout, raw)
	if err != nil {
		p.err = &services.ValidationError{Field: name, Message: "must be a YYYY-MM-DD date"}
		return nil
	}
	return &t
}

func (p *queryParser) weight(name string) decimal.NullDecimal {
	raw := p.c.Query(name)
	if raw == "" || p.err != nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.err = &services.ValidationError{Field: name, Message: "must be a number"}
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (p *queryParser) period() report.Period {
	if p.err != nil {
		return report.PeriodAll
	}
	period, err := report.ParsePeriod(p.c.Query("period"))
	if err != nil {
		p.err = &services.ValidationError{Field: "period", Message: "must be one of all, week, month, year"}
	}
	return period
}

func (p *queryParser) missionStatus() models.MissionStatus {
	s := models.MissionStatus(p.c.Query("status"))
	switch s {
	case "", models.MissionDraft, models.MissionCompleted, models.MissionValidated:
		return s
	}
	if p.err == nil {
		p.err = &services.ValidationError{Field: "status", Message: "unknown mission status"}
	}
	return ""
}

// missionQuery reads the list filters of GET /missions.
func missionQuery(c *gin.Context) (store.MissionQuery, error) {
	p := &queryParser{c: c}
	q := store.MissionQuery{
		ClientID:         p.id("client_id"),
		DriverID:         p.id("driver_id"),
		CollectionSiteID: p.id("collection_site_id"),
		DepositSiteID:    p.id("deposit_site_id"),
		VehicleID:        p.id("vehicle_id"),
		MaterialTypeID:   p.id("material_type_id"),
		From:             p.date("from"),
		To:               p.date("to"),
	}
	if s := p.missionStatus(); s != "" {
		q.Statuses = []models.MissionStatus{s}
	}
	return q, p.err
}

// reportFilter reads the dashboard filters shared by statistics and exports.
func reportFilter(c *gin.Context) (report.Filter, error) {
	p := &queryParser{c: c}
	f := report.Filter{
		Period:           p.period(),
		Start:            p.date("start"),
		End:              p.date("end"),
		CollectionSiteID: p.id("collection_site_id"),
		DepositSiteID:    p.id("deposit_site_id"),
		MaterialTypeID:   p.id("material_type_id"),
		ClientID:         p.id("client_id"),
		DriverID:         p.id("driver_id"),
		VehicleID:        p.id("vehicle_id"),
		MinNetWeight:     p.weight("min_weight"),
		MaxNetWeight:     p.weight("max_weight"),
		Status:           p.missionStatus(),
	}
	return f, p.err
}

// requestStatuses reads ?status=pending,viewed.
func requestStatuses(c *gin.Context) ([]models.RequestStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	var out []models.RequestStatus
	for _, part := range strings.Split(raw, ",") {
		s := models.RequestStatus(strings.TrimSpace(part))
		switch s {
		case models.RequestPending, models.RequestViewed, models.RequestConverted:
			out = append(out, s)
		default:
			return nil, &services.ValidationError{Field: "status", Message: "unknown request status " + string(s)}
		}
	}
	return out, nil
}

// pageLimit reads ?limit=, falling back to the default page size.
func pageLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		return report.DefaultPageSize
	}
	return limit
}
