// Package report filters mission records and derives the statistics shown on
// the tracking portal and the admin dashboards. Everything here is pure and
// works on missions already loaded with their associations.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"waste_tracker/internal/models"
)

// DefaultPageSize is both the initial display limit and its increment.
const DefaultPageSize = 30

const unspecified = "Unspecified"

type Period string

const (
	PeriodAll   Period = "all"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodAll, nil
	case PeriodAll, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

func (p Period) Label() string {
	switch p {
	case PeriodWeek:
		return "Last 7 days"
	case PeriodMonth:
		return "Last month"
	case PeriodYear:
		return "Last year"
	}
	return "All time"
}

// since returns the first calendar day inside the period, or false for "all".
func (p Period) since(now time.Time) (time.Time, bool) {
	today := Day(now)
	switch p {
	case PeriodWeek:
		return today.AddDate(0, 0, -7), true
	case PeriodMonth:
		return today.AddDate(0, -1, 0), true
	case PeriodYear:
		return today.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Filter combines every set criterion with AND. Zero values are ignored.
// Start and End are inclusive calendar days.
type Filter struct {
	Period Period
	Start  *time.Time
	End    *time.Time

	CollectionSiteID uuid.UUID
	DepositSiteID    uuid.UUID
	MaterialTypeID   uuid.UUID
	ClientID         uuid.UUID
	DriverID         uuid.UUID
	VehicleID        uuid.UUID

	MinNetWeight decimal.NullDecimal
	MaxNetWeight decimal.NullDecimal
	Status       models.MissionStatus
}

func (f Filter) match(m *models.Mission, since time.Time, hasSince bool) bool {
	day := Day(m.MissionDate)
	switch {
	case hasSince && day.Before(since),
		f.Start != nil && day.Before(Day(*f.Start)),
		f.End != nil && day.After(Day(*f.End)),
		f.CollectionSiteID != uuid.Nil && m.CollectionSiteID != f.CollectionSiteID,
		f.DepositSiteID != uuid.Nil && m.DepositSiteID != f.DepositSiteID,
		f.MaterialTypeID != uuid.Nil && m.MaterialTypeID != f.MaterialTypeID,
		f.ClientID != uuid.Nil && m.ClientID != f.ClientID,
		f.DriverID != uuid.Nil && m.DriverID != f.DriverID,
		f.VehicleID != uuid.Nil && m.VehicleID != f.VehicleID,
		f.MinNetWeight.Valid && m.NetWeightTons.LessThan(f.MinNetWeight.Decimal),
		f.MaxNetWeight.Valid && m.NetWeightTons.GreaterThan(f.MaxNetWeight.Decimal),
		f.Status != "" && m.Status != f.Status:
		return false
	}
	return true
}

// Group is one row of a breakdown.
type Group struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Count  int             `json:"count"`
	Weight decimal.Decimal `json:"weight_tons"`
}

type Stats struct {
	TotalWeight decimal.Decimal `json:"total_weight_tons"`
	TotalCount  int             `json:"total_count"`
	ByMaterial  []Group         `json:"by_material"`
	ByClient    []Group         `json:"by_client"`
	ByDriver    []Group         `json:"by_driver"`
}

// View is a filtered mission set with its statistics.
type View struct {
	// Filtered holds every matching mission, newest mission date first.
	Filtered []models.Mission `json:"missions"`
	Stats    Stats            `json:"stats"`
}

// Build filters missions and computes statistics over the full result.
// Breakdown groups appear in the order their first mission was seen.
func Build(missions []models.Mission, f Filter, now time.Time) View {
	since, hasSince := f.Period.since(now)
	var (
		filtered   []models.Mission
		byMaterial = newGrouper()
		byClient   = newGrouper()
		byDriver   = newGrouper()
	)
	total := decimal.Zero
	for i := range missions {
		m := &missions[i]
		if !f.match(m, since, hasSince) {
			continue
		}
		filtered = append(filtered, *m)
		total = total.Add(m.NetWeightTons)
		byMaterial.add(m.MaterialTypeID, materialName(m), m.NetWeightTons)
		byClient.add(m.ClientID, clientName(m), m.NetWeightTons)
		byDriver.add(m.DriverID, driverName(m), m.NetWeightTons)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return Day(filtered[i].MissionDate).After(Day(filtered[j].MissionDate))
	})
	return View{
		Filtered: filtered,
		Stats: Stats{
			TotalWeight: total,
			TotalCount:  len(filtered),
			ByMaterial:  byMaterial.groups,
			ByClient:    byClient.groups,
			ByDriver:    byDriver.groups,
		},
	}
}

// Page returns at most limit missions for display; a limit below one means
// DefaultPageSize. Stats are unaffected.
func (v View) Page(limit int) []models.Mission {
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit >= len(v.Filtered) {
		return v.Filtered
	}
	return v.Filtered[:limit]
}

// HasMore reports whether Page(limit) hides missions.
func (v View) HasMore(limit int) bool {
	if limit < 1 {
		limit = DefaultPageSize
	}
	return limit < len(v.Filtered)
}

// NextLimit is the display limit after a "show more" request.
func NextLimit(limit int) int {
	if limit < 1 {
		return DefaultPageSize
	}
	return limit + DefaultPageSize
}

type grouper struct {
	index  map[uuid.UUID]int
	groups []Group
}

func newGrouper() *grouper {
	return &grouper{index: map[uuid.UUID]int{}}
}

func (g *grouper) add(id uuid.UUID, name string, weight decimal.Decimal) {
	i, ok := g.index[id]
	if !ok {
		i = len(g.groups)
		g.index[id] = i
		g.groups = append(g.groups, Group{ID: id, Name: name, Weight: decimal.Zero})
	}
	g.groups[i].Count++
	g.groups[i].Weight = g.groups[i].Weight.Add(weight)
}

func materialName(m *models.Mission) string {
	if m.MaterialType == nil || m.MaterialType.Name == "" {
		return unspecified
	}
	return m.MaterialType.Name
}

func clientName(m *models.Mission) string {
	if m.Client == nil || m.Client.Name == "" {
		return unspecified
	}
	return m.Client.Name
}

func driverName(m *models.Mission) string {
	if m.Driver == nil || m.Driver.FullName == "" {
		return unspecified
	}
	return m.Driver.FullName
}
