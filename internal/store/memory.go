package store

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"waste_tracker/internal/models"
)

// Memory is an in-process Store. Transactions are serialized and roll back by
// restoring a snapshot taken when they begin.
type Memory struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	data   *memData
	last   time.Time
	faults map[string]error
}

type memData struct {
	accounts      map[uuid.UUID]models.Account
	profiles      map[uuid.UUID]models.Profile
	clients       map[uuid.UUID]models.Client
	retired       map[uuid.UUID]models.RetiredTrackingToken
	collection    map[uuid.UUID]models.CollectionSite
	deposit       map[uuid.UUID]models.DepositSite
	vehicles      map[uuid.UUID]models.Vehicle
	materialTypes map[uuid.UUID]models.MaterialType
	missions      map[uuid.UUID]models.Mission
	requests      map[uuid.UUID]models.MissionRequest
}

func NewMemory() *Memory {
	return &Memory{
		data: &memData{
			accounts:      map[uuid.UUID]models.Account{},
			profiles:      map[uuid.UUID]models.Profile{},
			clients:       map[uuid.UUID]models.Client{},
			retired:       map[uuid.UUID]models.RetiredTrackingToken{},
			collection:    map[uuid.UUID]models.CollectionSite{},
			deposit:       map[uuid.UUID]models.DepositSite{},
			vehicles:      map[uuid.UUID]models.Vehicle{},
			materialTypes: map[uuid.UUID]models.MaterialType{},
			missions:      map[uuid.UUID]models.Mission{},
			requests:      map[uuid.UUID]models.MissionRequest{},
		},
		faults: map[string]error{},
	}
}

func (d *memData) clone() *memData {
	return &memData{
		accounts:      maps.Clone(d.accounts),
		profiles:      maps.Clone(d.profiles),
		clients:       maps.Clone(d.clients),
		retired:       maps.Clone(d.retired),
		collection:    maps.Clone(d.collection),
		deposit:       maps.Clone(d.deposit),
		vehicles:      maps.Clone(d.vehicles),
		materialTypes: maps.Clone(d.materialTypes),
		missions:      maps.Clone(d.missions),
		requests:      maps.Clone(d.requests),
	}
}

// InjectFault makes the next write named op ("missions.create",
// "mission_requests.save", ...) fail with err.
func (m *Memory) InjectFault(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = err
}

// fault must be called with mu held.
func (m *Memory) fault(op string) error {
	if err, ok := m.faults[op]; ok {
		delete(m.faults, op)
		return err
	}
	return nil
}

// tick returns a strictly increasing timestamp so ordering by CreatedAt is stable.
func (m *Memory) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(m.last) {
		now = m.last.Add(time.Microsecond)
	}
	m.last = now
	return now
}

type memRepo[T any, PT Record[T]] struct {
	m     *Memory
	name  string
	table func(*memData) map[uuid.UUID]T
	// key returns a value that must be unique across rows; empty means no constraint.
	key func(*T) string
	// strip clears association fields so only column values are stored.
	strip func(*T)
}

func (r memRepo[T, PT]) check(rows map[uuid.UUID]T, v *T) error {
	if r.key == nil {
		return nil
	}
	k := r.key(v)
	if k == "" {
		return nil
	}
	id := PT(v).GetBase().ID
	for otherID, other := range rows {
		if otherID != id && r.key(&other) == k {
			return ErrDuplicate
		}
	}
	return nil
}

func (r memRepo[T, PT]) Create(ctx context.Context, v *T) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault(r.name + ".create"); err != nil {
		return err
	}
	rows := r.table(r.m.data)
	b := PT(v).GetBase()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if _, exists := rows[b.ID]; exists {
		return ErrDuplicate
	}
	if err := r.check(rows, v); err != nil {
		return err
	}
	now := r.m.tick()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	row := *v
	if r.strip != nil {
		r.strip(&row)
	}
	rows[b.ID] = row
	return nil
}

func (r memRepo[T, PT]) Save(ctx context.Context, v *T) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault(r.name + ".save"); err != nil {
		return err
	}
	rows := r.table(r.m.data)
	if err := r.check(rows, v); err != nil {
		return err
	}
	b := PT(v).GetBase()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := r.m.tick()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	row := *v
	if r.strip != nil {
		r.strip(&row)
	}
	rows[b.ID] = row
	return nil
}

func (r memRepo[T, PT]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	v, ok := r.table(r.m.data)[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (r memRepo[T, PT]) List(ctx context.Context, q Query) ([]T, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []T
	for _, v := range r.table(r.m.data) {
		if matchQuery(PT(&v), q) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b T) int {
		return PT(&b).GetBase().CreatedAt.Compare(PT(&a).GetBase().CreatedAt)
	})
	return out, nil
}

func matchQuery(v any, q Query) bool {
	if q.ActiveOnly {
		if a, ok := v.(interface{ Active() bool }); ok && !a.Active() {
			return false
		}
	}
	if q.ClientID != uuid.Nil {
		if o, ok := v.(interface{ OwnerClientID() uuid.UUID }); ok && o.OwnerClientID() != q.ClientID {
			return false
		}
	}
	if q.Role != "" {
		if p, ok := v.(interface{ HasRole(models.Role) bool }); ok && !p.HasRole(q.Role) {
			return false
		}
	}
	return true
}

func (r memRepo[T, PT]) Delete(ctx context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault(r.name + ".delete"); err != nil {
		return err
	}
	delete(r.table(r.m.data), id)
	return nil
}

func (m *Memory) Accounts() Repository[models.Account] {
	return memRepo[models.Account, *models.Account]{
		m: m, name: "accounts",
		table: func(d *memData) map[uuid.UUID]models.Account { return d.accounts },
		key:   func(a *models.Account) string { return strings.ToLower(a.Email) },
	}
}

func (m *Memory) Profiles() Repository[models.Profile] {
	return memRepo[models.Profile, *models.Profile]{
		m: m, name: "profiles",
		table: func(d *memData) map[uuid.UUID]models.Profile { return d.profiles },
	}
}

func (m *Memory) Clients() Repository[models.Client] {
	return memRepo[models.Client, *models.Client]{
		m: m, name: "clients",
		table: func(d *memData) map[uuid.UUID]models.Client { return d.clients },
		key:   func(c *models.Client) string { return c.TrackingToken },
		strip: func(c *models.Client) { c.CollectionSites = nil },
	}
}

func (m *Memory) RetiredTokens() Repository[models.RetiredTrackingToken] {
	return memRepo[models.RetiredTrackingToken, *models.RetiredTrackingToken]{
		m: m, name: "retired_tracking_tokens",
		table: func(d *memData) map[uuid.UUID]models.RetiredTrackingToken { return d.retired },
		key:   func(t *models.RetiredTrackingToken) string { return t.Token },
	}
}

func (m *Memory) CollectionSites() Repository[models.CollectionSite] {
	return memRepo[models.CollectionSite, *models.CollectionSite]{
		m: m, name: "collection_sites",
		table: func(d *memData) map[uuid.UUID]models.CollectionSite { return d.collection },
		strip: func(s *models.CollectionSite) { s.Client = nil },
	}
}

func (m *Memory) DepositSites() Repository[models.DepositSite] {
	return memRepo[models.DepositSite, *models.DepositSite]{
		m: m, name: "deposit_sites",
		table: func(d *memData) map[uuid.UUID]models.DepositSite { return d.deposit },
	}
}

func (m *Memory) Vehicles() Repository[models.Vehicle] {
	return memRepo[models.Vehicle, *models.Vehicle]{
		m: m, name: "vehicles",
		table: func(d *memData) map[uuid.UUID]models.Vehicle { return d.vehicles },
		key:   func(v *models.Vehicle) string { return strings.ToUpper(v.LicensePlate) },
	}
}

func (m *Memory) MaterialTypes() Repository[models.MaterialType] {
	return memRepo[models.MaterialType, *models.MaterialType]{
		m: m, name: "material_types",
		table: func(d *memData) map[uuid.UUID]models.MaterialType { return d.materialTypes },
		key:   func(t *models.MaterialType) string { return t.Name },
	}
}

func (m *Memory) Missions() Repository[models.Mission] {
	return memRepo[models.Mission, *models.Mission]{
		m: m, name: "missions",
		table: func(d *memData) map[uuid.UUID]models.Mission { return d.missions },
		strip: stripMission,
	}
}

func (m *Memory) MissionRequests() Repository[models.MissionRequest] {
	return memRepo[models.MissionRequest, *models.MissionRequest]{
		m: m, name: "mission_requests",
		table: func(d *memData) map[uuid.UUID]models.MissionRequest { return d.requests },
		strip: func(r *models.MissionRequest) {
			r.Client = nil
			r.CollectionSite = nil
		},
	}
}

func stripMission(ms *models.Mission) {
	ms.Client = nil
	ms.Driver = nil
	ms.CollectionSite = nil
	ms.DepositSite = nil
	ms.Vehicle = nil
	ms.MaterialType = nil
}

func (m *Memory) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.data.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindClientByToken(ctx context.Context, token string) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.data.clients {
		if c.TrackingToken == token {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindRetiredToken(ctx context.Context, token string) (*models.RetiredTrackingToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.data.retired {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateMission(ctx context.Context, ms *models.Mission, expected int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("missions.update"); err != nil {
		return err
	}
	cur, ok := m.data.missions[ms.ID]
	if !ok || cur.Version != expected {
		return ErrVersionConflict
	}
	ms.CreatedAt = cur.CreatedAt
	ms.UpdatedAt = m.tick()
	row := *ms
	stripMission(&row)
	m.data.missions[ms.ID] = row
	return nil
}

func (m *Memory) matchMission(ms *models.Mission, q MissionQuery) bool {
	switch {
	case q.ID != uuid.Nil && ms.ID != q.ID,
		q.ClientID != uuid.Nil && ms.ClientID != q.ClientID,
		q.DriverID != uuid.Nil && ms.DriverID != q.DriverID,
		q.CollectionSiteID != uuid.Nil && ms.CollectionSiteID != q.CollectionSiteID,
		q.DepositSiteID != uuid.Nil && ms.DepositSiteID != q.DepositSiteID,
		q.VehicleID != uuid.Nil && ms.VehicleID != q.VehicleID,
		q.MaterialTypeID != uuid.Nil && ms.MaterialTypeID != q.MaterialTypeID,
		len(q.Statuses) > 0 && !slices.Contains(q.Statuses, ms.Status),
		q.From != nil && ms.MissionDate.Before(*q.From),
		q.To != nil && ms.MissionDate.After(*q.To):
		return false
	}
	return true
}

func (m *Memory) ListMissions(ctx context.Context, q MissionQuery) ([]models.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Mission
	for _, ms := range m.data.missions {
		if !m.matchMission(&ms, q) {
			continue
		}
		if c, ok := m.data.clients[ms.ClientID]; ok {
			ms.Client = &c
		}
		if p, ok := m.data.profiles[ms.DriverID]; ok {
			ms.Driver = &p
		}
		if s, ok := m.data.collection[ms.CollectionSiteID]; ok {
			ms.CollectionSite = &s
		}
		if s, ok := m.data.deposit[ms.DepositSiteID]; ok {
			ms.DepositSite = &s
		}
		if v, ok := m.data.vehicles[ms.VehicleID]; ok {
			ms.Vehicle = &v
		}
		if t, ok := m.data.materialTypes[ms.MaterialTypeID]; ok {
			ms.MaterialType = &t
		}
		out = append(out, ms)
	}
	slices.SortFunc(out, func(a, b models.Mission) int {
		if c := b.MissionDate.Compare(a.MissionDate); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (m *Memory) CountMissions(ctx context.Context, q MissionQuery) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, ms := range m.data.missions {
		if m.matchMission(&ms, q) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListMissionRequests(ctx context.Context, q RequestQuery) ([]models.MissionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.MissionRequest
	for _, r := range m.data.requests {
		if q.ID != uuid.Nil && r.ID != q.ID ||
			q.ClientID != uuid.Nil && r.ClientID != q.ClientID ||
			len(q.Statuses) > 0 && !slices.Contains(q.Statuses, r.Status) {
			continue
		}
		if c, ok := m.data.clients[r.ClientID]; ok {
			r.Client = &c
		}
		if s, ok := m.data.collection[r.CollectionSiteID]; ok {
			r.CollectionSite = &s
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.MissionRequest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (m *Memory) Transaction(ctx context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.data.clone()
	m.mu.Unlock()

	if err := fn(memTx{m}); err != nil {
		m.mu.Lock()
		m.data = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// memTx is the Store handed to a transaction body; nested transactions join it.
type memTx struct {
	*Memory
}

func (t memTx) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}
