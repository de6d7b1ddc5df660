package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"waste_tracker/internal/controllers"
	"waste_tracker/internal/middleware"
	"waste_tracker/internal/services"
	"waste_tracker/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	t *testing.T
	r *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	st := store.NewMemory()
	jwt := middleware.NewJWTManager("test-secret", time.Hour)
	refs := services.NewReferenceService(st, time.Hour)
	missions := services.NewMissionService(st)
	ctl := controllers.New(
		services.NewAccountService(st, jwt, services.AdminBootstrap{
			Email:    "admin@example.com",
			Password: "bootstrap-pass",
			FullName: "Administrator",
			Key:      "setup-key",
		}),
		refs,
		missions,
		services.NewRequestService(st, refs, missions),
	)
	return &server{t: t, r: SetupRouter(ctl, jwt, io.Discard)}
}

// do sends a JSON request and decodes a JSON object response into out when set.
func (s *server) do(method, path, token string, body any, out any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	if out != nil && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w
}

func (s *server) expect(w *httptest.ResponseRecorder, status int) {
	s.t.Helper()
	if w.Code != status {
		s.t.Fatalf("status = %d, want %d: %s", w.Code, status, w.Body.String())
	}
}

func (s *server) login(email, password string) string {
	s.t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	s.expect(s.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password}, &resp), http.StatusOK)
	return resp.Token
}

type idBody struct {
	ID string `json:"id"`
}

// world holds the reference data every scenario starts from.
type world struct {
	*server
	admin, driver string
	driverID      string

	clientID, token string
	siteID          string
	depositID       string
	vehicleID       string
	materialID      string
}

func newWorld(t *testing.T) *world {
	t.Helper()
	s := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/functions/create-initial-admin", nil)
	req.Header.Set("X-Bootstrap-Key", "setup-key")
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	s.expect(w, http.StatusCreated)

	wd := &world{server: s, admin: s.login("admin@example.com", "bootstrap-pass")}

	var driver struct{ Driver idBody }
	s.expect(s.do(http.MethodPost, "/admin/drivers", wd.admin, gin.H{
		"email": "Driver@Example.com", "password": "password123", "full_name": "Dan Driver",
	}, &driver), http.StatusCreated)
	wd.driverID = driver.Driver.ID
	wd.driver = s.login("driver@example.com", "password123")

	var client struct {
		Client struct {
			ID            string `json:"id"`
			TrackingToken string `json:"tracking_token"`
		}
	}
	s.expect(s.do(http.MethodPost, "/admin/clients", wd.admin, gin.H{"name": "Acme"}, &client), http.StatusCreated)
	wd.clientID, wd.token = client.Client.ID, client.Client.TrackingToken

	var site struct{ Site idBody }
	s.expect(s.do(http.MethodPost, "/admin/collection-sites", wd.admin, gin.H{
		"client_id": wd.clientID, "name": "Yard", "address": "1 rue A",
		"location": gin.H{"type": "Point", "coordinates": []float64{2.35, 48.85}},
	}, &site), http.StatusCreated)
	wd.siteID = site.Site.ID

	var deposit struct{ Site idBody }
	s.expect(s.do(http.MethodPost, "/admin/deposit-sites", wd.admin, gin.H{"name": "Plant", "address": "2 rue B"}, &deposit), http.StatusCreated)
	wd.depositID = deposit.Site.ID

	var vehicle struct{ Vehicle idBody }
	s.expect(s.do(http.MethodPost, "/admin/vehicles", wd.admin, gin.H{"name": "Truck", "license_plate": "ab-123-cd"}, &vehicle), http.StatusCreated)
	wd.vehicleID = vehicle.Vehicle.ID

	var material struct {
		MaterialType idBody `json:"material_type"`
	}
	s.expect(s.do(http.MethodPost, "/admin/material-types", wd.admin, gin.H{"name": "Green waste"}, &material), http.StatusCreated)
	wd.materialID = material.MaterialType.ID
	return wd
}

func (w *world) mission(empty, loaded float64) gin.H {
	return gin.H{
		"client_id":          w.clientID,
		"collection_site_id": w.siteID,
		"deposit_site_id":    w.depositID,
		"vehicle_id":         w.vehicleID,
		"material_type_id":   w.materialID,
		"mission_date":       "2024-01-10",
		"empty_weight_kg":    empty,
		"loaded_weight_kg":   loaded,
	}
}

type missionBody struct {
	Mission struct {
		ID            string `json:"id"`
		DriverID      string `json:"driver_id"`
		Status        string `json:"status"`
		NetWeightTons string `json:"net_weight_tons"`
		Version       int    `json:"version"`
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	s.expect(s.do(http.MethodGet, "/health", "", nil, nil), http.StatusOK)
}

func TestCreateInitialAdminKey(t *testing.T) {
	s := newServer(t)
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	req := httptest.NewRequest(http.MethodPost, "/functions/create-initial-admin", nil)
	req.Header.Set("X-Bootstrap-Key", "wrong")
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	s.expect(w, http.StatusUnauthorized)
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error == "" || body.Details == "" {
		t.Errorf("body = %+v, want error and details", body)
	}
}

func TestLogin(t *testing.T) {
	wd := newWorld(t)
	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"admin", "admin@example.com", "bootstrap-pass", http.StatusOK},
		{"wrong password", "admin@example.com", "nope-nope", http.StatusUnauthorized},
		{"unknown user", "ghost@example.com", "password123", http.StatusUnauthorized},
		{"malformed email", "not-an-email", "password123", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := wd.do(http.MethodPost, "/auth/login", "", gin.H{"email": tt.email, "password": tt.password}, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	var me struct {
		User struct {
			Role string `json:"role"`
		}
	}
	wd.expect(wd.do(http.MethodGet, "/auth/me", wd.driver, nil, &me), http.StatusOK)
	if me.User.Role != "driver" {
		t.Errorf("role = %q", me.User.Role)
	}
}

func TestRoleGuards(t *testing.T) {
	wd := newWorld(t)
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous missions", http.MethodGet, "/missions", "", http.StatusUnauthorized},
		{"driver missions", http.MethodGet, "/missions", wd.driver, http.StatusOK},
		{"driver statistics", http.MethodGet, "/admin/statistics", wd.driver, http.StatusForbidden},
		{"driver accounting export", http.MethodGet, "/admin/accounting/export.csv", wd.driver, http.StatusForbidden},
		{"driver client detail", http.MethodGet, "/admin/clients/" + wd.clientID, wd.driver, http.StatusForbidden},
		{"driver creates vehicle", http.MethodPost, "/admin/vehicles", wd.driver, http.StatusForbidden},
		{"admin statistics", http.MethodGet, "/admin/statistics", wd.admin, http.StatusOK},
		{"driver form options", http.MethodGet, "/form-options", wd.driver, http.StatusOK},
		{"bad id", http.MethodGet, "/missions/nope", wd.admin, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := wd.do(tt.method, tt.path, tt.token, nil, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			// A rejected caller gets the guard's body and nothing from the handler.
			if tt.want == http.StatusForbidden && w.Body.String() != `{"error":"Insufficient permissions"}` {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestMissionLifecycle(t *testing.T) {
	wd := newWorld(t)

	var invalid struct {
		Field string `json:"field"`
	}
	wd.expect(wd.do(http.MethodPost, "/missions", wd.driver, wd.mission(3000, 3000), &invalid), http.StatusBadRequest)
	if invalid.Field != "loaded_weight_kg" {
		t.Errorf("field = %q", invalid.Field)
	}

	var created missionBody
	wd.expect(wd.do(http.MethodPost, "/missions", wd.driver, wd.mission(2000, 3500), &created), http.StatusCreated)
	m := created.Mission
	if m.Status != "completed" || m.DriverID != wd.driverID || m.NetWeightTons != "1.5" {
		t.Fatalf("mission = %+v", m)
	}

	var portal struct {
		Missions []json.RawMessage `json:"missions"`
		Stats    struct {
			TotalCount int    `json:"total_count"`
			TotalTons  string `json:"total_weight_tons"`
		}
	}
	wd.expect(wd.do(http.MethodGet, "/tracking/"+wd.token, "", nil, &portal), http.StatusOK)
	if len(portal.Missions) != 0 {
		t.Errorf("portal shows %d unvalidated mission(s)", len(portal.Missions))
	}

	wd.expect(wd.do(http.MethodPost, "/admin/missions/"+m.ID+"/validate", wd.driver, nil, nil), http.StatusForbidden)
	var validated missionBody
	wd.expect(wd.do(http.MethodPost, "/admin/missions/"+m.ID+"/validate", wd.admin, nil, &validated), http.StatusOK)
	if validated.Mission.Status != "validated" {
		t.Errorf("status = %q", validated.Mission.Status)
	}

	// A stale version is rejected.
	stale := wd.mission(2000, 4000)
	stale["driver_id"] = wd.driverID
	stale["version"] = m.Version
	wd.expect(wd.do(http.MethodPut, "/missions/"+m.ID, wd.admin, stale, nil), http.StatusConflict)

	wd.expect(wd.do(http.MethodGet, "/tracking/"+wd.token, "", nil, &portal), http.StatusOK)
	if len(portal.Missions) != 1 || portal.Stats.TotalCount != 1 || portal.Stats.TotalTons != "1.5" {
		t.Errorf("portal = %d missions, stats %+v", len(portal.Missions), portal.Stats)
	}

	w := wd.do(http.MethodGet, "/tracking/"+wd.token+"/export.csv", "", nil, nil)
	wd.expect(w, http.StatusOK)
	lines := strings.Split(strings.TrimSuffix(w.Body.String(), "\n"), "\n")
	if !strings.HasPrefix(lines[0], "\ufeff\"Order number\";") || len(lines) != 2 {
		t.Errorf("csv = %q", w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "missions-acme.csv") {
		t.Errorf("disposition = %q", w.Header().Get("Content-Disposition"))
	}

	// Missions keep their driver from being deleted.
	wd.expect(wd.do(http.MethodPost, "/functions/delete-driver", wd.admin, gin.H{"driver_id": wd.driverID}, nil), http.StatusBadRequest)
	wd.expect(wd.do(http.MethodPost, "/functions/delete-driver", wd.driver, gin.H{"driver_id": wd.driverID}, nil), http.StatusForbidden)
	wd.expect(wd.do(http.MethodPost, "/functions/delete-driver", "", gin.H{"driver_id": wd.driverID}, nil), http.StatusUnauthorized)

	wd.expect(wd.do(http.MethodDelete, "/missions/"+m.ID, wd.admin, nil, nil), http.StatusNoContent)
	wd.expect(wd.do(http.MethodGet, "/missions/"+m.ID, wd.admin, nil, nil), http.StatusNotFound)
	wd.expect(wd.do(http.MethodPost, "/functions/delete-driver", wd.admin, gin.H{"driver_id": wd.driverID}, nil), http.StatusOK)
}

func TestTrackingRequestConversion(t *testing.T) {
	wd := newWorld(t)
	wd.expect(wd.do(http.MethodGet, "/tracking/not-a-token", "", nil, nil), http.StatusNotFound)

	var sites struct {
		Data []struct {
			ID       string          `json:"id"`
			Location json.RawMessage `json:"location"`
		}
	}
	wd.expect(wd.do(http.MethodGet, "/tracking/"+wd.token+"/sites", "", nil, &sites), http.StatusOK)
	if len(sites.Data) != 1 || !strings.Contains(string(sites.Data[0].Location), "Point") {
		t.Fatalf("sites = %+v", sites.Data)
	}

	wd.expect(wd.do(http.MethodPost, "/tracking/"+wd.token+"/requests", "", gin.H{
		"collection_site_id": wd.siteID, "estimated_weight_tons": 0,
	}, nil), http.StatusBadRequest)

	var queued struct {
		Request struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
	}
	wd.expect(wd.do(http.MethodPost, "/tracking/"+wd.token+"/requests", "", gin.H{
		"collection_site_id": wd.siteID, "estimated_weight_tons": 2.5, "client_mission_id": "PO-7",
	}, &queued), http.StatusCreated)
	if queued.Request.Status != "pending" {
		t.Fatalf("status = %q", queued.Request.Status)
	}
	reqID := queued.Request.ID

	var pending struct {
		Data []json.RawMessage `json:"data"`
	}
	wd.expect(wd.do(http.MethodGet, "/requests?status=pending", wd.driver, nil, &pending), http.StatusOK)
	if len(pending.Data) != 1 {
		t.Errorf("pending = %d", len(pending.Data))
	}
	wd.expect(wd.do(http.MethodPost, "/requests/"+reqID+"/view", wd.driver, nil, nil), http.StatusOK)

	body := gin.H{
		"deposit_site_id":  wd.depositID,
		"vehicle_id":       wd.vehicleID,
		"material_type_id": wd.materialID,
		"mission_date":     "2024-02-01",
		"empty_weight_kg":  1000,
		"loaded_weight_kg": 3000,
	}
	var converted struct {
		Mission struct {
			ClientID        string `json:"client_id"`
			ClientMissionID string `json:"client_mission_id"`
			Status          string `json:"status"`
		}
		Request struct {
			Status string `json:"status"`
		}
	}
	wd.expect(wd.do(http.MethodPost, "/requests/"+reqID+"/convert", wd.driver, body, &converted), http.StatusCreated)
	if converted.Mission.ClientID != wd.clientID || converted.Mission.ClientMissionID != "PO-7" {
		t.Errorf("mission = %+v", converted.Mission)
	}
	if converted.Request.Status != "converted_to_mission" {
		t.Errorf("request status = %q", converted.Request.Status)
	}
	wd.expect(wd.do(http.MethodPost, "/requests/"+reqID+"/convert", wd.driver, body, nil), http.StatusConflict)

	var mine struct {
		Data []json.RawMessage `json:"data"`
	}
	wd.expect(wd.do(http.MethodGet, "/tracking/"+wd.token+"/requests", "", nil, &mine), http.StatusOK)
	if len(mine.Data) != 1 {
		t.Errorf("client requests = %d", len(mine.Data))
	}
}

func TestTrackingTokenHiddenFromDrivers(t *testing.T) {
	wd := newWorld(t)
	for _, path := range []string{"/clients", "/form-options"} {
		w := wd.do(http.MethodGet, path, wd.driver, nil, nil)
		wd.expect(w, http.StatusOK)
		if strings.Contains(w.Body.String(), wd.token) || strings.Contains(w.Body.String(), "tracking_token") {
			t.Errorf("%s leaks the tracking token: %s", path, w.Body.String())
		}
	}

	var detail struct {
		Client struct {
			TrackingToken string `json:"tracking_token"`
		}
	}
	wd.expect(wd.do(http.MethodGet, "/admin/clients/"+wd.clientID, wd.admin, nil, &detail), http.StatusOK)
	if detail.Client.TrackingToken != wd.token {
		t.Errorf("admin detail token = %q, want %q", detail.Client.TrackingToken, wd.token)
	}
}

func TestUpdateDriverPassword(t *testing.T) {
	wd := newWorld(t)
	var me struct{ User idBody }
	wd.expect(wd.do(http.MethodGet, "/auth/me", wd.admin, nil, &me), http.StatusOK)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"admin target", me.User.ID, http.StatusNotFound},
		{"malformed id", "42", http.StatusBadRequest},
		{"driver", wd.driverID, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := wd.do(http.MethodPost, "/functions/update-driver-password", wd.admin,
				gin.H{"driver_id": tt.target, "new_password": "another-pass"}, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
	wd.login("driver@example.com", "another-pass")
}

func TestRotateTrackingToken(t *testing.T) {
	wd := newWorld(t)
	var rotated struct {
		Client struct {
			TrackingToken string `json:"tracking_token"`
		}
	}
	wd.expect(wd.do(http.MethodPost, "/admin/clients/"+wd.clientID+"/rotate-token", wd.admin, nil, &rotated), http.StatusOK)
	if rotated.Client.TrackingToken == "" || rotated.Client.TrackingToken == wd.token {
		t.Fatalf("token not rotated: %q", rotated.Client.TrackingToken)
	}
	wd.expect(wd.do(http.MethodGet, "/tracking/"+rotated.Client.TrackingToken, "", nil, nil), http.StatusOK)
	// The retired token stays valid during the grace period.
	wd.expect(wd.do(http.MethodGet, "/tracking/"+wd.token, "", nil, nil), http.StatusOK)
}

func TestAccountingExports(t *testing.T) {
	wd := newWorld(t)
	for _, loaded := range []float64{3000, 5000} {
		wd.expect(wd.do(http.MethodPost, "/missions", wd.admin, func() gin.H {
			m := wd.mission(1000, loaded)
			m["driver_id"] = wd.driverID
			return m
		}(), nil), http.StatusCreated)
	}

	var acct struct {
		Missions  []json.RawMessage `json:"missions"`
		HasMore   bool              `json:"has_more"`
		NextLimit int               `json:"next_limit"`
		Stats     struct {
			TotalCount int    `json:"total_count"`
			TotalTons  string `json:"total_weight_tons"`
		}
	}
	wd.expect(wd.do(http.MethodGet, "/admin/accounting?limit=1", wd.admin, nil, &acct), http.StatusOK)
	if len(acct.Missions) != 1 || !acct.HasMore || acct.NextLimit != 31 {
		t.Errorf("page = %d missions, has_more %v, next %d", len(acct.Missions), acct.HasMore, acct.NextLimit)
	}
	if acct.Stats.TotalCount != 2 || acct.Stats.TotalTons != "6" {
		t.Errorf("stats = %+v", acct.Stats)
	}

	wd.expect(wd.do(http.MethodGet, "/admin/accounting?min_weight=3", wd.admin, nil, &acct), http.StatusOK)
	if acct.Stats.TotalCount != 1 {
		t.Errorf("filtered count = %d", acct.Stats.TotalCount)
	}
	wd.expect(wd.do(http.MethodGet, "/admin/accounting?period=decade", wd.admin, nil, nil), http.StatusBadRequest)

	tests := []struct {
		path        string
		contentType string
	}{
		{"/admin/accounting/export.csv", "text/csv"},
		{"/admin/accounting/export.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"/admin/accounting/export.html", "text/html"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := wd.do(http.MethodGet, tt.path, wd.admin, nil, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("content type = %q", ct)
			}
			if w.Body.Len() == 0 {
				t.Error("empty body")
			}
		})
	}
}
