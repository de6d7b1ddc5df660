package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"waste_tracker/internal/models"
	"waste_tracker/internal/store"
)

type fixture struct {
	st       *store.Memory
	refs     *ReferenceService
	missions *MissionService
	requests *RequestService
	accounts *AccountService

	admin, driver, otherDriver Session

	client   *models.Client
	site     *models.CollectionSite
	deposit  *models.DepositSite
	vehicle  *models.Vehicle
	material *models.MaterialType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()
	f := &fixture{st: st}
	f.refs = NewReferenceService(st, 24*time.Hour)
	f.missions = NewMissionService(st)
	f.requests = NewRequestService(st, f.refs, f.missions)
	f.accounts = NewAccountService(st, fakeCreds{}, AdminBootstrap{
		Email:    "admin@example.com",
		Password: "bootstrap-pass",
		FullName: "Administrator",
		Key:      "setup-key",
	})
	f.accounts.cost = bcrypt.MinCost

	f.admin = f.profile(t, "admin@example.com", models.RoleSuperAdmin)
	f.driver = f.profile(t, "driver@example.com", models.RoleDriver)
	f.otherDriver = f.profile(t, "other@example.com", models.RoleDriver)

	var err error
	if f.client, err = f.refs.CreateClient(ctx, f.admin, ClientInput{Name: "Acme"}); err != nil {
		t.Fatalf("create client: %v", err)
	}
	if f.site, err = f.refs.CreateCollectionSite(ctx, f.admin, SiteInput{ClientID: f.client.ID, Name: "Yard", Address: "1 rue A"}); err != nil {
		t.Fatalf("create site: %v", err)
	}
	if f.deposit, err = f.refs.CreateDepositSite(ctx, f.admin, SiteInput{Name: "Plant", Address: "2 rue B"}); err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	if f.vehicle, err = f.refs.CreateVehicle(ctx, f.admin, VehicleInput{Name: "Truck 1", LicensePlate: "ab-123-cd"}); err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	if f.material, err = f.refs.CreateMaterialType(ctx, f.admin, MaterialTypeInput{Name: "Green waste"}); err != nil {
		t.Fatalf("create material: %v", err)
	}
	return f
}

// profile seeds an account and profile with password "password123".
func (f *fixture) profile(t *testing.T, email string, role models.Role) Session {
	t.Helper()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	p := &models.Profile{Email: email, FullName: email, Role: role, IsActive: true}
	if err := createAccount(ctx, f.st, p, string(hash)); err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
	return Session{UserID: p.ID, Role: role}
}

func (f *fixture) input(driverID uuid.UUID, emptyKg, loadedKg int64) MissionInput {
	return MissionInput{
		ClientID:         f.client.ID,
		DriverID:         driverID,
		CollectionSiteID: f.site.ID,
		DepositSiteID:    f.deposit.ID,
		VehicleID:        f.vehicle.ID,
		MaterialTypeID:   f.material.ID,
		MissionDate:      "2024-01-10",
		EmptyWeightKg:    decimal.NewNullDecimal(decimal.NewFromInt(emptyKg)),
		LoadedWeightKg:   decimal.NewNullDecimal(decimal.NewFromInt(loadedKg)),
	}
}

func (f *fixture) countMissions(t *testing.T, q store.MissionQuery) int64 {
	t.Helper()
	n, err := f.st.CountMissions(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// fakeCreds encodes the session in the token itself.
type fakeCreds struct{}

func (fakeCreds) Issue(userID uuid.UUID, role models.Role) (string, error) {
	return fmt.Sprintf("%s|%s", userID, role), nil
}

func (fakeCreds) Verify(token string) (uuid.UUID, models.Role, error) {
	id, role, ok := strings.Cut(token, "|")
	if !ok {
		return uuid.Nil, "", errors.New("malformed token")
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, "", err
	}
	return uid, models.Role(role), nil
}

func bearer(s Session) string {
	tok, _ := fakeCreds{}.Issue(s.UserID, s.Role)
	return tok
}
