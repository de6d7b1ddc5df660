package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"waste_tracker/internal/models"
	"waste_tracker/internal/store"
)

func TestCreateMissionDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("driver entry is completed and assigned to the driver", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.missions.Create(ctx, f.driver, f.input(f.otherDriver.UserID, 2000, 35752))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if m.Status != models.MissionCompleted {
			t.Errorf("status = %s, want completed", m.Status)
		}
		if m.DriverID != f.driver.UserID {
			t.Errorf("driver id not forced to the session user")
		}
		if m.ValidatedAt != nil {
			t.Errorf("driver mission should not be validated")
		}
		if m.NetWeightTons.StringFixed(2) != "33.75" {
			t.Errorf("net = %s", m.NetWeightTons)
		}
		if m.Version != 1 {
			t.Errorf("version = %d", m.Version)
		}
	})

	t.Run("admin entry is validated immediately", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.missions.Create(ctx, f.admin, f.input(f.driver.UserID, 1000, 3000))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if m.Status != models.MissionValidated || m.ValidatedAt == nil {
			t.Errorf("got status %s validated_at %v", m.Status, m.ValidatedAt)
		}
	})

	t.Run("driver cannot validate", func(t *testing.T) {
		f := newFixture(t)
		in := f.input(f.driver.UserID, 1000, 3000)
		in.Status = string(models.MissionValidated)
		if _, err := f.missions.Create(ctx, f.driver, in); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestCreateMissionRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		mutate func(f *fixture, in *MissionInput)
		field  string
	}{
		{"loaded not above empty", func(f *fixture, in *MissionInput) {
			in.EmptyWeightKg = decimal.NewNullDecimal(decimal.NewFromInt(5000))
			in.LoadedWeightKg = decimal.NewNullDecimal(decimal.NewFromInt(4000))
		}, "loaded_weight_kg"},
		{"missing weight", func(f *fixture, in *MissionInput) {
			in.EmptyWeightKg = decimal.NullDecimal{}
		}, "empty_weight_kg"},
		{"sub-gram loaded weight", func(f *fixture, in *MissionInput) {
			in.LoadedWeightKg = decimal.NewNullDecimal(decimal.RequireFromString("35752.0004"))
		}, "loaded_weight_kg"},
		{"missing date", func(f *fixture, in *MissionInput) { in.MissionDate = "" }, "mission_date"},
		{"bad date", func(f *fixture, in *MissionInput) { in.MissionDate = "10/01/2024" }, "mission_date"},
		{"unknown vehicle", func(f *fixture, in *MissionInput) { in.VehicleID = uuid.New() }, "vehicle_id"},
		{"missing material", func(f *fixture, in *MissionInput) { in.MaterialTypeID = uuid.Nil }, "material_type_id"},
		{"unknown status", func(f *fixture, in *MissionInput) { in.Status = "archived" }, "status"},
		{"driver id is an admin", func(f *fixture, in *MissionInput) { in.DriverID = f.admin.UserID }, "driver_id"},
		{"site of another client", func(f *fixture, in *MissionInput) {
			other, err := f.refs.CreateClient(ctx, f.admin, ClientInput{Name: "Other"})
			if err != nil {
				panic(err)
			}
			in.ClientID = other.ID
		}, "collection_site_id"},
		{"inactive material", func(f *fixture, in *MissionInput) {
			if _, err := f.refs.SetMaterialTypeActive(ctx, f.admin, f.material.ID, false); err != nil {
				panic(err)
			}
		}, "material_type_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.input(f.driver.UserID, 2000, 35752)
			tt.mutate(f, &in)
			_, err := f.missions.Create(ctx, f.admin, in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
			if n := f.countMissions(t, store.MissionQuery{}); n != 0 {
				t.Errorf("%d missions written on rejected create", n)
			}
		})
	}
}

func TestCreateMissionFractionalKilograms(t *testing.T) {
	f := newFixture(t)
	in := f.input(f.driver.UserID, 0, 0)
	in.EmptyWeightKg = decimal.NewNullDecimal(decimal.RequireFromString("2000.5"))
	in.LoadedWeightKg = decimal.NewNullDecimal(decimal.RequireFromString("2001"))
	m, err := f.missions.Create(context.Background(), f.driver, in)
	if err != nil {
		t.Fatal(err)
	}
	want := m.LoadedWeightKg.Sub(m.EmptyWeightKg).Div(decimal.NewFromInt(1000))
	if !m.NetWeightTons.Equal(want) || !m.NetWeightTons.Equal(decimal.RequireFromString("0.0005")) {
		t.Errorf("net = %s, want 0.0005", m.NetWeightTons)
	}
}

func TestUpdateMission(t *testing.T) {
	ctx := context.Background()

	t.Run("recomputes net weight", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.missions.Create(ctx, f.driver, f.input(f.driver.UserID, 2000, 35752))
		if err != nil {
			t.Fatal(err)
		}
		got, err := f.missions.Update(ctx, f.driver, m.ID, f.input(f.driver.UserID, 2000, 12000))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !got.NetWeightTons.Equal(decimal.NewFromInt(10)) {
			t.Errorf("net = %s, want 10", got.NetWeightTons)
		}
		if got.Version != 2 {
			t.Errorf("version = %d, want 2", got.Version)
		}
	})

	t.Run("rejected weights leave the record unchanged", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.missions.Create(ctx, f.driver, f.input(f.driver.UserID, 2000, 35752))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.missions.Update(ctx, f.driver, m.ID, f.input(f.driver.UserID, 5000, 4000)); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		stored, err := f.st.Missions().Get(ctx, m.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !stored.LoadedWeightKg.Equal(decimal.NewFromInt(35752)) || stored.Version != 1 {
			t.Errorf("record changed: %+v", stored)
		}
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.missions.Create(ctx, f.driver, f.input(f.driver.UserID, 2000, 35752))
		if err != nil {
			t.Fatal(err)
		}
		in := f.input(f.driver.UserID, 2000, 30000)
		v := m.Version
		in.Version = &v
		if _, err := f.missions.Update(ctx, f.driver, m.ID, in); err != nil {
			t.Fatalf("first update: %v", err)
		}
		if _, err := f.missions.Update(ctx, f.driver, m.ID, in); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		in.Version = nil
		if _, err := f.missions.Update(ctx, f.driver, m.ID, in); err != nil {
			t.Fatalf("last writer should win without a version: %v", err)
		}
	})

	t.Run("other driver is forbidden", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.missions.Create(ctx, f.driver, f.input(f.driver.UserID, 2000, 35752))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.missions.Update(ctx, f.otherDriver, m.ID, f.input(f.otherDriver.UserID, 1, 2)); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if _, err := f.missions.Get(ctx, f.otherDriver, m.ID); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden on get, got %v", err)
		}
	})

	t.Run("unchanged reference may be inactive", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.missions.Create(ctx, f.driver, f.input(f.driver.UserID, 2000, 35752))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.refs.SetVehicleActive(ctx, f.admin, f.vehicle.ID, false); err != nil {
			t.Fatal(err)
		}
		if _, err := f.missions.Update(ctx, f.driver, m.ID, f.input(f.driver.UserID, 2000, 20000)); err != nil {
			t.Fatalf("update with unchanged inactive vehicle: %v", err)
		}
	})

	t.Run("validation stamped once and kept", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.missions.Create(ctx, f.driver, f.input(f.driver.UserID, 2000, 35752))
		if err != nil {
			t.Fatal(err)
		}
		in := f.input(f.driver.UserID, 2000, 35752)
		in.Status = string(models.MissionValidated)
		if _, err := f.missions.Update(ctx, f.driver, m.ID, in); !errors.Is(err, ErrForbidden) {
			t.Fatalf("driver validating: expected ErrForbidden, got %v", err)
		}
		v1, err := f.missions.Update(ctx, f.admin, m.ID, in)
		if err != nil {
			t.Fatal(err)
		}
		if v1.ValidatedAt == nil {
			t.Fatal("validated_at not stamped")
		}
		in.Status = ""
		in.DriverComment = "late edit"
		v2, err := f.missions.Update(ctx, f.admin, m.ID, in)
		if err != nil {
			t.Fatal(err)
		}
		if v2.ValidatedAt == nil || !v2.ValidatedAt.Equal(*v1.ValidatedAt) {
			t.Errorf("validated_at changed: %v -> %v", v1.ValidatedAt, v2.ValidatedAt)
		}
		in.Status = string(models.MissionDraft)
		if _, err := f.missions.Update(ctx, f.admin, m.ID, in); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("validated -> draft: expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestValidateAndUnvalidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, err := f.missions.Create(ctx, f.driver, f.input(f.driver.UserID, 2000, 35752))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.missions.Validate(ctx, f.driver, m.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("driver validate: expected ErrForbidden, got %v", err)
	}
	v, err := f.missions.Validate(ctx, f.admin, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Status != models.MissionValidated || v.ValidatedAt == nil {
		t.Fatalf("got %s %v", v.Status, v.ValidatedAt)
	}
	u, err := f.missions.Unvalidate(ctx, f.admin, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Status != models.MissionCompleted || u.ValidatedAt != nil {
		t.Fatalf("got %s %v", u.Status, u.ValidatedAt)
	}
	if _, err := f.missions.Unvalidate(ctx, f.admin, m.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDeleteMission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, err := f.missions.Create(ctx, f.driver, f.input(f.driver.UserID, 2000, 35752))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.missions.Delete(ctx, f.otherDriver, m.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.missions.Delete(ctx, f.driver, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.missions.Delete(ctx, f.driver, m.ID); err != nil {
		t.Fatalf("deleting a missing mission should succeed: %v", err)
	}
	if n := f.countMissions(t, store.MissionQuery{}); n != 0 {
		t.Errorf("%d missions left", n)
	}
}

func TestListMissionsScopedToDriver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, s := range []Session{f.driver, f.driver, f.otherDriver} {
		if _, err := f.missions.Create(ctx, s, f.input(s.UserID, 1000, 2000)); err != nil {
			t.Fatal(err)
		}
	}
	mine, err := f.missions.List(ctx, f.driver, store.MissionQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Errorf("driver sees %d missions, want 2", len(mine))
	}
	all, err := f.missions.List(ctx, f.admin, store.MissionQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("admin sees %d missions, want 3", len(all))
	}
	if all[0].Client == nil || all[0].MaterialType == nil {
		t.Error("associations not loaded")
	}
}
