package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"waste_tracker/internal/models"
)

func TestNetWeightTons(t *testing.T) {
	tests := []struct {
		name     string
		empty    string
		loaded   string
		want     string
		wantFail bool
	}{
		{name: "typical load", empty: "2000", loaded: "35752", want: "33.75"},
		{name: "fractional kilograms", empty: "1000.5", loaded: "1500.5", want: "0.50"},
		{name: "one kilogram", empty: "0", loaded: "1", want: "0.00"},
		{name: "loaded lighter than empty", empty: "5000", loaded: "4000", wantFail: true},
		{name: "equal weights", empty: "3000", loaded: "3000", wantFail: true},
		{name: "negative empty", empty: "-1", loaded: "10", wantFail: true},
		{name: "negative loaded", empty: "0", loaded: "-10", wantFail: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NetWeightTons(decimal.RequireFromString(tt.empty), decimal.RequireFromString(tt.loaded))
			if tt.wantFail {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.StringFixed(2) != tt.want {
				t.Errorf("got %s, want %s", got.StringFixed(2), tt.want)
			}
		})
	}
}

func TestNetWeightTonsIsExact(t *testing.T) {
	got, err := NetWeightTons(decimal.NewFromInt(2000), decimal.NewFromInt(35752))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(decimal.RequireFromString("33.752")) {
		t.Errorf("got %s, want 33.752", got)
	}
}

func TestRequireWeight(t *testing.T) {
	tests := []struct {
		in       string
		wantFail bool
	}{
		{in: "2000"},
		{in: "2000.5"},
		{in: "2001.250"},
		{in: "2000.1250"},
		{in: "2000.1234", wantFail: true},
		{in: "0.0001", wantFail: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := requireWeight("empty_weight_kg", decimal.NewNullDecimal(decimal.RequireFromString(tt.in)))
			if tt.wantFail {
				var ve *ValidationError
				if !errors.As(err, &ve) || ve.Field != "empty_weight_kg" {
					t.Fatalf("expected empty_weight_kg validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(decimal.RequireFromString(tt.in)) {
				t.Errorf("got %s", got)
			}
		})
	}
	if _, err := requireWeight("loaded_weight_kg", decimal.NullDecimal{}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing weight: %v", err)
	}
}

// Half a kilogram of net load needs four decimal places in tons; the stored
// column keeps six.
func TestNetWeightTonsKeepsGramPrecision(t *testing.T) {
	got, err := NetWeightTons(decimal.RequireFromString("2000.5"), decimal.RequireFromString("2001"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(decimal.RequireFromString("0.0005")) || !got.Equal(got.Round(6)) {
		t.Errorf("got %s, want 0.0005", got)
	}
	got, err = NetWeightTons(decimal.RequireFromString("0.001"), decimal.RequireFromString("0.002"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(decimal.RequireFromString("0.000001")) {
		t.Errorf("one gram = %s t", got)
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to models.MissionStatus
		ok       bool
	}{
		{models.MissionDraft, models.MissionCompleted, true},
		{models.MissionDraft, models.MissionValidated, true},
		{models.MissionCompleted, models.MissionValidated, true},
		{models.MissionCompleted, models.MissionDraft, true},
		{models.MissionValidated, models.MissionValidated, true},
		{models.MissionValidated, models.MissionDraft, false},
		{models.MissionValidated, models.MissionCompleted, false},
		{"archived", models.MissionDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := Transition(tt.from, tt.to)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := invalid("name", "is required")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("ValidationError should match ErrValidation")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Fatalf("unexpected %#v", err)
	}
	if err.Error() != "name: is required" {
		t.Errorf("got %q", err.Error())
	}
}
