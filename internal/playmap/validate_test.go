package playmap_test

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"playmap/internal/playmap"
)

func validPlayground() *playmap.Playground {
	added := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return &playmap.Playground{
		ID:   "pg-1",
		Name: "Central Park",
		Location: playmap.Location{
			Address:     "New York, NY",
			Coordinates: &playmap.Coordinates{Latitude: 40.7829, Longitude: -73.9654},
		},
		Rating:       5,
		Photos:       []string{},
		DateAdded:    added,
		DateModified: added,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(p *playmap.Playground)
		wantField string
	}{
		{name: "valid", modify: func(p *playmap.Playground) {}},
		{name: "address only", modify: func(p *playmap.Playground) { p.Location.Coordinates = nil }},
		{name: "coordinates only", modify: func(p *playmap.Playground) { p.Location.Address = "" }},
		{name: "name at limit", modify: func(p *playmap.Playground) { p.Name = strings.Repeat("a", 100) }},
		{name: "multibyte name at limit", modify: func(p *playmap.Playground) { p.Name = strings.Repeat("é", 100) }},
		{name: "notes at limit", modify: func(p *playmap.Playground) { p.Notes = strings.Repeat("n", 500) }},
		{name: "photos at limit", modify: func(p *playmap.Playground) { p.Photos = make([]string, 5) }},
		{name: "rating bounds low", modify: func(p *playmap.Playground) { p.Rating = 1 }},
		{name: "zero accuracy", modify: func(p *playmap.Playground) { p.Location.Coordinates.Accuracy = ptr(0.0) }},

		{name: "empty name", modify: func(p *playmap.Playground) { p.Name = "" }, wantField: "name"},
		{name: "blank name", modify: func(p *playmap.Playground) { p.Name = "   \t" }, wantField: "name"},
		{name: "name too long", modify: func(p *playmap.Playground) { p.Name = strings.Repeat("a", 101) }, wantField: "name"},
		{name: "no location", modify: func(p *playmap.Playground) { p.Location = playmap.Location{} }, wantField: "location"},
		{name: "blank address only", modify: func(p *playmap.Playground) {
			p.Location = playmap.Location{Address: "  "}
		}, wantField: "location"},
		{name: "latitude too high", modify: func(p *playmap.Playground) { p.Location.Coordinates.Latitude = 90.5 }, wantField: "location"},
		{name: "longitude too low", modify: func(p *playmap.Playground) { p.Location.Coordinates.Longitude = -180.1 }, wantField: "location"},
		{name: "latitude NaN", modify: func(p *playmap.Playground) { p.Location.Coordinates.Latitude = math.NaN() }, wantField: "location"},
		{name: "negative accuracy", modify: func(p *playmap.Playground) { p.Location.Coordinates.Accuracy = ptr(-1.0) }, wantField: "location"},
		{name: "unset rating", modify: func(p *playmap.Playground) { p.Rating = playmap.RatingUnset }, wantField: "rating"},
		{name: "rating too high", modify: func(p *playmap.Playground) { p.Rating = 6 }, wantField: "rating"},
		{name: "notes too long", modify: func(p *playmap.Playground) { p.Notes = strings.Repeat("n", 501) }, wantField: "notes"},
		{name: "too many photos", modify: func(p *playmap.Playground) { p.Photos = make([]string, 6) }, wantField: "photos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlayground()
			tt.modify(p)

			err := playmap.Validate(p)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var appErr *playmap.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Validate() error = %v, want *AppError", err)
			}
			if appErr.Kind != playmap.KindValidation {
				t.Errorf("Kind = %q, want validation", appErr.Kind)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidate_ReportsFirstViolation(t *testing.T) {
	p := validPlayground()
	p.Name = ""
	p.Rating = 0

	var appErr *playmap.AppError
	if !errors.As(playmap.Validate(p), &appErr) || appErr.Field != "name" {
		t.Errorf("Validate() = %v, want name error first", appErr)
	}
}
