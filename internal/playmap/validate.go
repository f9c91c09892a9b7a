package playmap

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Field limits for a valid playground.
const (
	MaxNameLength  = 100
	MaxNotesLength = 500
	MaxPhotos      = 5
	MinRating      = 1
	MaxRating      = 5

	// RatingUnset is the transient rating of a form that has not been rated
	// yet. It never passes validation.
	RatingUnset = 0
)

// Validate checks p against the record rules and returns the first
// violation as a validation *AppError.
func Validate(p *Playground) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return NewValidationError("name", "name is required")
	}
	if utf8.RuneCountInString(p.Name) > MaxNameLength {
		return NewValidationError("name", fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	if err := validateLocation(p.Location); err != nil {
		return err
	}

	if p.Rating < MinRating || p.Rating > MaxRating {
		return NewValidationError("rating", fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}

	if utf8.RuneCountInString(p.Notes) > MaxNotesLength {
		return NewValidationError("notes", fmt.Sprintf("notes must be %d characters or less", MaxNotesLength))
	}

	if len(p.Photos) > MaxPhotos {
		return NewValidationError("photos", fmt.Sprintf("a playground can have at most %d photos", MaxPhotos))
	}

	return nil
}

func validateLocation(loc Location) error {
	if strings.TrimSpace(loc.Address) == "" && loc.Coordinates == nil {
		return NewValidationError("location", "location must have an address or coordinates")
	}
	if loc.Coordinates == nil {
		return nil
	}

	c := loc.Coordinates
	if !isFinite(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return NewValidationError("location", "latitude must be between -90 and 90")
	}
	if !isFinite(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return NewValidationError("location", "longitude must be between -180 and 180")
	}
	if c.Accuracy != nil && (!isFinite(*c.Accuracy) || *c.Accuracy < 0) {
		return NewValidationError("location", "accuracy must be a non-negative number of meters")
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
