package playmap

import (
	"context"
	"errors"
	"strings"
)

// Provider failures. Capture and location providers return (or wrap) these
// so the core can classify them.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrServiceDisabled  = errors.New("service disabled")
	ErrLocationNotFound = errors.New("location not found")
)

// CaptureResult is what a photo-capture provider hands back. A cancelled
// capture carries no file.
type CaptureResult struct {
	URI          string
	ThumbnailURI string
	Width        int
	Height       int
	Cancelled    bool
}

// CaptureProvider takes or picks a photo on the device.
type CaptureProvider interface {
	Capture(ctx context.Context) (CaptureResult, error)
}

// LocationProvider resolves device position and addresses.
type LocationProvider interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
	ReverseGeocode(ctx context.Context, coords Coordinates) (string, error)
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

// CapturePhoto runs the capture provider and stores the result for the
// playground. A cancelled capture returns an empty URI and no error.
func CapturePhoto(ctx context.Context, provider CaptureProvider, tracker *PhotoTracker, playgroundID string) (string, error) {
	result, err := provider.Capture(ctx)
	if err != nil {
		return "", classifyProviderError("photo capture failed", err)
	}
	if result.Cancelled {
		return "", nil
	}
	return tracker.AddPhoto(ctx, playgroundID, result)
}

// LocationResolver turns provider answers into catalog locations.
type LocationResolver struct {
	provider LocationProvider
	clock    Clock
	logger   Logger
}

// NewLocationResolver creates a resolver over provider.
func NewLocationResolver(provider LocationProvider, clock Clock, logger Logger) *LocationResolver {
	return &LocationResolver{provider: provider, clock: clock, logger: logger}
}

// Here returns the device's current location. The address is filled in when
// reverse geocoding succeeds; its failure does not fail the lookup.
func (r *LocationResolver) Here(ctx context.Context) (Location, error) {
	coords, err := r.provider.CurrentPosition(ctx)
	if err != nil {
		return Location{}, classifyProviderError("failed to get current position", err)
	}

	now := r.clock.Now()
	loc := Location{Coordinates: &coords, Timestamp: &now}

	address, err := r.provider.ReverseGeocode(ctx, coords)
	if err != nil {
		r.logger.Warn("reverse geocoding failed", "error", err)
		return loc, nil
	}
	loc.Address = address
	return loc, nil
}

// FromAddress geocodes address into a location carrying both forms.
func (r *LocationResolver) FromAddress(ctx context.Context, address string) (Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Location{}, NewValidationError("location", "address is required")
	}

	coords, err := r.provider.Geocode(ctx, address)
	if err != nil {
		return Location{}, classifyProviderError("failed to look up address", err)
	}

	now := r.clock.Now()
	return Location{Address: address, Coordinates: &coords, Timestamp: &now}, nil
}

func classifyProviderError(msg string, err error) *AppError {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return NewPermissionError(msg, true, err)
	case errors.Is(err, ErrServiceDisabled):
		return NewPermissionError(msg, false, err)
	default:
		return NewNetworkError(msg, err)
	}
}
