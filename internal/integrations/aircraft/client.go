package aircraft

import (
	"context"
	"fmt"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/pkg/errors"
)

// ErrRateLimited is returned (wrapped) when an upstream answers 429.
var ErrRateLimited = errors.New("upstream rate limited")

// Provider is one upstream aircraft-state API. Implementations normalize their payload
// into models.AircraftState and may return more aircraft than the roster holds.
type Provider interface {
	Name() string
	GetStates(ctx context.Context, roster models.Roster) ([]models.AircraftState, error)
}

// StatusError is a non-2xx answer other than 429.
type StatusError struct {
	Source     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http %d", e.Source, e.StatusCode)
}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
