package trends

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/richard-senior/footytrends/pkg/transport"
)

var (
	// ErrMissingCredential is returned before any request is made when the
	// API key for the upstream is not configured
	ErrMissingCredential = errors.New("missing API credential")

	// ErrTeamNotFound is returned when a team search yields no results
	ErrTeamNotFound = errors.New("team not found")

	// ErrUnavailable means the upstream answered but not with data in the
	// expected shape
	ErrUnavailable = errors.New("data unavailable")

	// ErrMissingTeam is returned when a required team name is blank
	ErrMissingTeam = errors.New("team name required")

	// ErrInvalidSeason is returned for season labels that cannot be mapped to a year
	ErrInvalidSeason = errors.New("invalid season")
)

// Sentinel strings shown in place of prices
const (
	MarkerNA           = "N/A"
	MarkerKeyMissing   = "Key Missing"
	MarkerInvalidKey   = "Invalid Key"
	MarkerAPIError     = "API Error"
	MarkerGeneralError = "General Error"
)

// UpstreamError is a non-200 answer from one of the APIs
type UpstreamError struct {
	Status       int
	Unauthorized bool
	Detail       string
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("upstream returned HTTP %d", e.Status)
	if e.Unauthorized {
		msg += " (unauthorized)"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// NetworkError is a request that never produced a response
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TeamError ties a failure to the team it happened for, so the caller can say
// which of the two names was the problem
type TeamError struct {
	Team string
	Err  error
}

func (e *TeamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Team, e.Err)
}

func (e *TeamError) Unwrap() error {
	return e.Err
}

// classify maps transport failures onto the package taxonomy. Anything else
// (typically a body that is not JSON) is treated as unavailable data
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *transport.StatusError
	if errors.As(err, &se) {
		return &UpstreamError{
			Status:       se.StatusCode,
			Unauthorized: se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden,
			Detail:       se.Detail,
		}
	}
	var re *transport.RequestError
	if errors.As(err, &re) {
		return &NetworkError{Err: re.Err}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Marker returns the sentinel string that replaces a price when fetching it
// failed with err
func Marker(err error) string {
	var ue *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return MarkerKeyMissing
	case errors.As(err, &ue) && ue.Unauthorized:
		return MarkerInvalidKey
	case errors.As(err, &ue):
		return MarkerAPIError
	case errors.Is(err, ErrUnavailable):
		return MarkerNA
	default:
		return MarkerGeneralError
	}
}
