package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/cloo-solutions/geotrack/internal/domain"
	"github.com/cloo-solutions/geotrack/internal/metrics"
)

// HTTPError is a non-success answer from a provider API.
type HTTPError struct {
	Provider domain.Provider
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}

// classify maps an adapter error onto the domain taxonomy. Errors that are
// already domain errors pass through.
func classify(err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	if isTimeout(err) {
		return domain.Wrap(domain.ErrProviderTimeout, err)
	}
	return domain.Wrap(domain.ErrProviderFailed, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case domain.CodeOf(err) == domain.ErrCodeProviderTimeout:
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}

func malformed(format string, args ...any) error {
	return domain.Wrap(domain.ErrProviderMalformed, fmt.Errorf(format, args...))
}

func missingCredential(p domain.Provider) error {
	return domain.Wrap(domain.ErrMissingCredential, fmt.Errorf("%s api key is not set", p))
}
