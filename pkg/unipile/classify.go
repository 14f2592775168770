package unipile

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrorKind is the classification of a LinkedIn API failure.
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindAuth       ErrorKind = "auth"
	KindRateLimit  ErrorKind = "rate_limit"
	KindNotFound   ErrorKind = "not_found"
	KindValidation ErrorKind = "validation"
	KindAPI        ErrorKind = "api"
	KindUnknown    ErrorKind = "unknown"
)

// Classification is the typed verdict on a LinkedIn error.
type Classification struct {
	Type        ErrorKind
	IsTransient bool
	Message     string
}

// ClassifyError maps an error from the LinkedIn client onto the shared
// taxonomy. Transient kinds (network, timeout, rate_limit, 5xx) are safe
// to retry.
func ClassifyError(err error) Classification {
	if err == nil {
		return Classification{Type: KindUnknown}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return Classification{Type: KindAuth, Message: err.Error()}
		case apiErr.StatusCode == 404:
			return Classification{Type: KindNotFound, Message: err.Error()}
		case apiErr.StatusCode == 422 || apiErr.StatusCode == 400:
			return Classification{Type: KindValidation, Message: err.Error()}
		case apiErr.StatusCode == 429:
			return Classification{Type: KindRateLimit, IsTransient: true, Message: err.Error()}
		case apiErr.StatusCode >= 500:
			return Classification{Type: KindAPI, IsTransient: true, Message: err.Error()}
		default:
			return Classification{Type: KindAPI, Message: err.Error()}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Classification{Type: KindTimeout, IsTransient: true, Message: err.Error()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Classification{Type: KindTimeout, IsTransient: true, Message: err.Error()}
		}
		return Classification{Type: KindNetwork, IsTransient: true, Message: err.Error()}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return Classification{Type: KindTimeout, IsTransient: true, Message: err.Error()}
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") || strings.Contains(msg, "econn"):
		return Classification{Type: KindNetwork, IsTransient: true, Message: err.Error()}
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return Classification{Type: KindRateLimit, IsTransient: true, Message: err.Error()}
	case strings.Contains(msg, "503"):
		return Classification{Type: KindAPI, IsTransient: true, Message: err.Error()}
	}

	return Classification{Type: KindUnknown, Message: err.Error()}
}
