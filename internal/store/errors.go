package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/sundayezeilo/wxcounter/internal/errx"
)

// isConnectivity reports failures that mean the backend could not be reached
// or the call was cut short, as opposed to the backend rejecting the query.
func isConnectivity(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// mapError classifies err for op. backendRejected lets each driver flag its
// own "query reached the server and failed" error types as Internal.
func mapError(op string, err error, backendRejected func(error) bool) error {
	if err == nil {
		return nil
	}
	switch {
	case isConnectivity(err):
		return errx.E(op, errx.Unavailable, err)
	case backendRejected != nil && backendRejected(err):
		return errx.E(op, errx.Internal, err)
	default:
		return errx.E(op, errx.Unavailable, err)
	}
}
