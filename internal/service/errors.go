package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Kleberson-Figueiredo/debt-control/internal/auth"
	"github.com/Kleberson-Figueiredo/debt-control/internal/middleware"
	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

var errInternal = errors.New("internal error")

// requireUser returns the authenticated user id from the context.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// connectCode maps domain errors onto Connect status codes.
func connectCode(err error) connect.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.CodeUnauthenticated
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, models.ErrInvalidInput):
		return connect.CodeInvalidArgument
	case errors.Is(err, models.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, models.ErrDuplicate):
		return connect.CodeAlreadyExists
	case errors.Is(err, models.ErrConflict):
		return connect.CodeFailedPrecondition
	default:
		return connect.CodeInternal
	}
}

// toConnectError converts err for the wire. Internal failures are logged
// with op and replaced by a generic message.
func toConnectError(logger *slog.Logger, op string, err error) error {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr
	}
	code := connectCode(err)
	if code == connect.CodeInternal {
		logger.Error(op+" failed", "error", err)
		return connect.NewError(code, errInternal)
	}
	return connect.NewError(code, err)
}

func invalid(msg string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}
