package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
)

// CurrentUserID returns the authenticated user's id from the request context.
func CurrentUserID(ctx context.Context) (uuid.UUID, error) {
	raw := UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
