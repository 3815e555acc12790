package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/waithaka-labs/dukapos-backend/api/middleware"
	"github.com/waithaka-labs/dukapos-backend/api/validators"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
)

// channelFromContext resolves the channel the bearer is acting on. Every
// accounting route is channel-scoped, so a token without an active channel
// cannot use them.
func channelFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ChannelIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "no active channel")
	}
	channelID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid channel in token")
	}
	return channelID, nil
}

func userFromContext(r *http.Request) uuid.UUID {
	raw := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return userID
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "%s is required", key)
	}
	value, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "invalid %s", key)
	}
	return value, nil
}

// bodyUUID parses a uuid carried in a request body. Validator tags catch the
// format upstream, but parsing must still fail soft rather than panic.
func bodyUUID(raw, field string) (uuid.UUID, error) {
	value, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "invalid %s", field)
	}
	return value, nil
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
