package controllers

import (
	"net/http"
	"time"

	"github.com/waithaka-labs/dukapos-backend/api/responses"
	"github.com/waithaka-labs/dukapos-backend/api/validators"
	"github.com/waithaka-labs/dukapos-backend/internal/periods"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
)

type lockPeriodRequest struct {
	LockEndDate time.Time `json:"lockEndDate" validate:"required"`
}

// PeriodLockSet locks every write dated on or before the cutoff.
func PeriodLockSet(svc periods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req lockPeriodRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lock, err := svc.LockPeriod(r.Context(), periods.LockPeriodInput{
			ChannelID:   channelID,
			LockEndDate: req.LockEndDate,
			ActorUserID: userFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lock)
	}
}

// PeriodLockClear removes the channel's cutoff.
func PeriodLockClear(svc periods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lock, err := svc.UnlockPeriod(r.Context(), channelID, userFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lock)
	}
}

// PeriodLockStatus reports the channel's current cutoff, if any.
func PeriodLockStatus(svc periods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lock, err := svc.Status(r.Context(), channelID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lock)
	}
}
