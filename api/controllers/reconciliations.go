package controllers

import (
	"net/http"
	"time"

	"github.com/waithaka-labs/dukapos-backend/api/responses"
	"github.com/waithaka-labs/dukapos-backend/api/validators"
	"github.com/waithaka-labs/dukapos-backend/internal/reconciliation"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
)

type createReconciliationRequest struct {
	Scope          string     `json:"scope" validate:"required"`
	RangeStart     *time.Time `json:"rangeStart,omitempty"`
	RangeEnd       *time.Time `json:"rangeEnd,omitempty"`
	SessionID      *string    `json:"sessionId,omitempty" validate:"omitempty,uuid"`
	AccountCodes   []string   `json:"accountCodes,omitempty"`
	DeclaredAmount int64      `json:"declaredAmount"`
	ExternalRef    string     `json:"externalRef,omitempty" validate:"max=120"`
}

// ReconciliationCreate opens a draft comparing declared money against the books.
func ReconciliationCreate(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createReconciliationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scope, err := enums.ParseReconciliationScope(req.Scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidInput, err, "invalid scope"))
			return
		}

		input := reconciliation.CreateInput{
			ChannelID:      channelID,
			Scope:          scope,
			AccountCodes:   req.AccountCodes,
			DeclaredAmount: req.DeclaredAmount,
			ExternalRef:    req.ExternalRef,
			CreatedBy:      userFromContext(r),
		}
		if req.RangeStart != nil {
			input.RangeStart = *req.RangeStart
		}
		if req.RangeEnd != nil {
			input.RangeEnd = *req.RangeEnd
		}
		if req.SessionID != nil {
			sessionID, err := bodyUUID(*req.SessionID, "sessionId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.SessionID = &sessionID
		}

		rec, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rec)
	}
}

type transitionRequest struct {
	Target string `json:"target" validate:"required,oneof=reviewed approved"`
}

// ReconciliationTransition moves a record one step through review.
func ReconciliationTransition(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reconciliationID, err := pathUUID(r, "reconciliationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, err := svc.Transition(r.Context(), reconciliation.TransitionInput{
			ReconciliationID: reconciliationID,
			Target:           enums.ReconciliationStatus(req.Target),
			ActorUserID:      userFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rec)
	}
}

// ReconciliationDetail loads one record.
func ReconciliationDetail(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reconciliationID, err := pathUUID(r, "reconciliationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rec, err := svc.Get(r.Context(), reconciliationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rec)
	}
}

// ReconciliationList pages records newest-first with status and scope filters.
func ReconciliationList(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := reconciliation.ListFilters{ChannelID: channelID}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := enums.ReconciliationStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidInput, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := r.URL.Query().Get("scope"); raw != "" {
			scope, err := enums.ParseReconciliationScope(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidInput, err, "invalid scope filter"))
				return
			}
			filters.Scope = &scope
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListReconciliations(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
