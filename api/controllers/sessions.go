package controllers

import (
	"net/http"
	"time"

	"github.com/waithaka-labs/dukapos-backend/api/responses"
	"github.com/waithaka-labs/dukapos-backend/api/validators"
	"github.com/waithaka-labs/dukapos-backend/internal/cashier"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
)

type openSessionRequest struct {
	CashierID    *string `json:"cashierId,omitempty" validate:"omitempty,uuid"`
	OpeningFloat int64   `json:"openingFloat" validate:"gte=0"`
}

// SessionOpen starts a drawer shift. The cashier defaults to the bearer.
func SessionOpen(svc cashier.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req openSessionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cashierID := userFromContext(r)
		if req.CashierID != nil {
			cashierID, err = bodyUUID(*req.CashierID, "cashierId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		session, err := svc.OpenSession(r.Context(), cashier.OpenSessionInput{
			ChannelID:    channelID,
			CashierID:    cashierID,
			OpeningFloat: req.OpeningFloat,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

type closeSessionRequest struct {
	ClosingDeclared int64 `json:"closingDeclared" validate:"gte=0"`
}

// SessionClose ends a shift and surfaces the computed variance.
func SessionClose(svc cashier.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req closeSessionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CloseSession(r.Context(), cashier.CloseSessionInput{
			SessionID:       sessionID,
			ClosingDeclared: req.ClosingDeclared,
			ActorUserID:     userFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SessionDetail loads one session.
func SessionDetail(svc cashier.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.GetSession(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// SessionList pages sessions newest-first, optionally filtered by status.
func SessionList(svc cashier.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.CashierSessionStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed := enums.CashierSessionStatus(raw)
			status = &parsed
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListSessions(r.Context(), channelID, status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SessionEvents lists the money events recorded against a session in order.
func SessionEvents(svc cashier.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := pathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		events, err := svc.ListSessionEvents(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}

type recordMoneyEventRequest struct {
	SessionID     *string    `json:"sessionId,omitempty" validate:"omitempty,uuid"`
	Type          string     `json:"type" validate:"required"`
	Amount        int64      `json:"amount" validate:"required"`
	PaymentMethod string     `json:"paymentMethod" validate:"required,max=40"`
	SourceType    string     `json:"sourceType" validate:"required"`
	SourceID      string     `json:"sourceId" validate:"required"`
	EventDate     *time.Time `json:"eventDate,omitempty"`
	Memo          string     `json:"memo,omitempty" validate:"max=500"`
}

// MoneyEventRecord appends one signed cash movement.
func MoneyEventRecord(svc cashier.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req recordMoneyEventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventType, err := enums.ParseMoneyEventType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidInput, err, "invalid money event type"))
			return
		}

		input := cashier.RecordMoneyEventInput{
			ChannelID:     channelID,
			Type:          eventType,
			Amount:        req.Amount,
			PaymentMethod: req.PaymentMethod,
			SourceType:    req.SourceType,
			SourceID:      req.SourceID,
			Memo:          req.Memo,
			PostedBy:      userFromContext(r),
		}
		if req.SessionID != nil {
			sessionID, err := bodyUUID(*req.SessionID, "sessionId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.SessionID = &sessionID
		}
		if req.EventDate != nil {
			input.EventDate = *req.EventDate
		}

		result, err := svc.RecordMoneyEvent(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
