package controllers

import (
	"net/http"
	"strings"

	"github.com/waithaka-labs/dukapos-backend/api/responses"
	"github.com/waithaka-labs/dukapos-backend/api/validators"
	"github.com/waithaka-labs/dukapos-backend/internal/ledger"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
)

type createAccountRequest struct {
	Code string `json:"code" validate:"required,max=16"`
	Name string `json:"name" validate:"required,max=120"`
	Type string `json:"type" validate:"required"`
}

// AccountCreate registers a chart-of-accounts node.
func AccountCreate(svc ledger.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createAccountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		accountType, err := enums.ParseAccountType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidInput, err, "invalid account type"))
			return
		}

		account, err := svc.CreateAccount(r.Context(), ledger.CreateAccountInput{
			ChannelID: channelID,
			Code:      req.Code,
			Name:      req.Name,
			Type:      accountType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, account)
	}
}

// AccountList returns the channel's chart of accounts ordered by code.
func AccountList(svc ledger.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeInactive := strings.EqualFold(r.URL.Query().Get("include_inactive"), "true")

		accounts, err := svc.ListAccounts(r.Context(), channelID, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, accounts)
	}
}

// AccountDetail loads one account by id.
func AccountDetail(svc ledger.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := pathUUID(r, "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		account, err := svc.GetAccount(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

type updateAccountRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=120"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// AccountUpdate renames or toggles an account. Accounts are never deleted.
func AccountUpdate(svc ledger.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := pathUUID(r, "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateAccountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.UpdateAccount(r.Context(), ledger.UpdateAccountInput{
			AccountID: accountID,
			Name:      req.Name,
			IsActive:  req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}

// AccountDeactivate retires an account while keeping its history postable for reads.
func AccountDeactivate(svc ledger.AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := pathUUID(r, "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		account, err := svc.DeactivateAccount(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}
