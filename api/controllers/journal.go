package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/waithaka-labs/dukapos-backend/api/middleware"
	"github.com/waithaka-labs/dukapos-backend/api/responses"
	"github.com/waithaka-labs/dukapos-backend/api/validators"
	"github.com/waithaka-labs/dukapos-backend/internal/ledger"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

type entryLineRequest struct {
	AccountID string         `json:"accountId" validate:"required,uuid"`
	Debit     int64          `json:"debit" validate:"gte=0"`
	Credit    int64          `json:"credit" validate:"gte=0"`
	Meta      types.Metadata `json:"meta,omitempty"`
}

type postEntryRequest struct {
	EntryDate  *time.Time         `json:"entryDate,omitempty"`
	SourceType string             `json:"sourceType" validate:"required"`
	SourceID   string             `json:"sourceId" validate:"required"`
	Memo       string             `json:"memo,omitempty" validate:"max=500"`
	Lines      []entryLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// EntryPost writes one balanced journal entry.
func EntryPost(svc ledger.JournalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req postEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ledger.PostEntryInput{
			ChannelID:  channelID,
			SourceType: req.SourceType,
			SourceID:   req.SourceID,
			Memo:       req.Memo,
			Actor: ledger.ActorInput{
				UserID: userFromContext(r),
				Role:   middleware.RoleFromContext(r.Context()),
			},
		}
		if req.EntryDate != nil {
			input.EntryDate = *req.EntryDate
		}
		for _, line := range req.Lines {
			accountID, err := bodyUUID(line.AccountID, "accountId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Lines = append(input.Lines, ledger.LineInput{
				AccountID: accountID,
				Debit:     line.Debit,
				Credit:    line.Credit,
				Meta:      line.Meta,
			})
		}

		result, err := svc.PostEntry(r.Context(), input)
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

// EntryReverse posts the debit/credit-swapped counterpart of an entry.
func EntryReverse(svc ledger.JournalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := pathUUID(r, "entryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ReverseEntry(r.Context(), entryID, ledger.ActorInput{
			UserID: userFromContext(r),
			Role:   middleware.RoleFromContext(r.Context()),
		})
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

// EntryDetail loads an entry with its lines.
func EntryDetail(svc ledger.JournalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := pathUUID(r, "entryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.GetEntry(r.Context(), entryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// EntryList pages journal entries newest-first.
func EntryList(svc ledger.JournalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListEntries(r.Context(), channelID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AccountBalanceReport aggregates debits and credits per account over a range.
func AccountBalanceReport(svc ledger.JournalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := balanceFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balances, err := svc.AccountBalances(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balances)
	}
}

// TrialBalanceReport returns per-account balances plus channel-wide totals,
// which must always agree.
func TrialBalanceReport(svc ledger.JournalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := balanceFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		trial, err := svc.TrialBalance(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, trial)
	}
}

func balanceFilters(r *http.Request) (ledger.BalanceFilters, error) {
	channelID, err := channelFromContext(r)
	if err != nil {
		return ledger.BalanceFilters{}, err
	}
	filters := ledger.BalanceFilters{ChannelID: channelID}

	if raw := strings.TrimSpace(r.URL.Query().Get("codes")); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			code = strings.TrimSpace(code)
			if code == "" {
				return filters, pkgerrors.New(pkgerrors.CodeInvalidInput, "codes must be a comma-separated list")
			}
			filters.AccountCodes = append(filters.AccountCodes, code)
		}
	}
	if from, err := validators.ParseQueryDate(r, "from"); err != nil {
		return filters, err
	} else if from != nil {
		filters.From = from
	}
	if to, err := validators.ParseQueryDate(r, "to"); err != nil {
		return filters, err
	} else if to != nil {
		filters.To = to
	}
	return filters, nil
}
