package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope types.SuccessEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Data == nil {
		t.Fatalf("expected data in envelope")
	}
}

func TestWriteErrorMapsCodes(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{pkgerrors.New(pkgerrors.CodeInvalidInput, "bad quantity"), http.StatusBadRequest, "INVALID_INPUT"},
		{pkgerrors.New(pkgerrors.CodeConflict, "duplicate open session"), http.StatusConflict, "CONFLICT"},
		{pkgerrors.New(pkgerrors.CodePeriodLocked, "period locked through 2024-01-31"), http.StatusUnprocessableEntity, "PERIOD_LOCKED"},
		{pkgerrors.New(pkgerrors.CodeNotFound, "batch not found"), http.StatusNotFound, "NOT_FOUND"},
		{pkgerrors.New(pkgerrors.CodeRetryable, "try again"), http.StatusServiceUnavailable, "RETRYABLE"},
		{context.DeadlineExceeded, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, tc.err)

		if rec.Code != tc.wantStatus {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.wantStatus, rec.Code)
		}
		var envelope types.ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if envelope.Error.Code != tc.wantCode {
			t.Fatalf("expected code %s, got %s", tc.wantCode, envelope.Error.Code)
		}
	}
}

func TestInternalErrorHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "pq: connection reset"))

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
}
