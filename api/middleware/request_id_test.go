package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

func TestRequestIDHonorsUpstreamHeader(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/health/live", nil)
	req.Header.Set("X-Request-Id", "upstream-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "upstream-42" {
		t.Fatalf("expected upstream id echoed back, got %q", got)
	}
}

func TestRequestIDReplacesBadUpstreamValues(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, bad := range []string{
		"",
		"has spaces in it",
		"line\nbreak",
		strings.Repeat("x", maxRequestIDLen+1),
	} {
		req := httptest.NewRequest("GET", "/health/live", nil)
		if bad != "" {
			req.Header.Set("X-Request-Id", bad)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		got := rec.Header().Get("X-Request-Id")
		if got == bad && bad != "" {
			t.Fatalf("expected %q replaced", bad)
		}
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("expected generated uuid, got %q", got)
		}
	}
}

func TestRecovererConvertsPanicToInternalError(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test-middleware", Output: io.Discard})
	handler := Recoverer(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/api/v1/accounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("expected INTERNAL, got %s", envelope.Error.Code)
	}
}

func TestRecovererPassesAbortHandlerThrough(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler re-raised, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}
