package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/waithaka-labs/dukapos-backend/api/middleware"
	"github.com/waithaka-labs/dukapos-backend/internal/inventory"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

func TestBodyUUID(t *testing.T) {
	want := uuid.New()

	got, err := bodyUUID(want.String(), "locationId")
	if err != nil || got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}

	got, err = bodyUUID("  "+want.String()+"  ", "locationId")
	if err != nil || got != want {
		t.Fatalf("expected trimmed parse, got %s (%v)", got, err)
	}

	if _, err := bodyUUID("not-a-uuid", "locationId"); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if _, err := bodyUUID("", "locationId"); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for empty value, got %v", err)
	}
}

// recordingInventoryService tracks whether the handler reached the service
// layer. Only CreateBatch is implemented.
type recordingInventoryService struct {
	createCalls int
}

func (s *recordingInventoryService) CreateBatch(_ context.Context, input inventory.CreateBatchInput) (*models.InventoryBatch, error) {
	s.createCalls++
	return &models.InventoryBatch{
		ChannelID:  input.ChannelID,
		LocationID: input.LocationID,
		VariantID:  input.VariantID,
		Quantity:   input.Quantity,
		UnitCost:   input.UnitCost,
		SourceType: input.SourceType,
		SourceID:   input.SourceID,
	}, nil
}

func (s *recordingInventoryService) ListOpenBatches(context.Context, inventory.BatchFilters, pagination.Params) (*inventory.BatchList, error) {
	panic("unimplemented")
}

func (s *recordingInventoryService) AdjustBatchQuantity(context.Context, inventory.AdjustBatchInput) (*models.InventoryBatch, error) {
	panic("unimplemented")
}

func (s *recordingInventoryService) Valuation(context.Context, inventory.BatchFilters) (*inventory.ValuationSnapshot, error) {
	panic("unimplemented")
}

func (s *recordingInventoryService) RecordMovement(context.Context, inventory.RecordMovementInput) (*models.InventoryMovement, error) {
	panic("unimplemented")
}

func (s *recordingInventoryService) ListMovements(context.Context, inventory.MovementFilters, pagination.Params) (*inventory.MovementList, error) {
	panic("unimplemented")
}

func (s *recordingInventoryService) VerifyStockLevel(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, decimal.Decimal) (*inventory.StockLevel, error) {
	panic("unimplemented")
}

func (s *recordingInventoryService) VerifyBatchExists(context.Context, uuid.UUID) (bool, error) {
	panic("unimplemented")
}

func (s *recordingInventoryService) ReceiveStock(context.Context, inventory.ReceiveStockInput) (*inventory.ReceiveStockResult, error) {
	panic("unimplemented")
}

func (s *recordingInventoryService) ConsumeStock(context.Context, inventory.ConsumeStockInput) (*inventory.ConsumeStockResult, error) {
	panic("unimplemented")
}

// Malformed identifiers in a batch body must come back as a 400, never a
// panic, and must not reach the service.
func TestBatchCreateRejectsMalformedUUID(t *testing.T) {
	svc := &recordingInventoryService{}
	logg := logger.New(logger.Options{ServiceName: "test-controllers", Output: io.Discard})
	handler := BatchCreate(svc, logg)

	body := `{"locationId":"not-a-uuid","variantId":"` + uuid.NewString() + `",` +
		`"quantity":"10","unitCost":1500,"sourceType":"GoodsReceipt","sourceId":"grn-77"}`
	req := httptest.NewRequest("POST", "/api/v1/inventory/batches", strings.NewReader(body))
	req = req.WithContext(middleware.WithChannelID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createCalls != 0 {
		t.Fatalf("service should not be called, got %d calls", svc.createCalls)
	}

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %s", envelope.Error.Code)
	}
}

func TestBatchCreateAcceptsValidBody(t *testing.T) {
	svc := &recordingInventoryService{}
	logg := logger.New(logger.Options{ServiceName: "test-controllers", Output: io.Discard})
	handler := BatchCreate(svc, logg)

	body := `{"locationId":"` + uuid.NewString() + `","variantId":"` + uuid.NewString() + `",` +
		`"quantity":"10","unitCost":1500,"sourceType":"GoodsReceipt","sourceId":"grn-78"}`
	req := httptest.NewRequest("POST", "/api/v1/inventory/batches", strings.NewReader(body))
	req = req.WithContext(middleware.WithChannelID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createCalls != 1 {
		t.Fatalf("expected one service call, got %d", svc.createCalls)
	}
}
