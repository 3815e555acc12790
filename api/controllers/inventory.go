package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/waithaka-labs/dukapos-backend/api/middleware"
	"github.com/waithaka-labs/dukapos-backend/api/responses"
	"github.com/waithaka-labs/dukapos-backend/api/validators"
	"github.com/waithaka-labs/dukapos-backend/internal/inventory"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

type createBatchRequest struct {
	LocationID string         `json:"locationId" validate:"required,uuid"`
	VariantID  string         `json:"variantId" validate:"required,uuid"`
	Quantity   string         `json:"quantity" validate:"required"`
	UnitCost   int64          `json:"unitCost" validate:"gte=0"`
	ExpiryDate *time.Time     `json:"expiryDate,omitempty"`
	SourceType string         `json:"sourceType" validate:"required"`
	SourceID   string         `json:"sourceId" validate:"required"`
	Metadata   types.Metadata `json:"metadata,omitempty"`
}

// BatchCreate registers an immutable cost lot.
func BatchCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createBatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := decimal.NewFromString(req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidInput, "quantity must be a decimal string"))
			return
		}

		locationID, err := bodyUUID(req.LocationID, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := bodyUUID(req.VariantID, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.CreateBatch(r.Context(), inventory.CreateBatchInput{
			ChannelID:  channelID,
			LocationID: locationID,
			VariantID:  variantID,
			Quantity:   quantity,
			UnitCost:   req.UnitCost,
			ExpiryDate: req.ExpiryDate,
			SourceType: req.SourceType,
			SourceID:   req.SourceID,
			Metadata:   req.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, batch)
	}
}

// BatchList pages open batches oldest-first.
func BatchList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := batchFilters(r, channelID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOpenBatches(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type adjustBatchRequest struct {
	Delta string `json:"delta" validate:"required"`
}

// BatchAdjust applies a signed delta to one batch under its row lock.
func BatchAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := pathUUID(r, "batchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req adjustBatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		delta, err := decimal.NewFromString(req.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidInput, "delta must be a decimal string"))
			return
		}

		batch, err := svc.AdjustBatchQuantity(r.Context(), inventory.AdjustBatchInput{
			BatchID: batchID,
			Delta:   delta,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

// InventoryValuation aggregates open batches without locking.
func InventoryValuation(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := batchFilters(r, channelID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Valuation(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

type receiveStockRequest struct {
	LocationID string         `json:"locationId" validate:"required,uuid"`
	VariantID  string         `json:"variantId" validate:"required,uuid"`
	Quantity   string         `json:"quantity" validate:"required"`
	UnitCost   int64          `json:"unitCost" validate:"gte=0"`
	ExpiryDate *time.Time     `json:"expiryDate,omitempty"`
	Type       string         `json:"type" validate:"required"`
	SourceType string         `json:"sourceType" validate:"required"`
	SourceID   string         `json:"sourceId" validate:"required"`
	OccurredAt *time.Time     `json:"occurredAt,omitempty"`
	Metadata   types.Metadata `json:"metadata,omitempty"`
}

// StockReceive creates a batch plus its positive movement in one unit of work.
func StockReceive(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req receiveStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := decimal.NewFromString(req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidInput, "quantity must be a decimal string"))
			return
		}
		movementType, err := enums.ParseMovementType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidInput, err, "invalid movement type"))
			return
		}

		locationID, err := bodyUUID(req.LocationID, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := bodyUUID(req.VariantID, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.ReceiveStockInput{
			ChannelID:  channelID,
			LocationID: locationID,
			VariantID:  variantID,
			Quantity:   quantity,
			UnitCost:   req.UnitCost,
			ExpiryDate: req.ExpiryDate,
			Type:       movementType,
			SourceType: req.SourceType,
			SourceID:   req.SourceID,
			Metadata:   req.Metadata,
			Actor: inventory.ActorInput{
				UserID: userFromContext(r),
				Role:   middleware.RoleFromContext(r.Context()),
			},
		}
		if req.OccurredAt != nil {
			input.OccurredAt = *req.OccurredAt
		}

		result, err := svc.ReceiveStock(r.Context(), input)
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

type consumeStockRequest struct {
	LocationID string         `json:"locationId" validate:"required,uuid"`
	VariantID  string         `json:"variantId" validate:"required,uuid"`
	Quantity   string         `json:"quantity" validate:"required"`
	Type       string         `json:"type" validate:"required"`
	SourceType string         `json:"sourceType" validate:"required"`
	SourceID   string         `json:"sourceId" validate:"required"`
	OccurredAt *time.Time     `json:"occurredAt,omitempty"`
	Metadata   types.Metadata `json:"metadata,omitempty"`
}

// StockConsume draws stock down across open batches oldest-first.
func StockConsume(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req consumeStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := decimal.NewFromString(req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidInput, "quantity must be a decimal string"))
			return
		}
		movementType, err := enums.ParseMovementType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidInput, err, "invalid movement type"))
			return
		}

		locationID, err := bodyUUID(req.LocationID, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := bodyUUID(req.VariantID, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.ConsumeStockInput{
			ChannelID:  channelID,
			LocationID: locationID,
			VariantID:  variantID,
			Quantity:   quantity,
			Type:       movementType,
			SourceType: req.SourceType,
			SourceID:   req.SourceID,
			Metadata:   req.Metadata,
			Actor: inventory.ActorInput{
				UserID: userFromContext(r),
				Role:   middleware.RoleFromContext(r.Context()),
			},
		}
		if req.OccurredAt != nil {
			input.OccurredAt = *req.OccurredAt
		}

		result, err := svc.ConsumeStock(r.Context(), input)
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

type recordMovementRequest struct {
	LocationID string         `json:"locationId" validate:"required,uuid"`
	VariantID  string         `json:"variantId" validate:"required,uuid"`
	Type       string         `json:"type" validate:"required"`
	Quantity   string         `json:"quantity" validate:"required"`
	BatchID    *string        `json:"batchId,omitempty"`
	SourceType string         `json:"sourceType" validate:"required"`
	SourceID   string         `json:"sourceId" validate:"required"`
	OccurredAt *time.Time     `json:"occurredAt,omitempty"`
	Metadata   types.Metadata `json:"metadata,omitempty"`
}

// MovementRecord appends one signed quantity change to the movement ledger.
func MovementRecord(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req recordMovementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := decimal.NewFromString(req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidInput, "quantity must be a decimal string"))
			return
		}
		movementType, err := enums.ParseMovementType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidInput, err, "invalid movement type"))
			return
		}

		locationID, err := bodyUUID(req.LocationID, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := bodyUUID(req.VariantID, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.RecordMovementInput{
			ChannelID:  channelID,
			LocationID: locationID,
			VariantID:  variantID,
			Type:       movementType,
			Quantity:   quantity,
			SourceType: req.SourceType,
			SourceID:   req.SourceID,
			Metadata:   req.Metadata,
		}
		if req.BatchID != nil {
			batchID, err := uuid.Parse(*req.BatchID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidInput, "invalid batchId"))
				return
			}
			input.BatchID = &batchID
		}
		if req.OccurredAt != nil {
			input.OccurredAt = *req.OccurredAt
		}

		movement, err := svc.RecordMovement(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

// MovementList pages movement history newest-first.
func MovementList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := inventory.MovementFilters{ChannelID: channelID}
		if locationID, err := validators.ParseQueryUUID(r, "location_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if locationID != uuid.Nil {
			filters.LocationID = &locationID
		}
		if variantID, err := validators.ParseQueryUUID(r, "variant_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if variantID != uuid.Nil {
			filters.VariantID = &variantID
		}
		if raw := r.URL.Query().Get("type"); raw != "" {
			movementType, err := enums.ParseMovementType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidInput, err, "invalid movement type"))
				return
			}
			filters.Type = &movementType
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMovements(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// StockLevel reports on-hand quantity and sufficiency for a requested amount.
func StockLevel(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID, err := channelFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := validators.ParseQueryUUID(r, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := validators.ParseQueryUUID(r, "variant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if locationID == uuid.Nil || variantID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidInput, "location_id and variant_id are required"))
			return
		}
		requested := decimal.Zero
		if raw := r.URL.Query().Get("requested"); raw != "" {
			requested, err = decimal.NewFromString(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidInput, "requested must be a decimal string"))
				return
			}
		}

		level, err := svc.VerifyStockLevel(r.Context(), channelID, locationID, variantID, requested)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, level)
	}
}

func batchFilters(r *http.Request, channelID uuid.UUID) (inventory.BatchFilters, error) {
	filters := inventory.BatchFilters{ChannelID: channelID}
	locationID, err := validators.ParseQueryUUID(r, "location_id")
	if err != nil {
		return filters, err
	}
	if locationID != uuid.Nil {
		filters.LocationID = &locationID
	}
	variantID, err := validators.ParseQueryUUID(r, "variant_id")
	if err != nil {
		return filters, err
	}
	if variantID != uuid.Nil {
		filters.VariantID = &variantID
	}
	return filters, nil
}
