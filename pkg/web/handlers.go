package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/engine"
)

type APIHandlers struct {
	engine      *engine.Engine
	validator   *validator.Validate
	batchSchema *gojsonschema.Schema
	logger      *slog.Logger
}

func NewAPIHandlers(graphEngine *engine.Engine, validate *validator.Validate, logger *slog.Logger) (*APIHandlers, error) {
	schema, err := newBatchRequestSchema()
	if err != nil {
		return nil, err
	}

	return &APIHandlers{
		engine:      graphEngine,
		validator:   validate,
		batchSchema: schema,
		logger:      logger.With("module", "web"),
	}, nil
}

// decodeBatchRequest runs the body through the JSON schema first so the
// caller gets field-level findings, then through the struct validator.
func (h *APIHandlers) decodeBatchRequest(c fiber.Ctx) (*ApplyBatchRequest, error) {
	body := c.Body()

	if err := validateBatchBody(h.batchSchema, body); err != nil {
		return nil, err
	}

	var req ApplyBatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	return &req, nil
}

func (h *APIHandlers) ApplyBatch(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "workflow id is required")
	}

	req, err := h.decodeBatchRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.engine.Apply(c.Context(), workflowID, req.Batch(), engine.ApplyContext{
		EstimatedCost: req.EstimatedCost,
		CallerID:      req.CallerID,
	})
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(ApplyBatchResponse{
		Version:        result.Version,
		AppliedOpCount: result.AppliedOpCount,
	})
}

func (h *APIHandlers) ValidateBatch(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "workflow id is required")
	}

	req, err := h.decodeBatchRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result := h.engine.Validate(c.Context(), workflowID, req.Batch(), engine.ApplyContext{
		EstimatedCost: req.EstimatedCost,
		CallerID:      req.CallerID,
	})

	return c.JSON(result)
}

func (h *APIHandlers) Undo(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "workflow id is required")
	}

	result, err := h.engine.Undo(c.Context(), workflowID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(HistoryResponse{Success: result.Success, Version: result.Version})
}

func (h *APIHandlers) Redo(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "workflow id is required")
	}

	result, err := h.engine.Redo(c.Context(), workflowID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(HistoryResponse{Success: result.Success, Version: result.Version})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "workflow id is required")
	}

	snapshot, err := h.engine.Snapshot(workflowID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(snapshot)
}

func (h *APIHandlers) GetHistory(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "workflow id is required")
	}

	undoDepth, redoDepth := h.engine.HistoryDepths(workflowID)

	return c.JSON(fiber.Map{
		"workflow_id": workflowID,
		"undo_depth":  undoDepth,
		"redo_depth":  redoDepth,
	})
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "workflow id is required")
	}

	if _, err := h.engine.Snapshot(workflowID); err != nil {
		return handleEngineError(c, err)
	}

	h.engine.DeleteWorkflow(workflowID)

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"message":   "Graph API is healthy",
		"timestamp": time.Now().UTC(),
	})
}
