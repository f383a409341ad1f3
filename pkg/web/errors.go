package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/applier"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/engine"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/policies"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// policyViolationResponse maps a rejection to 403: the batch was understood
// but is not permitted here.
func policyViolationResponse(c fiber.Ctx, violation *policies.Violation) error {
	problem := problems.NewStatusProblem(fiber.StatusForbidden).
		WithInstance(c.Path()).
		WithType("policy_violation").
		WithDetail(violation.Message)

	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"type":   problem.Type,
		"title":  problem.Title,
		"status": problem.Status,
		"detail": problem.Detail,
		"policy": violation.Policy,
		"code":   violation.Code,
		"details": violation.Details,
	})
}

// referentialErrorResponse maps a dangling reference to 422: the batch was
// well-formed JSON but cannot apply to the current graph.
func referentialErrorResponse(c fiber.Ctx, refErr *applier.ReferentialError) error {
	problem := problems.NewStatusProblem(fiber.StatusUnprocessableEntity).
		WithInstance(c.Path()).
		WithType("referential_error").
		WithDetail(refErr.Error())

	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"type":      problem.Type,
		"title":     problem.Title,
		"status":    problem.Status,
		"detail":    problem.Detail,
		"op_index":  refErr.OpIndex,
		"op":        string(refErr.Kind),
		"reference": refErr.Reference,
	})
}

// handleEngineError translates the engine's error classes into problem
// responses. Internal invariant failures stay 500s and are never dressed up
// as client errors.
func handleEngineError(c fiber.Ctx, err error) error {
	var violation *policies.Violation
	if errors.As(err, &violation) {
		return policyViolationResponse(c, violation)
	}

	var refErr *applier.ReferentialError
	if errors.As(err, &refErr) {
		return referentialErrorResponse(c, refErr)
	}

	if errors.Is(err, engine.ErrWorkflowNotFound) {
		return notFound(c, "workflow not found")
	}

	if engine.IsInternal(err) {
		return internalError(c, err)
	}

	// Anything left is a malformed batch the decoder let through.
	return badRequest(c, err.Error())
}
