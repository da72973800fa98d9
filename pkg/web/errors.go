package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/uplix/flow/pkg/compose"
	"github.com/uplix/flow/pkg/generation"
	"github.com/uplix/flow/pkg/media"
	"github.com/uplix/flow/pkg/persistence"
	"github.com/uplix/flow/pkg/providers/instagram"
	"github.com/uplix/flow/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps domain errors onto RFC-7807 problems.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsNotFoundError(err):
		return notFound(c, err.Error())

	case services.IsValidationError(err),
		generation.IsValidation(err),
		errors.Is(err, compose.ErrMissingInput),
		errors.Is(err, instagram.ErrMissingCredentials):
		return badRequest(c, err.Error())

	case generation.IsTimeout(err), errors.Is(err, instagram.ErrProcessingTimeout):
		problem := problems.NewStatusProblem(408).
			WithInstance(c.Path()).
			WithType("generation_timeout").
			WithDetail(err.Error())

		return c.Status(fiber.StatusRequestTimeout).JSON(problem)

	case errors.Is(err, media.ErrFetchFailed), errors.Is(err, media.ErrInvalidDataURL):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("fetch_failed").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case generation.IsGenerationFailed(err), errors.Is(err, instagram.ErrProcessingFailed):
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("generation_failed").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadGateway).JSON(problem)

	case persistence.IsWorkspaceNotFound(err):
		return notFound(c, "workspace not found")

	case persistence.IsScheduledPostNotFound(err):
		return notFound(c, "scheduled post not found")

	default:
		return internalError(c, err)
	}
}
