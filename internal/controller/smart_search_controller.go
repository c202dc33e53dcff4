package controller

import (
	"errors"

	"literature-search-be/internal/dto"
	"literature-search-be/internal/pkg/serverutils"
	"literature-search-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISmartSearchController interface {
	RegisterRoutes(r fiber.Router)
}

type smartSearchController struct {
	service service.ISmartSearchService
}

func NewSmartSearchController(service service.ISmartSearchService) ISmartSearchController {
	return &smartSearchController{service: service}
}

func (c *smartSearchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/smart-search/v1")
	h.Use(serverutils.JwtMiddleware)

	h.Post("/workflows", c.Start)
	h.Post("/workflows/resume", c.Resume)
	h.Get("/workflows/:id", c.Show)
	h.Delete("/workflows/:id/error", c.ClearError)

	h.Post("/workflows/:id/question", c.SubmitQuestion)
	h.Post("/workflows/:id/keywords", c.GenerateKeywords)
	h.Post("/workflows/:id/count", c.TestCount)
	h.Post("/workflows/:id/count/record", c.RecordCount)
	h.Post("/workflows/:id/optimize", c.Optimize)
	h.Post("/workflows/:id/search", c.Search)
	h.Post("/workflows/:id/discriminator", c.GenerateDiscriminator)
	h.Post("/workflows/:id/filter", c.Filter)

	h.Post("/workflows/:id/features", c.AddFeature)
	h.Post("/workflows/:id/features/extract", c.ExtractFeatures)
	h.Delete("/workflows/:id/features/pending/:featureId", c.RemovePendingFeature)
	h.Delete("/workflows/:id/features/applied/:featureId", c.RemoveAppliedFeature)

	h.Put("/workflows/:id/artifacts", c.UpdateArtifacts)
	h.Put("/workflows/:id/sources", c.SetSources)
	h.Post("/workflows/:id/step-back", c.StepBack)

	h.Get("/runs", c.ListRuns)
	h.Get("/preferences/sources", c.GetSources)
	h.Put("/preferences/sources", c.SaveSources)
}

// toHTTPError maps the service's lookup failures to 404; everything else is
// left for the error middleware.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrWorkflowNotFound), errors.Is(err, service.ErrFeatureNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}

func workflowParams(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusNotFound, service.ErrWorkflowNotFound.Error())
	}
	return userId, id, nil
}

// parseBody tolerates an empty body for actions whose fields are optional.
func parseBody(ctx *fiber.Ctx, req interface{}) error {
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	return serverutils.ValidateRequest(req)
}

func respond(ctx *fiber.Ctx, message string, res interface{}, err error) error {
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *smartSearchController) Start(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.Start(ctx.Context(), userId)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success start smart search", res))
}

func (c *smartSearchController) Resume(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	var req dto.ResumeWorkflowRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.Resume(ctx.Context(), userId, &req)
	return respond(ctx, "Success resume smart search", res, err)
}

func (c *smartSearchController) Show(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.Show(ctx.Context(), userId, id)
	return respond(ctx, "Success show smart search", res, err)
}

func (c *smartSearchController) ClearError(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.ClearError(ctx.Context(), userId, id)
	return respond(ctx, "Success clear error", res, err)
}

func (c *smartSearchController) SubmitQuestion(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	var req dto.SubmitQuestionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.SubmitQuestion(ctx.Context(), userId, id, &req)
	return respond(ctx, "Success create evidence specification", res, err)
}

func (c *smartSearchController) GenerateKeywords(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	var req dto.GenerateKeywordsRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.GenerateKeywords(ctx.Context(), userId, id, &req)
	return respond(ctx, "Success generate keywords", res, err)
}

func (c *smartSearchController) TestCount(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	var req dto.CountRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.TestCount(ctx.Context(), userId, id, &req)
	return respond(ctx, "Success test keyword count", res, err)
}

func (c *smartSearchController) RecordCount(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	var req dto.RecordCountRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.RecordCount(ctx.Context(), userId, id, &req)
	return respond(ctx, "Success test and record keywords", res, err)
}

func (c *smartSearchController) Optimize(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.Optimize(ctx.Context(), userId, id)
	return respond(ctx, "Success optimize keywords", res, err)
}

func (c *smartSearchController) Search(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	var req dto.SearchRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.Search(ctx.Context(), userId, id, &req)
	return respond(ctx, "Success execute search", res, err)
}

func (c *smartSearchController) GenerateDiscriminator(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.GenerateDiscriminator(ctx.Context(), userId, id)
	return respond(ctx, "Success generate discriminator", res, err)
}

func (c *smartSearchController) Filter(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.Filter(ctx.Context(), userId, id)
	return respond(ctx, "Success filter articles", res, err)
}

func (c *smartSearchController) AddFeature(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	var req dto.AddFeatureRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.AddFeature(ctx.Context(), userId, id, &req)
	return respond(ctx, "Success add feature", res, err)
}

func (c *smartSearchController) RemovePendingFeature(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.RemovePendingFeature(ctx.Context(), userId, id, ctx.Params("featureId"))
	return respond(ctx, "Success remove pending feature", res, err)
}

func (c *smartSearchController) RemoveAppliedFeature(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.RemoveAppliedFeature(ctx.Context(), userId, id, ctx.Params("featureId"))
	return respond(ctx, "Success remove feature", res, err)
}

func (c *smartSearchController) ExtractFeatures(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.ExtractFeatures(ctx.Context(), userId, id)
	return respond(ctx, "Success extract features", res, err)
}

func (c *smartSearchController) UpdateArtifacts(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	var req dto.UpdateArtifactsRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.UpdateArtifacts(ctx.Context(), userId, id, &req)
	return respond(ctx, "Success update artifacts", res, err)
}

func (c *smartSearchController) SetSources(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	var req dto.SourcesRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.SetSources(ctx.Context(), userId, id, &req)
	return respond(ctx, "Success update sources", res, err)
}

func (c *smartSearchController) StepBack(ctx *fiber.Ctx) error {
	userId, id, err := workflowParams(ctx)
	if err != nil {
		return err
	}
	var req dto.StepBackRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.StepBack(ctx.Context(), userId, id, &req)
	return respond(ctx, "Success step back", res, err)
}

func (c *smartSearchController) ListRuns(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	var req dto.ListRunsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}
	res, err := c.service.ListRuns(ctx.Context(), userId, &req)
	return respond(ctx, "Success get all runs", res, err)
}

func (c *smartSearchController) GetSources(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.GetSources(ctx.Context(), userId)
	return respond(ctx, "Success get sources", res, err)
}

func (c *smartSearchController) SaveSources(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	var req dto.SourcesRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	res, err := c.service.SaveSources(ctx.Context(), userId, &req)
	return respond(ctx, "Success save sources", res, err)
}
