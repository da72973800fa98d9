package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/uplix/flow/pkg/media"
	"github.com/uplix/flow/pkg/models"
	"github.com/uplix/flow/pkg/persistence"
	"github.com/uplix/flow/pkg/protocol"
	"github.com/uplix/flow/pkg/registry"
	"github.com/uplix/flow/pkg/services"
)

// Media host folders per upload kind.
const (
	imageFolder = "uplix-flow-images"
	videoFolder = "uplix-flow-videos"
	audioFolder = "uplix-audio"
)

type APIHandlers struct {
	workspaces *services.Workspace
	posts      *services.ScheduledPost
	generation *services.Generation
	validator  *validator.Validate
	normalizer *media.Normalizer
	host       protocol.MediaHost
	publisher  protocol.Publisher
}

// HandlersConfig wires the API handlers. Normalizer defaults when nil; host
// and publisher are required only by the endpoints that use them.
type HandlersConfig struct {
	Workspaces *services.Workspace
	Posts      *services.ScheduledPost
	Generation *services.Generation
	Validator  *validator.Validate
	Normalizer *media.Normalizer
	Host       protocol.MediaHost
	Publisher  protocol.Publisher
}

func NewAPIHandlers(cfg HandlersConfig) *APIHandlers {
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}

	if cfg.Normalizer == nil {
		cfg.Normalizer = media.NewNormalizer(nil)
	}

	return &APIHandlers{
		workspaces: cfg.Workspaces,
		posts:      cfg.Posts,
		generation: cfg.Generation,
		validator:  cfg.Validator,
		normalizer: cfg.Normalizer,
		host:       cfg.Host,
		publisher:  cfg.Publisher,
	}
}

// RegisterRoutes binds every endpoint onto the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	app.Get("/workspaces", h.GetWorkspaces)
	app.Post("/workspaces", h.CreateWorkspace)
	app.Get("/workspaces/:id", h.GetWorkspace)
	app.Patch("/workspaces/:id", h.UpdateWorkspace)
	app.Delete("/workspaces/:id", h.DeleteWorkspace)

	app.Post("/workspaces/:id/nodes", h.CreateNode)
	app.Patch("/workspaces/:id/nodes/:nodeId/data", h.UpdateNodeData)
	app.Post("/workspaces/:id/nodes/:nodeId/generate", h.GenerateNode)
	app.Post("/workspaces/:id/edges", h.CreateEdge)
	app.Delete("/workspaces/:id/edges/:edgeId", h.DeleteEdge)

	app.Post("/media/inline", h.ConvertToInline)
	app.Post("/media/uploads", h.UploadMedia)

	app.Get("/scheduled-posts", h.GetScheduledPosts)
	app.Post("/scheduled-posts", h.CreateScheduledPost)
	app.Delete("/scheduled-posts/:id", h.DeleteScheduledPost)

	app.Post("/publish/post", h.PublishPost)
	app.Post("/publish/reel", h.PublishReel)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workspaces.HealthCheck(c.Context())

	status := "unhealthy"
	message := "uplix-flow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "uplix-flow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkspaces(c fiber.Ctx) error {
	workspaces, err := h.workspaces.List(c.Context(), c.Query("owner"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workspaces": workspaces})
}

func (h *APIHandlers) GetWorkspace(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workspace ID is required")
	}

	workspace, err := h.workspaces.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkspaceNotFound(err) {
			return notFound(c, "Workspace not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workspace)
}

func (h *APIHandlers) CreateWorkspace(c fiber.Ctx) error {
	var req CreateWorkspaceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workspace := &models.Workspace{
		Name:  req.Name,
		Owner: req.Owner,
	}
	if req.Graph != nil {
		workspace.Graph = *req.Graph
	}

	created, err := h.workspaces.Create(c.Context(), workspace)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkspace(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workspace ID is required")
	}

	var req UpdateWorkspaceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.workspaces.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkspaceNotFound(err) {
			return notFound(c, "Workspace not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Graph != nil {
		existing.Graph = *req.Graph
	}

	updated, err := h.workspaces.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkspace(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workspace ID is required")
	}

	if err := h.workspaces.Delete(c.Context(), id); err != nil {
		if persistence.IsWorkspaceNotFound(err) {
			return notFound(c, "Workspace not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateNode(c fiber.Ctx) error {
	workspaceID := c.Params("id")
	if workspaceID == "" {
		return badRequest(c, "Workspace ID is required")
	}

	var req CreateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node := &models.Node{
		ID:       req.ID,
		Kind:     req.Kind,
		Position: req.Position,
	}

	if len(req.Data) > 0 {
		data, err := models.NewNodeData(req.Kind)
		if err != nil {
			return badRequest(c, err.Error())
		}

		if err := json.Unmarshal(req.Data, data); err != nil {
			return badRequest(c, "Invalid node data: "+err.Error())
		}

		node.Data = data
	}

	created, err := h.workspaces.AddNode(c.Context(), workspaceID, node)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateNodeData(c fiber.Ctx) error {
	workspaceID := c.Params("id")
	nodeID := c.Params("nodeId")

	var req UpdateNodeDataRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if len(req.Data) == 0 {
		return badRequest(c, "Node data is required")
	}

	workspace, err := h.workspaces.FetchByID(c.Context(), workspaceID)
	if err != nil {
		return handleServiceError(c, err)
	}

	node := workspace.Graph.NodeByID(nodeID)
	if node == nil {
		return notFound(c, "Node not found")
	}

	data, err := models.NewNodeData(node.Kind)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := json.Unmarshal(req.Data, data); err != nil {
		return badRequest(c, "Invalid node data: "+err.Error())
	}

	if err := registry.ValidateNodeData(node.Kind, data); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.workspaces.UpdateNodeData(c.Context(), workspaceID, nodeID, data); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateEdge(c fiber.Ctx) error {
	workspaceID := c.Params("id")
	if workspaceID == "" {
		return badRequest(c, "Workspace ID is required")
	}

	var req CreateEdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	edge, err := h.workspaces.Connect(c.Context(), workspaceID, req.Source, req.Target)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edge)
}

func (h *APIHandlers) DeleteEdge(c fiber.Ctx) error {
	workspaceID := c.Params("id")
	edgeID := c.Params("edgeId")

	if err := h.workspaces.Disconnect(c.Context(), workspaceID, edgeID); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GenerateNode(c fiber.Ctx) error {
	workspaceID := c.Params("id")
	nodeID := c.Params("nodeId")

	result, err := h.generation.RunNode(c.Context(), workspaceID, nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(GenerateResponse{Media: result.Media, Message: result.Message})
}

func (h *APIHandlers) ConvertToInline(c fiber.Ctx) error {
	var req InlineRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	payload, err := h.normalizer.ToInline(c.Context(), req.URL)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(InlineResponse{DataURL: payload.DataURL(), MIME: payload.MIME})
}

func (h *APIHandlers) UploadMedia(c fiber.Ctx) error {
	var req UploadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	payload, err := media.ParseDataURL(req.DataURL)
	if err != nil {
		return handleServiceError(c, err)
	}

	folder := imageFolder

	switch models.MediaKind(req.Kind) {
	case models.MediaKindVideo:
		folder = videoFolder
	case models.MediaKindAudio:
		folder = audioFolder
	}

	uploaded, err := h.host.Upload(c.Context(), payload.Data, payload.MIME, folder)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		URL:      uploaded.URL,
		Duration: uploaded.DurationSeconds,
	})
}

func (h *APIHandlers) GetScheduledPosts(c fiber.Ctx) error {
	posts, err := h.posts.List(c.Context(), c.Query("owner"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"scheduled_posts": posts})
}

func (h *APIHandlers) CreateScheduledPost(c fiber.Ctx) error {
	var req CreateScheduledPostRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	post := &models.ScheduledPost{
		MediaURL:     req.MediaURL,
		MediaType:    req.MediaType,
		Caption:      req.Caption,
		ScheduleTime: req.ScheduleTime,
		Owner:        req.Owner,
	}

	created, err := h.posts.Create(c.Context(), post)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteScheduledPost(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Scheduled post ID is required")
	}

	if err := h.posts.Delete(c.Context(), id); err != nil {
		if persistence.IsScheduledPostNotFound(err) {
			return notFound(c, "Scheduled post not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PublishPost(c fiber.Ctx) error {
	return h.publish(c, func(creds protocol.Credentials, req PublishRequest) (string, error) {
		return h.publisher.PublishPost(c.Context(), creds, req.MediaURL, req.Caption)
	})
}

func (h *APIHandlers) PublishReel(c fiber.Ctx) error {
	return h.publish(c, func(creds protocol.Credentials, req PublishRequest) (string, error) {
		return h.publisher.PublishReel(c.Context(), creds, req.MediaURL, req.Caption)
	})
}

func (h *APIHandlers) publish(c fiber.Ctx, push func(protocol.Credentials, PublishRequest) (string, error)) error {
	var req PublishRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	creds := protocol.Credentials{
		AccessToken: req.AccessToken,
		AccountID:   req.AccountID,
	}

	id, err := push(creds, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(PublishResponse{ID: id})
}
