package engine

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"pos-backend/internal/store"
)

// Handler translates the HTTP wire contract into Service calls. All error
// classification happens in the service; the handler only maps outcomes to
// status codes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/entities/:entity, scoped to the caller.
func (h *Handler) List(c *fiber.Ctx) error {
	return h.list(c, CallerID(c))
}

// ListAll handles GET /api/v1/entities/:entity/all, without scoping.
func (h *Handler) ListAll(c *fiber.Ctx) error {
	return h.list(c, "")
}

func (h *Handler) list(c *fiber.Ctx, ownerID string) error {
	opts := ListOptions{
		Skip:    c.QueryInt("skip", 0),
		Limit:   c.QueryInt("limit", DefaultLimit),
		Sort:    c.Query("sort"),
		OwnerID: ownerID,
	}

	if raw := c.Query("query"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Filters); err != nil {
			return NewAppError("INVALID_QUERY", 400, "Invalid query JSON format")
		}
	}

	result, err := h.service.List(c.Context(), c.Params("entity"), opts)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetByID handles GET /api/v1/entities/:entity/:id.
func (h *Handler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	record, err := h.service.GetByID(c.Context(), c.Params("entity"), id, CallerID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(c.Params("entity"), id)
		}
		return err
	}
	return c.JSON(record)
}

// Create handles POST /api/v1/entities/:entity.
func (h *Handler) Create(c *fiber.Ctx) error {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	record, err := h.service.Create(c.Context(), c.Params("entity"), body, CallerID(c))
	if err != nil {
		return err
	}
	return c.Status(201).JSON(record)
}

// Update handles PUT /api/v1/entities/:entity/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var patch map[string]any
	if err := c.BodyParser(&patch); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	record, err := h.service.Update(c.Context(), c.Params("entity"), id, patch, CallerID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(c.Params("entity"), id)
		}
		return err
	}
	return c.JSON(record)
}

// Delete handles DELETE /api/v1/entities/:entity/:id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	deleted, err := h.service.Delete(c.Context(), c.Params("entity"), id, CallerID(c))
	if err != nil {
		return err
	}
	if !deleted {
		return NotFoundError(c.Params("entity"), id)
	}
	return c.JSON(fiber.Map{"id": id})
}

// BatchCreate handles POST /api/v1/entities/:entity/batch. Rejected items
// are omitted from the response without per-item detail.
func (h *Handler) BatchCreate(c *fiber.Ctx) error {
	var body struct {
		Items []map[string]any `json:"items"`
	}
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	records, err := h.service.BatchCreate(c.Context(), c.Params("entity"), body.Items, CallerID(c))
	if err != nil {
		return err
	}
	return c.Status(201).JSON(records)
}

// BatchUpdate handles PUT /api/v1/entities/:entity/batch.
func (h *Handler) BatchUpdate(c *fiber.Ctx) error {
	var body struct {
		Items []BatchUpdateItem `json:"items"`
	}
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	records, err := h.service.BatchUpdate(c.Context(), c.Params("entity"), body.Items, CallerID(c))
	if err != nil {
		return err
	}
	return c.JSON(records)
}

// BatchDelete handles DELETE /api/v1/entities/:entity/batch.
func (h *Handler) BatchDelete(c *fiber.Ctx) error {
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	count, err := h.service.BatchDelete(c.Context(), c.Params("entity"), body.IDs, CallerID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted_count": count})
}

// CallerID extracts the authenticated caller identity set by the auth
// middleware. Empty when the route is unauthenticated.
func CallerID(c *fiber.Ctx) string {
	id, _ := c.Locals("caller_id").(string)
	return id
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, NewAppError("INVALID_ID", 400, "Record id must be an integer")
	}
	return id, nil
}
