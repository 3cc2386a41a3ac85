package engine

import "github.com/gofiber/fiber/v2"

// RegisterEntityRoutes wires the generic CRUD surface under
// /api/v1/entities/:entity. The /all variant bypasses both authentication
// and owner scoping. Literal segments (all, batch) are registered before
// the :id parameter so they take precedence.
func RegisterEntityRoutes(app *fiber.App, h *Handler, authMW fiber.Handler) {
	api := app.Group("/api/v1/entities")

	api.Get("/:entity/all", h.ListAll)

	api.Get("/:entity", authMW, h.List)
	api.Post("/:entity/batch", authMW, h.BatchCreate)
	api.Put("/:entity/batch", authMW, h.BatchUpdate)
	api.Delete("/:entity/batch", authMW, h.BatchDelete)
	api.Get("/:entity/:id", authMW, h.GetByID)
	api.Post("/:entity", authMW, h.Create)
	api.Put("/:entity/:id", authMW, h.Update)
	api.Delete("/:entity/:id", authMW, h.Delete)
}
