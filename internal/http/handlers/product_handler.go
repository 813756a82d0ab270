package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"grocerly/internal/domain"
	applog "grocerly/internal/log"
	"grocerly/internal/services"
	"grocerly/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) list(c *fiber.Ctx, category, msg string) error {
	ps, err := h.Catalog.ByCategory(c.UserContext(), category)
	if err != nil {
		return fail(c, "catalog.category.fail", err)
	}
	return respond(c, fiber.StatusOK, msg, services.WithURLs(c.BaseURL(), ps))
}

func (h *ProductHandler) Category(c *fiber.Ctx) error {
	return h.list(c, c.Params("category"), "Products fetched successfully")
}

// Fixed serves one of the storefront's shortcut categories.
func (h *ProductHandler) Fixed(category, label string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.list(c, category, label+" products fetched successfully")
	}
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return respond(c, fiber.StatusNotFound, "Product not found", nil)
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "catalog.product.fail", err)
	}
	return respond(c, fiber.StatusOK, "Product fetched successfully", services.WithURL(c.BaseURL(), p))
}

// Search takes ?query= on GET and POST; a POST may send {"query": ...} instead.
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	q := c.Query("query")
	if strings.TrimSpace(q) == "" && c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
		var body struct {
			Query string `json:"query" form:"query"`
		}
		if err := c.BodyParser(&body); err == nil {
			q = body.Query
		}
	}
	ps, err := h.Catalog.Search(c.UserContext(), q)
	if err != nil {
		return fail(c, "catalog.search.fail", err)
	}
	if len(ps) == 0 {
		return respond(c, fiber.StatusOK, "No products found", []domain.Product{})
	}
	return respond(c, fiber.StatusOK, "Products found", services.WithURLs(c.BaseURL(), ps))
}

func (h *ProductHandler) Similar(c *fiber.Ctx) error {
	var exclude int64
	if raw := c.Query("excludeId"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return respond(c, fiber.StatusBadRequest, "Invalid excludeId", nil)
		}
		exclude = id
	}
	ps, err := h.Catalog.Similar(c.UserContext(), c.Query("category"), exclude)
	if err != nil {
		return fail(c, "catalog.similar.fail", err)
	}
	if len(ps) == 0 {
		return respond(c, fiber.StatusOK, "No similar products found", []domain.Product{})
	}
	return respond(c, fiber.StatusOK, "Similar products fetched successfully", services.WithURLs(c.BaseURL(), ps))
}
