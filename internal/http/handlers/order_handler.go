package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "grocerly/internal/log"
	"grocerly/internal/services"
	"grocerly/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in services.CreateOrderInput
	if err := c.BodyParser(&in); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"route": "orders.create", "err": err.Error()})
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	o, err := h.Orders.Create(c.UserContext(), identity(c), in)
	if errors.Is(err, services.ErrOrderReload) {
		applog.Error(c, "order.reload.fail", err, map[string]any{"order_number": o.OrderNumber})
		return respond(c, fiber.StatusInternalServerError, "Order was placed but could not be loaded",
			fiber.Map{"order_id": o.ID, "order_number": o.OrderNumber})
	}
	if err != nil {
		return fail(c, "order.create.fail", err)
	}

	// Client totals are stored as sent; record when they disagree with the lines.
	server := in.LineSum()
	fields := map[string]any{
		"order_id":          o.ID,
		"order_number":      o.OrderNumber,
		"client_item_total": in.ItemTotal.String(),
		"server_item_total": server.String(),
		"total_amount":      o.TotalAmount.String(),
	}
	applog.Audit(c, "order.create", fields)
	if !server.Equal(in.ItemTotal) {
		applog.Audit(c, "order.totals.mismatch", fields)
	}
	return respond(c, fiber.StatusCreated, "Order placed successfully", o)
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.History(c.UserContext(), identity(c))
	if err != nil {
		return fail(c, "order.history.fail", err)
	}
	return respond(c, fiber.StatusOK, "Order history fetched successfully", orders)
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("orderId"))
	if !ok {
		return respond(c, fiber.StatusNotFound, "Order not found", nil)
	}
	o, msg, err := h.Orders.Cancel(c.UserContext(), identity(c), id)
	if err != nil {
		return fail(c, "order.cancel.fail", err)
	}
	applog.Audit(c, "order.cancel", map[string]any{
		"order_id":         o.ID,
		"cancellation_fee": o.CancellationFee.String(),
		"refund":           o.RefundAmount.String(),
	})
	return respond(c, fiber.StatusOK, msg, o)
}
