package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"charsheet/internal/http/middleware"
)

type addItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// InventoryIndexAction lists the items of one profile type.
func (h *Handlers) InventoryIndexAction(c *cartridge.Context) error {
	return c.JSON(h.Inventory.Items(c.UserContext(), middleware.ProfileType(c.Ctx)))
}

// InventoryCreateAction appends an item to a profile type's list.
func (h *Handlers) InventoryCreateAction(c *cartridge.Context) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	item, err := h.Inventory.AddItem(c.UserContext(), middleware.ProfileType(c.Ctx), req.Name, req.Description, req.Image)
	if err != nil {
		return errorResponse(c, statusFor(err), err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// InventoryDeleteAction removes one item.
func (h *Handlers) InventoryDeleteAction(c *cartridge.Context) error {
	if !h.Inventory.RemoveItem(c.UserContext(), middleware.ProfileType(c.Ctx), c.Params("id")) {
		return errorResponse(c, fiber.StatusNotFound, "item not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
