package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"charsheet/internal/attributes"
)

// catalogFor picks the attribute catalog from ?lang= first, then from
// Accept-Language, then the configured default.
func (h *Handlers) catalogFor(c *cartridge.Context) *attributes.Catalog {
	if lang := c.Query("lang"); lang != "" {
		return attributes.ForLocale(lang)
	}
	return attributes.ForAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage), h.Catalog)
}

// AttributesIndexAction lists every attribute with its help text.
func (h *Handlers) AttributesIndexAction(c *cartridge.Context) error {
	catalog := h.catalogFor(c)
	return c.JSON(fiber.Map{
		"language":   catalog.Tag.String(),
		"attributes": catalog.Entries(),
	})
}

// AttributesShowAction returns the help text of one attribute.
func (h *Handlers) AttributesShowAction(c *cartridge.Context) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid attribute index")
	}

	entry, err := h.catalogFor(c).Entry(index)
	if err != nil {
		return errorResponse(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(entry)
}
