package handler

import (
	"stockflow-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SalesHandler struct {
	service service.SalesService
}

func NewSalesHandler(s service.SalesService) *SalesHandler {
	return &SalesHandler{service: s}
}

// CreateSale runs the sale transaction pipeline
// POST /api/v1/sales
func (h *SalesHandler) CreateSale(c *fiber.Ctx) error {
	var req service.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	sales, err := h.service.CreateSale(ownerID(c), &req)
	if err != nil {
		if service.IsValidationError(err) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{
		"message": "Sales created & Bill uploaded successfully",
		"data":    sales,
	})
}

// GetSales lists the owner's sales, newest first
// GET /api/v1/sales
func (h *SalesHandler) GetSales(c *fiber.Ctx) error {
	sales, err := h.service.GetSales(ownerID(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(fiber.Map{
		"message": "Sales retrieved successfully",
		"data":    sales,
	})
}

// DownloadBill redirects to the stored bill for one sale
// GET /api/v1/sales/:id/bill
func (h *SalesHandler) DownloadBill(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	url, err := h.service.GetBillURL(id, ownerID(c))
	if err != nil {
		switch err {
		case service.ErrSaleNotFound:
			return c.Status(404).JSON(fiber.Map{"error": "Sale not found or unauthorized"})
		case service.ErrBillNotFound:
			return c.Status(404).JSON(fiber.Map{"error": "Bill not found"})
		default:
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
	}

	return c.Redirect(url, fiber.StatusFound)
}
