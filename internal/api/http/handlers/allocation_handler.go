package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/schedulo/internal/api/dto"
	"github.com/spec-kit/schedulo/internal/service"
)

// AllocationHandler announces invigilation duties.
type AllocationHandler struct {
	notifications *service.NotificationService
}

// NewAllocationHandler constructs handler.
func NewAllocationHandler(notifications *service.NotificationService) *AllocationHandler {
	return &AllocationHandler{notifications: notifications}
}

// Notify handles POST /allocations/notify.
func (h *AllocationHandler) Notify(c *fiber.Ctx) error {
	var req dto.NotifyAllocationsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.notifications.NotifyAllocations(c.UserContext(), req.AllocationIDs, req.Updated)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, res)
}
