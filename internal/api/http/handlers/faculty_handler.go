package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/schedulo/internal/api/dto"
	"github.com/spec-kit/schedulo/internal/repository"
	"github.com/spec-kit/schedulo/internal/service"
)

// FacultyHandler administers faculty credentials.
type FacultyHandler struct {
	accounts *service.AccountService
}

// NewFacultyHandler constructs handler.
func NewFacultyHandler(accounts *service.AccountService) *FacultyHandler {
	return &FacultyHandler{accounts: accounts}
}

// List handles GET /faculty-credentials.
func (h *FacultyHandler) List(c *fiber.Ctx) error {
	filter := repository.CredentialFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if dept := c.Query("department"); dept != "" {
		filter.Department = &dept
	}
	if campus := c.Query("campus"); campus != "" {
		filter.Campus = &campus
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}

	profiles, err := h.accounts.ListFaculty(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, profiles)
}

// SetStatus handles PATCH /faculty-credentials/:id/status.
func (h *FacultyHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.SetStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	profile, err := h.accounts.SetActive(c.UserContext(), c.Params("id"), *req.Active)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, profile)
}
