package handlers

import (
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/schedulo/internal/service"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// ImportHandler accepts roster uploads as multipart field "file".
type ImportHandler struct {
	imports  *service.ImportService
	maxBytes int64
}

// NewImportHandler constructs handler.
func NewImportHandler(imports *service.ImportService, maxBytes int) *ImportHandler {
	return &ImportHandler{imports: imports, maxBytes: int64(maxBytes)}
}

// Preview handles POST /upload/faculty-credentials/preview.
func (h *ImportHandler) Preview(c *fiber.Ctx) error {
	return h.withFile(c, func(name string, file io.Reader) error {
		rows, err := h.imports.Preview(name, file)
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, rows)
	})
}

// CommitCredentials handles POST /upload/faculty-credentials.
func (h *ImportHandler) CommitCredentials(c *fiber.Ctx) error {
	return h.withFile(c, func(name string, file io.Reader) error {
		res, err := h.imports.Commit(c.UserContext(), name, file)
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, res)
	})
}

// CommitFaculty handles POST /upload/faculty.
func (h *ImportHandler) CommitFaculty(c *fiber.Ctx) error {
	return h.withFile(c, func(name string, file io.Reader) error {
		res, err := h.imports.CommitFacultyUploads(c.UserContext(), name, file)
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, res)
	})
}

func (h *ImportHandler) withFile(c *fiber.Ctx, fn func(name string, file io.Reader) error) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("please upload a file", map[string]any{"file": "required"})
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return apperrors.NewValidationError("file is too large", map[string]any{"file": "too large"})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("could not read uploaded file", nil)
	}
	defer file.Close()
	return fn(header.Filename, file)
}
