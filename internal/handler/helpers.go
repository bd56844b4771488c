package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/middleware"
)

const maxUploadBytes = 20 << 20

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := c.Params(key)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok && id >= 0 {
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func isStudent(c *fiber.Ctx) bool {
	return userRoleFromContext(c) == middleware.RoleStudent
}

// readUploadFiles buffers the multipart "files" field, preserving the order
// the client sent the parts in.
func readUploadFiles(c *fiber.Ctx) ([]dto.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.New("multipart form with a files field is required")
	}

	headers := form.File["files"]
	uploads := make([]dto.UploadFile, 0, len(headers))
	for _, header := range headers {
		if header.Size > maxUploadBytes {
			return nil, fmt.Errorf("%s exceeds the upload size limit", header.Filename)
		}

		data, err := readFileHeader(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, dto.UploadFile{Name: header.Filename, Data: data})
	}

	return uploads, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s", header.Filename)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s", header.Filename)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("%s exceeds the upload size limit", header.Filename)
	}

	return data, nil
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
