package errors

import (
	stderrors "errors"

	"image-optimizer/pkg/errors/i18n"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusFor maps a processing error code to the HTTP status the API reports.
func StatusFor(code string) int {
	switch code {
	case CodeMissingInput, CodeUnsupportedKind, CodeUnsupportedFormat:
		return fiber.StatusBadRequest
	case CodeDecodeError, CodeEncodeError:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func HandleError(c *fiber.Ctx, log *zap.Logger, err error) error {
	if err == nil {
		return nil
	}

	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		log.Warn("processing error", zap.String("code", pe.Code), zap.Error(err))

		body := fiber.Map{
			"error":   pe.Code,
			"message": i18n.T(pe.Code),
			"detail":  pe.Message,
		}
		var ie *ItemError
		if stderrors.As(err, &ie) {
			body["item_index"] = ie.Index
		}
		if pe.Format != "" {
			body["format"] = pe.Format
		}
		return c.Status(StatusFor(pe.Code)).JSON(body)
	}

	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":   "request_error",
			"message": fe.Message,
		})
	}

	log.Error("unexpected error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal_error",
		"message": i18n.T("internal_error"),
	})
}
