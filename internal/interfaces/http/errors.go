package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

var validate = validator.New()

// bindBody decodifica y valida el cuerpo JSON. Devuelve nil si es válido.
func bindBody(c *fiber.Ctx, out any) *dto.ErrorResponse {
	if err := c.BodyParser(out); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	return validateStruct(out)
}

// bindQuery decodifica y valida los parámetros de consulta.
func bindQuery(c *fiber.Ctx, out any) *dto.ErrorResponse {
	if err := c.QueryParser(out); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"}
	}
	return validateStruct(out)
}

func validateStruct(out any) *dto.ErrorResponse {
	if err := validate.Struct(out); err != nil {
		return &dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	}
	return nil
}

// writeError traduce errores de dominio a HTTP. Un lote parcial responde 207 con el reporte por línea;
// si el lote se cortó por un cambio de estado responde 409 con el mismo reporte.
func writeError(c *fiber.Ctx, err error) error {
	var partial *stock.PartialApplyError
	switch {
	case errors.As(err, &partial):
		status, code := fiber.StatusMultiStatus, "PARTIAL_APPLY"
		if errors.Is(partial.Cause, domain.ErrInvalidState) {
			status, code = fiber.StatusConflict, "INVALID_STATE"
		}
		return c.Status(status).JSON(fiber.Map{
			"code":    code,
			"message": err.Error(),
			"report":  partial.Report,
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrLockNotObtained):
		return c.Status(fiber.StatusLocked).JSON(dto.ErrorResponse{Code: "LOCKED", Message: "ítem ocupado, reintente"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
