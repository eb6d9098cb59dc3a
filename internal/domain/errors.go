package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidState      = errors.New("transición de estado no permitida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrLockNotObtained   = errors.New("no se pudo obtener el bloqueo del ítem")
	// ErrPartialApply indica que un lote se aplicó solo en parte; el detalle por línea viaja en el reporte.
	ErrPartialApply = errors.New("aplicación parcial del lote")
)

// ErrValidation es el nombre usado por los flujos de ajuste y conciliación para ErrInvalidInput.
var ErrValidation = ErrInvalidInput
