package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode representa el código de error de la API
type ErrorCode string

const (
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeConflict       ErrorCode = "CONFLICT"
	ErrorCodePrecondition   ErrorCode = "PRECONDITION_FAILED"
	ErrorCodeUpstream       ErrorCode = "UPSTREAM_ERROR"
	ErrorCodeInternal       ErrorCode = "INTERNAL"
)

// Errores de precondición: violaciones del contrato de programación. Deben
// fallar de forma ruidosa antes de cualquier llamada de red.
var (
	ErrPrecondicion            = errors.New("precondición violada")
	ErrSinValidacionPrevia     = fmt.Errorf("%w: confirmación sin validación previa exitosa", ErrPrecondicion)
	ErrTransaccionEnCurso      = fmt.Errorf("%w: hay una operación de la transacción en curso", ErrPrecondicion)
	ErrSinIdentificadorInterno = fmt.Errorf("%w: el cupón no tiene identificador interno", ErrPrecondicion)
)

// ErrTransaccionObsoleta indica que una respuesta de red llegó después de
// cancelar o reiniciar la transacción y fue descartada
var ErrTransaccionObsoleta = errors.New("la transacción fue cancelada antes de completar la operación")

// ErrTransicionInvalida indica una transición de estado de cupón no permitida
var ErrTransicionInvalida = errors.New("transición de estado de cupón no permitida")

// ErrorFetch representa la falla de una consulta de lectura. Se recupera por
// vista: no bloquea los datos de las demás vistas.
type ErrorFetch struct {
	Vista string
	Err   error
}

func (e *ErrorFetch) Error() string {
	return fmt.Sprintf("error consultando la vista %s: %v", e.Vista, e.Err)
}

func (e *ErrorFetch) Unwrap() error {
	return e.Err
}

// ErrorValidacion indica que ambas interpretaciones rechazaron el código.
// Por defecto se expone un único mensaje combinado; las causas subyacentes
// quedan disponibles para el modo detallado y para el log.
type ErrorValidacion struct {
	CausaCliente   error
	CausaPromocion error
	Detallado      bool
}

func (e *ErrorValidacion) Error() string {
	if !e.Detallado {
		return "el código ingresado no es válido"
	}
	causas := make([]string, 0, 2)
	if e.CausaCliente != nil {
		causas = append(causas, fmt.Sprintf("cliente: %v", e.CausaCliente))
	}
	if e.CausaPromocion != nil {
		causas = append(causas, fmt.Sprintf("promoción: %v", e.CausaPromocion))
	}
	return "el código ingresado no es válido (" + strings.Join(causas, "; ") + ")"
}

// ErrorCommit indica que una mutación falló después de una validación
// exitosa. La transacción conserva su estado de validación para permitir
// reintentar la confirmación sin volver a validar.
type ErrorCommit struct {
	Operacion string
	Err       error
}

func (e *ErrorCommit) Error() string {
	return fmt.Sprintf("error confirmando %s: %v", e.Operacion, e.Err)
}

func (e *ErrorCommit) Unwrap() error {
	return e.Err
}

// ErrorDetail representa un detalle específico del error
type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ErrorResponse representa la respuesta de error estandarizada
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo representa la información del error
type ErrorInfo struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// NewErrorResponse crea una nueva respuesta de error
func NewErrorResponse(code ErrorCode, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    string(code),
			Message: message,
		},
	}
}

// NewValidationError crea un error de validación con detalles
func NewValidationError(message string, details []ErrorDetail) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    string(ErrorCodeInvalidRequest),
			Message: message,
			Details: details,
		},
	}
}

// NewNotFoundError crea un error de recurso no encontrado
func NewNotFoundError(message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    string(ErrorCodeNotFound),
			Message: message,
		},
	}
}

// NewPreconditionError crea un error de precondición
func NewPreconditionError(message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    string(ErrorCodePrecondition),
			Message: message,
		},
	}
}

// NewUpstreamError crea un error originado en el backend de fidelización
func NewUpstreamError(message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    string(ErrorCodeUpstream),
			Message: message,
		},
	}
}

// NewInternalError crea un error interno del servidor
func NewInternalError(message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    string(ErrorCodeInternal),
			Message: message,
		},
	}
}
