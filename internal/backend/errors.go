package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a failed backend call. Only KindAuthentication has a
// global side effect (session teardown); every other kind stays local
// to the failed operation.
type Kind int

const (
	// KindConnectivity covers timeouts and unreachable hosts.
	KindConnectivity Kind = iota
	// KindValidation covers 400 responses.
	KindValidation
	// KindAuthentication covers 401 responses.
	KindAuthentication
	// KindAuthorization covers 403 responses: authenticated but not
	// allowed. The session survives.
	KindAuthorization
	// KindNotFound covers 404 responses.
	KindNotFound
	// KindServer covers 5xx responses.
	KindServer
)

// Error is the single error shape surfaced by the request pipeline.
// Message is safe to show to the operator.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
	}
	return "backend: " + e.Message
}

// Unwrap exposes the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// HasKind reports whether err is a backend Error of the given kind.
func HasKind(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

// Message extracts the displayable message from err, falling back to a
// generic connectivity message so raw transport errors never reach the
// UI.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return "Error de conexión"
}

func classify(status int, serverMessage string) *Error {
	e := &Error{Status: status}
	switch {
	case status == 400:
		e.Kind = KindValidation
		e.Message = "Solicitud inválida"
	case status == 401:
		e.Kind = KindAuthentication
		e.Message = "Credenciales incorrectas"
	case status == 403:
		e.Kind = KindAuthorization
		e.Message = "No tienes permisos para esta operación"
	case status == 404:
		e.Kind = KindNotFound
		e.Message = "Recurso no encontrado"
	case status >= 500:
		e.Kind = KindServer
		e.Message = "Error interno del servidor"
	default:
		e.Kind = KindServer
		e.Message = fmt.Sprintf("Error %d", status)
	}
	if serverMessage != "" {
		e.Message = serverMessage
	}
	return e
}
