// ABOUTME: Error taxonomy for account operations
// ABOUTME: Each error carries a kind for status mapping and a user-facing message

package account

import (
	"errors"
	"fmt"
)

// Kind classifies an account failure
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindConflict
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// User-facing messages
const (
	MsgMissingFields     = "Faltan campos requeridos"
	MsgNoData            = "No se recibieron datos"
	MsgCredentialsNeeded = "Email y contraseña son requeridos"
	MsgNameTooShort      = "El nombre debe tener al menos 3 caracteres"
	MsgInvalidEmail      = "Email inválido"
	MsgPasswordTooShort  = "La contraseña debe tener al menos 6 caracteres"
	MsgPasswordTooLong   = "La contraseña no puede superar 72 bytes"
	MsgEmailTaken        = "El email ya está registrado"
	MsgDeviceClaimed     = "Este dispositivo ya está vinculado a otra cuenta"
	MsgDeviceMismatch    = "Esta cuenta está vinculada a otro dispositivo"
	MsgBadCredentials    = "Credenciales incorrectas"
	MsgInvalidResetToken = "Token inválido o expirado"
	MsgInternal          = "Error interno del servidor"
)

// Error is returned by every Service operation that fails
type Error struct {
	Kind    Kind
	Message string
	// Err is the underlying cause; only set for internal failures and never shown to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: fmt.Errorf("%s: %w", op, err)}
}
