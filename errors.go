package main

// ErrKind enumerates every user-visible failure. Each kind carries its own
// localized message; anything unmapped falls through to the generic one, so
// an unknown failure can never leak internals to the client.
type ErrKind int

const (
	ErrUnknown ErrKind = iota
	ErrInvalidEmail
	ErrInvalidCredentials
	ErrEmailInUse
	ErrWeakPassword
	ErrPasswordMismatch
	ErrInvalidAmount
	ErrInvalidQuota
	ErrConceptTooLong
	ErrConfigMissing
	ErrPersistence
)

func (k ErrKind) Message() string {
	switch k {
	case ErrInvalidEmail:
		return "El correo electrónico no es válido."
	case ErrInvalidCredentials:
		return "Credenciales incorrectas."
	case ErrEmailInUse:
		return "Este correo ya está registrado."
	case ErrWeakPassword:
		return "La contraseña es demasiado débil (mínimo 6 caracteres)."
	case ErrPasswordMismatch:
		return "Las contraseñas no coinciden."
	case ErrInvalidAmount:
		return "El importe debe ser un número positivo."
	case ErrInvalidQuota:
		return "La cuota debe ser un número positivo."
	case ErrConceptTooLong:
		return "El concepto es demasiado largo (máximo 100 caracteres)."
	case ErrConfigMissing:
		return "Todavía no has configurado tu deuda."
	case ErrPersistence:
		return "No se pudo guardar el cambio. Inténtalo de nuevo."
	default:
		return "Ocurrió un error inesperado. Inténtalo de nuevo."
	}
}

// Error makes ErrKind usable as a plain error value, so auth and handler
// helpers can return kinds directly and callers can switch on them.
func (k ErrKind) Error() string {
	return k.Message()
}
