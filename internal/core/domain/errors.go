package domain

import (
	"errors"
	"fmt"
)

// ErrKind groups domain errors so the transport layer can map them to status
// codes without knowing every individual error.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuthentication ErrKind = "authentication" // 401 (bad credentials: 400)
	KindAuthorization  ErrKind = "authorization"  // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindInternal       ErrKind = "internal"       // 500
)

// Reason is a stable machine-readable code attached to every domain error.
type Reason string

const (
	ReasonEmptyField           Reason = "EmptyField"
	ReasonInvalidInput         Reason = "InvalidInput"
	ReasonUnknownEmail         Reason = "UnknownEmail"
	ReasonWrongPassword        Reason = "WrongPassword"
	ReasonInvalidToken         Reason = "InvalidToken"
	ReasonMissingSubject       Reason = "MissingSubject"
	ReasonUnknownSubject       Reason = "UnknownSubject"
	ReasonNotAuthenticated     Reason = "NotAuthenticated"
	ReasonSelfDeleteForbidden  Reason = "SelfDeleteForbidden"
	ReasonCrossDeleteForbidden Reason = "CrossDeleteForbidden"
	ReasonAdminDeleteForbidden Reason = "AdminDeleteForbidden"
	ReasonNotAdmin             Reason = "NotAdmin"
	ReasonNotSelf              Reason = "NotSelf"
	ReasonNotSelfOrAdmin       Reason = "NotSelfOrAdmin"
	ReasonAlreadyAdmin         Reason = "AlreadyAdmin"
	ReasonNotFound             Reason = "NotFound"
	ReasonDuplicateEmail       Reason = "DuplicateEmail"
	ReasonInternal             Reason = "Internal"
)

// Error is a domain error. Values declared below are sentinels: compare them
// with errors.Is, or use errors.As to read Kind and Reason.
type Error struct {
	Kind    ErrKind
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
}

func newError(kind ErrKind, reason Reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: msg}
}

var (
	ErrEmptyField = newError(KindValidation, ReasonEmptyField, "name, email and password must not be empty")

	ErrUnknownEmail     = newError(KindAuthentication, ReasonUnknownEmail, "Usuário não encontrado")
	ErrWrongPassword    = newError(KindAuthentication, ReasonWrongPassword, "Senha incorreta")
	ErrInvalidToken     = newError(KindAuthentication, ReasonInvalidToken, "Token inválido")
	ErrMissingSubject   = newError(KindAuthentication, ReasonMissingSubject, "Token inválido")
	ErrUnknownSubject   = newError(KindAuthentication, ReasonUnknownSubject, "Usuário não encontrado")
	ErrNotAuthenticated = newError(KindAuthentication, ReasonNotAuthenticated, "missing authentication")

	ErrSelfDeleteForbidden  = newError(KindAuthorization, ReasonSelfDeleteForbidden, "admins cannot delete their own account")
	ErrCrossDeleteForbidden = newError(KindAuthorization, ReasonCrossDeleteForbidden, "you can only delete your own account")
	ErrAdminDeleteForbidden = newError(KindAuthorization, ReasonAdminDeleteForbidden, "admins cannot delete other admins")
	ErrNotAdmin             = newError(KindAuthorization, ReasonNotAdmin, "Acesso permitido apenas para administradores.")
	ErrNotSelf              = newError(KindAuthorization, ReasonNotSelf, "you can only modify your own profile")
	ErrNotSelfOrAdmin       = newError(KindAuthorization, ReasonNotSelfOrAdmin, "only the account owner or an admin can do this")

	ErrUserNotFound   = newError(KindNotFound, ReasonNotFound, "user not found")
	ErrDuplicateEmail = newError(KindConflict, ReasonDuplicateEmail, "email already registered")
)

// InvalidInput builds a validation error carrying msg.
func InvalidInput(reason Reason, msg string) *Error {
	return newError(KindValidation, reason, msg)
}

// Is matches on Kind and Reason so an error built by InvalidInput satisfies
// errors.Is against the sentinel with the same reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Reason == e.Reason
}

// AsError extracts the domain error carried by err, if any.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsBadCredentials reports whether err is a login failure. Those are answered
// with 400 rather than 401.
func IsBadCredentials(err error) bool {
	return errors.Is(err, ErrUnknownEmail) || errors.Is(err, ErrWrongPassword)
}
