package domain

import "net/http"

// Operation is an action an actor attempts on a target account.
type Operation string

const (
	OpRead       Operation = "read"
	OpList       Operation = "list"
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
	OpActivate   Operation = "activate"
	OpDeactivate Operation = "deactivate"
	OpPromote    Operation = "promote"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allow bool
	// NoOp marks an allowed operation whose effect is already in place.
	NoOp           bool
	Reason         Reason
	HTTPStatusHint int
}

// Err returns the domain error for a denial, nil when allowed.
func (d Decision) Err() error {
	if d.Allow {
		return nil
	}
	switch d.Reason {
	case ReasonSelfDeleteForbidden:
		return ErrSelfDeleteForbidden
	case ReasonCrossDeleteForbidden:
		return ErrCrossDeleteForbidden
	case ReasonAdminDeleteForbidden:
		return ErrAdminDeleteForbidden
	case ReasonNotAdmin:
		return ErrNotAdmin
	case ReasonNotSelf:
		return ErrNotSelf
	case ReasonNotSelfOrAdmin:
		return ErrNotSelfOrAdmin
	case ReasonNotAuthenticated:
		return ErrNotAuthenticated
	default:
		return ErrNotAdmin
	}
}

func allow() Decision {
	return Decision{Allow: true, HTTPStatusHint: http.StatusOK}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason, HTTPStatusHint: http.StatusForbidden}
}

// Authorize decides whether actor may perform op on target. It performs no
// I/O: callers resolve both snapshots first. target may be nil for OpList.
func Authorize(actor *User, op Operation, target *User) Decision {
	if actor == nil {
		return Decision{Reason: ReasonNotAuthenticated, HTTPStatusHint: http.StatusUnauthorized}
	}
	self := actor.Is(target)
	admin := actor.IsAdmin()

	switch op {
	case OpRead:
		if self || admin {
			return allow()
		}
		return deny(ReasonNotAdmin)

	case OpList:
		if admin {
			return allow()
		}
		return deny(ReasonNotAdmin)

	case OpUpdate:
		if self {
			return allow()
		}
		return deny(ReasonNotSelf)

	case OpDelete:
		switch {
		case admin && self:
			return deny(ReasonSelfDeleteForbidden)
		case !admin && !self:
			return deny(ReasonCrossDeleteForbidden)
		case admin && target.IsAdmin():
			return deny(ReasonAdminDeleteForbidden)
		}
		return allow()

	case OpActivate, OpDeactivate:
		if admin || self {
			return allow()
		}
		return deny(ReasonNotSelfOrAdmin)

	case OpPromote:
		if !admin {
			return deny(ReasonNotAdmin)
		}
		if target.IsAdmin() {
			d := allow()
			d.NoOp = true
			d.Reason = ReasonAlreadyAdmin
			return d
		}
		return allow()
	}

	return deny(ReasonNotAdmin)
}
