package domain

import "time"

// Transition reports the effect of a lifecycle step. Changed is false when the
// account was already in the requested state; such calls succeed as no-ops.
type Transition struct {
	Changed bool
	Message string
}

const (
	MsgActivated          = "user activated"
	MsgAlreadyActive      = "user is already active"
	MsgDeactivated        = "user deactivated"
	MsgAlreadyInactive    = "user is already inactive"
	MsgPromoted           = "user promoted to admin"
	MsgAlreadyAdmin       = "user is already an admin"
	MsgDeleted            = "user deleted"
	MsgProfileUpdated     = "profile updated"
	MsgLoginWelcomeFormat = "Login realizado com sucesso! Bem-vindo, %s!"
)

// Activate moves an inactive account to active.
func (u *User) Activate(now time.Time) Transition {
	if u.IsActive {
		return Transition{Message: MsgAlreadyActive}
	}
	u.IsActive = true
	u.UpdatedAt = now
	return Transition{Changed: true, Message: MsgActivated}
}

// Deactivate moves an active account to inactive.
func (u *User) Deactivate(now time.Time) Transition {
	if !u.IsActive {
		return Transition{Message: MsgAlreadyInactive}
	}
	u.IsActive = false
	u.UpdatedAt = now
	return Transition{Changed: true, Message: MsgDeactivated}
}

// Promote grants the admin role. There is no demotion.
func (u *User) Promote(now time.Time) Transition {
	if u.Role == RoleAdmin {
		return Transition{Message: MsgAlreadyAdmin}
	}
	u.Role = RoleAdmin
	u.UpdatedAt = now
	return Transition{Changed: true, Message: MsgPromoted}
}

// MarkDeleted is terminal: deleted accounts are hidden from every lookup.
func (u *User) MarkDeleted(now time.Time) Transition {
	u.IsDeleted = true
	u.UpdatedAt = now
	return Transition{Changed: true, Message: MsgDeleted}
}
