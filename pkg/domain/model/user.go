package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinCredit = 0
	MaxCredit = 100
)

type User struct {
	ID        uuid.UUID
	Name      string
	IsStaff   bool
	Credit    int
	Version   int
	UpdatedAt time.Time
}

// ClampCredit keeps a credit score within [MinCredit, MaxCredit].
func ClampCredit(v int) int {
	if v < MinCredit {
		return MinCredit
	}
	if v > MaxCredit {
		return MaxCredit
	}
	return v
}

// Actor is whoever invokes a domain operation. The zero value is the system.
type Actor struct {
	ID    uuid.UUID
	Staff bool
}

func ActorOf(u *User) Actor {
	return Actor{ID: u.ID, Staff: u.IsStaff}
}

func (a Actor) IsSystem() bool { return a.ID == uuid.Nil }

type ActorRole int

const (
	RoleSystem ActorRole = iota
	RoleBuyer
	RoleSeller
	RoleAdmin
)

func (r ActorRole) String() string {
	switch r {
	case RoleBuyer:
		return "buyer"
	case RoleSeller:
		return "seller"
	case RoleAdmin:
		return "admin"
	}
	return "system"
}
