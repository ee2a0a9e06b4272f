// Package authz decides whether a caller may read or write catalog entities.
package authz

import (
	"catalog-service/internal/apperror"
	"catalog-service/internal/model"
)

// Kind names the entity type a Resource describes
type Kind string

const (
	KindCategory  Kind = "category"
	KindProduct   Kind = "product"
	KindInventory Kind = "inventory"
)

// Action is either a read or a write
type Action int

const (
	ActionRead Action = iota
	ActionWrite
)

// Resource is the ownership view of an entity.
// For inventory rows OwnerID is the parent product's owner.
// New marks an entity about to be created, which has no owner to compare yet.
// Only CanWrite looks at it.
type Resource struct {
	Kind    Kind
	ID      string
	OwnerID string
	New     bool
}

// Scope is the owner filter applied to listings. An empty OwnerID means every owner.
type Scope struct {
	OwnerID string
}

// All reports whether the scope spans every owner
func (s Scope) All() bool {
	return s.OwnerID == ""
}

// Engine is consulted by every catalog operation before it touches the store.
type Engine interface {
	CanRead(caller model.Identity, res Resource) bool
	CanWrite(caller model.Identity, res Resource) bool
	Scope(caller model.Identity) (Scope, error)
}

// OwnerPolicy grants masters full control over what they created and admins read access to everything.
type OwnerPolicy struct{}

// NewOwnerPolicy returns the default engine
func NewOwnerPolicy() Engine {
	return OwnerPolicy{}
}

// CanRead lets admins read everything and masters read what they own.
func (OwnerPolicy) CanRead(caller model.Identity, res Resource) bool {
	if caller.Anonymous() {
		return false
	}
	switch caller.Role {
	case model.RoleAdmin:
		return true
	case model.RoleMaster:
		return res.OwnerID != "" && res.OwnerID == caller.UserID
	default:
		return false
	}
}

// CanWrite is limited to masters: any new entity, or an existing one they own.
func (OwnerPolicy) CanWrite(caller model.Identity, res Resource) bool {
	if caller.Anonymous() || caller.Role != model.RoleMaster {
		return false
	}
	if res.New {
		return true
	}
	return res.OwnerID != "" && res.OwnerID == caller.UserID
}

// Scope restricts masters to their own documents and leaves admins unrestricted.
func (OwnerPolicy) Scope(caller model.Identity) (Scope, error) {
	if caller.Anonymous() {
		return Scope{}, apperror.Unauthenticated("Unauthorized")
	}
	switch caller.Role {
	case model.RoleAdmin:
		return Scope{}, nil
	case model.RoleMaster:
		return Scope{OwnerID: caller.UserID}, nil
	default:
		return Scope{}, apperror.Forbidden("Forbidden, insufficient permissions")
	}
}

// Authorize turns a negative decision into an error.
// Anonymous callers get Unauthenticated, everyone else Forbidden.
func Authorize(e Engine, caller model.Identity, action Action, res Resource) error {
	if caller.Anonymous() {
		return apperror.Unauthenticated("Unauthorized")
	}

	allowed := false
	switch action {
	case ActionRead:
		allowed = e.CanRead(caller, res)
	case ActionWrite:
		allowed = e.CanWrite(caller, res)
	}
	if allowed {
		return nil
	}

	verb := "access"
	if action == ActionWrite {
		verb = "modify"
	}
	return apperror.Forbidden("Unauthorized to " + verb + " this " + string(res.Kind))
}
