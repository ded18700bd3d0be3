package traits

import (
	"context"
	"fmt"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// Caller identifies who is attempting a trait update.
type Caller struct {
	Address      string
	IsTokenOwner bool
	Roles        []string
}

// HasRole reports whether the caller carries a role.
func (c *Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AccessPolicy decides whether a caller may update a trait. The check
// is independent of value validation, so implementations can plug in
// arbitrary authorization schemes without touching type logic.
type AccessPolicy interface {
	Authorize(ctx context.Context, entry *entities.TraitSchemaEntry, caller *Caller) error
}

// RolePolicy is the default policy: a caller holding any privileged
// role is always authorized; the token owner is authorized only when
// the entry grants tokenOwnerCanUpdateValue; everyone else is denied.
// Traits absent from the schema grant nothing to the owner, so only
// privileged callers may set them.
type RolePolicy struct {
	privileged map[string]bool
}

// NewRolePolicy creates a RolePolicy with the given privileged roles.
func NewRolePolicy(privilegedRoles ...string) *RolePolicy {
	privileged := make(map[string]bool, len(privilegedRoles))
	for _, r := range privilegedRoles {
		privileged[r] = true
	}
	return &RolePolicy{privileged: privileged}
}

// Authorize implements AccessPolicy.
func (p *RolePolicy) Authorize(ctx context.Context, entry *entities.TraitSchemaEntry, caller *Caller) error {
	if caller == nil {
		return fmt.Errorf("%w: no caller", entities.ErrUnauthorized)
	}
	for _, role := range caller.Roles {
		if p.privileged[role] {
			return nil
		}
	}
	if entry != nil && entry.TokenOwnerCanUpdate && caller.IsTokenOwner {
		return nil
	}
	return fmt.Errorf("%w: caller %s holds no privileged role and the trait is not owner-updatable",
		entities.ErrUnauthorized, caller.Address)
}
