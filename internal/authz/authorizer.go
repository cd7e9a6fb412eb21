package authz

import (
	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
	"github.com/Anereges/AITB-Employee-Management-System/internal/rbac"
)

// Authorizer builds the chain for each endpoint. Every chain starts with the session stage
// followed by the CSRF stage.
type Authorizer struct {
	guard    Authenticator
	resolver *rbac.Resolver
	csrf     *CSRFProtector
}

func NewAuthorizer(guard Authenticator, resolver *rbac.Resolver, csrf *CSRFProtector) *Authorizer {
	return &Authorizer{
		guard:    guard,
		resolver: resolver,
		csrf:     csrf,
	}
}

func (a *Authorizer) base() []Stage {
	return []Stage{SessionStage(a.guard), CSRFStage(a.csrf)}
}

// Authenticated only requires a valid session.
func (a *Authorizer) Authenticated() Chain {
	return NewChain(a.base()...)
}

// RequireRoles requires a valid session whose role is one of roles.
func (a *Authorizer) RequireRoles(roles ...auth.Role) Chain {
	return NewChain(append(a.base(), RoleStage(roles...))...)
}

// RequirePermission requires a valid session allowed to perform action on resource. ownerField
// names the request parameter carrying the owning identity id, or "" if there is none.
func (a *Authorizer) RequirePermission(resource, action, ownerField string) Chain {
	return NewChain(append(a.base(), PermissionStage(a.resolver, resource, action, ownerField))...)
}

func (a *Authorizer) CSRF() *CSRFProtector {
	return a.csrf
}
