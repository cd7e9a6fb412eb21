// Package rbac decides whether a role may perform an action on a resource.
//
// The permission matrix is flat: role -> resource -> action entries. An entry is either a
// literal action ("approve"), the wildcard "*", an "action:*" grant for any owner, or an
// "action:self" grant that only applies when the acting identity owns the resource. The
// admin role is allowed everything without consulting the matrix.
package rbac

import (
	"strings"

	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
)

const (
	wildcard    = "*"
	scopeAll    = ":*"
	scopeSelf   = ":self"
	scopeOwnOld = ":own"
)

// Matrix maps role -> resource -> permitted action entries.
type Matrix map[auth.Role]map[string][]string

// DefaultMatrix returns the built-in permission matrix.
func DefaultMatrix() Matrix {
	return Matrix{
		auth.RoleHR: {
			"employees":     {"read", "create", "update"},
			"profiles":      {"read", "update"},
			"leaves":        {"read", "approve", "reject"},
			"payroll":       {"read"},
			"attendance":    {"read"},
			"registrations": {"read"},
		},
		auth.RoleEmployee: {
			"employees":  {"read:self"},
			"profiles":   {"read:self", "update:self"},
			"leaves":     {"create", "read:self", "cancel:self"},
			"payroll":    {"read:self"},
			"attendance": {"create", "read:self"},
		},
	}
}

// Subject is the acting identity as seen by the resolver.
type Subject struct {
	ID   string
	Role auth.Role
}

// SubjectOf adapts an identity.
func SubjectOf(identity *auth.Identity) Subject {
	return Subject{ID: identity.ID, Role: identity.Role}
}

// Resolver is a pure, read-only view over a Matrix and is safe for concurrent use.
type Resolver struct {
	matrix Matrix
}

func NewResolver(matrix Matrix) *Resolver {
	if matrix == nil {
		matrix = DefaultMatrix()
	}
	return &Resolver{matrix: matrix}
}

// CanAccess reports whether subject may perform action on resource. ownerID is the id of
// the identity that owns the addressed resource, or "" when unknown; self-scoped grants
// never match an unknown owner.
func (r *Resolver) CanAccess(subject Subject, resource, action, ownerID string) bool {
	if subject.Role == auth.RoleAdmin {
		return true
	}
	for _, entry := range r.matrix[subject.Role][resource] {
		if grants(entry, subject.ID, action, ownerID) {
			return true
		}
	}
	return false
}

func grants(entry, subjectID, action, ownerID string) bool {
	switch {
	case entry == wildcard, entry == action:
		return true
	case entry == action+scopeAll:
		return true
	case entry == action+scopeSelf, entry == action+scopeOwnOld:
		return ownerID != "" && subjectID != "" && ownerID == subjectID
	}
	return false
}

// MatrixFromConfig converts a role -> resource -> actions map loaded from configuration.
// Unknown roles are skipped; admin entries are ignored since admin is always allowed.
func MatrixFromConfig(raw map[string]map[string][]string) Matrix {
	if len(raw) == 0 {
		return nil
	}
	matrix := make(Matrix, len(raw))
	for roleName, resources := range raw {
		role, ok := auth.ParseRole(roleName)
		if !ok || role == auth.RoleAdmin {
			continue
		}
		if matrix[role] == nil {
			matrix[role] = make(map[string][]string, len(resources))
		}
		for resource, actions := range resources {
			normalized := make([]string, 0, len(actions))
			for _, action := range actions {
				if action = strings.ToLower(strings.TrimSpace(action)); action != "" {
					normalized = append(normalized, action)
				}
			}
			key := strings.ToLower(strings.TrimSpace(resource))
			matrix[role][key] = append(matrix[role][key], normalized...)
		}
	}
	return matrix
}
