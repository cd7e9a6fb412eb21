// Package authz composes session authentication, CSRF protection and permission checks into
// one gate per endpoint.
//
// A Chain is an ordered list of stages. Every stage returns an explicit Result; the chain stops
// at the first Deny or Error. The session stage always runs first, so a request is never
// checked for permissions before its identity is known.
package authz

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
	"github.com/Anereges/AITB-Employee-Management-System/internal/rbac"
)

type Verdict int

const (
	Allow Verdict = iota
	Deny
	Error
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "error"
	}
}

type Result struct {
	Verdict Verdict
	Err     error
}

func Allowed() Result {
	return Result{Verdict: Allow}
}

func Denied(err *apperr.Error) Result {
	return Result{Verdict: Deny, Err: err}
}

func Failed(err error) Result {
	return Result{Verdict: Error, Err: apperr.From(err)}
}

// TokenSource records where the session token was found.
type TokenSource int

const (
	TokenNone TokenSource = iota
	TokenHeader
	TokenCookie
)

// Request is the framework-independent view of an incoming request.
type Request struct {
	Method      string
	Token       string
	TokenSource TokenSource
	CSRFHeader  string
	CSRFCookie  string
	// Param looks up a named path parameter, then a query parameter.
	Param func(name string) string

	// Session is set by the session stage.
	Session *auth.Session
}

func (r *Request) param(name string) string {
	if r.Param == nil || name == "" {
		return ""
	}
	return strings.TrimSpace(r.Param(name))
}

type Stage interface {
	Evaluate(ctx context.Context, req *Request) Result
}

type StageFunc func(ctx context.Context, req *Request) Result

func (f StageFunc) Evaluate(ctx context.Context, req *Request) Result {
	return f(ctx, req)
}

type Chain struct {
	stages []Stage
}

func NewChain(stages ...Stage) Chain {
	return Chain{stages: stages}
}

// Evaluate runs every stage in order and returns nil only if all of them allowed the request.
func (c Chain) Evaluate(ctx context.Context, req *Request) error {
	for _, stage := range c.stages {
		result := stage.Evaluate(ctx, req)
		switch result.Verdict {
		case Allow:
			continue
		case Deny:
			if result.Err == nil {
				return apperr.Authorization("request denied")
			}
			return result.Err
		default:
			if result.Err == nil {
				return apperr.Internal(fmt.Errorf("authorization stage failed"))
			}
			return result.Err
		}
	}
	return nil
}

// Authenticator verifies a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
}

// SessionStage authenticates the request and attaches the session.
func SessionStage(guard Authenticator) Stage {
	return StageFunc(func(ctx context.Context, req *Request) Result {
		session, err := guard.Authenticate(ctx, req.Token)
		if err != nil {
			if e := apperr.From(err); e.Kind != apperr.KindInternal {
				return Denied(e)
			}
			return Failed(err)
		}
		req.Session = session
		return Allowed()
	})
}

// CSRFStage requires a valid anti-forgery token on state-changing requests authenticated by
// the session cookie. Bearer clients are exempt.
func CSRFStage(protector *CSRFProtector) Stage {
	return StageFunc(func(_ context.Context, req *Request) Result {
		if req.TokenSource != TokenCookie || isSafeMethod(req.Method) {
			return Allowed()
		}
		if err := protector.Validate(req.CSRFHeader, req.CSRFCookie); err != nil {
			return Denied(apperr.CSRF("missing or invalid csrf token"))
		}
		return Allowed()
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// RoleStage allows sessions whose role is in roles.
func RoleStage(roles ...auth.Role) Stage {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	message := fmt.Sprintf("requires %s role", strings.Join(names, " or "))

	return StageFunc(func(_ context.Context, req *Request) Result {
		if req.Session == nil {
			return Denied(apperr.Authentication(apperr.CodeTokenMissing, "not authenticated"))
		}
		for _, role := range roles {
			if req.Session.Identity.Role == role {
				return Allowed()
			}
		}
		return Denied(apperr.Authorization(message))
	})
}

// PermissionStage delegates to the resolver. The owner id is read from the request parameter
// named ownerField; an empty ownerField means no owner is known.
func PermissionStage(resolver *rbac.Resolver, resource, action, ownerField string) Stage {
	message := fmt.Sprintf("not authorized to %s %s", action, resource)

	return StageFunc(func(_ context.Context, req *Request) Result {
		if req.Session == nil {
			return Denied(apperr.Authentication(apperr.CodeTokenMissing, "not authenticated"))
		}
		owner := req.param(ownerField)
		if !resolver.CanAccess(rbac.SubjectOf(req.Session.Identity), resource, action, owner) {
			return Denied(apperr.Authorization(message))
		}
		return Allowed()
	})
}
