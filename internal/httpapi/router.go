package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/Anereges/AITB-Employee-Management-System/internal/api"
	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

// NewRouter mounts every route. Login and registration share one per-IP limiter.
func NewRouter(h *Handler, limits config.RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		RequestID(),
		AccessLog(h.log),
		h.Instrument(),
		gin.CustomRecovery(h.recover),
	)
	r.HandleMethodNotAllowed = true

	r.GET(api.Health, h.Health)
	r.GET(api.Metrics, gin.WrapH(h.metrics.Handler()))

	gate := h.authorizer
	limiter := NewIPRateLimiter(limits.LoginPerSecond, limits.LoginBurst)

	v1 := r.Group(api.BasePath)
	{
		v1.POST(api.AuthLogin, h.RateLimit(limiter), h.Login)
		v1.POST(api.AuthRegister, h.RateLimit(limiter), h.Register)
		v1.POST(api.AuthLogout, h.Logout)
		v1.GET(api.AuthCSRFToken, h.CSRFToken)
		v1.GET(api.AuthMe, h.Authorize(gate.Authenticated()), h.Me)
		v1.POST(api.AuthChangePassword, h.Authorize(gate.Authenticated()), h.ChangePassword)

		v1.GET(api.Employees, h.Authorize(gate.RequireRoles(auth.RoleHR, auth.RoleAdmin)), h.ListEmployees)
		v1.GET(api.EmployeeByID, h.Authorize(gate.RequirePermission("profiles", "read", "id")), h.GetEmployee)
		v1.PATCH(api.EmployeeByID, h.Authorize(gate.RequirePermission("profiles", "update", "id")), h.UpdateEmployee)
	}

	admin := v1.Group("", h.Authorize(gate.RequireRoles(auth.RoleAdmin)))
	{
		admin.POST(api.AdminEmployees, h.CreateEmployee)
		admin.PATCH(api.AdminEmployeeActivate, h.ActivateEmployee)
		admin.PATCH(api.AdminEmployeeDeactivate, h.DeactivateEmployee)
		admin.GET(api.AdminPendingRegistrations, h.PendingRegistrations)
		admin.GET(api.AdminPendingRegistrationsCount, h.PendingRegistrationsCount)
		admin.PATCH(api.AdminApproveRegistration, h.ApproveRegistration)
		admin.DELETE(api.AdminRejectRegistration, h.RejectRegistration)
	}

	return r
}
