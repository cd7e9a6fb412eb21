package api

// HTTP routes, relative to BasePath
const (
	BasePath = "/api/v1"

	// Authentication endpoints
	AuthLogin          = "/auth/login"
	AuthLogout         = "/auth/logout"
	AuthMe             = "/auth/me"
	AuthRegister       = "/auth/register"
	AuthCSRFToken      = "/auth/csrf-token"
	AuthChangePassword = "/auth/password"

	// Employee profile endpoints
	Employees    = "/employees"
	EmployeeByID = "/employees/:id"

	// Administration endpoints
	AdminEmployees                 = "/admin/employees"
	AdminEmployeeActivate          = "/admin/employees/:id/activate"
	AdminEmployeeDeactivate        = "/admin/employees/:id/deactivate"
	AdminPendingRegistrations      = "/admin/registrations/pending"
	AdminPendingRegistrationsCount = "/admin/registrations/pending/count"
	AdminApproveRegistration       = "/admin/registrations/:id/approve"
	AdminRejectRegistration        = "/admin/registrations/:id"

	// Operational endpoints, outside BasePath
	Health  = "/healthz"
	Metrics = "/metrics"
)

// gRPC health service methods
const (
	HealthService = "grpc.health.v1.Health"
	HealthCheck   = "/grpc.health.v1.Health/Check"
	HealthWatch   = "/grpc.health.v1.Health/Watch"
	HealthList    = "/grpc.health.v1.Health/List"

	ReflectionV1      = "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo"
	ReflectionV1Alpha = "/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo"
)

// PublicEndpoints defines gRPC methods that don't require authentication
var PublicEndpoints = map[string]bool{
	HealthCheck:       true,
	HealthWatch:       true,
	HealthList:        true,
	ReflectionV1:      true,
	ReflectionV1Alpha: true,
}
