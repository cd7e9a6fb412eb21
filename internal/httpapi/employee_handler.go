package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
)

type createEmployeeRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type approveRequest struct {
	Role string `json:"role"`
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return invalidBody(err)
	}
	return nil
}

func parseStatus(value string) (auth.RegistrationStatus, error) {
	switch status := auth.RegistrationStatus(value); status {
	case "", auth.RegistrationPending, auth.RegistrationApproved, auth.RegistrationRejected:
		return status, nil
	}
	return "", apperr.Validation("invalid status filter",
		apperr.FieldError{Field: "status", Message: "status must be one of: pending, approved, rejected"})
}

// ListEmployees returns every account, optionally filtered by registration status.
func (h *Handler) ListEmployees(c *gin.Context) {
	status, err := parseStatus(c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	users, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(users), "data": gin.H{"users": users}})
}

func (h *Handler) GetEmployee(c *gin.Context) {
	identity, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"user": identity})
}

// UpdateEmployee changes contact fields only; role and status have their own endpoints.
func (h *Handler) UpdateEmployee(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalidBody(err))
		return
	}
	identity, err := h.service.UpdateProfile(c.Request.Context(), c.Param("id"), req.FullName, req.Phone)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"user": identity})
}

// CreateEmployee creates an active account. Without a password a temporary one is returned once.
func (h *Handler) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalidBody(err))
		return
	}

	created, err := h.service.CreateByAdmin(c.Request.Context(), auth.NewIdentity{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	data := gin.H{"user": created.Identity}
	if created.TemporaryPassword != "" {
		data["temporaryPassword"] = created.TemporaryPassword
	}
	success(c, http.StatusCreated, data)
}

func (h *Handler) ActivateEmployee(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) DeactivateEmployee(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	summary, err := h.service.SetActive(c.Request.Context(), c.Param("id"), active)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"user": summary})
}

func (h *Handler) PendingRegistrations(c *gin.Context) {
	users, err := h.service.List(c.Request.Context(), auth.RegistrationPending)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(users), "data": gin.H{"users": users}})
}

// PendingRegistrationsCount reports how many registrations await review.
func (h *Handler) PendingRegistrationsCount(c *gin.Context) {
	count, err := h.service.CountPending(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"count": count})
}

// ApproveRegistration activates a pending account, optionally overriding its role.
func (h *Handler) ApproveRegistration(c *gin.Context) {
	var req approveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	summary, err := h.service.Approve(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"user": summary})
}

// RejectRegistration deletes a pending self-registration.
func (h *Handler) RejectRegistration(c *gin.Context) {
	if err := h.service.Reject(c.Request.Context(), c.Param("id"), c.Query("reason")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "registration rejected"})
}
