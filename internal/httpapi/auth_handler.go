package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/apperr"
	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
	"github.com/Anereges/AITB-Employee-Management-System/internal/authz"
)

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status             string       `json:"status"`
	Token              string       `json:"token"`
	ExpiresIn          int64        `json:"expiresIn"`
	MustChangePassword bool         `json:"mustChangePassword,omitempty"`
	User               auth.Summary `json:"user"`
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Login authenticates by email (or username) and password.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalidBody(err))
		return
	}

	identifier := strings.TrimSpace(req.Email)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}

	result, err := h.service.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.setSessionCookie(c, result.Token.Token, result.Token.ExpiresAt)
	c.JSON(http.StatusOK, loginResponse{
		Status:             "success",
		Token:              result.Token.Token,
		ExpiresIn:          result.Token.ExpiresIn(),
		MustChangePassword: result.MustChangePassword,
		User:               result.Identity,
	})
}

// Logout revokes a valid token and clears the session cookie. Cookie sessions must present
// the csrf token; any other authentication failure still logs the caller out.
func (h *Handler) Logout(c *gin.Context) {
	req := h.newAuthzRequest(c)
	if req.Token != "" {
		err := h.authorizer.Authenticated().Evaluate(c.Request.Context(), req)
		switch {
		case apperr.HasCode(err, apperr.CodeCSRFInvalid):
			h.metrics.AuthorizationDenied(string(apperr.CodeCSRFInvalid))
			h.fail(c, err)
			return
		case err == nil:
			if err := h.service.Logout(c.Request.Context(), req.Session); err != nil {
				h.log.Warn("failed to revoke token on logout",
					zap.String("request_id", requestID(c)),
					zap.Error(err))
			}
		}
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "logged out"})
}

// Me returns the authenticated identity.
func (h *Handler) Me(c *gin.Context) {
	session := currentSession(c)
	success(c, http.StatusOK, gin.H{"user": session.Identity})
}

// Register records a self-registration awaiting admin approval. No token is issued.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalidBody(err))
		return
	}

	summary, err := h.service.Register(c.Request.Context(), auth.NewIdentity{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "registration received, awaiting approval",
		"data":    gin.H{"user": summary},
	})
}

// CSRFToken issues an anti-forgery token as a readable cookie and in the body.
func (h *Handler) CSRFToken(c *gin.Context) {
	token, expiresAt, err := h.authorizer.CSRF().Issue()
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setCSRFCookie(c, token, expiresAt)
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"csrfToken": token,
		"header":    h.csrf.HeaderName,
		"expiresAt": expiresAt,
	})
}

// ChangePassword replaces the caller's password and returns a fresh token.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalidBody(err))
		return
	}

	token, err := h.service.ChangePassword(c.Request.Context(), currentSession(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.fail(c, err)
		return
	}

	if source, _ := c.Get(tokenSourceKey); source == authz.TokenCookie {
		h.setSessionCookie(c, token.Token, token.ExpiresAt)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "password changed",
		"token":     token.Token,
		"expiresIn": token.ExpiresIn(),
	})
}
