package httpapi

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"identity-gateway/internal/account"
	"identity-gateway/internal/identity"
	"identity-gateway/internal/token"
	"identity-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Accounts *account.Service
	Tokens   *token.Manager

	// LoginLimiter is optional; nil disables throttling (tests, local runs).
	LoginLimiter Limiter
}

// Limiter gates login attempts per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// --- Registration ---

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Register creates an identity under the role named in the query string.
// Role-missing and store failures both map to 500 {status:"Error"}; clients
// depend on that shape, so it stays even though 4xx would fit role-missing.
func (h Handlers) Register(c *gin.Context) {
	role := strings.TrimSpace(c.Query("role"))
	if role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, statusResponse{Status: "Error", Message: "role query parameter is required"})
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, statusResponse{Status: "Error", Message: "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, statusResponse{Status: "Error", Message: "username and password are required"})
		return
	}

	err := h.Accounts.Register(c.Request.Context(), req.Username, req.Email, req.Password, role)
	if err != nil {
		var creation *identity.CreationError
		switch {
		case errors.Is(err, account.ErrRoleNotFound):
			c.AbortWithStatusJSON(http.StatusInternalServerError, statusResponse{Status: "Error", Message: "this role does not exist"})
		case errors.As(err, &creation):
			c.AbortWithStatusJSON(http.StatusInternalServerError, statusResponse{Status: "Error", Message: strings.Join(creation.Details, ",")})
		default:
			logger.FromGin(c).Error("registration failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, statusResponse{Status: "Error", Message: "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, statusResponse{Status: "Success", Message: "user created successfully"})
}

// --- Login ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}

// Login validates credentials and issues a bearer token.
// Bad credentials return a bare 401 with no body; the response never reveals
// whether the username exists.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	if h.LoginLimiter != nil {
		ok, err := h.LoginLimiter.Allow(c.Request.Context(), "login:"+req.Username)
		if err != nil {
			// Throttle backend trouble must not lock everyone out.
			logger.FromGin(c).Error("login throttle check failed", "err", err)
		} else if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			return
		}
	}

	id, roles, err := h.Accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		logger.FromGin(c).Error("authentication failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	signed, expiresAt, err := h.Tokens.Issue(time.Now().UTC(), id.Username, roles)
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{Token: signed, Expiration: expiresAt})
}

// --- Protected ---

// Me echoes the verified claim set from context.
func (h Handlers) Me(c *gin.Context) {
	subject, err := token.Subject(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	roles, _ := token.Roles(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"username": subject, "roles": roles})
}

// RandomNumber returns a 7-digit random number as a string.
func (h Handlers) RandomNumber(c *gin.Context) {
	n := rand.IntN(9999999-1111111) + 1111111
	c.JSON(http.StatusOK, gin.H{"number": strconv.Itoa(n)})
}
