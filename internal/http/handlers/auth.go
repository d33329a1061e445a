package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Small interfaces so tests can fake the store easily.

type AccountStore interface {
	RegisterBootstrap(ctx context.Context, id, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type TokenIssuer interface {
	Generate(userID string, role user.Role) (string, error)
}

type AuthHandler struct {
	users AccountStore
	jwt   TokenIssuer
	prom  *observability.Prom
}

func NewAuthHandler(users AccountStore, jwt TokenIssuer, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
		prom:  prom,
	}
}

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandler) countAuth(op, result string) {
	if h.prom != nil {
		h.prom.AuthAttempts.WithLabelValues(op, result).Inc()
	}
}

// Register is self-service signup. The first account ever created becomes
// the Superadmin; everyone after that is a plain User.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req CredentialsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.countAuth("register", "error")
		RespondInternal(ctx)
		return
	}

	u, err := h.users.RegisterBootstrap(cctx, uuid.NewString(), req.Email, hash)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			h.countAuth("register", "rejected")
			RespondBadRequest(ctx, "User already exists")
			return
		}

		h.countAuth("register", "error")
		RespondInternal(ctx)
		return
	}

	token, err := h.jwt.Generate(u.ID, u.Role)

	if err != nil {
		h.countAuth("register", "error")
		RespondInternal(ctx)
		return
	}

	h.countAuth("register", "ok")

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"role":    u.Role,
	})
}

// Login answers unknown email and wrong password identically so the
// response never tells which emails are registered.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			h.countAuth("login", "rejected")
			RespondBadRequest(ctx, "Invalid credentials")
			return
		}

		h.countAuth("login", "error")
		RespondInternal(ctx)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.countAuth("login", "rejected")
		RespondBadRequest(ctx, "Invalid credentials")
		return
	}

	token, err := h.jwt.Generate(foundUser.ID, foundUser.Role)

	if err != nil {
		h.countAuth("login", "error")
		RespondInternal(ctx)
		return
	}

	h.countAuth("login", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"role":  foundUser.Role,
		"id":    foundUser.ID,
	})
}

// LoginRequest has no password length floor: existing accounts must keep
// logging in even if the register policy tightens.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CheckAuth runs behind RequireAuth, so reaching it means the token
// verified; it just echoes the identity back.
func (h *AuthHandler) CheckAuth(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Token is valid",
		"user": gin.H{
			"id":   userID,
			"role": role,
		},
	})
}

// Me resolves the token subject against the store; the subject can be gone
// if a Superadmin deleted the account after the token was issued.
func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Invalid token")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"email": u.Email,
		"role":  u.Role,
	})
}

// Logout is best-effort only: tokens carry their own expiry and there is no
// server-side session to tear down. The client clears its cached fields.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}
