package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UsersStore interface {
	Create(ctx context.Context, id, email, passwordHash string, role user.Role, createdBy *string) (user.User, error)
	List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error)
	UpdateRole(ctx context.Context, id string, role user.Role) error
	UpdateRoleByCreator(ctx context.Context, id, creatorID string, role user.Role) error
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	users UsersStore
}

func NewUsersHandler(users UsersStore) *UsersHandler {
	return &UsersHandler{users: users}
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// GetAllUsers lists every account. Superadmin route.
func (h *UsersHandler) GetAllUsers(ctx *gin.Context) {
	filter := parseListQuery(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, total, err := h.users.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":  users,
		"total": total,
	})
}

// GetUsersByAdmin lists only the accounts the calling Admin created. Same
// query shape as GetAllUsers, with the ownership predicate threaded into
// the filter.
func (h *UsersHandler) GetUsersByAdmin(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Unauthorized: No token provided")
		return
	}

	filter := parseListQuery(ctx)
	filter.CreatedBy = &callerID

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, total, err := h.users.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":  users,
		"total": total,
	})
}

// CreateUser provisions a plain User account. Superadmin route; no creator
// reference is recorded, Superadmin-created accounts are unscoped.
func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	h.createAccount(ctx, user.RoleUser, false)
}

// CreateSuperuser provisions a Superuser owned by the calling Admin. The
// handler re-checks the caller role on top of the route gate, mirroring the
// original's belt-and-braces check.
func (h *UsersHandler) CreateSuperuser(ctx *gin.Context) {
	role, _ := middlewares.RoleFromContext(ctx)

	if role != user.RoleAdmin {
		RespondForbidden(ctx, "Only Admin can create a Superuser.")
		return
	}

	h.createAccount(ctx, user.RoleSuperuser, true)
}

func (h *UsersHandler) createAccount(ctx *gin.Context, role user.Role, scoped bool) {
	var req CredentialsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	var createdBy *string

	if scoped {
		callerID, ok := middlewares.UserIDFromContext(ctx)

		if !ok {
			RespondUnauthorized(ctx, "Unauthorized: No token provided")
			return
		}

		createdBy = &callerID
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	_, err = h.users.Create(cctx, uuid.NewString(), req.Email, hash, role, createdBy)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			RespondBadRequest(ctx, "User with this email already exists")
			return
		}

		RespondInternal(ctx)
		return
	}

	message := "User created successfully"

	if role == user.RoleSuperuser {
		message = "Superuser created successfully"
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": message})
}

// UpdateUserRole sets any of the four roles on any account. Superadmin
// route.
func (h *UsersHandler) UpdateUserRole(ctx *gin.Context) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid ID format")
		return
	}

	var req UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role, ok := user.ParseRole(req.Role)

	if !ok {
		RespondBadRequest(ctx, "Invalid role")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.UpdateRole(cctx, id, role)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User role updated successfully",
		"role":    role,
	})
}

// UpdateRoleByAdmin sets User or Superuser on an account the caller
// created. A target that exists under a different creator gets the same
// answer as a missing one.
func (h *UsersHandler) UpdateRoleByAdmin(ctx *gin.Context) {
	id := ctx.Param("id")

	var req UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role, ok := user.ParseRole(req.Role)

	if !ok || !role.AdminAssignable() {
		RespondBadRequest(ctx, `Invalid role. Admin can only update to "User" or "Superuser".`)
		return
	}

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid ID format")
		return
	}

	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Unauthorized: No token provided")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.UpdateRoleByCreator(cctx, id, callerID, role)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found or you don't have permission.")
			return
		}

		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User role updated successfully",
		"role":    role,
	})
}

// DeleteUser hard-deletes an account. Superadmin route; a repeat delete for
// the same id is a 404, never a second success.
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid ID format")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
