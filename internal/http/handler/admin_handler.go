package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charchit19/auth-mindsparkle/internal/service"
)

// AdminHandler exposes the administrator console endpoints. The gate has
// already established an admin principal when these run.
type AdminHandler struct {
	Admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{Admin: admin}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Admin.ListUsers(c.Request.Context())
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	var req struct {
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Email       string `json:"email"`
		Country     string `json:"country"`
		PhoneNumber string `json:"phoneNumber"`
		IsVerified  *bool  `json:"isVerified"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	view, err := h.Admin.UpdateUser(c.Request.Context(), id, service.AdminUpdateRequest{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Country:     req.Country,
		PhoneNumber: req.PhoneNumber,
		IsVerified:  req.IsVerified,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully.", "user": view})
}

func (h *AdminHandler) ForceResetPassword(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	if err := h.Admin.ForceResetPassword(c.Request.Context(), id, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully."})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := targetID(c)
	if !ok {
		return
	}

	if err := h.Admin.DeleteUser(c.Request.Context(), id); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully."})
}

func targetID(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "error_description": "User not found."})
		return 0, false
	}
	return id, true
}
