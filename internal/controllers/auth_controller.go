package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"waste_tracker/internal/services"
)

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ctl *Controller) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, profile, err := ctl.accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  profile,
	})
}

// Me returns the caller's profile.
func (ctl *Controller) Me(c *gin.Context) {
	profile, err := ctl.accounts.Profile(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// CreateInitialAdmin recreates the configured administrator. The caller
// proves itself with the X-Bootstrap-Key header.
func (ctl *Controller) CreateInitialAdmin(c *gin.Context) {
	profile, err := ctl.accounts.CreateInitialAdmin(c.Request.Context(), c.GetHeader("X-Bootstrap-Key"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		respondFunctionError(c, status, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user_id": profile.ID, "user": profile})
}
