package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waste_tracker/internal/middleware"
	"waste_tracker/internal/services"
)

func (ctl *Controller) ListDrivers(c *gin.Context) {
	drivers, err := ctl.accounts.ListDrivers(c.Request.Context(), session(c), activeOnly(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": drivers})
}

func (ctl *Controller) CreateDriver(c *gin.Context) {
	var input services.DriverInput
	if !bind(c, &input) {
		return
	}
	driver, err := ctl.accounts.CreateDriver(c.Request.Context(), session(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"driver": driver})
}

func (ctl *Controller) SetDriverActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input activePayload
	if !bind(c, &input) {
		return
	}
	driver, err := ctl.accounts.SetDriverActive(c.Request.Context(), session(c), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver": driver})
}

type driverTarget struct {
	DriverID    string `json:"driver_id" binding:"required"`
	NewPassword string `json:"new_password"`
}

// DeleteDriver is a privileged function: the caller's bearer token is
// re-checked against the stored profile.
func (ctl *Controller) DeleteDriver(c *gin.Context) {
	var input driverTarget
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFunctionError(c, http.StatusBadRequest, err)
		return
	}
	id, err := parseUUID("driver_id", input.DriverID)
	if err != nil {
		respondFunctionError(c, http.StatusBadRequest, err)
		return
	}
	if err := ctl.accounts.DeleteDriver(c.Request.Context(), middleware.BearerToken(c), id); err != nil {
		respondFunctionError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ctl *Controller) UpdateDriverPassword(c *gin.Context) {
	var input driverTarget
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFunctionError(c, http.StatusBadRequest, err)
		return
	}
	id, err := parseUUID("driver_id", input.DriverID)
	if err != nil {
		respondFunctionError(c, http.StatusBadRequest, err)
		return
	}
	err = ctl.accounts.UpdateDriverPassword(c.Request.Context(), middleware.BearerToken(c), id, input.NewPassword)
	if err != nil {
		respondFunctionError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
