package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waste_tracker/internal/services"
)

func (ctl *Controller) CreateMaterialType(c *gin.Context) {
	var input services.MaterialTypeInput
	if !bind(c, &input) {
		return
	}
	material, err := ctl.refs.CreateMaterialType(c.Request.Context(), session(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"material_type": material})
}

func (ctl *Controller) ListMaterialTypes(c *gin.Context) {
	materials, err := ctl.refs.ListMaterialTypes(c.Request.Context(), session(c), activeOnly(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": materials})
}

func (ctl *Controller) UpdateMaterialType(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.MaterialTypeInput
	if !bind(c, &input) {
		return
	}
	material, err := ctl.refs.UpdateMaterialType(c.Request.Context(), session(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material_type": material})
}

func (ctl *Controller) SetMaterialTypeActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input activePayload
	if !bind(c, &input) {
		return
	}
	material, err := ctl.refs.SetMaterialTypeActive(c.Request.Context(), session(c), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material_type": material})
}

func (ctl *Controller) DeleteMaterialType(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctl.refs.DeleteMaterialType(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
