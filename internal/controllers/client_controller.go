package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waste_tracker/internal/models"
	"waste_tracker/internal/services"
)

// clientWithToken exposes the tracking token, which models.Client never
// serializes. Only admin create, get and rotate responses use it.
type clientWithToken struct {
	*models.Client
	TrackingToken string `json:"tracking_token"`
}

func withToken(c *models.Client) clientWithToken {
	return clientWithToken{Client: c, TrackingToken: c.TrackingToken}
}

func (ctl *Controller) CreateClient(c *gin.Context) {
	var input services.ClientInput
	if !bind(c, &input) {
		return
	}
	client, err := ctl.refs.CreateClient(c.Request.Context(), session(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": withToken(client)})
}

func (ctl *Controller) ListClients(c *gin.Context) {
	clients, err := ctl.refs.ListClients(c.Request.Context(), session(c), activeOnly(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clients})
}

func (ctl *Controller) GetClient(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	client, err := ctl.refs.GetClient(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": withToken(client)})
}

func (ctl *Controller) UpdateClient(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.ClientInput
	if !bind(c, &input) {
		return
	}
	client, err := ctl.refs.UpdateClient(c.Request.Context(), session(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

func (ctl *Controller) SetClientActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input activePayload
	if !bind(c, &input) {
		return
	}
	client, err := ctl.refs.SetClientActive(c.Request.Context(), session(c), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

// RotateTrackingToken issues a new portal token; the old one keeps working
// for the configured grace period.
func (ctl *Controller) RotateTrackingToken(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	client, err := ctl.refs.RotateTrackingToken(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": withToken(client)})
}

func (ctl *Controller) DeleteClient(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctl.refs.DeleteClient(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
