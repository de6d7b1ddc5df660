package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waste_tracker/internal/services"
)

// ListRequests accepts ?status=pending,viewed,converted_to_mission.
func (ctl *Controller) ListRequests(c *gin.Context) {
	statuses, err := requestStatuses(c)
	if err != nil {
		respondError(c, err)
		return
	}
	requests, err := ctl.requests.List(c.Request.Context(), session(c), statuses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

func (ctl *Controller) GetRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	request, err := ctl.requests.Get(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": request})
}

func (ctl *Controller) MarkRequestViewed(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	request, err := ctl.requests.MarkViewed(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": request})
}

func (ctl *Controller) DeleteRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctl.requests.Delete(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ConvertRequest turns a request into a mission. Client and collection site
// come from the request; the body supplies the weighing.
func (ctl *Controller) ConvertRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.MissionInput
	if !bind(c, &input) {
		return
	}
	mission, request, err := ctl.requests.ConvertToMission(c.Request.Context(), session(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mission": mission, "request": request})
}
