package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waste_tracker/internal/services"
)

func (ctl *Controller) CreateMission(c *gin.Context) {
	var input services.MissionInput
	if !bind(c, &input) {
		return
	}
	mission, err := ctl.missions.Create(c.Request.Context(), session(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mission": mission})
}

// ListMissions lists the caller's visible missions; drivers only see their own.
func (ctl *Controller) ListMissions(c *gin.Context) {
	q, err := missionQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	missions, err := ctl.missions.List(c.Request.Context(), session(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": missions})
}

func (ctl *Controller) GetMission(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	mission, err := ctl.missions.Get(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mission": mission})
}

func (ctl *Controller) UpdateMission(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.MissionInput
	if !bind(c, &input) {
		return
	}
	mission, err := ctl.missions.Update(c.Request.Context(), session(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mission": mission})
}

func (ctl *Controller) ValidateMission(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	mission, err := ctl.missions.Validate(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mission": mission})
}

func (ctl *Controller) UnvalidateMission(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	mission, err := ctl.missions.Unvalidate(c.Request.Context(), session(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mission": mission})
}

func (ctl *Controller) DeleteMission(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctl.missions.Delete(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FormOptions returns the active selection lists for the mission forms.
func (ctl *Controller) FormOptions(c *gin.Context) {
	opts, err := ctl.refs.FormOptions(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sites := collectionSitesJSON(opts.CollectionSites)
	deposits := make([]depositSiteResponse, len(opts.DepositSites))
	for i := range opts.DepositSites {
		deposits[i] = depositSiteJSON(&opts.DepositSites[i])
	}
	body := gin.H{
		"clients":          opts.Clients,
		"collection_sites": sites,
		"deposit_sites":    deposits,
		"vehicles":         opts.Vehicles,
		"material_types":   opts.MaterialTypes,
	}
	if opts.Drivers != nil {
		body["drivers"] = opts.Drivers
	}
	c.JSON(http.StatusOK, body)
}
