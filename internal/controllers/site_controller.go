package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"waste_tracker/internal/models"
	"waste_tracker/internal/services"
)

// siteInput accepts the location as an inline GeoJSON Point object.
type siteInput struct {
	ClientID uuid.UUID       `json:"client_id"`
	Name     string          `json:"name"`
	Address  string          `json:"address"`
	Location json.RawMessage `json:"location"`
	IsActive *bool           `json:"is_active"`
}

func (in siteInput) service() services.SiteInput {
	loc := bytes.TrimSpace(in.Location)
	if bytes.Equal(loc, []byte("null")) {
		loc = nil
	}
	return services.SiteInput{
		ClientID: in.ClientID,
		Name:     in.Name,
		Address:  in.Address,
		Location: string(loc),
		IsActive: in.IsActive,
	}
}

type collectionSiteResponse struct {
	models.CollectionSite
	Location json.RawMessage `json:"location,omitempty"`
}

type depositSiteResponse struct {
	models.DepositSite
	Location json.RawMessage `json:"location,omitempty"`
}

func geoJSON(b []byte) json.RawMessage {
	s, err := services.LocationGeoJSON(b)
	if err != nil {
		logrus.WithError(err).Warn("undecodable site location")
		return nil
	}
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

func collectionSiteJSON(s *models.CollectionSite) collectionSiteResponse {
	return collectionSiteResponse{CollectionSite: *s, Location: geoJSON(s.Location)}
}

func collectionSitesJSON(list []models.CollectionSite) []collectionSiteResponse {
	out := make([]collectionSiteResponse, len(list))
	for i := range list {
		out[i] = collectionSiteJSON(&list[i])
	}
	return out
}

func depositSiteJSON(s *models.DepositSite) depositSiteResponse {
	return depositSiteResponse{DepositSite: *s, Location: geoJSON(s.Location)}
}

func (ctl *Controller) CreateCollectionSite(c *gin.Context) {
	var input siteInput
	if !bind(c, &input) {
		return
	}
	site, err := ctl.refs.CreateCollectionSite(c.Request.Context(), session(c), input.service())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"site": collectionSiteJSON(site)})
}

// ListCollectionSites accepts ?client_id= to restrict the list to one client.
func (ctl *Controller) ListCollectionSites(c *gin.Context) {
	var clientID uuid.UUID
	if raw := c.Query("client_id"); raw != "" {
		id, err := parseUUID("client_id", raw)
		if err != nil {
			respondError(c, err)
			return
		}
		clientID = id
	}
	sites, err := ctl.refs.ListCollectionSites(c.Request.Context(), session(c), clientID, activeOnly(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": collectionSitesJSON(sites)})
}

func (ctl *Controller) UpdateCollectionSite(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input siteInput
	if !bind(c, &input) {
		return
	}
	site, err := ctl.refs.UpdateCollectionSite(c.Request.Context(), session(c), id, input.service())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": collectionSiteJSON(site)})
}

func (ctl *Controller) SetCollectionSiteActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input activePayload
	if !bind(c, &input) {
		return
	}
	site, err := ctl.refs.SetCollectionSiteActive(c.Request.Context(), session(c), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": collectionSiteJSON(site)})
}

func (ctl *Controller) DeleteCollectionSite(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctl.refs.DeleteCollectionSite(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) CreateDepositSite(c *gin.Context) {
	var input siteInput
	if !bind(c, &input) {
		return
	}
	site, err := ctl.refs.CreateDepositSite(c.Request.Context(), session(c), input.service())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"site": depositSiteJSON(site)})
}

func (ctl *Controller) ListDepositSites(c *gin.Context) {
	sites, err := ctl.refs.ListDepositSites(c.Request.Context(), session(c), activeOnly(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]depositSiteResponse, len(sites))
	for i := range sites {
		out[i] = depositSiteJSON(&sites[i])
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (ctl *Controller) UpdateDepositSite(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input siteInput
	if !bind(c, &input) {
		return
	}
	site, err := ctl.refs.UpdateDepositSite(c.Request.Context(), session(c), id, input.service())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": depositSiteJSON(site)})
}

func (ctl *Controller) SetDepositSiteActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input activePayload
	if !bind(c, &input) {
		return
	}
	site, err := ctl.refs.SetDepositSiteActive(c.Request.Context(), session(c), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": depositSiteJSON(site)})
}

func (ctl *Controller) DeleteDepositSite(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctl.refs.DeleteDepositSite(c.Request.Context(), session(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
