package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"waste_tracker/internal/models"
	"waste_tracker/internal/report"
	"waste_tracker/internal/services"
)

// The tracking portal is public: possession of the token is the only credential,
// and every lookup failure answers the same 404.

func (ctl *Controller) trackingView(c *gin.Context) (*models.Client, report.View, report.Period, bool) {
	ctx := c.Request.Context()
	client, err := ctl.refs.ResolveTrackingToken(ctx, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return nil, report.View{}, "", false
	}
	period, err := report.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, &services.ValidationError{Field: "period", Message: "must be one of all, week, month, year"})
		return nil, report.View{}, "", false
	}
	view, err := ctl.clientView(ctx, client, report.Filter{Period: period})
	if err != nil {
		respondError(c, err)
		return nil, report.View{}, "", false
	}
	return client, view, period, true
}

func (ctl *Controller) clientView(ctx context.Context, client *models.Client, f report.Filter) (report.View, error) {
	missions, err := ctl.missions.ForClient(ctx, client.ID)
	if err != nil {
		return report.View{}, err
	}
	return report.Build(missions, f, ctl.now()), nil
}

// Tracking shows the client's validated missions for ?period=, paged by ?limit=.
func (ctl *Controller) Tracking(c *gin.Context) {
	client, view, period, ok := ctl.trackingView(c)
	if !ok {
		return
	}
	limit := pageLimit(c)
	c.JSON(http.StatusOK, gin.H{
		"client":     gin.H{"id": client.ID, "name": client.Name},
		"period":     period,
		"missions":   view.Page(limit),
		"has_more":   view.HasMore(limit),
		"next_limit": report.NextLimit(limit),
		"stats":      view.Stats,
	})
}

func (ctl *Controller) TrackingExportCSV(c *gin.Context) {
	client, view, _, ok := ctl.trackingView(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, view.Filtered, report.ClientColumns); err != nil {
		respondError(c, err)
		return
	}
	attachment(c, fmt.Sprintf("missions-%s.csv", slug(client.Name)), "text/csv; charset=utf-8", buf.Bytes())
}

func (ctl *Controller) TrackingPrint(c *gin.Context) {
	client, view, period, ok := ctl.trackingView(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := report.WritePrintHTML(&buf, report.Document{
		Title:     "Collection report",
		Party:     client.Name,
		Period:    period,
		Generated: ctl.now(),
		View:      view,
		Columns:   report.ClientColumns,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// TrackingSites lists the active collection sites a client may request pickups at.
func (ctl *Controller) TrackingSites(c *gin.Context) {
	ctx := c.Request.Context()
	client, err := ctl.refs.ResolveTrackingToken(ctx, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	sites, err := ctl.refs.ClientSites(ctx, client.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": collectionSitesJSON(sites)})
}

func (ctl *Controller) CreateTrackingRequest(c *gin.Context) {
	var input services.RequestInput
	if !bind(c, &input) {
		return
	}
	request, err := ctl.requests.Create(c.Request.Context(), c.Param("token"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": request})
}

func (ctl *Controller) ListTrackingRequests(c *gin.Context) {
	ctx := c.Request.Context()
	client, err := ctl.refs.ResolveTrackingToken(ctx, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	requests, err := ctl.requests.ForClient(ctx, client.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}
