package routes

import (
	"github.com/gin-gonic/gin"

	"waste_tracker/internal/controllers"
)

// TrackingRoutes form the public client portal keyed by tracking token.
func TrackingRoutes(r *gin.Engine, ctl *controllers.Controller) {
	tracking := r.Group("/tracking/:token")
	{
		tracking.GET("", ctl.Tracking)
		tracking.GET("/export.csv", ctl.TrackingExportCSV)
		tracking.GET("/print", ctl.TrackingPrint)
		tracking.GET("/sites", ctl.TrackingSites)
		tracking.GET("/requests", ctl.ListTrackingRequests)
		tracking.POST("/requests", ctl.CreateTrackingRequest)
	}
}
