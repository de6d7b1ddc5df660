package routes

import (
	"github.com/gin-gonic/gin"

	"waste_tracker/internal/controllers"
	"waste_tracker/internal/middleware"
	"waste_tracker/internal/models"
)

// StaffRoutes serve drivers and admins alike; the services narrow what a
// driver may see or touch.
func StaffRoutes(r *gin.Engine, ctl *controllers.Controller, jwt *middleware.JWTManager) {
	staff := r.Group("/")
	staff.Use(jwt.RequireAuthWithRole(models.RoleSuperAdmin, models.RoleDriver))
	{
		staff.GET("/form-options", ctl.FormOptions)

		staff.GET("/missions", ctl.ListMissions)
		staff.POST("/missions", ctl.CreateMission)
		staff.GET("/missions/:id", ctl.GetMission)
		staff.PUT("/missions/:id", ctl.UpdateMission)
		staff.DELETE("/missions/:id", ctl.DeleteMission)

		staff.GET("/requests", ctl.ListRequests)
		staff.GET("/requests/:id", ctl.GetRequest)
		staff.POST("/requests/:id/view", ctl.MarkRequestViewed)
		staff.POST("/requests/:id/convert", ctl.ConvertRequest)
		staff.DELETE("/requests/:id", ctl.DeleteRequest)

		staff.GET("/clients", ctl.ListClients)
		staff.GET("/collection-sites", ctl.ListCollectionSites)
		staff.GET("/deposit-sites", ctl.ListDepositSites)
		staff.GET("/vehicles", ctl.ListVehicles)
		staff.GET("/material-types", ctl.ListMaterialTypes)
	}
}
