package routes

import (
	"github.com/gin-gonic/gin"

	"waste_tracker/internal/controllers"
	"waste_tracker/internal/middleware"
	"waste_tracker/internal/models"
)

func AdminRoutes(r *gin.Engine, ctl *controllers.Controller, jwt *middleware.JWTManager) {
	admin := r.Group("/admin")
	admin.Use(jwt.RequireAuthWithRole(models.RoleSuperAdmin))
	{
		admin.GET("/drivers", ctl.ListDrivers)
		admin.POST("/drivers", ctl.CreateDriver)
		admin.PUT("/drivers/:id/active", ctl.SetDriverActive)

		admin.POST("/clients", ctl.CreateClient)
		admin.GET("/clients/:id", ctl.GetClient)
		admin.PUT("/clients/:id", ctl.UpdateClient)
		admin.PUT("/clients/:id/active", ctl.SetClientActive)
		admin.POST("/clients/:id/rotate-token", ctl.RotateTrackingToken)
		admin.DELETE("/clients/:id", ctl.DeleteClient)

		admin.POST("/collection-sites", ctl.CreateCollectionSite)
		admin.PUT("/collection-sites/:id", ctl.UpdateCollectionSite)
		admin.PUT("/collection-sites/:id/active", ctl.SetCollectionSiteActive)
		admin.DELETE("/collection-sites/:id", ctl.DeleteCollectionSite)

		admin.POST("/deposit-sites", ctl.CreateDepositSite)
		admin.PUT("/deposit-sites/:id", ctl.UpdateDepositSite)
		admin.PUT("/deposit-sites/:id/active", ctl.SetDepositSiteActive)
		admin.DELETE("/deposit-sites/:id", ctl.DeleteDepositSite)

		admin.POST("/vehicles", ctl.CreateVehicle)
		admin.PUT("/vehicles/:id", ctl.UpdateVehicle)
		admin.PUT("/vehicles/:id/active", ctl.SetVehicleActive)
		admin.DELETE("/vehicles/:id", ctl.DeleteVehicle)

		admin.POST("/material-types", ctl.CreateMaterialType)
		admin.PUT("/material-types/:id", ctl.UpdateMaterialType)
		admin.PUT("/material-types/:id/active", ctl.SetMaterialTypeActive)
		admin.DELETE("/material-types/:id", ctl.DeleteMaterialType)

		admin.POST("/missions/:id/validate", ctl.ValidateMission)
		admin.POST("/missions/:id/unvalidate", ctl.UnvalidateMission)

		admin.GET("/statistics", ctl.Statistics)
		admin.GET("/accounting", ctl.Accounting)
		admin.GET("/accounting/export.csv", ctl.AccountingExportCSV)
		admin.GET("/accounting/export.xlsx", ctl.AccountingExportXLSX)
		admin.GET("/accounting/export.html", ctl.AccountingPrint)
	}
}
