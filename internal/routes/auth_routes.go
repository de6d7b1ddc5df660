package routes

import (
	"github.com/gin-gonic/gin"

	"waste_tracker/internal/controllers"
	"waste_tracker/internal/middleware"
)

func AuthRoutes(r *gin.Engine, ctl *controllers.Controller, jwt *middleware.JWTManager) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", ctl.Login)
		auth.GET("/me", jwt.RequireAuth(), ctl.Me)
	}
}

// FunctionRoutes are the privileged account operations. They authorize the
// caller themselves, so no middleware is attached.
func FunctionRoutes(r *gin.Engine, ctl *controllers.Controller) {
	fn := r.Group("/functions")
	{
		fn.POST("/create-initial-admin", ctl.CreateInitialAdmin)
		fn.POST("/delete-driver", ctl.DeleteDriver)
		fn.POST("/update-driver-password", ctl.UpdateDriverPassword)
	}
}
