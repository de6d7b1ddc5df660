package routes

import (
	"io"
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"waste_tracker/internal/controllers"
	"waste_tracker/internal/middleware"
)

// SetupRouter mounts every route group. Request logs go to out.
func SetupRouter(ctl *controllers.Controller, jwt *middleware.JWTManager, out io.Writer) *gin.Engine {
	r := gin.New()
	r.Use(ginlog.SetLogger(ginlog.WithWriter(out), ginlog.WithUTC(true), ginlog.WithSkipPath([]string{"/health"})))
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	AuthRoutes(r, ctl, jwt)
	FunctionRoutes(r, ctl)
	StaffRoutes(r, ctl, jwt)
	AdminRoutes(r, ctl, jwt)
	TrackingRoutes(r, ctl)

	return r
}
