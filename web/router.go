// Package web exposes the operations surface: health, manual computation and
// sync triggers, and read access to records and sync history.
package web

import (
	"log/slog"
	"net/http"

	"axiapac.com/timeclock/web/handlers"
	"axiapac.com/timeclock/web/middlewares"
	"github.com/gin-gonic/gin"
)

const RoleOperator = "operator"

type Services struct {
	Attendance   handlers.AttendanceService
	Sync         handlers.SyncService
	Jobs         handlers.JobRunner
	MinimumHours float64
}

// NewRouter builds the gin engine. Everything under /api requires an
// operator token signed with jwtSecret.
func NewRouter(services Services, jwtSecret []byte, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(logger))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	attendance := handlers.NewAttendanceHandler(services.Attendance, services.MinimumHours)
	devices := handlers.NewDeviceHandler(services.Sync)
	jobs := handlers.NewJobHandler(services.Jobs)

	protected := r.Group("/api")
	protected.Use(middlewares.Authentication(jwtSecret), middlewares.RequireRole(RoleOperator))
	{
		protected.POST("/attendance/compute", attendance.Compute)
		protected.POST("/attendance/reprocess", attendance.Reprocess)
		protected.POST("/attendance/pending", attendance.ProcessPending)
		protected.GET("/attendance/records", attendance.Records)
		protected.GET("/attendance/anomalies", attendance.Anomalies)

		protected.POST("/devices/sync", devices.SyncAll)
		protected.POST("/devices/staff", devices.PushStaffAll)
		protected.POST("/devices/cleanup", devices.CleanupAll)
		protected.POST("/devices/:id/sync", devices.Sync)
		protected.POST("/devices/:id/staff", devices.PushStaff)
		protected.POST("/devices/:id/cleanup", devices.Cleanup)
		protected.GET("/devices/:id/runs", devices.Runs)

		protected.GET("/jobs", jobs.List)
		protected.POST("/jobs/:name/run", jobs.Run)
	}

	return r
}
