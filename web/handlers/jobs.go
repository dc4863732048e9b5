package handlers

import (
	"context"
	"errors"
	"net/http"

	"axiapac.com/timeclock/scheduler"
	"axiapac.com/timeclock/web/common"
	"github.com/gin-gonic/gin"
)

type JobRunner interface {
	Entries() []scheduler.EntryInfo
	RunNow(ctx context.Context, name string) error
}

type JobHandler struct {
	jobs JobRunner
}

func NewJobHandler(jobs JobRunner) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, common.NewSuccessResponse(h.jobs.Entries()))
}

// Run triggers a job synchronously and reports its error, if any.
func (h *JobHandler) Run(c *gin.Context) {
	name := c.Param("name")
	err := h.jobs.RunNow(c.Request.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		c.JSON(http.StatusNotFound, common.NewErrorResponse(err.Error()))
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
	default:
		c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"job": name, "status": "completed"}))
	}
}
