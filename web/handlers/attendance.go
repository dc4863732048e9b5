package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"axiapac.com/timeclock/attendance"
	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/utils"
	"axiapac.com/timeclock/web/common"
	"github.com/gin-gonic/gin"
)

type AttendanceService interface {
	ComputeDailyAttendance(ctx context.Context, staffID int32, date time.Time, opts attendance.ComputeOptions) (*model.AttendanceRecord, error)
	ComputeForDateRange(ctx context.Context, staffID int32, from, to time.Time, opts attendance.ComputeOptions) (attendance.BatchResult, error)
	ComputeForAllStaffDateRange(ctx context.Context, from, to time.Time, opts attendance.ComputeOptions) (attendance.BatchResult, error)
	ReprocessAnomalies(ctx context.Context, from *time.Time) (int, error)
	ProcessPendingPunches(ctx context.Context) (attendance.BatchResult, error)
	FindRecords(ctx context.Context, staffID *int32, from, to time.Time) ([]model.AttendanceRecord, error)
	FindAnomalies(ctx context.Context, flag *model.AnomalyFlag, from *time.Time) ([]model.AttendanceRecord, error)
}

// maxRangeDays bounds one synchronous range computation.
const maxRangeDays = 62

type AttendanceHandler struct {
	engine       AttendanceService
	minimumHours float64
}

func NewAttendanceHandler(engine AttendanceService, minimumHours float64) *AttendanceHandler {
	return &AttendanceHandler{engine: engine, minimumHours: minimumHours}
}

type ComputeRequest struct {
	StaffID       *int32           `json:"staffId" binding:"omitempty,gte=1"`
	From          *common.DateOnly `json:"from" binding:"required"`
	To            *common.DateOnly `json:"to"`
	ExpectedStart string           `json:"expectedStart" binding:"omitempty,clock"`
	ExpectedEnd   string           `json:"expectedEnd" binding:"omitempty,clock"`
	MinimumHours  *float64         `json:"minimumHours" binding:"omitempty,gte=0,lte=24"`
}

func (r ComputeRequest) options(defaultMinimum float64) attendance.ComputeOptions {
	return attendance.ComputeOptions{
		ExpectedStart: r.ExpectedStart,
		ExpectedEnd:   r.ExpectedEnd,
		MinimumHours:  utils.Deref(r.MinimumHours, defaultMinimum),
	}
}

// Compute computes one staff member (staffId set) or everyone over [from, to].
// A single staff/day returns the record itself.
func (h *AttendanceHandler) Compute(c *gin.Context) {
	var req ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	from := req.From.Time
	to := from
	if t := req.To.Ptr(); t != nil {
		to = *t
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Field 'to' must not be before 'from'"))
		return
	}
	if len(utils.Days(from, to)) > maxRangeDays {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Date range is too long"))
		return
	}
	opts := req.options(h.minimumHours)

	ctx := c.Request.Context()
	switch {
	case req.StaffID != nil && from.Equal(to):
		rec, err := h.engine.ComputeDailyAttendance(ctx, *req.StaffID, from, opts)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, common.NewSuccessResponse(rec))
	case req.StaffID != nil:
		res, err := h.engine.ComputeForDateRange(ctx, *req.StaffID, from, to, opts)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, common.NewSuccessResponse(res))
	default:
		res, err := h.engine.ComputeForAllStaffDateRange(ctx, from, to, opts)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, common.NewSuccessResponse(res))
	}
}

type ReprocessRequest struct {
	From *common.DateOnly `json:"from"`
}

func (h *AttendanceHandler) Reprocess(c *gin.Context) {
	var req ReprocessRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}
	}

	n, err := h.engine.ReprocessAnomalies(c.Request.Context(), req.From.Ptr())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"reprocessed": n}))
}

func (h *AttendanceHandler) ProcessPending(c *gin.Context) {
	res, err := h.engine.ProcessPendingPunches(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(res))
}

type RecordQuery struct {
	StaffID *int32 `form:"staffId" binding:"omitempty,gte=1"`
	From    string `form:"from" binding:"required,datetime=2006-01-02"`
	To      string `form:"to" binding:"required,datetime=2006-01-02"`
}

func (h *AttendanceHandler) Records(c *gin.Context) {
	var q RecordQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	from, to := utils.MustParseDate(q.From), utils.MustParseDate(q.To)
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Field 'to' must not be before 'from'"))
		return
	}

	recs, err := h.engine.FindRecords(c.Request.Context(), q.StaffID, from, to)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSearchResponse(recs, int64(len(recs))))
}

type AnomalyQuery struct {
	Flag string `form:"flag" binding:"omitempty,oneof=missing_checkin missing_checkout checkout_before_checkin odd_punch_count short_shift late_arrival early_departure"`
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
}

func (h *AttendanceHandler) Anomalies(c *gin.Context) {
	var q AnomalyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	var flag *model.AnomalyFlag
	if q.Flag != "" {
		flag = utils.Ptr(model.AnomalyFlag(q.Flag))
	}
	var from *time.Time
	if q.From != "" {
		from = utils.Ptr(utils.MustParseDate(q.From))
	}

	recs, err := h.engine.FindAnomalies(c.Request.Context(), flag, from)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSearchResponse(recs, int64(len(recs))))
}

func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrStaffNotFound):
		c.JSON(http.StatusNotFound, common.NewErrorResponse(err.Error()))
	case attendance.IsValidationError(err):
		c.JSON(http.StatusUnprocessableEntity, common.NewErrorResponse(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("internal error"))
	}
}
