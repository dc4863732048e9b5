package handlers

import (
	"context"
	"net/http"
	"strconv"

	"axiapac.com/timeclock/devicesync"
	"axiapac.com/timeclock/model"
	"axiapac.com/timeclock/web/common"
	"github.com/gin-gonic/gin"
)

type SyncService interface {
	SyncAllDevices(ctx context.Context) (devicesync.BatchSyncResult, error)
	SyncDevice(ctx context.Context, deviceID int32) devicesync.SyncResult
	SyncStaffToDevice(ctx context.Context, deviceID int32) devicesync.StaffSyncResult
	SyncStaffToAllDevices(ctx context.Context) (devicesync.StaffBatchResult, error)
	RemoveInactiveStaffFromDevice(ctx context.Context, deviceID int32) devicesync.CleanupResult
	RemoveInactiveStaffFromAllDevices(ctx context.Context) (devicesync.CleanupSummary, error)
	History(ctx context.Context, deviceID int32, limit int) ([]model.SyncRun, error)
}

type DeviceHandler struct {
	sync SyncService
}

func NewDeviceHandler(sync SyncService) *DeviceHandler {
	return &DeviceHandler{sync: sync}
}

func deviceID(c *gin.Context) (int32, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid device id"))
		return 0, false
	}
	return int32(id), true
}

func (h *DeviceHandler) SyncAll(c *gin.Context) {
	res, err := h.sync.SyncAllDevices(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(res))
}

func (h *DeviceHandler) Sync(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(h.sync.SyncDevice(c.Request.Context(), id)))
}

func (h *DeviceHandler) PushStaff(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(h.sync.SyncStaffToDevice(c.Request.Context(), id)))
}

func (h *DeviceHandler) PushStaffAll(c *gin.Context) {
	res, err := h.sync.SyncStaffToAllDevices(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(res))
}

func (h *DeviceHandler) Cleanup(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(h.sync.RemoveInactiveStaffFromDevice(c.Request.Context(), id)))
}

func (h *DeviceHandler) CleanupAll(c *gin.Context) {
	res, err := h.sync.RemoveInactiveStaffFromAllDevices(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(res))
}

type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=500"`
}

func (h *DeviceHandler) Runs(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	runs, err := h.sync.History(c.Request.Context(), id, q.Limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, common.NewSearchResponse(runs, int64(len(runs))))
}
