package handler

import (
	"net/http"
	"time"

	"oficina/internal/middleware"
	"oficina/internal/service"
	"oficina/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ScheduleHandler struct {
	scheduleService service.ScheduleService
	auth            *middleware.Authenticator
}

func NewScheduleHandler(scheduleService service.ScheduleService, auth *middleware.Authenticator) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService, auth: auth}
}

func (h *ScheduleHandler) RegisterRoutes(router *gin.RouterGroup) {
	schedules := router.Group("/schedules", h.auth.RequireAuth())
	{
		schedules.GET("", h.ListSchedules)
		schedules.GET("/:id", h.GetSchedule)
		schedules.POST("", h.CreateSchedule)
		schedules.DELETE("/:id", h.DeleteSchedule)
	}
}

// CreateSchedule books a calendar slot
// @Summary      Create schedule entry
// @Description  Booking an already-taken client/vehicle/date/time slot answers 409
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateScheduleRequest  true  "Schedule Payload"
// @Success      201      {object}  response.Response{data=model.Schedule}
// @Failure      409      {object}  response.Response
// @Router       /schedules [post]
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	schedule, err := h.scheduleService.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, schedule))
}

// ListSchedules lists calendar entries for a day or a range
// @Summary      List schedule entries
// @Tags         schedules
// @Produce      json
// @Security     BearerAuth
// @Param        date   query     string  false  "Single day YYYY-MM-DD"
// @Param        start  query     string  false  "Range start YYYY-MM-DD"
// @Param        end    query     string  false  "Range end YYYY-MM-DD"
// @Success      200    {object}  response.Response{data=[]model.Schedule}
// @Router       /schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD"))
			return
		}
		schedules, err := h.scheduleService.ListByDate(c.Request.Context(), user, date)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, schedules))
		return
	}

	// Default to the current month when no range is given.
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start, expected YYYY-MM-DD"))
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end, expected YYYY-MM-DD"))
			return
		}
		end = parsed
	}

	schedules, err := h.scheduleService.ListRange(c.Request.Context(), user, start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedules))
}

// GetSchedule returns one calendar entry
// @Summary      Get schedule entry
// @Tags         schedules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  response.Response{data=model.Schedule}
// @Failure      404  {object}  response.Response
// @Router       /schedules/{id} [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid schedule id"))
		return
	}

	schedule, err := h.scheduleService.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedule))
}

// DeleteSchedule frees a calendar slot
// @Summary      Delete schedule entry
// @Tags         schedules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /schedules/{id} [delete]
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid schedule id"))
		return
	}

	if err := h.scheduleService.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "schedule entry deleted"}))
}
