package handler

import (
	"net/http"
	"time"

	"oficina/internal/middleware"
	"oficina/internal/service"
	"oficina/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	auth             *middleware.Authenticator
}

func NewDashboardHandler(dashboardService service.DashboardService, auth *middleware.Authenticator) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, auth: auth}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.auth.RequireAuth(), h.GetDashboard)
}

// GetDashboard returns the aggregated dashboard for a period
// @Summary      Dashboard summary
// @Description  Defaults to the last 12 months; employees only see figures from orders they answer for
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "Period start YYYY-MM-DD"
// @Param        to    query     string  false  "Period end YYYY-MM-DD"
// @Success      200   {object}  response.Response{data=model.DashboardResponse}
// @Router       /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	now := time.Now().UTC()
	from := now.AddDate(-1, 0, 0)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD"))
			return
		}
		to = parsed
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Period end before start"))
		return
	}

	summary, err := h.dashboardService.Summary(c.Request.Context(), middleware.CurrentUser(c), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
