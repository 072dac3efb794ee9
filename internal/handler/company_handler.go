package handler

import (
	"net/http"

	"oficina/internal/middleware"
	"oficina/internal/service"
	"oficina/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CompanyHandler struct {
	companyService service.CompanyService
	auth           *middleware.Authenticator
}

func NewCompanyHandler(companyService service.CompanyService, auth *middleware.Authenticator) *CompanyHandler {
	return &CompanyHandler{companyService: companyService, auth: auth}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public signup
	router.POST("/signup", h.Signup)

	company := router.Group("/company")
	{
		company.GET("", h.auth.RequireAuth(), h.GetCompany)
		company.PUT("", h.auth.RequireManager(), h.UpdateCompany)
		company.GET("/plan", h.auth.RequireAuth(), h.PlanStatus)
		company.POST("/renewal", h.auth.RequireManager(), h.RequestRenewal)
	}

	// Platform back office
	admin := router.Group("/admin/companies", h.auth.RequireSuperuser())
	{
		admin.GET("/pending", h.ListPendingSignups)
		admin.GET("/renewals", h.ListPendingRenewals)
		admin.POST("/:id/approve", h.ApproveSignup)
		admin.POST("/:id/approve-renewal", h.ApproveRenewal)
	}
}

// Signup registers a company with its first manager account
// @Summary      Register a company
// @Description  Creates the tenant in an unconfirmed state; login stays blocked until a superuser approves it
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignupRequest  true  "Signup Payload"
// @Success      201      {object}  response.Response{data=model.Company}
// @Failure      422      {object}  response.Response
// @Router       /signup [post]
func (h *CompanyHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	company, err := h.companyService.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, company))
}

// GetCompany returns the caller's company
// @Summary      Get company
// @Tags         company
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.Company}
// @Router       /company [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	company, err := h.companyService.Get(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}

// UpdateCompany updates company master data
// @Summary      Update company
// @Tags         company
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateCompanyRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=model.Company}
// @Router       /company [put]
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	var req service.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	company, err := h.companyService.Update(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}

// PlanStatus returns the freshly recomputed subscription state
// @Summary      Plan status
// @Tags         company
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.PlanStatusResponse}
// @Router       /company/plan [get]
func (h *CompanyHandler) PlanStatus(c *gin.Context) {
	status, err := h.companyService.PlanStatus(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, status))
}

// RequestRenewal records a renewal request for superuser approval
// @Summary      Request renewal
// @Tags         company
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RenewalRequest  true  "Renewal Payload"
// @Success      202      {object}  response.Response
// @Router       /company/renewal [post]
func (h *CompanyHandler) RequestRenewal(c *gin.Context) {
	var req service.RenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.companyService.RequestRenewal(c.Request.Context(), middleware.CurrentUser(c), req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, gin.H{"message": "renewal requested"}))
}

// ListPendingSignups lists companies waiting for first approval
// @Summary      Pending signups
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Company}
// @Router       /admin/companies/pending [get]
func (h *CompanyHandler) ListPendingSignups(c *gin.Context) {
	companies, err := h.companyService.ListPendingSignups(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, companies))
}

// ListPendingRenewals lists companies with an open renewal request
// @Summary      Pending renewals
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Company}
// @Router       /admin/companies/renewals [get]
func (h *CompanyHandler) ListPendingRenewals(c *gin.Context) {
	companies, err := h.companyService.ListPendingRenewals(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, companies))
}

// ApproveSignup confirms payment and emails the bootstrap credentials
// @Summary      Approve signup
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Company ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/companies/{id}/approve [post]
func (h *CompanyHandler) ApproveSignup(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid company id"))
		return
	}

	if err := h.companyService.ApproveSignup(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "company approved"}))
}

// ApproveRenewal applies a pending renewal request
// @Summary      Approve renewal
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Company ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/companies/{id}/approve-renewal [post]
func (h *CompanyHandler) ApproveRenewal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid company id"))
		return
	}

	if err := h.companyService.ApproveRenewal(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "renewal applied"}))
}
