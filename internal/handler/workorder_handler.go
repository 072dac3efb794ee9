package handler

import (
	"net/http"
	"time"

	"oficina/internal/middleware"
	"oficina/internal/repository"
	"oficina/internal/service"
	"oficina/pkg/pagination"
	"oficina/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WorkOrderHandler struct {
	orderService service.WorkOrderService
	auth         *middleware.Authenticator
}

func NewWorkOrderHandler(orderService service.WorkOrderService, auth *middleware.Authenticator) *WorkOrderHandler {
	return &WorkOrderHandler{orderService: orderService, auth: auth}
}

func (h *WorkOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders", h.auth.RequireAuth())
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("", h.CreateOrder)
		orders.PUT("/:id", h.UpdateOrder)

		orders.POST("/:id/items", h.AddItem)
		orders.PUT("/:id/items/:itemID", h.UpdateItem)
		orders.DELETE("/:id/items/:itemID", h.RemoveItem)
		orders.POST("/:id/payments", h.AddPayment)
		orders.DELETE("/:id/payments/:paymentID", h.RemovePayment)

		orders.GET("/:id/logs", h.auth.RequireManager(), h.ListLogs)
	}
}

// CreateOrder opens a work order
// @Summary      Create work order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      422      {object}  response.Response
// @Router       /orders [post]
func (h *WorkOrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders lists work orders; employees only see their own
// @Summary      List work orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status          query     string  false  "Status filter"
// @Param        client_id       query     string  false  "Client filter"
// @Param        responsible_id  query     string  false  "Responsible filter (managers)"
// @Param        from            query     string  false  "Entry date from YYYY-MM-DD"
// @Param        to              query     string  false  "Entry date to YYYY-MM-DD"
// @Param        page            query     int     false  "Page"
// @Param        limit           query     int     false  "Limit"
// @Success      200             {object}  response.Response{data=[]model.WorkOrder}
// @Router       /orders [get]
func (h *WorkOrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)

	var filter repository.OrderFilter
	filter.Status = c.Query("status")
	if raw := c.Query("client_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid client id"))
			return
		}
		filter.ClientID = &parsed
	}
	if raw := c.Query("responsible_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid responsible id"))
			return
		}
		filter.ResponsibleID = &parsed
	}
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD"))
			return
		}
		filter.From = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD"))
			return
		}
		filter.To = &parsed
	}

	orders, total, err := h.orderService.List(c.Request.Context(), middleware.CurrentUser(c), filter, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// GetOrder returns one work order with recomputed totals
// @Summary      Get work order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *WorkOrderHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order id"))
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrder edits a work order; status moves follow the lifecycle
// @Summary      Update work order
// @Description  Illegal status transitions (including edits to finalized or cancelled orders) answer 422
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      422      {object}  response.Response
// @Router       /orders/{id} [put]
func (h *WorkOrderHandler) UpdateOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order id"))
		return
	}

	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// AddItem adds a line item to the order
// @Summary      Add order item
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Order ID"
// @Param        payload  body      service.AddItemRequest  true  "Item Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      404      {object}  response.Response
// @Router       /orders/{id}/items [post]
func (h *WorkOrderHandler) AddItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order id"))
		return
	}

	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.AddItem(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// UpdateItem edits a line item on the order
// @Summary      Update order item
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Order ID"
// @Param        itemID   path      string                     true  "Item ID"
// @Param        payload  body      service.UpdateItemRequest  true  "Item Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      404      {object}  response.Response
// @Router       /orders/{id}/items/{itemID} [put]
func (h *WorkOrderHandler) UpdateItem(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order id"))
		return
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid item id"))
		return
	}

	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateItem(c.Request.Context(), middleware.CurrentUser(c), orderID, itemID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// RemoveItem deletes a line item from the order
// @Summary      Remove order item
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Order ID"
// @Param        itemID  path      string  true  "Item ID"
// @Success      200     {object}  response.Response{data=service.OrderResponse}
// @Failure      404     {object}  response.Response
// @Router       /orders/{id}/items/{itemID} [delete]
func (h *WorkOrderHandler) RemoveItem(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order id"))
		return
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid item id"))
		return
	}

	order, err := h.orderService.RemoveItem(c.Request.Context(), middleware.CurrentUser(c), orderID, itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// AddPayment records a payment against the order
// @Summary      Add payment
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Order ID"
// @Param        payload  body      service.AddPaymentRequest  true  "Payment Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      404      {object}  response.Response
// @Router       /orders/{id}/payments [post]
func (h *WorkOrderHandler) AddPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order id"))
		return
	}

	var req service.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.AddPayment(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// RemovePayment deletes a payment recorded against the order
// @Summary      Remove payment
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string  true  "Order ID"
// @Param        paymentID  path      string  true  "Payment ID"
// @Success      200        {object}  response.Response{data=service.OrderResponse}
// @Failure      404        {object}  response.Response
// @Router       /orders/{id}/payments/{paymentID} [delete]
func (h *WorkOrderHandler) RemovePayment(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order id"))
		return
	}
	paymentID, err := uuid.Parse(c.Param("paymentID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid payment id"))
		return
	}

	order, err := h.orderService.RemovePayment(c.Request.Context(), middleware.CurrentUser(c), orderID, paymentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListLogs returns the order's audit trail
// @Summary      Order audit trail
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]model.WorkOrderLog}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id}/logs [get]
func (h *WorkOrderHandler) ListLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order id"))
		return
	}

	logs, err := h.orderService.ListLogs(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
