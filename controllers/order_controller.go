package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mach-lagbe/apperrors"
	"mach-lagbe/middlewares"
	"mach-lagbe/models"
	"mach-lagbe/services"
)

type OrderController struct {
	orders services.IOrderService
}

func NewOrderController(orders services.IOrderService) *OrderController {
	return &OrderController{orders: orders}
}

var errOrderNotFound = apperrors.NotFound("Order not found")

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func orderQuery(c *gin.Context) services.OrderQuery {
	// Only the literal "true" widens an admin query to every user.
	all := strings.EqualFold(c.Query("all"), "true")
	return services.OrderQuery{UserID: c.Query("userId"), All: all}
}

func (ctl *OrderController) CreateOrder(c *gin.Context) {
	defer recordOrder(c, "create")
	var req services.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}
	order, err := ctl.orders.Create(c.Request.Context(), middlewares.CurrentIdentity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

func (ctl *OrderController) GetOrders(c *gin.Context) {
	defer recordOrder(c, "list")
	orders, err := ctl.orders.List(c.Request.Context(), middlewares.CurrentIdentity(c), orderQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "orders": orders})
}

func (ctl *OrderController) GetOrderDetails(c *gin.Context) {
	defer recordOrder(c, "get")
	id, ok := pathID(c, errOrderNotFound)
	if !ok {
		return
	}
	order, err := ctl.orders.Get(c.Request.Context(), middlewares.CurrentIdentity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (ctl *OrderController) DeleteOrders(c *gin.Context) {
	defer recordOrder(c, "bulk_delete")
	n, err := ctl.orders.DeleteMany(c.Request.Context(), middlewares.CurrentIdentity(c), orderQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedCount": n})
}

// UpdateOrderStatus only reads status from the body; other fields are ignored.
func (ctl *OrderController) UpdateOrderStatus(c *gin.Context) {
	defer recordOrder(c, "update_status")
	id, ok := pathID(c, errOrderNotFound)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Status is required"))
		return
	}
	order, err := ctl.orders.UpdateStatus(c.Request.Context(), middlewares.CurrentIdentity(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (ctl *OrderController) DeleteOrder(c *gin.Context) {
	defer recordOrder(c, "delete")
	id, ok := pathID(c, errOrderNotFound)
	if !ok {
		return
	}
	if err := ctl.orders.Delete(c.Request.Context(), middlewares.CurrentIdentity(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order deleted successfully"})
}
