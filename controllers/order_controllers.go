package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/masalabite/pos-backend/kds"
	"github.com/masalabite/pos-backend/printing"
	"github.com/masalabite/pos-backend/services"
	"github.com/masalabite/pos-backend/utils"
)

type OrderController struct {
	Orders  *services.OrderService
	Spooler *printing.Spooler
}

func NewOrderController(orders *services.OrderService, spooler *printing.Spooler) *OrderController {
	return &OrderController{Orders: orders, Spooler: spooler}
}

// GetAllOrders -> list orders with items, newest first
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orders.ListOrders(c.Query("status"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// CreateOrder -> new ACTIVE order; the kitchen chit is spooled after the
// commit, never before it.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body struct {
		TableNumber  int                         `json:"table_number" binding:"required"`
		CustomerName string                      `json:"customer_name"`
		Items        []services.OrderItemRequest `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(body.TableNumber, body.CustomerName, body.Items)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	oc.Spooler.PrintKitchenChitAsync(order)
	kds.BroadcastOrderCreated(*order)

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> one order with items and payments
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	order, err := oc.Orders.GetOrder(uint(id))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrderItems replaces the item set. The admin_override flag lets an
// admin correct a PAID order's historical record; the role gate for that
// path lives in the router.
func (oc *OrderController) UpdateOrderItems(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	var body struct {
		Items         []services.OrderItemRequest `json:"items" binding:"required"`
		AdminOverride bool                        `json:"admin_override"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.AdminOverride {
		role, _ := c.Get("role")
		if role != "admin" && role != "owner" {
			utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
			return
		}
	}

	order, err := oc.Orders.UpdateOrderItems(uint(id), body.Items, body.AdminOverride)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	kds.BroadcastOrderUpdate(*order)

	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

// CancelOrder -> terminal; fully paid orders are rejected here
func (oc *OrderController) CancelOrder(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	order, err := oc.Orders.CancelOrder(uint(id))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	kds.BroadcastOrderCanceled(*order)

	utils.RespondJSON(c, http.StatusOK, "Order canceled", order)
}

// SetItemServed -> absolute served quantity on one line
func (oc *OrderController) SetItemServed(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("item_id"))

	var body struct {
		QuantityServed  *int `json:"quantity_served" binding:"required"`
		AdminCorrection bool `json:"admin_correction"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.AdminCorrection {
		role, _ := c.Get("role")
		if role != "admin" && role != "owner" {
			utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
			return
		}
	}

	item, err := oc.Orders.SetServedQuantity(uint(id), *body.QuantityServed, body.AdminCorrection)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	kds.BroadcastItemServed(*item)

	utils.RespondJSON(c, http.StatusOK, "Served quantity updated", item)
}
