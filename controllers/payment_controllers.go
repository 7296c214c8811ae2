package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/masalabite/pos-backend/kds"
	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/printing"
	"github.com/masalabite/pos-backend/services"
	"github.com/masalabite/pos-backend/utils"
)

type PaymentController struct {
	Payments *services.PaymentService
	Orders   *services.OrderService
	Spooler  *printing.Spooler
}

func NewPaymentController(payments *services.PaymentService, orders *services.OrderService, spooler *printing.Spooler) *PaymentController {
	return &PaymentController{Payments: payments, Orders: orders, Spooler: spooler}
}

// CreatePayment -> one payment; flips the order to PAID when the total is
// covered exactly.
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	var body struct {
		OrderID       uint   `json:"order_id" binding:"required"`
		PaymentMethod string `json:"payment_method" binding:"required"`
		Amount        int64  `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := pc.Payments.CreatePayment(body.OrderID, services.PaymentRequest{
		PaymentMethod: body.PaymentMethod,
		Amount:        body.Amount,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	pc.afterSettlement(body.OrderID)

	utils.RespondJSON(c, http.StatusCreated, "Payment recorded", payment)
}

// CreatePaymentsBatch -> split settlement, all-or-nothing
func (pc *PaymentController) CreatePaymentsBatch(c *gin.Context) {
	orderID, _ := strconv.Atoi(c.Param("order_id"))

	var body struct {
		Payments []services.PaymentRequest `json:"payments" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payments, err := pc.Payments.CreatePaymentsBatch(uint(orderID), body.Payments)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	pc.afterSettlement(uint(orderID))

	utils.RespondJSON(c, http.StatusCreated, "Payments recorded", payments)
}

// ReplacePayments -> admin correction of a PAID order's breakdown
func (pc *PaymentController) ReplacePayments(c *gin.Context) {
	orderID, _ := strconv.Atoi(c.Param("order_id"))

	var body struct {
		Payments []services.PaymentRequest `json:"payments" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payments, err := pc.Payments.ReplaceOrderPayments(uint(orderID), body.Payments)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payments replaced", payments)
}

// GetPaymentsForOrder -> oldest first
func (pc *PaymentController) GetPaymentsForOrder(c *gin.Context) {
	orderID, _ := strconv.Atoi(c.Param("order_id"))

	payments, err := pc.Payments.GetPaymentsForOrder(uint(orderID))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payments for order", payments)
}

// afterSettlement spools the receipt and notifies the displays once an
// order has become PAID. Failures here never fail the request.
func (pc *PaymentController) afterSettlement(orderID uint) {
	order, err := pc.Orders.GetOrder(orderID)
	if err != nil {
		utils.ErrorLogger.Printf("post-payment reload of order %d failed: %v", orderID, err)
		return
	}
	if order.Status != models.OrderStatusPaid {
		return
	}
	pc.Spooler.PrintReceiptAsync(order)
	kds.BroadcastOrderPaid(*order)
}
