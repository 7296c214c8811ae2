package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/masalabite/pos-backend/kds"
	"github.com/masalabite/pos-backend/middlewares"
	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/services"
	"github.com/masalabite/pos-backend/utils"
)

type CashCounterController struct {
	Counters *services.CashCounterService
}

func NewCashCounterController(counters *services.CashCounterService) *CashCounterController {
	return &CashCounterController{Counters: counters}
}

// OpenCounter -> one counter per date; opening balance derived from the
// counted notes.
func (cc *CashCounterController) OpenCounter(c *gin.Context) {
	var body struct {
		Date          string               `json:"date"`
		Denominations models.Denominations `json:"denominations"`
		Notes         string               `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Date == "" {
		body.Date = time.Now().Format("2006-01-02")
	}

	counter, err := cc.Counters.Open(body.Date, body.Denominations, middlewares.ActingUser(c), body.Notes)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Cash counter opened", counter)
}

// CloseCounter -> records actuals and derives expected closing + variance
func (cc *CashCounterController) CloseCounter(c *gin.Context) {
	var body struct {
		Date          string               `json:"date"`
		Denominations models.Denominations `json:"denominations"`
		Notes         string               `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Date == "" {
		body.Date = time.Now().Format("2006-01-02")
	}

	counter, err := cc.Counters.Close(body.Date, body.Denominations, middlewares.ActingUser(c), body.Notes)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	kds.BroadcastCounterClosed(*counter)

	utils.RespondJSON(c, http.StatusOK, "Cash counter closed", counter)
}

// VerifyCounter -> owner sign-off, terminal
func (cc *CashCounterController) VerifyCounter(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("counter_id"))

	var body struct {
		OwnerPassword string `json:"owner_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	counter, err := cc.Counters.Verify(uint(id), body.OwnerPassword, middlewares.ActingUser(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cash counter verified", counter)
}

// ReopenCounter -> clears the closing fields in place
func (cc *CashCounterController) ReopenCounter(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("counter_id"))

	var body struct {
		OwnerPassword string `json:"owner_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	counter, err := cc.Counters.Reopen(uint(id), body.OwnerPassword)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cash counter reopened", counter)
}

// GetToday -> today's counter, or a suggested opening balance if not opened
func (cc *CashCounterController) GetToday(c *gin.Context) {
	today, err := cc.Counters.GetToday()
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Today's cash counter", today)
}

// GetHistory -> paginated, newest first, with summary stats
func (cc *CashCounterController) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	history, err := cc.Counters.History(limit, offset)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cash counter history", history)
}
