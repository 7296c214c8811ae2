package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/masalabite/pos-backend/kds"
	"github.com/masalabite/pos-backend/middlewares"
	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/services"
	"github.com/masalabite/pos-backend/utils"
)

type InventoryController struct {
	DB        *gorm.DB
	Inventory *services.InventoryService
}

func NewInventoryController(db *gorm.DB, inventory *services.InventoryService) *InventoryController {
	return &InventoryController{DB: db, Inventory: inventory}
}

// GetAllItems -> active items with derived low-stock flag
func (ic *InventoryController) GetAllItems(c *gin.Context) {
	items, err := ic.Inventory.ListItems()
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of inventory items", items)
}

// GetLowStock -> items under their threshold
func (ic *InventoryController) GetLowStock(c *gin.Context) {
	items, err := ic.Inventory.LowStock()
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Low stock items", items)
}

// CreateItem
func (ic *InventoryController) CreateItem(c *gin.Context) {
	var req struct {
		Name         string  `json:"name" binding:"required"`
		Unit         string  `json:"unit" binding:"required"`
		MinThreshold float64 `json:"min_threshold"`
		CostPerUnit  *int64  `json:"cost_per_unit"`
		Category     string  `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.MinThreshold < 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("min_threshold cannot be negative"))
		return
	}

	item := models.InventoryItem{
		Name:         req.Name,
		Unit:         req.Unit,
		MinThreshold: req.MinThreshold,
		CostPerUnit:  req.CostPerUnit,
		Category:     req.Category,
		IsActive:     true,
	}
	if err := ic.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Inventory item created", item)
}

// RecordPurchase -> stock in
func (ic *InventoryController) RecordPurchase(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("item_id"))

	var req struct {
		Quantity float64 `json:"quantity" binding:"required"`
		Notes    string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	txn, err := ic.Inventory.RecordPurchase(uint(id), req.Quantity, middlewares.ActingUser(c), req.Notes)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Purchase recorded", txn)
}

// RecordUsage -> stock out; never drives quantity negative
func (ic *InventoryController) RecordUsage(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("item_id"))

	var req struct {
		Quantity float64 `json:"quantity" binding:"required"`
		Notes    string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	txn, err := ic.Inventory.RecordUsage(uint(id), req.Quantity, middlewares.ActingUser(c), req.Notes)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	ic.warnIfLow(uint(id))

	utils.RespondJSON(c, http.StatusCreated, "Usage recorded", txn)
}

// RecordAdjustment -> absolute quantity after a physical count
func (ic *InventoryController) RecordAdjustment(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("item_id"))

	var req struct {
		NewQuantity *float64 `json:"new_quantity" binding:"required"`
		Notes       string   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	txn, err := ic.Inventory.RecordAdjustment(uint(id), *req.NewQuantity, middlewares.ActingUser(c), req.Notes)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	ic.warnIfLow(uint(id))

	utils.RespondJSON(c, http.StatusCreated, "Adjustment recorded", txn)
}

// GetTransactions -> an item's ledger, newest first
func (ic *InventoryController) GetTransactions(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("item_id"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	txns, err := ic.Inventory.ListTransactions(uint(id), limit)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Inventory transactions", txns)
}

func (ic *InventoryController) warnIfLow(itemID uint) {
	item, err := ic.Inventory.GetItem(itemID)
	if err != nil {
		return
	}
	if item.IsLowStock() {
		kds.BroadcastLowStock(*item)
	}
}
