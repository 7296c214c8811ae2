package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/masalabite/pos-backend/config"
	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/router"
	"github.com/masalabite/pos-backend/utils"
)

const ownerTillPassword = "till-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
	os.Exit(m.Run())
}

// TestEndToEndIntegration walks the main flow over HTTP:
// 1. Seed users, login as admin -> token
// 2. Build the menu
// 3. Create an order, check GST totals
// 4. Settle with a UPI + cash split -> PAID
// 5. Open and close the cash counter, check expected closing and variance
// 6. Verify the counter as the owner
// 7. Record inventory movements and hit the overdraw guard
func TestEndToEndIntegration(t *testing.T) {
	db := setupIntegrationDB(t)
	cfg := &config.Config{
		GSTRateBasisPoints: 1800,
		MaxTables:          25,
		OwnerPasswordHash:  hashFor(t, ownerTillPassword),
	}
	r := router.SetupRouter(db, cfg)

	adminToken := loginTest(t, r, "admin@example.com", "secret123")
	ownerToken := loginTest(t, r, "owner@example.com", "owner123")

	dosaID, chaiID := seedMenuTest(t, r, adminToken)

	orderID := createOrderTest(t, r, adminToken, dosaID, chaiID)

	payOrderTest(t, r, adminToken, orderID)

	counterID := counterOpenCloseTest(t, r, adminToken)

	verifyCounterTest(t, r, ownerToken, counterID)

	inventoryTest(t, r, adminToken)
}

func setupIntegrationDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.DailyCashCounter{},
		&models.InventoryItem{},
		&models.InventoryTransaction{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.Create(&models.User{
		Name:     "Test Admin",
		Email:    "admin@example.com",
		Password: hashFor(t, "secret123"),
		Role:     models.RoleAdmin,
	})
	db.Create(&models.User{
		Name:     "Test Owner",
		Email:    "owner@example.com",
		Password: hashFor(t, "owner123"),
		Role:     models.RoleOwner,
	})

	return db
}

func hashFor(t *testing.T, password string) string {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hashed)
}

// doJSON fires one request and returns the recorder plus the decoded envelope.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body for %s %s: %v", method, path, err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope map[string]json.RawMessage
	json.Unmarshal(w.Body.Bytes(), &envelope)
	return w, envelope
}

func decodeData(t *testing.T, envelope map[string]json.RawMessage, out interface{}) {
	raw, ok := envelope["data"]
	if !ok {
		t.Fatalf("response has no data field: %v", envelope)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func loginTest(t *testing.T, r *gin.Engine, email, password string) string {
	w, envelope := doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: code=%d, body=%s", email, w.Code, w.Body.String())
	}

	var data struct {
		Token string `json:"token"`
	}
	decodeData(t, envelope, &data)
	if data.Token == "" {
		t.Fatalf("login %s: token empty", email)
	}
	return data.Token
}

func seedMenuTest(t *testing.T, r *gin.Engine, token string) (dosaID, chaiID uint) {
	w, envelope := doJSON(t, r, http.MethodPost, "/api/menu/categories", token, map[string]string{
		"name": "South Indian",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category: code=%d, body=%s", w.Code, w.Body.String())
	}
	var category struct {
		ID uint `json:"id"`
	}
	decodeData(t, envelope, &category)

	createItem := func(name string, price int64, beverage bool) uint {
		w, envelope := doJSON(t, r, http.MethodPost, "/api/menu/items", token, map[string]interface{}{
			"name":        name,
			"price":       price,
			"category_id": category.ID,
			"is_beverage": beverage,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create menu item %s: code=%d, body=%s", name, w.Code, w.Body.String())
		}
		var item struct {
			ID uint `json:"id"`
		}
		decodeData(t, envelope, &item)
		return item.ID
	}

	return createItem("Masala Dosa", 8000, false), createItem("Cutting Chai", 4000, true)
}

// createOrderTest -> 2x dosa + 1x chai at 18% GST: 20000 + 3600 = 23600 paise
func createOrderTest(t *testing.T, r *gin.Engine, token string, dosaID, chaiID uint) uint {
	w, envelope := doJSON(t, r, http.MethodPost, "/api/orders", token, map[string]interface{}{
		"table_number":  4,
		"customer_name": "Walk-in",
		"items": []map[string]interface{}{
			{"menu_item_id": dosaID, "quantity": 2},
			{"menu_item_id": chaiID, "quantity": 1, "is_parcel": true},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: code=%d, body=%s", w.Code, w.Body.String())
	}

	var order struct {
		ID          uint   `json:"id"`
		OrderNumber string `json:"order_number"`
		Subtotal    int64  `json:"subtotal"`
		GSTAmount   int64  `json:"gst_amount"`
		TotalAmount int64  `json:"total_amount"`
		Status      string `json:"status"`
	}
	decodeData(t, envelope, &order)

	if order.Status != models.OrderStatusActive {
		t.Fatalf("create order: want status ACTIVE, got %s", order.Status)
	}
	if order.Subtotal != 20000 || order.GSTAmount != 3600 || order.TotalAmount != 23600 {
		t.Fatalf("create order: totals %d/%d/%d", order.Subtotal, order.GSTAmount, order.TotalAmount)
	}
	if order.OrderNumber == "" {
		t.Fatalf("create order: empty order number")
	}
	return order.ID
}

// payOrderTest settles the order with a UPI + cash split summing to the total.
func payOrderTest(t *testing.T, r *gin.Engine, token string, orderID uint) {
	path := fmt.Sprintf("/api/orders/%d/payments/batch", orderID)

	// Mismatched split first: nothing may be written.
	w, _ := doJSON(t, r, http.MethodPost, path, token, map[string]interface{}{
		"payments": []map[string]interface{}{
			{"payment_method": models.PaymentMethodUPI, "amount": 12000},
			{"payment_method": models.PaymentMethodCash, "amount": 10000},
		},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("mismatched split: want 400, got %d, body=%s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodPost, path, token, map[string]interface{}{
		"payments": []map[string]interface{}{
			{"payment_method": models.PaymentMethodUPI, "amount": 12000},
			{"payment_method": models.PaymentMethodCash, "amount": 11600},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("batch payment: code=%d, body=%s", w.Code, w.Body.String())
	}

	w, envelope := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get order after payment: code=%d", w.Code)
	}
	var order struct {
		Status   string `json:"status"`
		Payments []struct {
			PaymentMethod string `json:"payment_method"`
			Amount        int64  `json:"amount"`
		} `json:"payments"`
	}
	decodeData(t, envelope, &order)
	if order.Status != models.OrderStatusPaid {
		t.Fatalf("order after split payment: want PAID, got %s", order.Status)
	}
	if len(order.Payments) != 2 {
		t.Fatalf("order after split payment: want 2 payments, got %d", len(order.Payments))
	}
}

// counterOpenCloseTest opens today's counter with 10x500 and closes it after
// the day's single cash payment of 11600 paise.
func counterOpenCloseTest(t *testing.T, r *gin.Engine, token string) uint {
	w, envelope := doJSON(t, r, http.MethodPost, "/api/cash-counter/open", token, map[string]interface{}{
		"denominations": map[string]int{"notes_500": 10},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("open counter: code=%d, body=%s", w.Code, w.Body.String())
	}
	var opened struct {
		ID             uint   `json:"id"`
		OpeningBalance int64  `json:"opening_balance"`
		OpenedBy       string `json:"opened_by"`
	}
	decodeData(t, envelope, &opened)
	if opened.OpeningBalance != 500000 {
		t.Fatalf("open counter: opening balance %d", opened.OpeningBalance)
	}
	if opened.OpenedBy == "" {
		t.Fatalf("open counter: opened_by not taken from the token")
	}

	// Counted tray: 10x500 + 1x100 + 1x20 = 512000 paise.
	// Expected closing is 500000 + 11600 cash, so variance is +400.
	w, envelope = doJSON(t, r, http.MethodPost, "/api/cash-counter/close", token, map[string]interface{}{
		"denominations": map[string]int{"notes_500": 10, "notes_100": 1, "notes_20": 1},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("close counter: code=%d, body=%s", w.Code, w.Body.String())
	}
	var closed struct {
		ID              uint   `json:"id"`
		ClosingBalance  *int64 `json:"closing_balance"`
		ExpectedClosing *int64 `json:"expected_closing"`
		Variance        *int64 `json:"variance"`
	}
	decodeData(t, envelope, &closed)
	if closed.ClosingBalance == nil || *closed.ClosingBalance != 512000 {
		t.Fatalf("close counter: closing balance %v", closed.ClosingBalance)
	}
	if closed.ExpectedClosing == nil || *closed.ExpectedClosing != 511600 {
		t.Fatalf("close counter: expected closing %v", closed.ExpectedClosing)
	}
	if closed.Variance == nil || *closed.Variance != 400 {
		t.Fatalf("close counter: variance %v", closed.Variance)
	}
	return closed.ID
}

func verifyCounterTest(t *testing.T, r *gin.Engine, ownerToken string, counterID uint) {
	path := fmt.Sprintf("/api/cash-counter/verify/%d", counterID)

	w, _ := doJSON(t, r, http.MethodPost, path, ownerToken, map[string]string{
		"owner_password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("verify with wrong password: want 401, got %d", w.Code)
	}

	w, envelope := doJSON(t, r, http.MethodPost, path, ownerToken, map[string]string{
		"owner_password": ownerTillPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("verify counter: code=%d, body=%s", w.Code, w.Body.String())
	}
	var counter struct {
		IsVerified bool   `json:"is_verified"`
		VerifiedBy string `json:"verified_by"`
	}
	decodeData(t, envelope, &counter)
	if !counter.IsVerified {
		t.Fatalf("verify counter: not marked verified")
	}
	if counter.VerifiedBy == "" {
		t.Fatalf("verify counter: verified_by empty")
	}
}

func inventoryTest(t *testing.T, r *gin.Engine, token string) {
	w, envelope := doJSON(t, r, http.MethodPost, "/api/inventory/items", token, map[string]interface{}{
		"name":          "Basmati Rice",
		"unit":          "kg",
		"min_threshold": 10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create inventory item: code=%d, body=%s", w.Code, w.Body.String())
	}
	var item struct {
		ID uint `json:"id"`
	}
	decodeData(t, envelope, &item)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/inventory/items/%d/purchase", item.ID), token, map[string]interface{}{
		"quantity": 50,
		"notes":    "weekly delivery",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("record purchase: code=%d, body=%s", w.Code, w.Body.String())
	}

	// Overdraw is refused without touching the quantity.
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/inventory/items/%d/usage", item.ID), token, map[string]interface{}{
		"quantity": 60,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("overdraw usage: want 422, got %d, body=%s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/inventory/items/%d/usage", item.ID), token, map[string]interface{}{
		"quantity": 20,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("record usage: code=%d, body=%s", w.Code, w.Body.String())
	}

	w, envelope = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/inventory/items/%d/transactions", item.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list transactions: code=%d", w.Code)
	}
	var txns []struct {
		Type        string  `json:"type"`
		Quantity    float64 `json:"quantity"`
		NewQuantity float64 `json:"new_quantity"`
	}
	decodeData(t, envelope, &txns)
	if len(txns) != 2 {
		t.Fatalf("ledger: want 2 rows, got %d", len(txns))
	}
	// Newest first: the usage, then the purchase.
	if txns[0].Type != models.TxTypeUsage || txns[0].Quantity != -20 || txns[0].NewQuantity != 30 {
		t.Fatalf("ledger head: quantity=%v new=%v", txns[0].Quantity, txns[0].NewQuantity)
	}
}
