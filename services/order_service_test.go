package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/utils"
)

func TestCreateOrderTotals(t *testing.T) {
	db := setupTestDB(t)
	dosa, chai, _ := seedMenu(t, db)
	svc := NewOrderService(db, testConfig(t))

	order, err := svc.CreateOrder(5, "Walk-in", []OrderItemRequest{
		{MenuItemID: dosa.ID, Quantity: 2},
		{MenuItemID: chai.ID, Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20000), order.Subtotal)
	assert.Equal(t, int64(3600), order.GSTAmount)
	assert.Equal(t, int64(23600), order.TotalAmount)
	assert.Equal(t, order.Subtotal+order.GSTAmount, order.TotalAmount)
	assert.Equal(t, models.OrderStatusActive, order.Status)

	expectedNumber := fmt.Sprintf("ORD-%s-0001", time.Now().Format("20060102"))
	assert.Equal(t, expectedNumber, order.OrderNumber)

	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, "Masala Dosa", order.OrderItems[0].Name)
	assert.Equal(t, int64(8000), order.OrderItems[0].UnitPrice)
	assert.Equal(t, int64(16000), order.OrderItems[0].Subtotal)
	assert.True(t, order.OrderItems[1].IsBeverage)
}

func TestCreateOrderSnapshotsMenuPrice(t *testing.T) {
	db := setupTestDB(t)
	dosa, _, _ := seedMenu(t, db)
	svc := NewOrderService(db, testConfig(t))

	order, err := svc.CreateOrder(1, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 1}})
	require.NoError(t, err)

	// Raising the menu price must not touch the historical order.
	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", dosa.ID).Update("price", 9999).Error)

	reloaded, err := svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), reloaded.OrderItems[0].UnitPrice)
	assert.Equal(t, int64(8000), reloaded.Subtotal)
}

func TestCreateOrderValidation(t *testing.T) {
	db := setupTestDB(t)
	dosa, _, special := seedMenu(t, db)
	svc := NewOrderService(db, testConfig(t))

	_, err := svc.CreateOrder(0, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 1}})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.CreateOrder(26, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 1}})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.CreateOrder(1, "", nil)
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.CreateOrder(1, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 0}})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.CreateOrder(1, "", []OrderItemRequest{
		{MenuItemID: dosa.ID, Quantity: 1},
		{MenuItemID: dosa.ID, Quantity: 2},
	})
	assert.ErrorIs(t, err, utils.ErrValidation, "repeated menu items must be rejected, not collapsed")

	_, err = svc.CreateOrder(1, "", []OrderItemRequest{{MenuItemID: 9999, Quantity: 1}})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = svc.CreateOrder(1, "", []OrderItemRequest{{MenuItemID: special.ID, Quantity: 1}})
	assert.ErrorIs(t, err, utils.ErrValidation)

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count, "failed validations must not persist partial orders")
}

func TestOrderNumberSequence(t *testing.T) {
	db := setupTestDB(t)
	dosa, _, _ := seedMenu(t, db)
	svc := NewOrderService(db, testConfig(t))

	prefix := "ORD-" + time.Now().Format("20060102")
	for i := 1; i <= 3; i++ {
		order, err := svc.CreateOrder(1, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 1}})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%s-%04d", prefix, i), order.OrderNumber)
	}
}

func TestOrderNumberCollisionRetries(t *testing.T) {
	db := setupTestDB(t)
	dosa, _, _ := seedMenu(t, db)
	svc := NewOrderService(db, testConfig(t))

	// On the first insert, sneak a rival row with the same order number into
	// the transaction, the way a concurrent request that won the count race
	// would. The unique index rejects the insert and the whole transaction
	// rolls back, so the retry recounts and succeeds.
	interfered := false
	err := db.Callback().Create().Before("gorm:create").Register("order_number_rival", func(tx *gorm.DB) {
		order, ok := tx.Statement.Dest.(*models.Order)
		if !ok || interfered || order.OrderNumber == "" {
			return
		}
		interfered = true
		rival := models.Order{
			OrderNumber: order.OrderNumber,
			TableNumber: 9,
			Status:      models.OrderStatusActive,
		}
		tx.Session(&gorm.Session{NewDB: true}).Create(&rival)
	})
	require.NoError(t, err)

	order, err := svc.CreateOrder(1, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.True(t, interfered)

	expected := fmt.Sprintf("ORD-%s-0001", time.Now().Format("20060102"))
	assert.Equal(t, expected, order.OrderNumber)

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(1), count, "the failed attempt must not persist anything")
}

func TestUpdateOrderItemsRecomputesAndPreservesServed(t *testing.T) {
	db := setupTestDB(t)
	dosa, chai, _ := seedMenu(t, db)
	svc := NewOrderService(db, testConfig(t))

	order, err := svc.CreateOrder(3, "", []OrderItemRequest{
		{MenuItemID: dosa.ID, Quantity: 2},
	})
	require.NoError(t, err)

	_, err = svc.SetServedQuantity(order.OrderItems[0].ID, 1, false)
	require.NoError(t, err)

	updated, err := svc.UpdateOrderItems(order.ID, []OrderItemRequest{
		{MenuItemID: dosa.ID, Quantity: 3},
		{MenuItemID: chai.ID, Quantity: 2},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, int64(32000), updated.Subtotal)
	assert.Equal(t, int64(5760), updated.GSTAmount)
	assert.Equal(t, int64(37760), updated.TotalAmount)

	require.Len(t, updated.OrderItems, 2)
	byMenu := map[uint]models.OrderItem{}
	for _, oi := range updated.OrderItems {
		byMenu[oi.MenuItemID] = oi
	}
	assert.Equal(t, 1, byMenu[dosa.ID].QuantityServed, "served quantity survives the edit")
	assert.Equal(t, 0, byMenu[chai.ID].QuantityServed, "new items start unserved")

	_, err = svc.UpdateOrderItems(order.ID, []OrderItemRequest{
		{MenuItemID: dosa.ID, Quantity: 1},
		{MenuItemID: dosa.ID, Quantity: 1},
	}, false)
	assert.ErrorIs(t, err, utils.ErrValidation, "repeated menu items must be rejected, not collapsed")
}

func TestUpdateOrderItemsServedClampedToNewQuantity(t *testing.T) {
	db := setupTestDB(t)
	dosa, _, _ := seedMenu(t, db)
	svc := NewOrderService(db, testConfig(t))

	order, err := svc.CreateOrder(3, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 3}})
	require.NoError(t, err)
	_, err = svc.SetServedQuantity(order.OrderItems[0].ID, 3, false)
	require.NoError(t, err)

	updated, err := svc.UpdateOrderItems(order.ID, []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 2}}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.OrderItems[0].QuantityServed)
	assert.True(t, updated.OrderItems[0].IsServed())
}

func TestUpdateOrderItemsPaidNeedsOverride(t *testing.T) {
	db := setupTestDB(t)
	dosa, chai, _ := seedMenu(t, db)
	cfg := testConfig(t)
	orders := NewOrderService(db, cfg)
	payments := NewPaymentService(db)

	order, err := orders.CreateOrder(2, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = payments.CreatePayment(order.ID, PaymentRequest{PaymentMethod: models.PaymentMethodCash, Amount: order.TotalAmount})
	require.NoError(t, err)

	_, err = orders.UpdateOrderItems(order.ID, []OrderItemRequest{{MenuItemID: chai.ID, Quantity: 1}}, false)
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	updated, err := orders.UpdateOrderItems(order.ID, []OrderItemRequest{{MenuItemID: chai.ID, Quantity: 1}}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), updated.Subtotal)
}

func TestCancelOrder(t *testing.T) {
	db := setupTestDB(t)
	dosa, _, _ := seedMenu(t, db)
	orders := NewOrderService(db, testConfig(t))
	payments := NewPaymentService(db)

	order, err := orders.CreateOrder(4, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 1}})
	require.NoError(t, err)

	canceled, err := orders.CancelOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCanceled, canceled.Status)

	_, err = orders.CancelOrder(order.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	// A fully paid order must be voided, not canceled.
	paid, err := orders.CreateOrder(4, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = payments.CreatePayment(paid.ID, PaymentRequest{PaymentMethod: models.PaymentMethodUPI, Amount: paid.TotalAmount})
	require.NoError(t, err)
	_, err = orders.CancelOrder(paid.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	_, err = orders.CancelOrder(9999)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestSetServedQuantityBounds(t *testing.T) {
	db := setupTestDB(t)
	dosa, _, _ := seedMenu(t, db)
	svc := NewOrderService(db, testConfig(t))

	order, err := svc.CreateOrder(1, "", []OrderItemRequest{{MenuItemID: dosa.ID, Quantity: 2}})
	require.NoError(t, err)
	itemID := order.OrderItems[0].ID

	_, err = svc.SetServedQuantity(itemID, 3, false)
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.SetServedQuantity(itemID, -1, false)
	assert.ErrorIs(t, err, utils.ErrValidation)

	item, err := svc.SetServedQuantity(itemID, 2, false)
	require.NoError(t, err)
	assert.True(t, item.IsServed())

	// Decreasing is an explicit admin correction.
	_, err = svc.SetServedQuantity(itemID, 1, false)
	assert.ErrorIs(t, err, utils.ErrValidation)

	item, err = svc.SetServedQuantity(itemID, 1, true)
	require.NoError(t, err)
	assert.False(t, item.IsServed())
	assert.Equal(t, 1, item.QuantityServed)
}

func TestLockForUpdateDialects(t *testing.T) {
	// Dry-run mysql handle: sql.Open is lazy and version probing and the
	// startup ping are disabled, so no server is contacted.
	mysqlDB, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "pos:pos@tcp(127.0.0.1:3306)/pos",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	stmt := lockForUpdate(mysqlDB).Session(&gorm.Session{DryRun: true}).First(&models.Order{}, 1).Statement
	assert.Contains(t, stmt.SQL.String(), "FOR UPDATE",
		"mysql reads in read-then-write transitions must take a row lock")

	sqliteDB := setupTestDB(t)
	stmt = lockForUpdate(sqliteDB).Session(&gorm.Session{DryRun: true}).First(&models.Order{}, 1).Statement
	assert.NotContains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, isDuplicateKey(nil))
	assert.False(t, isDuplicateKey(errors.New("some other failure")))
	assert.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: orders.order_number")))
	assert.True(t, isDuplicateKey(errors.New("Error 1062 (23000): Duplicate entry 'ORD-20250110-0001'")))
}
