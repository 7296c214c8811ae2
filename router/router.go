package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/masalabite/pos-backend/config"
	"github.com/masalabite/pos-backend/controllers"
	"github.com/masalabite/pos-backend/middlewares"
	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/printing"
	"github.com/masalabite/pos-backend/services"
)

// SetupRouter wires services, controllers and middlewares onto a gin engine.
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// 50 requests per second per IP. Registered before the route groups so
	// gin bakes it into every handler chain.
	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	spooler := printing.NewSpooler("spool")

	orderSvc := services.NewOrderService(db, cfg)
	paymentSvc := services.NewPaymentService(db)
	counterSvc := services.NewCashCounterService(db, cfg, paymentSvc)
	inventorySvc := services.NewInventoryService(db)

	userCtrl := controllers.NewUserController(db)
	menuCtrl := controllers.NewMenuController(db)
	orderCtrl := controllers.NewOrderController(orderSvc, spooler)
	paymentCtrl := controllers.NewPaymentController(paymentSvc, orderSvc, spooler)
	counterCtrl := controllers.NewCashCounterController(counterSvc)
	inventoryCtrl := controllers.NewInventoryController(db, inventorySvc)

	auth := r.Group("/auth")
	{
		auth.POST("/login", middlewares.LoginRateLimit(), userCtrl.Login)
	}

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	{
		api.POST("/auth/register", middlewares.RequireRole(models.RoleAdmin), userCtrl.Register)

		api.GET("/menu/categories", menuCtrl.GetAllCategories)
		api.POST("/menu/categories", middlewares.RequireRole(models.RoleAdmin), menuCtrl.CreateCategory)
		api.GET("/menu/items", menuCtrl.GetAllMenuItems)
		api.POST("/menu/items", middlewares.RequireRole(models.RoleAdmin), menuCtrl.CreateMenuItem)
		api.PATCH("/menu/items/:item_id", middlewares.RequireRole(models.RoleAdmin), menuCtrl.UpdateMenuItem)

		api.GET("/orders", orderCtrl.GetAllOrders)
		api.POST("/orders", orderCtrl.CreateOrder)
		api.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		api.PUT("/orders/:order_id/items", orderCtrl.UpdateOrderItems)
		api.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)
		api.PATCH("/order-items/:item_id/served", orderCtrl.SetItemServed)

		api.POST("/payments", paymentCtrl.CreatePayment)
		api.POST("/orders/:order_id/payments/batch", paymentCtrl.CreatePaymentsBatch)
		api.PUT("/orders/:order_id/payments", middlewares.RequireRole(models.RoleAdmin), paymentCtrl.ReplacePayments)
		api.GET("/orders/:order_id/payments", paymentCtrl.GetPaymentsForOrder)

		api.POST("/cash-counter/open", counterCtrl.OpenCounter)
		api.POST("/cash-counter/close", counterCtrl.CloseCounter)
		api.POST("/cash-counter/verify/:counter_id", middlewares.RequireRole(models.RoleOwner), counterCtrl.VerifyCounter)
		api.POST("/cash-counter/reopen/:counter_id", middlewares.RequireRole(models.RoleOwner), counterCtrl.ReopenCounter)
		api.GET("/cash-counter/today", counterCtrl.GetToday)
		api.GET("/cash-counter/history", middlewares.RequireRole(models.RoleAdmin), counterCtrl.GetHistory)

		api.GET("/inventory/items", inventoryCtrl.GetAllItems)
		api.POST("/inventory/items", middlewares.RequireRole(models.RoleAdmin), inventoryCtrl.CreateItem)
		api.GET("/inventory/low-stock", inventoryCtrl.GetLowStock)
		api.POST("/inventory/items/:item_id/purchase", inventoryCtrl.RecordPurchase)
		api.POST("/inventory/items/:item_id/usage", inventoryCtrl.RecordUsage)
		api.POST("/inventory/items/:item_id/adjustment", middlewares.RequireRole(models.RoleAdmin), inventoryCtrl.RecordAdjustment)
		api.GET("/inventory/items/:item_id/transactions", inventoryCtrl.GetTransactions)

		api.GET("/ws/kds", controllers.KDSHandler)
	}

	return r
}
