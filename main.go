package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Code-minner/symbolStores-sub001/internal/config"
	"github.com/Code-minner/symbolStores-sub001/internal/database"
	"github.com/Code-minner/symbolStores-sub001/internal/gateway"
	"github.com/Code-minner/symbolStores-sub001/internal/handlers"
	"github.com/Code-minner/symbolStores-sub001/internal/mailer"
	"github.com/Code-minner/symbolStores-sub001/internal/middleware"
	"github.com/Code-minner/symbolStores-sub001/internal/orders"
	"github.com/Code-minner/symbolStores-sub001/internal/pricing"
	"github.com/Code-minner/symbolStores-sub001/internal/store"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("⚠️ product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("⚠️ user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}

	orderStore := store.NewOrders(db)

	notifier := mailer.New(mailer.Config{
		Server:     config.AppEnv.SMTPServer,
		Port:       config.AppEnv.SMTPPort,
		User:       config.AppEnv.SMTPUser,
		Pass:       config.AppEnv.SMTPPass,
		FromAddr:   config.AppEnv.FromAddr,
		FromName:   config.AppEnv.FromName,
		AdminEmail: config.AppEnv.AdminEmail,
	})

	verifier := gateway.NewClient(config.AppEnv.GatewayBaseURL, config.AppEnv.GatewaySecretKey)

	svc := orders.NewService(orderStore, notifier, verifier,
		pricing.Config{
			FreeShippingThreshold: config.AppEnv.FreeShippingThreshold,
			BaseShippingCost:      config.AppEnv.BaseShippingCost,
			TaxRate:               config.AppEnv.TaxRate,
			Currency:              config.AppEnv.Currency,
		},
		orders.BankDetails{
			BankName:      config.AppEnv.BankName,
			AccountName:   config.AppEnv.BankAccountName,
			AccountNumber: config.AppEnv.BankAccountNumber,
		},
	)

	go expireLoop(svc, config.AppEnv.OrderExpiry)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/products", handlers.GetProducts(db))

	r.POST("/orders/gateway", handlers.CreateGatewayOrder(db, svc, config.AppEnv.JWTSecret))
	r.POST("/orders/bank-transfer", handlers.CreateBankTransferOrder(db, svc, config.AppEnv.JWTSecret))
	r.POST("/orders/:orderId/reference", handlers.SubmitBankReference(svc))
	r.POST("/orders/:orderId/proof", handlers.UploadPaymentProof(svc, config.AppEnv.ProofUploadDir))
	r.GET("/orders/track", handlers.TrackOrder(svc))
	r.GET("/orders/history", handlers.OrderHistory(orderStore))

	r.GET("/payments/verify", handlers.VerifyGatewayPayment(svc))

	r.POST("/admin/login", handlers.AdminLogin(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.GET("/orders", handlers.ListOrders(orderStore))
		admin.GET("/orders/:orderId", handlers.GetOrder(svc))
		admin.POST("/orders/:orderId/adjudicate", handlers.AdjudicateOrder(svc))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}

// expireLoop sweeps stale unpaid orders so stock does not stay reserved
// behind abandoned checkouts.
func expireLoop(svc *orders.Service, maxAge time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if _, err := svc.ExpireStaleOrders(ctx, maxAge); err != nil {
			log.Printf("[EXPIRE] [ERROR] sweep failed: %v", err)
		}
		cancel()
	}
}
