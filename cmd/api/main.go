package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"circle/internal/app"
	"circle/internal/config"
	"circle/internal/handlers"
	"circle/internal/logger"
	"circle/internal/middleware"
	"circle/internal/validator"

	_ "circle/internal/docs" // Import swagger docs
)

// @title           Circle API
// @version         1.0
// @description     Circle is a local-first personal ledger: accounts, categorized transactions, transfers, CSV import and derived balances.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a, err := app.Open(appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Warm(context.Background()); err != nil {
		return err
	}

	validator.Register()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(appConfig.AuthPassphraseHash)
	accountHandler := handlers.NewAccountHandler(a.Accounts, a.Audit)
	categoryHandler := handlers.NewCategoryHandler(a.Categories, a.Audit)
	payeeHandler := handlers.NewPayeeHandler(a.Payees)
	transactionHandler := handlers.NewTransactionHandler(a.Transactions)
	reportHandler := handlers.NewReportHandler(a.Reports)
	importHandler := handlers.NewImportHandler(a.Imports, a.Audit)
	auditHandler := handlers.NewAuditHandler(a.Audit)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/token", authHandler.IssueToken)

	// Scripted imports authenticate with an API key instead of a token
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(appConfig.PipelineAPIKey))
	pipeline.POST("/import", importHandler.PipelineImport)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)

	// Payee routes
	payees := protected.Group("/payees")
	payees.GET("", payeeHandler.ListPayees)
	payees.GET("/:id", payeeHandler.GetPayee)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("/bulk-delete", transactionHandler.BulkDelete)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Balance and report routes
	protected.GET("/balances", reportHandler.GetBalances)
	protected.GET("/balances/summary", reportHandler.GetSummary)
	protected.GET("/reports/assets", reportHandler.GetAssetHistory)

	// Import
	protected.POST("/import", importHandler.Import)

	// Audit trail
	protected.GET("/audit-logs", auditHandler.ListAuditLogs)

	if !appConfig.AuthEnabled() {
		log.Warn("AUTH_PASSPHRASE_HASH is not set; the API is open to anyone who can reach it")
	}

	log.Infof("Starting Circle server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
