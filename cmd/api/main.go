package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"context"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// defaultBankRate is the penalty rate applied to outstanding debt when
// PENALTY_BANK_RATE is not configured
const defaultBankRate = "0.15"

// @title           Water Billing API
// @version         1.0
// @description     Utility billing backend: tariffs, tiered charges, debt aging, bill lifecycle and recycle bin.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	rateStr := os.Getenv("PENALTY_BANK_RATE")
	if rateStr == "" {
		rateStr = defaultBankRate
	}
	bankRate, err := decimal.NewFromString(rateStr)
	if err != nil {
		log.Fatalf("Invalid PENALTY_BANK_RATE %q: %v", rateStr, err)
	}

	// Capability middleware resolves role permissions straight from the DB
	middleware.InitCapabilityMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	tariffRepo := repository.NewTariffRepository(db)
	billRepo := repository.NewBillRepository(db)
	meterRepo := repository.NewMeterRepository(db)
	recycleRepo := repository.NewRecycleBinRepository(db)
	registryRepo := repository.NewRegistryRepository(db)

	userService := service.NewUserService(userRepo)
	roleService := service.NewRoleService(db)
	auditService := service.NewAuditService(auditRepo)
	tariffService := service.NewTariffService(tariffRepo, auditRepo, txManager)
	meterService := service.NewMeterService(meterRepo, auditRepo)
	registryService := service.NewRegistryService(registryRepo, auditRepo)
	billService := service.NewBillService(billRepo, meterRepo, tariffService, auditRepo, txManager, wsHub, bankRate)
	recycleService := service.NewRecycleService(db, recycleRepo, tariffRepo, auditRepo, txManager)

	// Seed built-in roles and capability codes
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Fatalf("Failed to seed roles and permissions: %v", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	auditHandler := handler.NewAuditHandler(auditService)
	tariffHandler := handler.NewTariffHandler(tariffService)
	meterHandler := handler.NewMeterHandler(meterService)
	registryHandler := handler.NewRegistryHandler(registryService)
	billHandler := handler.NewBillHandler(billService)
	recycleHandler := handler.NewRecycleHandler(recycleService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for committed bill events
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	roleHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)
	tariffHandler.RegisterRoutes(root)
	meterHandler.RegisterRoutes(root)
	registryHandler.RegisterRoutes(root)
	billHandler.RegisterRoutes(root)
	recycleHandler.RegisterRoutes(root)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
