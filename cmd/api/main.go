package main

import (
	"log"
	"os"

	_ "oficina/api/swagger" // swagger docs
	"oficina/internal/database"
	"oficina/internal/handler"
	"oficina/internal/middleware"
	"oficina/internal/repository"
	"oficina/internal/service"
	"oficina/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Oficina API
// @version         1.0
// @description     Multi-tenant repair shop management API: clients, vehicles, work orders, schedules and billing.
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
		dbName = "oficina"
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

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Mail delivery (disabled when RESEND_API_KEY is unset)
	mailFrom := os.Getenv("MAIL_FROM")
	if mailFrom == "" {
		mailFrom = "no-reply@oficina.local"
	}
	mailer := service.NewResendMailer(os.Getenv("RESEND_API_KEY"), mailFrom)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	clientRepo := repository.NewClientRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	productRepo := repository.NewProductRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	orderRepo := repository.NewWorkOrderRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	authService := service.NewAuthService(userRepo, companyRepo, mailer)
	companyService := service.NewCompanyService(companyRepo, userRepo, txManager, mailer)
	userService := service.NewUserService(userRepo, companyRepo)
	employeeService := service.NewEmployeeService(employeeRepo)
	clientService := service.NewClientService(clientRepo)
	vehicleService := service.NewVehicleService(vehicleRepo, clientRepo)
	productService := service.NewProductService(productRepo, wsHub)
	scheduleService := service.NewScheduleService(scheduleRepo, clientRepo, vehicleRepo)
	orderService := service.NewWorkOrderService(orderRepo, txManager, wsHub)
	expenseService := service.NewExpenseService(expenseRepo)
	dashboardService := service.NewDashboardService(dashboardRepo, productRepo)

	auth := middleware.NewAuthenticator(userRepo, companyRepo)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, auth)
	companyHandler := handler.NewCompanyHandler(companyService, auth)
	userHandler := handler.NewUserHandler(userService, auth)
	employeeHandler := handler.NewEmployeeHandler(employeeService, auth)
	clientHandler := handler.NewClientHandler(clientService, auth)
	vehicleHandler := handler.NewVehicleHandler(vehicleService, auth)
	productHandler := handler.NewProductHandler(productService, auth)
	scheduleHandler := handler.NewScheduleHandler(scheduleService, auth)
	orderHandler := handler.NewWorkOrderHandler(orderService, auth)
	expenseHandler := handler.NewExpenseHandler(expenseService, auth)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, auth)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, frontend)
	}
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

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, service.GetJWTSecret())
	})

	// Register API Routes
	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	companyHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	employeeHandler.RegisterRoutes(api)
	clientHandler.RegisterRoutes(api)
	vehicleHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api)
	scheduleHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	expenseHandler.RegisterRoutes(api)
	dashboardHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
