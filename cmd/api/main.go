package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appbooking "github.com/xiebiao/hotelbooking/internal/application/booking"
	appinventory "github.com/xiebiao/hotelbooking/internal/application/inventory"
	appuser "github.com/xiebiao/hotelbooking/internal/application/user"
	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
	"github.com/xiebiao/hotelbooking/internal/domain/user"
	"github.com/xiebiao/hotelbooking/internal/infrastructure/config"
	"github.com/xiebiao/hotelbooking/internal/infrastructure/payment"
	"github.com/xiebiao/hotelbooking/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/hotelbooking/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/hotelbooking/internal/interface/http/handler"
	"github.com/xiebiao/hotelbooking/internal/interface/http/middleware"
	"github.com/xiebiao/hotelbooking/pkg/jwt"
	"github.com/xiebiao/hotelbooking/pkg/metrics"
	"github.com/xiebiao/hotelbooking/pkg/mq"
	"github.com/xiebiao/hotelbooking/pkg/response"
	"github.com/xiebiao/hotelbooking/pkg/tracing"
)

// main 主程序入口
// 说明：手动依赖注入（wire.go提供Wire版本，二者等价）
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.Server.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())

	// 2. 初始化Prometheus指标
	metrics.InitMetrics()

	// 3. 初始化链路追踪（可选）
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer("booking-service", cfg.Tracing.CollectorURL)
		if err != nil {
			log.Fatalf("初始化Tracer失败: %v", err)
		}
		defer shutdown(context.Background())
	}

	// 4. 初始化数据库连接
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	// 5. 初始化Redis连接
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 6. 初始化消息队列（可选，本地开发可关闭）
	var publisher appbooking.EventPublisher
	if cfg.MQ.Enabled {
		p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
		if err != nil {
			log.Fatalf("初始化RabbitMQ失败: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	// 7. 依赖注入（手动组装）
	// 学习要点：依赖注入链
	// Repository ← Service ← UseCase ← Handler

	// 基础设施层
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	inventoryRepo := mysql.NewInventoryRepository(db)
	reservationRepo := mysql.NewReservationRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	calendarCache := redis.NewCalendarCache(redisClient)
	paymentClient := payment.NewClient(cfg)
	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	// 领域层
	userService := user.NewService(userRepo)
	inventoryService := inventory.NewService(inventoryRepo)

	// 应用层
	registerUseCase := appuser.NewRegisterUseCase(userService)
	loginUseCase := appuser.NewLoginUseCase(userService, jwtManager, sessionStore)
	setCapacityUseCase := appinventory.NewSetCapacityUseCase(inventoryService, productRepo, calendarCache)
	checkAvailabilityUseCase := appinventory.NewCheckAvailabilityUseCase(inventoryService, productRepo)
	getCalendarUseCase := appinventory.NewGetCalendarUseCase(inventoryService, calendarCache)
	listProductsUseCase := appinventory.NewListProductsUseCase(productRepo)
	createReservationUseCase := appbooking.NewCreateReservationUseCase(
		reservationRepo, inventoryRepo, productRepo, paymentClient, publisher, calendarCache)
	cancelReservationUseCase := appbooking.NewCancelReservationUseCase(
		reservationRepo, inventoryRepo, txManager, publisher, calendarCache)
	getReservationUseCase := appbooking.NewGetReservationUseCase(reservationRepo)
	listReservationsUseCase := appbooking.NewListReservationsUseCase(reservationRepo)

	// 接口层
	userHandler := handler.NewUserHandler(registerUseCase, loginUseCase)
	inventoryHandler := handler.NewInventoryHandler(setCapacityUseCase, checkAvailabilityUseCase, getCalendarUseCase, listProductsUseCase)
	bookingHandler := handler.NewBookingHandler(
		createReservationUseCase, cancelReservationUseCase, getReservationUseCase, listReservationsUseCase)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	// 8. 初始化Gin引擎
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// 9. 注册路由
	registerRoutes(r, userHandler, inventoryHandler, bookingHandler, authMiddleware)

	// 10. 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("\n🚀 服务启动成功！\n")
	fmt.Printf("   访问地址: http://localhost%s\n", addr)
	fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
	fmt.Printf("   住客注册: POST http://localhost%s/api/v1/users/register\n", addr)
	fmt.Printf("   住客登录: POST http://localhost%s/api/v1/users/login\n", addr)
	fmt.Printf("   可用性查询: GET http://localhost%s/api/v1/availability\n", addr)
	fmt.Printf("   创建预订: POST http://localhost%s/api/v1/reservations (需要登录)\n", addr)
	fmt.Printf("\n按Ctrl+C停止服务\n\n")

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}

// registerRoutes 注册路由
func registerRoutes(
	r *gin.Engine,
	userHandler *handler.UserHandler,
	inventoryHandler *handler.InventoryHandler,
	bookingHandler *handler.BookingHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标端点（供Prometheus Server抓取）
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		// 账号模块（公开接口，不需要登录）
		users := v1.Group("/users")
		{
			users.POST("/register", userHandler.Register) // ✅ 注册
			users.POST("/login", userHandler.Login)       // ✅ 登录
		}

		// 可用性查询（公开接口，游客也能查）
		v1.GET("/availability", inventoryHandler.CheckAvailability)
		v1.GET("/products/:id/calendar", inventoryHandler.GetCalendar)

		// 库存模块（运营接口，需要登录）
		v1.PUT("/inventory/capacity", authMiddleware.RequireAuth(), inventoryHandler.SetCapacity)
		v1.GET("/hotels/:hotel_id/products", authMiddleware.RequireAuth(), inventoryHandler.ListProducts)

		// 预订模块（需要登录）
		reservations := v1.Group("/reservations")
		reservations.Use(authMiddleware.RequireAuth())
		{
			reservations.POST("", bookingHandler.CreateReservation)                   // ✅ 创建预订
			reservations.GET("", bookingHandler.ListReservations)                     // ✅ 预订列表
			reservations.GET("/:reference", bookingHandler.GetReservation)            // ✅ 预订详情
			reservations.POST("/:reference/cancel", bookingHandler.CancelReservation) // ✅ 取消预订
		}
	}
}
