//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Wire是Google开发的编译期依赖注入工具
// 2. 与运行时反射注入（如Spring的@Autowired）不同，Wire在编译期生成代码
// 3. 优势：零运行时开销、类型安全、编译期检测循环依赖
//
// Wire工作流程：
// Step 1: 编写wire.go（本文件），定义Providers和Injector
// Step 2: 运行 `wire gen ./cmd/api`
// Step 3: Wire生成wire_gen.go，包含完整的依赖创建代码
// Step 4: main.go调用wire_gen.go中的InitializeApp()
//
// 核心概念：
// - Provider: 提供依赖的构造函数（如NewUserRepository）
// - Injector: 声明最终要构造的目标类型（如*gin.Engine）
// - wire.Build(): 告诉Wire如何组装依赖链

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
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
	"github.com/xiebiao/hotelbooking/pkg/mq"
	"github.com/xiebiao/hotelbooking/pkg/response"
)

// ========================================
// Wire Provider Sets (依赖分组)
// ========================================
// 教学说明：
// ProviderSet 将相关的 Provider 分组，便于管理和复用
// 例如：基础设施层的所有Provider放在一起

// infrastructureSet 基础设施层依赖
// 包含：配置加载、数据库连接、Redis连接
var infrastructureSet = wire.NewSet(
	config.Load,     // 加载配置文件
	mysql.NewDB,     // 创建MySQL连接
	redis.NewClient, // 创建Redis连接
)

// repositorySet 仓储层依赖
// 包含：所有Repository的构造函数
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,        // 账号仓储
	mysql.NewProductRepository,     // 产品仓储
	mysql.NewInventoryRepository,   // 库存仓储
	mysql.NewReservationRepository, // 预订仓储
	mysql.NewTxManager,             // 事务管理器
)

// domainSet 领域层依赖
// 包含：所有领域服务的构造函数
var domainSet = wire.NewSet(
	user.NewService,      // 账号领域服务
	inventory.NewService, // 库存领域服务
)

// applicationSet 应用层依赖
// 包含：所有Use Case的构造函数
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,                // 住客注册用例
	appuser.NewLoginUseCase,                   // 住客登录用例
	appinventory.NewSetCapacityUseCase,        // 库存配置用例
	appinventory.NewCheckAvailabilityUseCase,  // 可用性查询用例
	appinventory.NewGetCalendarUseCase,        // 日历查询用例
	appinventory.NewListProductsUseCase,       // 产品列表用例
	appbooking.NewCreateReservationUseCase,    // 创建预订用例
	appbooking.NewCancelReservationUseCase,    // 取消预订用例
	appbooking.NewGetReservationUseCase,       // 预订详情用例
	appbooking.NewListReservationsUseCase,     // 预订列表用例
)

// middlewareSet 中间件依赖
// 包含：JWT管理器、认证中间件
var middlewareSet = wire.NewSet(
	provideJWTManager,            // JWT管理器（需要从config提取参数）
	provideSessionStore,          // Session存储（需要从Redis创建）
	middleware.NewAuthMiddleware, // 认证中间件
)

// handlerSet HTTP处理器依赖
// 包含：所有Handler的构造函数
var handlerSet = wire.NewSet(
	handler.NewUserHandler,      // 账号处理器
	handler.NewInventoryHandler, // 库存处理器
	handler.NewBookingHandler,   // 预订处理器
)

// ========================================
// Custom Providers (自定义Provider)
// ========================================
// 教学说明：
// 有些依赖的构造函数参数不是直接的类型，需要从Config中提取
// 这时需要编写自定义Provider函数

// provideJWTManager 从配置创建JWT管理器
// 教学要点：config.Config 包含多个字段，但jwt.NewManager只需要JWT相关的配置
// Wire无法自动知道如何从Config提取参数，所以需要手动编写Provider
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideSessionStore 从Redis客户端创建Session存储
// 教学要点：redis.NewSessionStore需要*goredis.Client参数
// Wire会自动注入redis.NewClient()的返回值
func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	return redis.NewSessionStore(client)
}

// provideCalendarCache 从Redis客户端创建日历缓存
func provideCalendarCache(client *goredis.Client) *redis.CalendarCache {
	return redis.NewCalendarCache(client)
}

// provideVerifier 创建支付网关客户端
// 教学要点：Use Case依赖payment.Verifier接口，而NewClient返回*payment.Client
// Wire不会自动做接口到实现的绑定，用Provider函数显式转换
func provideVerifier(cfg *config.Config) payment.Verifier {
	return payment.NewClient(cfg)
}

// provideEventPublisher 创建事件发布器
// MQ可通过配置关闭（本地开发），关闭时返回nil，Use Case内部会跳过发布
func provideEventPublisher(cfg *config.Config) (appbooking.EventPublisher, error) {
	if !cfg.MQ.Enabled {
		return nil, nil
	}
	return mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic")
}

// provideCalendarInvalidator 日历缓存失效器（预订/库存变更后清缓存）
func provideCalendarInvalidator(cache *redis.CalendarCache) appbooking.CalendarInvalidator {
	return cache
}

// provideCalendarReader 日历缓存读写器（日历查询的读穿透缓存）
func provideCalendarReader(cache *redis.CalendarCache) appinventory.CalendarCache {
	return cache
}

// provideGinEngine 创建并配置Gin引擎
// 教学要点：
// 1. Gin引擎需要注册所有路由
// 2. 路由注册需要所有的Handler和Middleware
// 3. Wire会自动注入这些依赖
// 4. 这里直接在函数内注册路由，避免与main.go中的registerRoutes函数冲突
func provideGinEngine(
	cfg *config.Config,
	userHandler *handler.UserHandler,
	inventoryHandler *handler.InventoryHandler,
	bookingHandler *handler.BookingHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	// 设置运行模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// 注册路由
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档路由
	// 教学说明：
	// - ginSwagger.WrapHandler: Swagger UI的HTTP处理器
	// - swaggerFiles.Handler: 提供swagger.json等静态文件
	// - 访问 http://localhost:8080/swagger/index.html 查看API文档
	// - 生产环境建议禁用Swagger或添加访问控制
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		// 账号模块（公开接口）
		users := v1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
		}

		// 可用性查询（公开接口）
		v1.GET("/availability", inventoryHandler.CheckAvailability)
		v1.GET("/products/:id/calendar", inventoryHandler.GetCalendar)

		// 库存模块（运营接口，需要登录）
		v1.PUT("/inventory/capacity", authMiddleware.RequireAuth(), inventoryHandler.SetCapacity)
		v1.GET("/hotels/:hotel_id/products", authMiddleware.RequireAuth(), inventoryHandler.ListProducts)

		// 预订模块（需要登录）
		reservations := v1.Group("/reservations")
		reservations.Use(authMiddleware.RequireAuth())
		{
			reservations.POST("", bookingHandler.CreateReservation)
			reservations.GET("", bookingHandler.ListReservations)
			reservations.GET("/:reference", bookingHandler.GetReservation)
			reservations.POST("/:reference/cancel", bookingHandler.CancelReservation)
		}
	}

	return r
}

// ========================================
// Wire Injector (依赖注入器)
// ========================================
// 教学说明：
// InitializeApp是Wire的入口函数（Injector）
//
// wire.Build() 告诉Wire需要哪些Provider来构建*gin.Engine
// Wire会自动分析依赖关系：
//
// 依赖链示例：
// *gin.Engine 需要 → *handler.BookingHandler
// *handler.BookingHandler 需要 → *appbooking.CreateReservationUseCase
// *appbooking.CreateReservationUseCase 需要 → inventory.Repository
// inventory.Repository 需要 → *gorm.DB
// *gorm.DB 需要 → *config.Config
//
// Wire会按正确的顺序调用所有构造函数

// InitializeApp 初始化整个应用
// 返回：配置好的Gin引擎
// 错误：如果任何依赖创建失败
//
// 教学说明：
// Wire Injector函数的返回值有限制：
// - 第一个返回值：要构造的目标类型（*gin.Engine）
// - 第二个返回值（可选）：只能是error或cleanup函数
// - 不能返回多个业务对象，如果需要Config可以在provideGinEngine中处理
func InitializeApp() (*gin.Engine, error) {
	// wire.Build 的参数是所有的 Provider
	// Wire会在编译期分析依赖关系，生成初始化代码
	wire.Build(
		// 基础设施层
		infrastructureSet,

		// 仓储层
		repositorySet,

		// 领域层
		domainSet,

		// 应用层
		applicationSet,

		// 中间件层
		middlewareSet,

		// 接口层
		handlerSet,

		// 自定义Provider
		provideCalendarCache,
		provideVerifier,
		provideEventPublisher,
		provideCalendarInvalidator,
		provideCalendarReader,

		// Gin引擎
		provideGinEngine,
	)

	// 返回值类型必须与wire.Build的最终产出一致
	// Wire会在wire_gen.go中生成实际的初始化代码
	// 这里的返回值是占位符，实际运行时会被wire_gen.go替代
	return nil, nil
}
