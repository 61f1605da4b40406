package battle

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	custommiddleware "monstro-self/internal/middleware"
	"monstro-self/internal/modules/battle/handler"
	"monstro-self/internal/modules/battle/service"
	"monstro-self/internal/modules/battle/tasks"
	"monstro-self/internal/pkg/log"
	"monstro-self/internal/pkg/metrics"
	redisClient "monstro-self/internal/pkg/redis"
	"monstro-self/internal/pkg/response"
	"monstro-self/internal/pkg/trace"
	"monstro-self/internal/pkg/validator"
	"monstro-self/internal/repository/impl"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/liangdas/mqant/conf"
	"github.com/liangdas/mqant/module"
	basemodule "github.com/liangdas/mqant/module/base"
	"github.com/liangdas/mqant/server"
	_ "github.com/lib/pq"
)

type BattleModule struct {
	basemodule.BaseModule
	db               *sql.DB
	redis            *redisClient.Client
	httpServer       *echo.Echo
	battleService    *service.BattleService
	battleHandler    *handler.BattleHandler
	battleRPCHandler *handler.BattleRPCHandler
	cleanupTask      *tasks.BattleCleanupTask
	respWriter       response.Writer
}

// GetType returns module type
func (m *BattleModule) GetType() string {
	return "battle"
}

// Version returns module version
func (m *BattleModule) Version() string {
	return "1.0.0"
}

// OnAppConfigurationLoaded 当App初始化时调用
func (m *BattleModule) OnAppConfigurationLoaded(app module.App) {
	m.BaseModule.OnAppConfigurationLoaded(app)
}

// OnInit module initialization
func (m *BattleModule) OnInit(app module.App, settings *conf.ModuleSettings) {
	metrics.SetServiceName("battle")
	// 按照 mqant 官方推荐：在每个模块的 OnInit 中配置服务注册参数
	// TTL = 30s, 心跳间隔 = 15s (TTL 必须大于心跳间隔)
	m.BaseModule.OnInit(m, app, settings,
		server.RegisterInterval(15*time.Second),
		server.RegisterTTL(30*time.Second),
	)

	// 1. Initialize database connection
	if err := m.initDatabase(settings); err != nil {
		panic(fmt.Sprintf("Failed to initialize database: %v", err))
	}

	// 2. Initialize Redis (battle records + turn locks)
	if err := m.initRedis(settings); err != nil {
		panic(fmt.Sprintf("Failed to initialize Redis: %v", err))
	}

	// 3. Initialize response writer
	m.initResponseWriter()

	// 4. Initialize HTTP server
	m.initHTTPServer()

	// 5. Initialize Services and Handlers
	m.initServicesAndHandlers()

	// 6. Setup routes
	m.setupRoutes()

	// 7. Setup RPC methods
	m.setupRPCMethods()

	// 8. Start cron tasks
	m.startCronTasks()

	// 9. Start HTTP server in background
	go m.startHTTPServer(settings)

	m.GetServer().Options()
}

// initDatabase initializes database connection
func (m *BattleModule) initDatabase(settings *conf.ModuleSettings) error {
	// Read from environment variable first
	dbURL := os.Getenv("MONSTRO_BATTLE_DATABASE_URL")
	if dbURL == "" {
		// Fallback to config file
		if settings != nil && settings.Settings != nil {
			dbURLInterface, ok := settings.Settings["database_url"]
			if ok {
				dbURL, _ = dbURLInterface.(string)
			}
		}
	}

	if dbURL == "" {
		return fmt.Errorf("MONSTRO_BATTLE_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	m.db = db
	fmt.Println("[Battle Module] Database initialized successfully")

	// 启动数据库连接池监控
	go m.startDBPoolMonitoring(db)

	return nil
}

// initRedis initializes Redis client for battle records
func (m *BattleModule) initRedis(settings *conf.ModuleSettings) error {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}

	port := 6379
	if portStr := os.Getenv("REDIS_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	password := os.Getenv("REDIS_PASSWORD")

	dbIndex := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if d, err := strconv.Atoi(dbStr); err == nil {
			dbIndex = d
		}
	}

	client, err := redisClient.NewClient(redisClient.Config{
		Host:     host,
		Port:     port,
		Password: password,
		DB:       dbIndex,
	}, metrics.GetServiceName())
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.redis = client
	fmt.Printf("[Battle Module] Redis connected successfully (Host: %s:%d, DB: %d)\n", host, port, dbIndex)
	return nil
}

// initResponseWriter initializes response writer
func (m *BattleModule) initResponseWriter() {
	m.respWriter = response.NewWriter(metrics.GetServiceName())
	fmt.Println("[Battle Module] Response writer initialized")
}

// initHTTPServer initializes HTTP server
func (m *BattleModule) initHTTPServer() {
	m.httpServer = echo.New()

	// Hide banner
	m.httpServer.HideBanner = true
	m.httpServer.HidePort = true

	// Register validator
	m.httpServer.Validator = validator.New()

	// 获取全局 logger
	logger := log.GetLogger()

	// 获取环境变量
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	// ========== 中间件配置（顺序很重要！） ==========

	// 1. TraceID 中间件 - 最先执行，生成或提取 TraceID
	m.httpServer.Use(trace.Middleware())

	// 2. Metrics 中间件 - 记录 HTTP 方法到 context（用于 Prometheus）
	m.httpServer.Use(metrics.Middleware())

	// 3. Logging 中间件 - 记录请求日志（依赖 TraceID）
	loggingConfig := custommiddleware.DefaultLoggingConfig()
	if environment == "development" {
		// 开发环境启用详细日志
		loggingConfig.DetailedLog = true
		loggingConfig.LogRequestBody = true // 可以记录请求体
	}
	m.httpServer.Use(custommiddleware.LoggingMiddlewareWithConfig(logger, loggingConfig))

	// 4. Recovery 中间件 - 捕获 panic
	m.httpServer.Use(custommiddleware.RecoveryMiddleware(m.respWriter, logger))

	// 5. Error 中间件 - 统一错误处理
	m.httpServer.Use(custommiddleware.ErrorMiddleware(m.respWriter, logger))

	// 6. CORS 中间件
	m.httpServer.Use(middleware.CORS())

	fmt.Println("[Battle Module] HTTP middlewares configured:")
	fmt.Println("  ✓ TraceID (自动生成追踪ID)")
	fmt.Println("  ✓ Metrics (Prometheus 指标收集)")
	fmt.Printf("  ✓ Logging (日志记录 - %s)\n", environment)
	fmt.Println("  ✓ Recovery (Panic 恢复)")
	fmt.Println("  ✓ Error (统一错误处理)")
	fmt.Println("  ✓ CORS (跨域支持)")
}

// initServicesAndHandlers initializes services and HTTP handlers
func (m *BattleModule) initServicesAndHandlers() {
	logger := log.GetLogger()
	serviceName := metrics.GetServiceName()

	// Repository 层
	battleRepo := impl.NewMonsterBattleRepository(m.db)
	monsterRepo := impl.NewMonsterRepository(m.db)
	userRepo := impl.NewUserRepository(m.db)
	skillRepo := impl.NewSkillRepository(m.db)
	monsterSkillRepo := impl.NewMonsterSkillRepository(m.db)
	foodRepo := impl.NewFoodRepository(m.db)
	mutagenRepo := impl.NewMutagenRepository(m.db)
	eventRepo := impl.NewBattleEventRepository(m.db)

	// 战斗记录存取层（Redis）
	store := service.NewBattleStore(m.redis, logger)

	// 规则缓存：环境变量加载，5 分钟 TTL
	rules := service.NewRulesCache(5 * time.Minute)

	// 奖励掷骰
	rewards := service.NewRewardService(foodRepo, skillRepo, monsterSkillRepo, mutagenRepo, logger, serviceName)

	// 机器人通知（可选，未配置则跳过）
	var bot *service.BotNotifier
	if botURL := os.Getenv("BOT_BASE_URL"); botURL != "" {
		bot = service.NewBotNotifier(botURL, os.Getenv("BOT_TOKEN"), logger)
		fmt.Println("[Battle Module] Bot notifier configured")
	} else {
		fmt.Println("[Battle Module] BOT_BASE_URL not set, bot notifications disabled")
	}

	// 结算管线
	completion := service.NewCompletionService(
		battleRepo, monsterRepo, userRepo, eventRepo, rewards, bot, logger, serviceName,
	)

	// 战斗编排
	m.battleService = service.NewBattleService(
		store,
		service.NewActionResolver(),
		completion,
		rules,
		battleRepo,
		monsterRepo,
		userRepo,
		skillRepo,
		logger,
		serviceName,
	)

	// Handlers
	m.battleHandler = handler.NewBattleHandler(m.battleService, m.respWriter)
	m.battleRPCHandler = handler.NewBattleRPCHandler(m.battleService)

	fmt.Println("[Battle Module] Handlers initialized successfully")
}

// startCronTasks starts cron scheduled tasks
func (m *BattleModule) startCronTasks() {
	logger := log.GetLogger()

	// 过期挑战清理：超过 24 小时没人响应的挑战视为拒绝
	m.cleanupTask = tasks.NewBattleCleanupTask(m.db, 24*time.Hour, logger)
	m.cleanupTask.Start()

	fmt.Println("[Battle Module] Cron tasks started successfully:")
	fmt.Println("  ✓ Battle Cleanup Task (每10分钟)")
}

// setupRoutes sets up HTTP routes
func (m *BattleModule) setupRoutes() {
	// API v1 group
	v1 := m.httpServer.Group("/api/v1")

	// Battle routes
	battles := v1.Group("/battles")
	battles.Use(custommiddleware.RateLimitMiddleware())
	battles.Use(custommiddleware.UUIDValidationMiddleware(m.respWriter))
	{
		battles.POST("/challenge", m.battleHandler.Challenge)                    // 发起挑战
		battles.POST("/:battle_id/accept", m.battleHandler.Accept)               // 接受挑战
		battles.POST("/:battle_id/reject", m.battleHandler.Reject)               // 拒绝挑战
		battles.GET("/:battle_id", m.battleHandler.GetBattle)                    // 查询战斗状态
		battles.POST("/:battle_id/actions", m.battleHandler.PerformAction)       // 提交回合动作
		battles.POST("/:battle_id/ready", m.battleHandler.SetReady)              // 标记就绪
		battles.POST("/:battle_id/socket", m.battleHandler.RegisterSocket)       // 登记实时连接
	}

	// Health check
	m.httpServer.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status": "ok",
			"module": "battle",
		})
	})

	// Prometheus metrics endpoint
	m.httpServer.GET("/metrics", metrics.EchoHandler())

	fmt.Println("[Battle Module] Routes configured successfully")
	fmt.Println("[Battle Module] Battle API routes: /api/v1/battles/*")
	fmt.Println("[Battle Module] Prometheus metrics available at /metrics")
}

// startHTTPServer starts HTTP server
func (m *BattleModule) startHTTPServer(settings *conf.ModuleSettings) {
	// Read HTTP port from environment variable first
	port := os.Getenv("BATTLE_HTTP_PORT")
	if port == "" {
		// Fallback to config file
		if settings != nil && settings.Settings != nil {
			portInterface, ok := settings.Settings["http_port"]
			if ok {
				port, _ = portInterface.(string)
			}
		}
	}

	if port == "" {
		port = "8073" // Default port
	}

	fmt.Printf("[Battle Module] Starting HTTP server on port %s\n", port)

	if err := m.httpServer.Start(":" + port); err != nil {
		fmt.Printf("[Battle Module] HTTP server error: %v\n", err)
	}
}

// Run module run
func (m *BattleModule) Run(closeSig chan bool) {
	fmt.Println("[Battle Module] Started successfully")
	<-closeSig
}

// OnDestroy module destroy
func (m *BattleModule) OnDestroy() {
	// Stop cron tasks
	if m.cleanupTask != nil {
		m.cleanupTask.Stop()
		fmt.Println("[Battle Module] Cron tasks stopped")
	}

	// Close HTTP server
	if m.httpServer != nil {
		if err := m.httpServer.Close(); err != nil {
			fmt.Printf("[Battle Module] Failed to close HTTP server: %v\n", err)
		} else {
			fmt.Println("[Battle Module] HTTP server closed")
		}
	}

	// Close database connection
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			fmt.Printf("[Battle Module] Failed to close database: %v\n", err)
		} else {
			fmt.Println("[Battle Module] Database connection closed")
		}
	}

	m.BaseModule.OnDestroy()
	fmt.Println("[Battle Module] Destroyed")
}

// Module creates Battle module instance
func Module() module.Module {
	return new(BattleModule)
}

// startDBPoolMonitoring 启动数据库连接池监控
// 每 30 秒报告一次连接池统计信息到 Prometheus
func (m *BattleModule) startDBPoolMonitoring(db *sql.DB) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := db.Stats()

		// 记录数据库连接池指标
		metrics.DefaultResourceMetrics.RecordDBPoolStats(
			metrics.GetServiceName(),
			"postgres",            // 数据库名称
			stats.OpenConnections, // 当前打开的连接数
			stats.InUse,           // 正在使用的连接数
			stats.Idle,            // 空闲连接数
			25,                    // 最大连接数（与 SetMaxOpenConns 保持一致）
			stats.WaitCount,       // 等待连接的总次数
			stats.WaitDuration,    // 等待连接的总时长
		)
	}
}

// setupRPCMethods 注册 RPC 方法
// 供 socket 网关调用，实时推送走 NATS
func (m *BattleModule) setupRPCMethods() {
	m.GetServer().RegisterGO("PerformAction", m.battleRPCHandler.PerformAction)
	m.GetServer().RegisterGO("GetBattle", m.battleRPCHandler.GetBattle)

	fmt.Println("[Battle Module] RPC methods registered:")
	fmt.Println("  ✓ PerformAction - 提交回合动作")
	fmt.Println("  ✓ GetBattle - 查询战斗状态")
}
