package main

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"starwish/config"
	"starwish/internal/handler"
	"starwish/internal/middleware"
	"starwish/internal/model"
	"starwish/web"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库（使用配置的连接池参数）
	dbConfig := model.DBConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
	if err := model.InitDBWithConfig(cfg.Database.DSN(), dbConfig); err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}

	// 初始化限流与黑名单缓存
	middleware.InitRateLimiters(
		cfg.Security.RateLimitAPI,
		cfg.Security.RateLimitAPIBurst,
		cfg.Security.RateLimitOpen,
		cfg.Security.RateLimitOpenBurst,
	)
	middleware.SetIPBlacklistCacheTTL(cfg.Security.IPBlacklistCacheTTL)

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)

	// 创建路由
	r := gin.Default()

	// 加载模板和静态文件 (根据构建模式自动选择嵌入或文件系统)
	funcMap := template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	}
	if err := web.LoadTemplates(r, funcMap); err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}
	if err := web.SetupStatic(r); err != nil {
		log.Fatalf("Failed to setup static files: %v", err)
	}

	// 打印运行模式
	if web.IsEmbedded() {
		log.Println("Running in RELEASE mode (embedded resources)")
	} else {
		log.Println("Running in DEV mode (filesystem resources)")
	}

	// 注册路由
	registerRoutes(r, cfg)

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("StarWish server starting on %s", addr)

	go func() {
		if err := r.Run(addr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	log.Println("Server exited")
}

// registerRoutes 注册路由
func registerRoutes(r *gin.Engine, cfg *config.Config) {
	// CORS（使用配置的域名白名单）
	r.Use(middleware.CORSWithConfig(cfg.Security.CORSAllowOrigins))

	// 创建处理器
	authHandler := handler.NewAuthHandler(cfg)
	wishHandler := handler.NewWishHandler(cfg)
	chainHandler := handler.NewChainHandler(cfg)
	blindBoxHandler := handler.NewBlindBoxHandler(cfg)
	collectionHandler := handler.NewCollectionHandler(cfg)

	// 单页应用入口，?box=分享码 由前端路由处理
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", nil)
	})

	// ============ 公开接口 ============
	api := r.Group("/api")
	api.Use(middleware.IPBlacklistCheck())
	api.Use(middleware.APILogger())
	api.Use(middleware.RateLimit())
	{
		// 注册/登录
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// 盲盒分享页信息
		api.GET("/blindbox/:code", blindBoxHandler.Info)

		// 揭晓（单独的更严限流）
		api.POST("/blindbox/:code/open", middleware.OpenRateLimit(), middleware.OptionalUserAuth(cfg), blindBoxHandler.Open)

		// 已揭晓心愿（匿名指纹或登录身份）
		api.GET("/collection", middleware.OptionalUserAuth(cfg), collectionHandler.List)
		api.PUT("/collection/:id", middleware.OptionalUserAuth(cfg), collectionHandler.Update)
	}

	// ============ 需登录接口 ============
	authed := r.Group("/api")
	authed.Use(middleware.IPBlacklistCheck())
	authed.Use(middleware.APILogger())
	authed.Use(middleware.RateLimit())
	authed.Use(middleware.UserAuth(cfg))
	{
		// 账号
		authed.GET("/auth/profile", authHandler.Profile)
		authed.PUT("/auth/profile", authHandler.UpdateProfile)
		authed.POST("/auth/password", authHandler.ChangePassword)

		// 心愿管理
		authed.POST("/wishes", wishHandler.Create)
		authed.GET("/wishes", wishHandler.List)
		authed.GET("/wishes/:id", wishHandler.Get)
		authed.PUT("/wishes/:id", wishHandler.Update)
		authed.DELETE("/wishes/:id", wishHandler.Delete)

		// 星链管理
		authed.POST("/chains", chainHandler.Create)
		authed.GET("/chains", chainHandler.List)
		authed.GET("/chains/:id", chainHandler.Get)
		authed.POST("/chains/:id/deactivate", chainHandler.Deactivate)
		authed.GET("/chains/:id/qrcode", chainHandler.QRCode)
		authed.GET("/chains/events", chainHandler.Events)

		// 指纹迁移
		authed.POST("/collection/migrate", collectionHandler.Migrate)
	}

	// 健康检查 - 简单版本（用于负载均衡器）
	r.GET("/health", func(c *gin.Context) {
		if err := model.CheckDBHealth(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// 健康检查 - 详细版本（用于监控系统）
	r.GET("/health/detail", func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
		}

		dbStatus := "ok"
		if err := model.CheckDBHealth(); err != nil {
			dbStatus = "error: " + err.Error()
			health["status"] = "degraded"
		}
		health["database"] = gin.H{
			"status": dbStatus,
			"stats":  model.GetDBStats(),
		}

		statusCode := http.StatusOK
		if health["status"] == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	})
}
