package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sat_practice_backend/internal/config"
	"sat_practice_backend/internal/controller"
	"sat_practice_backend/internal/repository"
	"sat_practice_backend/internal/service"
	"sat_practice_backend/internal/util"
	"sat_practice_backend/pkg/configwatcher"
	"sat_practice_backend/pkg/database"
	"sat_practice_backend/pkg/logger"
	"sat_practice_backend/pkg/monitoring"
	"sat_practice_backend/pkg/security"
	"sat_practice_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigPath      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	limiter         *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	question   *repository.QuestionRepository
	mistake    *repository.MistakeRepository
	submission *repository.SubmissionRepository
	attempt    *repository.AttemptRepository
	exam       *repository.ExamRepository
	practice   *repository.PracticeSessionRepository
	scoped     *repository.ScopedAttemptWriter
	drafts     service.DraftStore
}

type services struct {
	storage    *service.StorageService
	mistake    *service.MistakeService
	practice   *service.PracticeSessionService
	assignment *service.RemedialAssignmentService
	sessions   *service.SessionCache
}

type controllers struct {
	mistake    *controller.MistakeController
	practice   *controller.PracticeController
	assignment *controller.RemedialAssignmentController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	repos := &repositories{
		user:       repository.NewUserRepository(db),
		question:   repository.NewQuestionRepository(db),
		mistake:    repository.NewMistakeRepository(db),
		submission: repository.NewSubmissionRepository(db),
		attempt:    repository.NewAttemptRepository(db),
		exam:       repository.NewExamRepository(db),
		practice:   repository.NewPracticeSessionRepository(db),
		scoped:     repository.NewScopedAttemptWriter(db, cfg.Database.RLSRole),
	}

	if rdb != nil {
		repos.drafts = repository.NewRedisDraftStore(rdb, cfg.Assignment.DraftTTL)
	} else {
		logger.Log.Warn("Redis disabled, assignment drafts are kept in memory")
		repos.drafts = repository.NewMemoryDraftStore(cfg.Assignment.DraftTTL)
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.mistake = service.NewMistakeService(
		repos.mistake,
		repos.submission,
		repos.attempt,
		repos.question,
		s.storage,
		cfg.Session.SubmissionLimit,
		cfg.Session.FetchConcurrency,
	)
	s.practice = service.NewPracticeSessionService(
		repos.scoped,
		repos.attempt,
		repos.question,
		repos.practice,
		s.mistake,
		cfg.Practice,
	)
	s.assignment = service.NewRemedialAssignmentService(
		repos.drafts,
		repos.exam,
		repos.user,
		s.mistake,
		cfg.Assignment,
	)
	s.sessions = service.NewSessionCache(
		repos.user.FindByID,
		cfg.Session.ProfileTTL,
		cfg.Session.FetchMaxAttempts,
		util.ConstantPolicy(cfg.Session.FetchRetryDelay),
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		mistake:    controller.NewMistakeController(s.mistake),
		practice:   controller.NewPracticeController(s.practice),
		assignment: controller.NewRemedialAssignmentController(s.assignment),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// registerReloadable 配置文件变化后可在线生效的部分
func (a *App) registerReloadable() {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.limiter.Update(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		if cfg.Session.ProfileTTL > 0 {
			a.services.sessions.SetTTL(cfg.Session.ProfileTTL)
		}
	})
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config:     cfg,
		ConfigPath: "configs/config.yaml",
		DB:         db,
	}

	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("sat-practice", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, services, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.registerReloadable()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go a.limiter.Run(bgCtx.Done())
	go func() {
		if err := configwatcher.WatchConfig(bgCtx, a.ConfigPath, a.applyConfig); err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
