package app

import (
	"context"
	"eduflow_backend/internal/config"
	"eduflow_backend/internal/controller"
	"eduflow_backend/internal/repository"
	"eduflow_backend/internal/service"
	"eduflow_backend/internal/util"
	"eduflow_backend/pkg/configwatcher"
	"eduflow_backend/pkg/database"
	"eduflow_backend/pkg/logger"
	"eduflow_backend/pkg/monitoring"
	"eduflow_backend/pkg/security"
	"eduflow_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	lesson      *repository.LessonRepository
	quiz        *repository.QuizRepository
	enrollment  *repository.EnrollmentRepository
	certificate *repository.CertificateRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	course     *service.CourseService
	quiz       *service.QuizService
	enrollment *service.EnrollmentService
	progress   *service.ProgressService
	cert       *service.CertificateService
	completion *service.CompletionService
	dashboard  *service.DashboardService
}

type controllers struct {
	auth       *controller.AuthController
	course     *controller.CourseController
	quiz       *controller.QuizController
	enrollment *controller.EnrollmentController
	dashboard  *controller.DashboardController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		lesson:      repository.NewLessonRepository(db),
		quiz:        repository.NewQuizRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		certificate: repository.NewCertificateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.course = service.NewCourseService(repos.course, repos.lesson, rdb, s.storage)
	s.quiz = service.NewQuizService(repos.quiz, repos.course)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course)
	s.progress = service.NewProgressService(repos.enrollment, repos.lesson)
	s.cert = service.NewCertificateService(repos.certificate, s.storage, &cfg.Certificate)
	s.completion = service.NewCompletionService(s.progress, s.cert, repos.certificate, repos.user, repos.course)
	s.dashboard = service.NewDashboardService(repos.enrollment, repos.course, repos.quiz, repos.certificate)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		course:     controller.NewCourseController(s.course, s.quiz),
		quiz:       controller.NewQuizController(s.quiz),
		enrollment: controller.NewEnrollmentController(s.enrollment, s.completion, s.cert),
		dashboard:  controller.NewDashboardController(s.dashboard),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Redis 不可用时降级运行，详情页缓存关闭
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, caching disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("eduflow-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 配置热加载：目前只有CORS白名单和限流阈值需要重启，
	// 热加载先刷新内存配置，记录变更供排查
	go configwatcher.WatchConfig(filepath.Join("configs", "config.yaml"), func(newCfg *config.Config) {
		app.Config.CORS = newCfg.CORS
		app.Config.RateLimit = newCfg.RateLimit
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
