package app

import (
	"context"
	"fmt"
	"learning_portal/internal/config"
	"learning_portal/internal/controller"
	"learning_portal/internal/repository"
	"learning_portal/internal/service"
	"learning_portal/pkg/apiclient"
	"learning_portal/pkg/configwatcher"
	"learning_portal/pkg/database"
	"learning_portal/pkg/logger"
	"learning_portal/pkg/monitoring"
	"learning_portal/pkg/security"
	"learning_portal/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenPurgeInterval = 10 * time.Minute

type App struct {
	Config    *config.Config
	ConfigDir string
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	API       *apiclient.Client
	Store     repository.TokenStore

	services        *services
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	auth         *repository.AuthRepository
	course       *repository.CourseRepository
	progress     *repository.ProgressRepository
	exam         *repository.ExamRepository
	homework     *repository.HomeworkRepository
	attendance   *repository.AttendanceRepository
	doubt        *repository.DoubtRepository
	notification *repository.NotificationRepository
}

type services struct {
	auth         *service.AuthService
	course       *service.CourseService
	playback     *service.PlaybackService
	exam         *service.ExamService
	practice     *service.PracticeTestService
	homework     *service.HomeworkService
	attendance   *service.AttendanceService
	leave        *service.LeaveService
	notification *service.NotificationService
	doubt        *service.DoubtService
	dashboard    *service.DashboardService
	roomHub      *service.RoomHub
	channels     *service.ChannelPool
}

type controllers struct {
	auth         *controller.AuthController
	dashboard    *controller.DashboardController
	course       *controller.CourseController
	playback     *controller.PlaybackController
	exam         *controller.ExamController
	practice     *controller.PracticeController
	homework     *controller.HomeworkController
	attendance   *controller.AttendanceController
	doubt        *controller.DoubtController
	notification *controller.NotificationController
	health       *controller.HealthController
}

// RegisterConfigCallback 配置文件热更新后依次调用
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 应用新配置；端口、令牌存储等启动期配置不会变化
func (a *App) ReloadConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.Config = cfg
	a.mu.Unlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

// initStore 按 store.driver 选择令牌存储
func (a *App) initStore(cfg *config.Config) (repository.TokenStore, error) {
	switch cfg.Store.Driver {
	case "redis":
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.Redis = rdb
		return repository.NewRedisTokenStore(rdb), nil
	case "mysql":
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.DB = db
		return repository.NewSQLTokenStore(db), nil
	default:
		return repository.NewMemoryTokenStore(), nil
	}
}

func (a *App) initRepositories(api *apiclient.Client) *repositories {
	return &repositories{
		auth:         repository.NewAuthRepository(api),
		course:       repository.NewCourseRepository(api),
		progress:     repository.NewProgressRepository(api),
		exam:         repository.NewExamRepository(api),
		homework:     repository.NewHomeworkRepository(api),
		attendance:   repository.NewAttendanceRepository(api),
		doubt:        repository.NewDoubtRepository(api),
		notification: repository.NewNotificationRepository(api),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.auth, a.Store, security.NewSealer(cfg.Store.SealKey))
	s.course = service.NewCourseService(repos.course, repos.progress)
	s.playback = service.NewPlaybackService(repos.progress, cfg.Playback)
	s.exam = service.NewExamService(repos.exam)
	s.practice = service.NewPracticeTestService(repos.exam)
	s.homework = service.NewHomeworkService(repos.homework)
	s.attendance = service.NewAttendanceService(repos.attendance)
	s.leave = service.NewLeaveService(repos.attendance)
	s.notification = service.NewNotificationService(repos.notification)

	s.roomHub = service.NewRoomHub()
	go s.roomHub.Run(a.ctx)

	s.channels = service.NewChannelPool(a.ctx, cfg.Upstream.SocketURL, cfg.Chat)
	s.doubt = service.NewDoubtService(repos.doubt, s.channels, s.roomHub)

	s.dashboard = service.NewDashboardService(s.course, s.exam, s.homework, s.notification, s.doubt)

	// 登出时释放该设备的全部本地状态
	s.auth.OnLogout(s.playback.StopDevice)
	s.auth.OnLogout(s.doubt.CloseDevice)
	s.auth.OnLogout(s.notification.Forget)
	s.auth.OnLogout(s.channels.Release)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		dashboard:    controller.NewDashboardController(s.dashboard),
		course:       controller.NewCourseController(s.course),
		playback:     controller.NewPlaybackController(s.playback),
		exam:         controller.NewExamController(s.exam),
		practice:     controller.NewPracticeController(s.practice),
		homework:     controller.NewHomeworkController(s.homework),
		attendance:   controller.NewAttendanceController(s.attendance, s.leave),
		doubt:        controller.NewDoubtController(s.doubt, s.roomHub),
		notification: controller.NewNotificationController(s.notification),
		health:       controller.NewHealthController(a.Store, s.channels, s.playback),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerConfigCallbacks(s *services) {
	a.RegisterConfigCallback(logger.SetLevel)
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.API.SetRate(cfg.Upstream.RatePerSecond, cfg.Upstream.Burst)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.playback.SetConfig(cfg.Playback)
	})
}

func (a *App) startBackgroundTasks() {
	if a.ConfigDir != "" {
		go func() {
			if err := configwatcher.WatchConfig(a.ctx, a.ConfigDir, a.ReloadConfig); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	purger, ok := a.Store.(repository.Purger)
	if !ok {
		return
	}
	go func() {
		ticker := time.NewTicker(tokenPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-a.ctx.Done():
				return
			case <-ticker.C:
				n, err := purger.PurgeExpired(a.ctx)
				if err != nil {
					logger.Log.Error("Token purge failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Log.Info("Expired tokens purged", zap.Int64("count", n))
				}
			}
		}
	}()
}

func NewApp(cfg *config.Config, configDir string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		ctx:       ctx,
		cancel:    cancel,
	}

	store, err := app.initStore(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	app.Store = store

	app.API = apiclient.New(apiclient.Config{
		BaseURL:       cfg.Upstream.BaseURL,
		Timeout:       cfg.Upstream.Timeout,
		RatePerSecond: cfg.Upstream.RatePerSecond,
		Burst:         cfg.Upstream.Burst,
	})

	repos := app.initRepositories(app.API)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services)
	app.registerConfigCallbacks(services)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("learning-portal", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services)

	app.startBackgroundTasks()

	return app, nil
}

// Shutdown 停止所有跟踪器（落盘最后位置）、聊天室和实时连接
func (a *App) Shutdown(ctx context.Context) {
	if s := a.services; s != nil {
		s.playback.Shutdown()
		s.doubt.Shutdown()
		s.roomHub.Stop()
		s.channels.Close()
	}
	a.cancel()

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
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
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	// 先停 HTTP 再落盘，避免关闭期间新建跟踪器
	a.Shutdown(ctx)

	logger.Log.Info("Server exiting")
}
