package app

import (
	"context"
	"os"
	"path"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/mallkit/mallkit/config"
	"github.com/mallkit/mallkit/internal/domain"
	"github.com/mallkit/mallkit/internal/order"
	"github.com/mallkit/mallkit/internal/session"
)

type Application struct {
	appConfig    *config.AppConfig
	gormDB       *gorm.DB
	sched        *cron.Cron
	sessionStore session.Store
	sessions     *session.Manager
}

// Ensure Application implements all interfaces
var (
	_ DBProvider       = (*Application)(nil)
	_ ConfigProvider   = (*Application)(nil)
	_ SessionProvider  = (*Application)(nil)
	_ SettingsProvider = (*Application)(nil)
	_ AppContext       = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

// Sessions returns the per-user session manager
func (a *Application) Sessions() *session.Manager {
	return a.sessions
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	cfg.InitDirs()

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)

	// Initialize database connection
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.checkSuper()
	a.checkSettings()
	if cfg.Store.DemoSeed {
		a.checkProducts()
	}

	// Initialize the session mirror store and manager
	store, err := session.NewBoltStore(path.Join(cfg.GetDataDir(), "sessions.db"))
	if err != nil {
		zap.S().Errorf("session store init failed: %v", err)
	} else {
		a.sessionStore = store
	}
	a.sessions = session.NewManager(a.sessionStore)

	a.initJob()
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEBUG_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		if err := a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	} else {
		if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	}
	return nil
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// GetSettingsStringValue retrieves a settings row value, empty when missing
func (a *Application) GetSettingsStringValue(category, key string) string {
	var cfg domain.SysConfig
	err := a.gormDB.Where("type = ? and name = ?", category, key).First(&cfg).Error
	if err != nil {
		return ""
	}
	return cfg.Value
}

// GetSettingsFloat64Value retrieves a numeric settings row value
func (a *Application) GetSettingsFloat64Value(category, key string, fallback float64) float64 {
	value := a.GetSettingsStringValue(category, key)
	if value == "" {
		return fallback
	}
	parsed, err := cast.ToFloat64E(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Pricing resolves the checkout parameters from settings rows, falling back
// to the static config
func (a *Application) Pricing() order.Pricing {
	return order.Pricing{
		TaxRate:       a.GetSettingsFloat64Value("store", "TaxRate", a.appConfig.Store.TaxRate),
		FreeShipAbove: a.GetSettingsFloat64Value("store", "FreeShipAbove", a.appConfig.Store.FreeShipAbove),
		ShippingFee:   a.GetSettingsFloat64Value("store", "ShippingFee", a.appConfig.Store.ShippingFee),
	}
}

// StartBackgroundJobs starts the cron runner
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	if a.sched != nil {
		a.sched.Start()
	}
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.sessionStore != nil {
		_ = a.sessionStore.Close()
	}
	_ = zap.L().Sync()
}
