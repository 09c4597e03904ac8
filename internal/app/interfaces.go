package app

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/mallkit/mallkit/config"
	"github.com/mallkit/mallkit/internal/order"
	"github.com/mallkit/mallkit/internal/session"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SessionProvider provides the per-user session manager
type SessionProvider interface {
	Sessions() *session.Manager
}

// SettingsProvider provides runtime-tunable settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsFloat64Value(category, key string, fallback float64) float64
	Pricing() order.Pricing
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// AppContext combines all provider interfaces for full application context.
// Handlers should depend on specific providers or this combined interface.
type AppContext interface {
	DBProvider
	ConfigProvider
	SessionProvider
	SettingsProvider
	SchedulerProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
