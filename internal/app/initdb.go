package app

import (
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mallkit/mallkit/config"
	"github.com/mallkit/mallkit/internal/domain"
	"github.com/mallkit/mallkit/pkg/common"
)

func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	logLevel := gormlogger.Silent
	if cfg.Debug {
		logLevel = gormlogger.Info
	}
	gormConfig := &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel)}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dialector = sqlite.Open(path.Join(workdir, "data", cfg.Name+".db"))
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Passwd, cfg.Name, cfg.Port)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		zap.S().Panicf("database connect error: %v", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		if cfg.MaxConn > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxConn)
		}
		if cfg.IdleConn > 0 {
			sqlDB.SetMaxIdleConns(cfg.IdleConn)
		}
	}
	return db
}

// checkSuper ensures the super admin account exists. Its email is the
// reserved address that registration always rejects.
func (a *Application) checkSuper() {
	adminEmail := common.NormalizeEmail(a.appConfig.Store.AdminEmail)

	var admin domain.User
	err := a.gormDB.Where("email = ?", adminEmail).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, herr := bcrypt.GenerateFromPassword([]byte(a.appConfig.Store.AdminPassword), bcrypt.DefaultCost)
		if herr != nil {
			zap.L().Error("failed to hash super admin password", zap.Error(herr))
			return
		}
		if err := a.gormDB.Create(&domain.User{
			ID:        common.UUIDint64(),
			Name:      a.appConfig.Store.AdminName,
			Email:     adminEmail,
			Password:  string(hashed),
			Role:      domain.RoleAdmin,
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized super admin account", zap.String("email", adminEmail))
		}
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
	case admin.Role != domain.RoleAdmin:
		if err := a.gormDB.Model(&domain.User{}).Where("id = ?", admin.ID).
			Updates(map[string]interface{}{"role": domain.RoleAdmin, "updated_at": time.Now()}).Error; err != nil {
			zap.L().Error("failed to repair super admin role", zap.Error(err))
		} else {
			zap.L().Warn("repaired super admin role", zap.String("email", adminEmail))
		}
	}
}

// checkSettings initializes the runtime-tunable settings rows
func (a *Application) checkSettings() {
	defaults := []domain.SysConfig{
		{Sort: 1, Type: "store", Name: "TaxRate",
			Value:  fmt.Sprintf("%g", a.appConfig.Store.TaxRate),
			Remark: "Checkout tax rate applied to the subtotal"},
		{Sort: 2, Type: "store", Name: "FreeShipAbove",
			Value:  fmt.Sprintf("%g", a.appConfig.Store.FreeShipAbove),
			Remark: "Subtotal above which shipping is free"},
		{Sort: 3, Type: "store", Name: "ShippingFee",
			Value:  fmt.Sprintf("%g", a.appConfig.Store.ShippingFee),
			Remark: "Flat shipping fee below the free-shipping threshold"},
	}

	for _, item := range defaults {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", item.Type, item.Name).
			Count(&count)
		if count == 0 {
			item.ID = common.UUIDint64()
			a.gormDB.Create(&item)
			zap.L().Info("initialized config",
				zap.String("key", item.Type+"."+item.Name),
				zap.String("default", item.Value))
		}
	}
}

// checkProducts seeds a demo catalog for development setups
func (a *Application) checkProducts() {
	defaultProducts := []domain.Product{
		{Name: "demo-widget-basic", Description: "Entry level demo widget for testing the storefront",
			Price: 9.99, Category: "Widgets", Brand: "Acme", Stock: 100},
		{Name: "demo-widget-pro", Description: "Professional demo widget with all the extras",
			Price: 24.5, Category: "Widgets", Brand: "Acme", Stock: 50},
		{Name: "demo-gadget-mini", Description: "Compact demo gadget, fits in any pocket",
			Price: 14.25, Category: "Gadgets", Brand: "Generic", Stock: 200},
		{Name: "demo-gadget-max", Description: "Oversized demo gadget for serious collectors",
			Price: 199, Category: "Gadgets", Brand: "Globex", Stock: 5},
	}

	for _, p := range defaultProducts {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("LOWER(name) = ?", p.Name).Count(&count)
		if count == 0 {
			p.ID = common.UUIDint64()
			p.CreatedAt = time.Now()
			p.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create demo product", zap.String("name", p.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized demo product", zap.String("name", p.Name))
			}
		}
	}
}
