package config

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system level config
type SysConfig struct {
	Appname  string `yaml:"appname" json:"appname"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// WebConfig web server config
type WebConfig struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	Secret string `yaml:"secret" json:"secret"`
}

// DBConfig database config
type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// LogConfig logger config
type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

// StoreConfig storefront business config
type StoreConfig struct {
	AdminName     string  `yaml:"admin_name" json:"admin_name"`
	AdminEmail    string  `yaml:"admin_email" json:"admin_email"`
	AdminPassword string  `yaml:"admin_password" json:"admin_password"`
	TaxRate       float64 `yaml:"tax_rate" json:"tax_rate"`
	FreeShipAbove float64 `yaml:"free_ship_above" json:"free_ship_above"`
	ShippingFee   float64 `yaml:"shipping_fee" json:"shipping_fee"`
	DemoSeed      bool    `yaml:"demo_seed" json:"demo_seed"`
}

type AppConfig struct {
	System   SysConfig   `yaml:"system" json:"system"`
	Web      WebConfig   `yaml:"web" json:"web"`
	Database DBConfig    `yaml:"database" json:"database"`
	Logger   LogConfig   `yaml:"logger" json:"logger"`
	Store    StoreConfig `yaml:"store" json:"store"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) InitDirs() {
	_ = os.MkdirAll(path.Join(c.System.Workdir, "logs"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "data"), 0755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appname:  "MallKit",
		Location: "Asia/Shanghai",
		Workdir:  "/var/mallkit",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1816,
		Secret: "9b6de5cc-mall-1816-kit-0cc808131e1c",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "mallkit",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/mallkit/mallkit.log",
	},
	Store: StoreConfig{
		AdminName:     "administrator",
		AdminEmail:    "admin@mallkit.io",
		AdminPassword: "mallkit",
		TaxRate:       0.1,
		FreeShipAbove: 50,
		ShippingFee:   10,
		DemoSeed:      false,
	},
}

func setEnvValue(name string, val *string) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

func setEnvIntValue(name string, val *int) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = cast.ToInt(evalue)
	}
}

func setEnvFloatValue(name string, val *float64) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = cast.ToFloat64(evalue)
	}
}

// LoadConfig loads the yaml config file and applies environment overrides.
// A missing file is not an error, defaults are used.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			cfg = new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "parse config %s error: %s\n", cfile, err)
				cfg = DefaultAppConfig
			}
		}
	}

	setEnvValue("MALLKIT_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("MALLKIT_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("MALLKIT_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("MALLKIT_WEB_PORT", &cfg.Web.Port)
	setEnvValue("MALLKIT_WEB_SECRET", &cfg.Web.Secret)

	setEnvValue("MALLKIT_DB_TYPE", &cfg.Database.Type)
	setEnvValue("MALLKIT_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("MALLKIT_DB_PORT", &cfg.Database.Port)
	setEnvValue("MALLKIT_DB_NAME", &cfg.Database.Name)
	setEnvValue("MALLKIT_DB_USER", &cfg.Database.User)
	setEnvValue("MALLKIT_DB_PWD", &cfg.Database.Passwd)

	setEnvValue("MALLKIT_SUPER_ADMIN_NAME", &cfg.Store.AdminName)
	setEnvValue("MALLKIT_SUPER_ADMIN_EMAIL", &cfg.Store.AdminEmail)
	setEnvValue("MALLKIT_SUPER_ADMIN_PASSWORD", &cfg.Store.AdminPassword)
	setEnvFloatValue("MALLKIT_STORE_TAX_RATE", &cfg.Store.TaxRate)
	setEnvFloatValue("MALLKIT_STORE_FREE_SHIP_ABOVE", &cfg.Store.FreeShipAbove)
	setEnvFloatValue("MALLKIT_STORE_SHIPPING_FEE", &cfg.Store.ShippingFee)
	setEnvBoolValue("MALLKIT_STORE_DEMO_SEED", &cfg.Store.DemoSeed)

	return cfg
}
