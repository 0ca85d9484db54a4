// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Printer   PrinterConfig   `mapstructure:"printer"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host" validate:"required"`
	Port         string        `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AuthEnabled    bool     `mapstructure:"auth_enabled"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// PrinterConfig represents the attached receipt printer and the rendering defaults
type PrinterConfig struct {
	ConnectionType    string           `mapstructure:"connection_type"`
	KeepOpen          bool             `mapstructure:"keep_open"`
	DefaultPaperWidth int              `mapstructure:"default_paper_width"`
	ImageWidthDots    int              `mapstructure:"image_width_dots"`
	LogoMaxWidth      int              `mapstructure:"logo_max_width"`
	QRSize            int              `mapstructure:"qr_size"`
	Codepages         []string         `mapstructure:"codepages"`
	FooterBrand       string           `mapstructure:"footer_brand"`
	LockTimeout       time.Duration    `mapstructure:"lock_timeout"`
	WriteTimeout      time.Duration    `mapstructure:"write_timeout"`
	USB               USBPortConfig    `mapstructure:"usb"`
	Serial            SerialPortConfig `mapstructure:"serial"`
	TCP               TCPPortConfig    `mapstructure:"tcp"`
}

// USBPortConfig represents USB port configuration
type USBPortConfig struct {
	VendorID     string        `mapstructure:"vendor_id"`
	ProductID    string        `mapstructure:"product_id"`
	Interface    int           `mapstructure:"interface"`
	Endpoint     int           `mapstructure:"endpoint"`
	OpenAttempts int           `mapstructure:"open_attempts"`
	OpenDelay    time.Duration `mapstructure:"open_delay"`
}

// SerialPortConfig represents serial port configuration
type SerialPortConfig struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
	DataBits int    `mapstructure:"data_bits"`
	StopBits int    `mapstructure:"stop_bits"`
	Parity   string `mapstructure:"parity"`
}

// TCPPortConfig represents raw TCP (port 9100) configuration
type TCPPortConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// DiscoveryConfig controls printer discovery
type DiscoveryConfig struct {
	USBEnabled    bool          `mapstructure:"usb_enabled"`
	SerialEnabled bool          `mapstructure:"serial_enabled"`
	ScanTimeout   time.Duration `mapstructure:"scan_timeout"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/print-bridge")

	// Environment variable support
	v.SetEnvPrefix("PRINT_BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// A missing file is fine, defaults and env cover a bare install
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// decode unmarshals and validates the configuration held by v
func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns the configuration produced by defaults alone
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "12345")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 16<<20)
	v.SetDefault("server.tls.enabled", false)

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{})
	v.SetDefault("security.auth_enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Printer defaults
	v.SetDefault("printer.connection_type", "USB")
	v.SetDefault("printer.keep_open", false)
	v.SetDefault("printer.default_paper_width", 80)
	v.SetDefault("printer.image_width_dots", 384)
	v.SetDefault("printer.logo_max_width", 200)
	v.SetDefault("printer.qr_size", 120)
	v.SetDefault("printer.codepages", []string{"cp850", "iso-8859-1", "windows-1252"})
	v.SetDefault("printer.footer_brand", "")
	v.SetDefault("printer.lock_timeout", "10s")
	v.SetDefault("printer.write_timeout", "5s")

	v.SetDefault("printer.usb.interface", 0)
	v.SetDefault("printer.usb.endpoint", 1)
	v.SetDefault("printer.usb.open_attempts", 50)
	v.SetDefault("printer.usb.open_delay", "100ms")

	v.SetDefault("printer.serial.baud_rate", 9600)
	v.SetDefault("printer.serial.data_bits", 8)
	v.SetDefault("printer.serial.stop_bits", 1)
	v.SetDefault("printer.serial.parity", "none")

	v.SetDefault("printer.tcp.port", 9100)
	v.SetDefault("printer.tcp.connect_timeout", "10s")

	// Discovery defaults
	v.SetDefault("discovery.usb_enabled", true)
	v.SetDefault("discovery.serial_enabled", true)
	v.SetDefault("discovery.scan_timeout", "10s")

	// App defaults
	v.SetDefault("app.name", "print-bridge")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Security.AuthEnabled && config.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required when auth is enabled")
	}

	if !oneOf(config.App.Environment, "development", "staging", "production", "test") {
		return fmt.Errorf("app.environment must be one of: %v", []string{"development", "staging", "production", "test"})
	}

	if !oneOf(config.Logging.Level, "debug", "info", "warn", "error", "fatal") {
		return fmt.Errorf("logging.level must be one of: %v", []string{"debug", "info", "warn", "error", "fatal"})
	}

	config.Printer.ConnectionType = strings.ToUpper(config.Printer.ConnectionType)
	if !oneOf(config.Printer.ConnectionType, "USB", "SERIAL", "TCP") {
		return fmt.Errorf("printer.connection_type must be one of: %v", []string{"USB", "SERIAL", "TCP"})
	}

	if config.Printer.DefaultPaperWidth != 58 && config.Printer.DefaultPaperWidth != 80 {
		return fmt.Errorf("printer.default_paper_width must be 58 or 80, got %d", config.Printer.DefaultPaperWidth)
	}
	if config.Printer.ImageWidthDots <= 0 {
		return fmt.Errorf("printer.image_width_dots must be positive")
	}
	if config.Printer.USB.OpenAttempts <= 0 {
		return fmt.Errorf("printer.usb.open_attempts must be positive")
	}

	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
