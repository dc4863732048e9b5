// Package config loads the service configuration from an optional YAML file,
// an optional AWS SSM parameter and environment variables, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"axiapac.com/timeclock/scheduler"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	// SSMParameter names a SecureString holding a YAML document merged over
	// the file.
	SSMParameter string           `yaml:"ssmParameter"`
	Database     DatabaseConfig   `yaml:"database"`
	Devices      DevicesConfig    `yaml:"devices"`
	Attendance   AttendanceConfig `yaml:"attendance"`
	Schedules    scheduler.Specs  `yaml:"schedules"`
	Slack        SlackConfig      `yaml:"slack"`
	Archive      ArchiveConfig    `yaml:"archive"`
	HTTP         HTTPConfig       `yaml:"http"`
	Log          LogConfig        `yaml:"log"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn" validate:"required_without=Host"`
	// Host, Username, Password and Name compose a MySQL DSN when DSN is empty.
	Host           string `yaml:"host"`
	Username       string `yaml:"username" validate:"required_with=Host"`
	Password       string `yaml:"password"`
	Name           string `yaml:"name" validate:"required_with=Host"`
	MaxConnections int    `yaml:"maxConnections" validate:"gte=1,lte=200"`
	LogLevel       string `yaml:"logLevel" validate:"oneof=silent error warn info"`
}

// GetDSN returns DSN or builds one from the host entry.
func (db DatabaseConfig) GetDSN() string {
	if db.DSN != "" {
		return db.DSN
	}
	host := db.Host
	if !strings.Contains(host, ":") {
		host = host + ":3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", db.Username, db.Password, host, db.Name)
}

type DevicesConfig struct {
	// Secret is the base64 key signing bridge tokens.
	Secret         string        `yaml:"secret" validate:"omitempty,base64"`
	Scheme         string        `yaml:"scheme" validate:"oneof=http https"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	DeadlineFactor int           `yaml:"deadlineFactor" validate:"gte=1,lte=20"`
	Concurrency    int           `yaml:"concurrency" validate:"gte=1,lte=64"`
	MaxIdle        time.Duration `yaml:"maxIdle" validate:"gt=0"`
}

type AttendanceConfig struct {
	// MinimumHours flags days worked below it; 0 disables the check.
	MinimumHours float64 `yaml:"minimumHours" validate:"gte=0,lte=24"`
}

type SlackConfig struct {
	Token        string `yaml:"token"`
	InfoChannel  string `yaml:"infoChannel" validate:"required_with=Token"`
	ErrorChannel string `yaml:"errorChannel"`
}

type ArchiveConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
	// JWTSecret is the base64 key verifying operator tokens.
	JWTSecret string `yaml:"jwtSecret" validate:"omitempty,base64"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			MaxConnections: 10,
			LogLevel:       "warn",
		},
		Devices: DevicesConfig{
			Scheme:         "http",
			Timeout:        10 * time.Second,
			DeadlineFactor: 4,
			Concurrency:    4,
			MaxIdle:        5 * time.Minute,
		},
		Schedules: scheduler.DefaultSpecs(),
		Archive:   ArchiveConfig{Prefix: "raw-punches"},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
