package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"gopkg.in/yaml.v3"
)

type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Loader resolves a Config. Zero fields fall back to the process
// environment and the default AWS configuration.
type Loader struct {
	LookupEnv func(string) (string, bool)
	SSM       SSMAPI
}

func Load(ctx context.Context, path string) (*Config, error) {
	return (&Loader{}).Load(ctx, path)
}

func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	if l.LookupEnv == nil {
		l.LookupEnv = os.LookupEnv
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v, ok := l.LookupEnv("TIMECLOCK_SSM_PARAMETER"); ok && v != "" {
		cfg.SSMParameter = v
	}
	if cfg.SSMParameter != "" {
		if err := l.mergeSSM(ctx, &cfg); err != nil {
			return nil, err
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) mergeSSM(ctx context.Context, cfg *Config) error {
	client := l.SSM
	if client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		client = ssm.NewFromConfig(awsCfg)
	}

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(cfg.SSMParameter),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to get parameter %s: %w", cfg.SSMParameter, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return fmt.Errorf("parameter %s is empty", cfg.SSMParameter)
	}
	if err := yaml.Unmarshal([]byte(*out.Parameter.Value), cfg); err != nil {
		return fmt.Errorf("failed to unmarshal parameter %s: %w", cfg.SSMParameter, err)
	}
	return nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := l.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		if v, ok := l.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		if v, ok := l.LookupEnv(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
		return nil
	}

	str("DSN", &cfg.Database.DSN)
	str("TIMECLOCK_DB_LOG_LEVEL", &cfg.Database.LogLevel)
	str("TIMECLOCK_DEVICE_SECRET", &cfg.Devices.Secret)
	str("SLACK_BOT_TOKEN", &cfg.Slack.Token)
	str("SLACK_INFO_CHANNEL", &cfg.Slack.InfoChannel)
	str("SLACK_ERROR_CHANNEL", &cfg.Slack.ErrorChannel)
	str("TIMECLOCK_ARCHIVE_BUCKET", &cfg.Archive.Bucket)
	str("TIMECLOCK_HTTP_ADDR", &cfg.HTTP.Addr)
	str("TIMECLOCK_JWT_SECRET", &cfg.HTTP.JWTSecret)
	str("TIMECLOCK_LOG_LEVEL", &cfg.Log.Level)
	str("TIMECLOCK_LOG_FORMAT", &cfg.Log.Format)

	for _, err := range []error{
		num("TIMECLOCK_DB_MAX_CONNECTIONS", &cfg.Database.MaxConnections),
		num("TIMECLOCK_SYNC_CONCURRENCY", &cfg.Devices.Concurrency),
		dur("TIMECLOCK_DEVICE_TIMEOUT", &cfg.Devices.Timeout),
	} {
		if err != nil {
			return fmt.Errorf("invalid environment: %w", err)
		}
	}
	return nil
}
