package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAWSRegion = "eu-central-1"

	ssmPrefix = "/linguatune/prod/"
)

type (
	// ParamsFetcher resolves secret parameters by key. FetchAWSParams is the production implementation.
	ParamsFetcher func(ctx context.Context, keys ...string) (map[string]string, error)

	DB struct {
		Path string `envconfig:"DB_PATH" default:"linguatune.db"`
	}

	CORS struct {
		AllowOrigins []string `envconfig:"ALLOW_ORIGINS" default:"http://localhost:5173"`
	}

	JWT struct {
		Issuer   string   `envconfig:"ISSUER" default:"linguatune"`
		Audience []string `envconfig:"AUDIENCE" default:"linguatune"`
		Secret   string   `envconfig:"SECRET"`
	}

	Cookie struct {
		Path            string        `envconfig:"CPATH" default:"/"` // not using PATH here because it may conflict with os.Path
		Domain          string        `envconfig:"DOMAIN" default:"localhost"`
		AccessExpiresIn time.Duration `envconfig:"ACCESS_EXPIRES_IN" default:"24h"`
	}

	Server struct {
		ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"10s"`
		Addr              string        `envconfig:"ADDR" default:":8080"`
	}
)

// LoadDotEnv loads variables from the given files (.env by default) without overriding the environment.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

func validateHTTP(jwt JWT, cookie Cookie, rateLimit float64, processTimeout time.Duration) []error {
	var errs []error
	if jwt.Secret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if len(jwt.Audience) == 0 {
		errs = append(errs, errors.New("jwt audience is required"))
	}
	if cookie.AccessExpiresIn <= 0 {
		errs = append(errs, errors.New("access expires in must be positive"))
	}
	if rateLimit <= 0 {
		errs = append(errs, fmt.Errorf("rate limit %v must be positive", rateLimit))
	}
	if processTimeout <= 0 {
		errs = append(errs, errors.New("process timeout must be positive"))
	}
	return errs
}
