package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type (
	HTTP struct {
		ProcessTimeout time.Duration `envconfig:"PROCESS_TIMEOUT" default:"10s"`
		RateLimit      float64       `envconfig:"RATE_LIMIT" default:"25"`
		CORS
		Cookie
		JWT
	}

	// API keeps nested groups embedded so every key is read as API_<NAME>.
	API struct {
		Dev           bool          `envconfig:"DEV" default:"false"`
		LinkExpiresIn time.Duration `envconfig:"LINK_EXPIRES_IN" default:"10m"`
		DB
		HTTP
		Server
	}
)

func NewAPI(ctx context.Context, fetch ParamsFetcher) (*API, error) {
	res := &API{}
	if err := envconfig.Process("API", res); err != nil {
		return nil, fmt.Errorf("parse api environment: %w", err)
	}

	if !res.Dev {
		params, err := fetch(ctx, ssmPrefix+"jwt-secret", ssmPrefix+"db-path")
		if err != nil {
			return nil, fmt.Errorf("get api parameters: %w", err)
		}
		res.HTTP.JWT.Secret = params[ssmPrefix+"jwt-secret"]
		res.DB.Path = params[ssmPrefix+"db-path"]
	}

	errs := validateHTTP(res.HTTP.JWT, res.HTTP.Cookie, res.HTTP.RateLimit, res.HTTP.ProcessTimeout)
	if res.DB.Path == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if res.LinkExpiresIn <= 0 {
		errs = append(errs, errors.New("link expires in must be positive"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid api config: %w", errors.Join(errs...))
	}

	return res, nil
}
