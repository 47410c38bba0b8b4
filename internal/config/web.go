package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type (
	WebHTTP struct {
		ProcessTimeout time.Duration `envconfig:"PROCESS_TIMEOUT" default:"10s"`
		RateLimit      float64       `envconfig:"RATE_LIMIT" default:"10"`
		Cookie
		JWT
	}

	Web struct {
		Dev bool `envconfig:"DEV" default:"false"`
		DB
		WebHTTP
		Server
	}
)

func NewWeb(ctx context.Context, fetch ParamsFetcher) (*Web, error) {
	res := &Web{}
	if err := envconfig.Process("WEB", res); err != nil {
		return nil, fmt.Errorf("parse web environment: %w", err)
	}

	if !res.Dev {
		params, err := fetch(ctx, ssmPrefix+"jwt-secret", ssmPrefix+"db-path")
		if err != nil {
			return nil, fmt.Errorf("get web parameters: %w", err)
		}
		res.WebHTTP.JWT.Secret = params[ssmPrefix+"jwt-secret"]
		res.DB.Path = params[ssmPrefix+"db-path"]
	}

	errs := validateHTTP(res.WebHTTP.JWT, res.WebHTTP.Cookie, res.WebHTTP.RateLimit, res.WebHTTP.ProcessTimeout)
	if res.DB.Path == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid web config: %w", errors.Join(errs...))
	}

	return res, nil
}
