package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type (
	DigestSchedule struct {
		Hour     int    `envconfig:"DIGEST_HOUR" default:"19"`
		Location string `envconfig:"DIGEST_LOCATION" default:"Europe/Kyiv"`
	}

	Bot struct {
		Dev           bool   `envconfig:"DEV" default:"false"`
		TelegramToken string `envconfig:"TELEGRAM_TOKEN"`
		DB
		DigestSchedule
	}
)

func (s DigestSchedule) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Location)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	return loc, nil
}

func (s DigestSchedule) MustTimeLocation() *time.Location {
	loc, err := s.TimeLocation()
	if err != nil {
		panic(fmt.Sprintf("failed to load location %s: %v", s.Location, err))
	}
	return loc
}

func NewBot(ctx context.Context, fetch ParamsFetcher) (*Bot, error) {
	res := &Bot{}
	if err := envconfig.Process("BOT", res); err != nil {
		return nil, fmt.Errorf("parse bot environment: %w", err)
	}

	if !res.Dev {
		params, err := fetch(ctx, ssmPrefix+"telegram-token", ssmPrefix+"db-path")
		if err != nil {
			return nil, fmt.Errorf("get bot parameters: %w", err)
		}
		res.TelegramToken = params[ssmPrefix+"telegram-token"]
		res.DB.Path = params[ssmPrefix+"db-path"]
	}

	var errs []error
	if res.TelegramToken == "" {
		errs = append(errs, errors.New("telegram token is required"))
	}
	if res.DB.Path == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if res.DigestSchedule.Hour < 0 || res.DigestSchedule.Hour > 23 {
		errs = append(errs, fmt.Errorf("digest hour %d must be in range 0-23", res.DigestSchedule.Hour))
	}
	if _, err := res.DigestSchedule.TimeLocation(); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone: %w", err))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid bot config: %w", errors.Join(errs...))
	}

	return res, nil
}
