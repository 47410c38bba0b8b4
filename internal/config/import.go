package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Import struct {
	Dev bool `envconfig:"DEV" default:"true"`
	DB
}

func NewImport() (*Import, error) {
	res := &Import{}
	if err := envconfig.Process("IMPORT", res); err != nil {
		return nil, fmt.Errorf("parse import environment: %w", err)
	}
	return res, nil
}
