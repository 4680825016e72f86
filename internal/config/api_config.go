package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

var _ APIConfig = Values{}

func (v Values) GetAPIBaseURL() string {
	return strings.TrimRight(v.APIBaseURL, "/")
}

func (v Values) GetAPITimeout() time.Duration {
	if v.APITimeout <= 0 {
		return 10 * time.Second
	}
	return v.APITimeout
}
