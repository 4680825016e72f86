package config

import (
	"fmt"
	"strings"
	"time"
)

type DevServerConfig interface {
	GetPort() string
	GetAPIPrefix() string
	GetTokenSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetRequireVerification() bool
}

var _ DevServerConfig = Values{}

func (v Values) GetPort() string {
	port := strings.TrimSpace(v.Port)
	if port == "" {
		port = "8000"
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (v Values) GetAPIPrefix() string {
	prefix := strings.TrimRight(strings.TrimSpace(v.APIPrefix), "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func (v Values) GetTokenSecret() string {
	return v.TokenSecret
}

func (v Values) GetAccessTokenTTL() time.Duration {
	return v.AccessTokenTTL
}

func (v Values) GetRefreshTokenTTL() time.Duration {
	return v.RefreshTokenTTL
}

func (v Values) GetRequireVerification() bool {
	return v.RequireVerification
}
