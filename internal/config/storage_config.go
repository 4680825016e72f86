package config

import "strings"

// Credential store drivers
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type StorageConfig interface {
	GetStoreDriver() string
	GetStorePath() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

var _ StorageConfig = Values{}

func (v Values) GetStoreDriver() string {
	switch d := strings.ToLower(strings.TrimSpace(v.StoreDriver)); d {
	case StoreRedis, StoreMemory:
		return d
	default:
		return StoreSQLite
	}
}

func (v Values) GetStorePath() string {
	return v.StorePath
}

func (v Values) GetRedisAddr() string {
	return v.RedisAddr
}

func (v Values) GetRedisPassword() string {
	return v.RedisPassword
}

func (v Values) GetRedisDB() int {
	return v.RedisDB
}

func (v Values) GetRedisPrefix() string {
	return v.RedisPrefix
}
