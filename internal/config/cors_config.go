package config

import "strings"

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

var _ CorsConfig = Values{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

func (v Values) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range v.AllowedOriginList {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = nullValue{}
		}
	}
	return origins
}

func (Values) GetAllowedMethods() string {
	return "GET, POST, PUT, OPTIONS"
}

func (Values) GetAllowedHeaders() string {
	return "Content-Type, Authorization, X-Request-ID"
}
