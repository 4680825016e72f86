package config

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
	GetGoogleIssuer() string
	GetGoogleScopes() []string
	GetGoogleVerifyIDToken() bool
}

var _ GoogleConfig = Values{}

func (v Values) GetGoogleClientID() string {
	return v.GoogleClientID
}

func (v Values) GetGoogleClientSecret() string {
	return v.GoogleClientSecret
}

func (v Values) GetGoogleRedirectURL() string {
	return v.GoogleRedirectURL
}

func (v Values) GetGoogleIssuer() string {
	return v.GoogleIssuer
}

func (v Values) GetGoogleScopes() []string {
	if len(v.GoogleScopes) == 0 {
		return []string{"openid", "profile", "email"}
	}
	return v.GoogleScopes
}

func (v Values) GetGoogleVerifyIDToken() bool {
	return v.GoogleVerifyIDToken
}
