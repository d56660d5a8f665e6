package config

import "github.com/spf13/viper"

// Auth auth config struct
type Auth struct {
	JWT *JWT
}

// JWT jwt config struct
type JWT struct {
	Secret string
	Expire int // token lifetime in hours
}

func getAuthConfig(v *viper.Viper) *Auth {
	return &Auth{
		JWT: &JWT{
			Secret: v.GetString("auth.jwt.secret"),
			Expire: v.GetInt("auth.jwt.expire"),
		},
	}
}
