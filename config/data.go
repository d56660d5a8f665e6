package config

import "github.com/spf13/viper"

// Data data layer config struct
type Data struct {
	Mongo *Mongo
	Redis *Redis
}

// Mongo mongodb config struct
type Mongo struct {
	URI      string
	Database string
}

// Redis redis config struct
type Redis struct {
	Addr     string
	Username string
	Password string
	DB       int
}

func getDataConfig(v *viper.Viper) *Data {
	return &Data{
		Mongo: &Mongo{
			URI:      v.GetString("data.mongo.uri"),
			Database: v.GetString("data.mongo.database"),
		},
		Redis: &Redis{
			Addr:     v.GetString("data.redis.addr"),
			Username: v.GetString("data.redis.username"),
			Password: v.GetString("data.redis.password"),
			DB:       v.GetInt("data.redis.db"),
		},
	}
}
