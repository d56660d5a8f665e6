package config

import "github.com/spf13/viper"

// Realtime realtime config struct
type Realtime struct {
	Enabled bool
	Channel string // redis pub/sub channel for cross-instance fan-out
}

func getRealtimeConfig(v *viper.Viper) *Realtime {
	cfg := &Realtime{
		Enabled: v.GetBool("realtime.enabled"),
		Channel: v.GetString("realtime.channel"),
	}
	if cfg.Channel == "" {
		cfg.Channel = "realtime:events"
	}
	return cfg
}
