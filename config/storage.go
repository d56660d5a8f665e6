package config

import "github.com/spf13/viper"

// Storage storage config struct
type Storage struct {
	Provider      string
	Folder        string
	PublicPath    string
	MaxUploadSize int64 // bytes
}

func getStorageConfig(v *viper.Viper) *Storage {
	cfg := &Storage{
		Provider:      v.GetString("storage.provider"),
		Folder:        v.GetString("storage.folder"),
		PublicPath:    v.GetString("storage.public_path"),
		MaxUploadSize: v.GetInt64("storage.max_upload_size"),
	}
	if cfg.Folder == "" {
		cfg.Folder = "uploads"
	}
	if cfg.PublicPath == "" {
		cfg.PublicPath = "/uploads"
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 << 20
	}
	return cfg
}
