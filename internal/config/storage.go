package config

import (
	"os"
	"sync"
	"time"
)

// StorageConfig points the CV fetcher at the blob store holding uploaded CVs.
type StorageConfig struct {
	Driver    string
	UploadDir string
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
}

var (
	storageConfig *StorageConfig
	storageOnce   sync.Once
)

func LoadStorageConfig() *StorageConfig {
	storageOnce.Do(func() {
		storageConfig = &StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "fs"),
			UploadDir: getEnv("STORAGE_UPLOAD_DIR", "./uploads/cv/"),
			BaseURL:   os.Getenv("STORAGE_BASE_URL"),
			APIKey:    os.Getenv("STORAGE_API_KEY"),
			Timeout:   getEnvDuration("STORAGE_TIMEOUT", 20*time.Second),
		}
	})
	return storageConfig
}
