package cmd

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"example.com/hospital/services/scheduling/config"
	"example.com/hospital/services/scheduling/internal/cache"
	"example.com/hospital/services/scheduling/internal/messaging"
	"example.com/hospital/services/scheduling/internal/repository"
)

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.Database.Source), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.Database.Source), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

func newBroker(cfg config.Config) (messaging.Broker, error) {
	switch cfg.Broker.Driver {
	case "azure":
		return messaging.NewAzureBroker(cfg.Azure.ConnStr)
	case "rabbitmq":
		return messaging.NewRabbitBroker(cfg.RabbitMQ.URL)
	case "memory":
		return messaging.NewMemoryBroker(), nil
	default:
		return nil, fmt.Errorf("unknown broker driver: %s", cfg.Broker.Driver)
	}
}

func newUserDirectory(db *gorm.DB, cfg config.Config) (repository.UserDirectory, error) {
	directory := repository.NewGormUserDirectory(db)
	if !cfg.Redis.Enabled {
		return directory, nil
	}

	return cache.NewCachedUserDirectory(directory, cache.UserCacheConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.UserTTL,
	})
}
