package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/cache/application"
	"github.com/davicafu/rediscache/internal/cache/domain"
	"github.com/davicafu/rediscache/internal/cache/infra/outbound/memory"
	"github.com/davicafu/rediscache/internal/cache/infra/outbound/redisstore"
	"github.com/davicafu/rediscache/internal/config"
)

// store agrupa el connector elegido y cómo liberarlo.
type store struct {
	connector domain.Connector
	name      string
	close     func() error
}

// openStore devuelve el connector para cfg.CacheDriver. Con fallback, si Redis no
// responde se usa el store en memoria.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger, fallback bool) (*store, error) {
	switch cfg.CacheDriver {
	case config.DriverMemory:
		return memoryStore(), nil
	case config.DriverRedis, "":
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.CacheDriver)
	}

	connector := redisstore.NewConnector(log)
	if fallback {
		conn, err := connector.Connect(ctx, cfg.Cache.Target())
		if err != nil {
			_ = connector.Close()
			log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
			return memoryStore(), nil
		}
		_ = conn.Close()
		log.Info("✅ Redis conectado", zap.String("addr", redisstore.Options(cfg.Cache.Target()).Addr))
	}
	return &store{connector: connector, name: config.DriverRedis, close: connector.Close}, nil
}

func memoryStore() *store {
	server := memory.NewServer(memory.DefaultCleanupInterval)
	return &store{
		connector: server,
		name:      config.DriverMemory,
		close: func() error {
			server.Stop()
			return nil
		},
	}
}

// newBackend crea el backend para los comandos de una sola operación.
func newBackend(ctx context.Context, log *zap.Logger) (*application.RedisBackend, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(ctx, cfg, log, false)
	if err != nil {
		return nil, nil, err
	}
	backend := application.NewRedisBackend(cfg.Cache, st.connector, log)
	cleanup := func() {
		_ = backend.Close()
		_ = st.close()
	}
	return backend, cleanup, nil
}
