package redisstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/cache/domain"
)

// Connector abre sesiones contra Redis con go-redis.
//
// Con Target.Persistent las sesiones salen de un pool por destino que vive lo
// mismo que el Connector y no cierra conexiones inactivas, así que la conexión
// TCP se reutiliza entre adapters sucesivos. Sin Persistent cada sesión tiene
// su propio cliente de una sola conexión, que se cierra con la sesión.
type Connector struct {
	log   *zap.Logger
	mu    sync.Mutex
	pools map[string]*redis.Client
}

// Verificación estática
var _ domain.Connector = (*Connector)(nil)

func NewConnector(log *zap.Logger) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{
		log:   log,
		pools: make(map[string]*redis.Client),
	}
}

// Options traduce un Target a opciones de go-redis.
// Un Timeout cero deja los timeouts por defecto del cliente.
func Options(t domain.Target) *redis.Options {
	opts := &redis.Options{
		Network: "tcp",
		Addr:    net.JoinHostPort(t.Host, strconv.Itoa(t.Port)),
	}
	if t.Socket != "" {
		opts.Network = "unix"
		opts.Addr = t.Socket
	}
	if t.Timeout > 0 {
		opts.DialTimeout = t.Timeout
		opts.ReadTimeout = t.Timeout
		opts.WriteTimeout = t.Timeout
	}
	if t.Persistent {
		opts.IdleTimeout = -1
	} else {
		opts.PoolSize = 1
	}
	return opts
}

func (c *Connector) Connect(ctx context.Context, t domain.Target) (domain.Conn, error) {
	client, shared := c.client(t)

	conn := client.Conn(ctx)
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		if !shared {
			_ = client.Close()
		}
		return nil, err
	}

	c.log.Debug("redis session opened",
		zap.String("network", client.Options().Network),
		zap.String("addr", client.Options().Addr),
		zap.Bool("persistent", shared),
	)
	return &Conn{client: client, conn: conn, shared: shared}, nil
}

func (c *Connector) client(t domain.Target) (*redis.Client, bool) {
	if !t.Persistent {
		return redis.NewClient(Options(t)), false
	}

	key := fmt.Sprintf("%s|%s|%d|%s", t.Host, t.Socket, t.Port, t.Timeout)
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.pools[key]; ok {
		return client, true
	}
	client := redis.NewClient(Options(t))
	c.pools[key] = client
	return client, true
}

// Close cierra los pools persistentes.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for key, client := range c.pools {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.pools, key)
	}
	return errors.Join(errs...)
}

// Conn es una sesión sobre una única conexión de Redis (SELECT es por conexión).
// Aplica el prefijo a todas las keys y lo quita en Keys.
type Conn struct {
	client *redis.Client
	conn   *redis.Conn
	shared bool
	prefix string
	db     int
}

var _ domain.Conn = (*Conn)(nil)

func (c *Conn) SetPrefix(prefix string) error {
	c.prefix = prefix
	return nil
}

func (c *Conn) Select(ctx context.Context, db int) error {
	if err := c.conn.Select(ctx, db).Err(); err != nil {
		return err
	}
	c.db = db
	return nil
}

func (c *Conn) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.conn.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil // miss
		}
		return nil, false, err
	}
	return data, true, nil
}

func (c *Conn) Set(ctx context.Context, key string, value []byte) error {
	return c.conn.Set(ctx, c.prefix+key, value, 0).Err()
}

func (c *Conn) SetEx(ctx context.Context, key string, value []byte, ttlSecs int) error {
	return c.conn.SetEX(ctx, c.prefix+key, value, time.Duration(ttlSecs)*time.Second).Err()
}

func (c *Conn) Del(ctx context.Context, key string) (int64, error) {
	return c.conn.Del(ctx, c.prefix+key).Result()
}

// FlushDB vacía la db seleccionada entera, también las keys de otros prefijos.
func (c *Conn) FlushDB(ctx context.Context) error {
	return c.conn.FlushDB(ctx).Err()
}

func (c *Conn) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := c.conn.Keys(ctx, c.prefix+pattern).Result()
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, c.prefix)
	}
	return keys, nil
}

// Close libera la sesión. En modo persistente la conexión vuelve al pool con
// la db 0 seleccionada, que es la que esperan el resto de sesiones.
func (c *Conn) Close() error {
	if c.shared && c.db != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = c.conn.Select(ctx, 0).Err()
		cancel()
	}
	err := c.conn.Close()
	if !c.shared {
		if cerr := c.client.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
