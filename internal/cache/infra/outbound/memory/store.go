package memory

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/davicafu/rediscache/internal/cache/domain"
)

var (
	ErrClosed    = errors.New("memory store: connection closed")
	ErrInvalidDB = errors.New("memory store: invalid db index")
)

// Número de bases de datos, igual que el default de Redis.
const Databases = 16

// Intervalo de purga usado por el servicio cuando cae al store en memoria.
const DefaultCleanupInterval = time.Minute

// item guarda el valor y su expiración (cero = sin expiración).
type item struct {
	value     []byte
	expiresAt time.Time
}

// Server simula un Redis en memoria: varias bases de datos numeradas, TTL por
// key y una goroutine que purga las keys expiradas.
type Server struct {
	mu       sync.RWMutex
	dbs      [Databases]map[string]item
	now      func() time.Time
	dialErr  error
	connects int
	stopChan chan struct{}
	stopOnce sync.Once
}

// Verificación estática
var _ domain.Connector = (*Server)(nil)

// NewServer crea el store. cleanupInterval <= 0 desactiva la purga en segundo plano;
// las keys expiradas se ocultan igualmente en cada lectura.
func NewServer(cleanupInterval time.Duration) *Server {
	s := &Server{
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	for i := range s.dbs {
		s.dbs[i] = make(map[string]item)
	}
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

// SetClock cambia el reloj usado para las expiraciones. Pensado para tests.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetDialError hace que los próximos Connect fallen con err (nil lo desactiva).
func (s *Server) SetDialError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialErr = err
}

// Connects devuelve cuántas conexiones se han abierto con éxito.
func (s *Server) Connects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connects
}

// TTL devuelve el tiempo de vida restante de una key en db, tal como está
// guardada (prefijo incluido).
// ok es false si la key no existe; un TTL cero significa que no expira.
func (s *Server) TTL(db int, key string) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.lookup(db, key)
	if !ok {
		return 0, false
	}
	if it.expiresAt.IsZero() {
		return 0, true
	}
	return it.expiresAt.Sub(s.now()), true
}

// Connect abre una conexión en la db 0. El target solo se valida: no hay red.
func (s *Server) Connect(ctx context.Context, t domain.Target) (domain.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialErr != nil {
		return nil, s.dialErr
	}
	s.connects++
	return &Conn{server: s}, nil
}

// Stop detiene la goroutine de limpieza.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Server) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for _, db := range s.dbs {
				for key, it := range db {
					if expired(it, now) {
						delete(db, key)
					}
				}
			}
			s.mu.Unlock()
		case <-s.stopChan:
			return
		}
	}
}

// lookup se llama con s.mu tomado.
func (s *Server) lookup(db int, key string) (item, bool) {
	it, ok := s.dbs[db][key]
	if !ok || expired(it, s.now()) {
		return item{}, false
	}
	return it, true
}

func expired(it item, now time.Time) bool {
	return !it.expiresAt.IsZero() && !now.Before(it.expiresAt)
}

// Conn es una sesión sobre el Server con su propia db seleccionada y prefijo.
type Conn struct {
	server *Server
	db     int
	prefix string
	closed bool
}

var _ domain.Conn = (*Conn)(nil)

func (c *Conn) SetPrefix(prefix string) error {
	if c.closed {
		return ErrClosed
	}
	c.prefix = prefix
	return nil
}

func (c *Conn) Select(ctx context.Context, db int) error {
	if c.closed {
		return ErrClosed
	}
	if db < 0 || db >= Databases {
		return ErrInvalidDB
	}
	c.db = db
	return nil
}

func (c *Conn) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.closed {
		return nil, false, ErrClosed
	}
	c.server.mu.RLock()
	defer c.server.mu.RUnlock()

	it, ok := c.server.lookup(c.db, c.prefix+key)
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, true, nil
}

func (c *Conn) Set(ctx context.Context, key string, value []byte) error {
	return c.write(key, value, 0)
}

func (c *Conn) SetEx(ctx context.Context, key string, value []byte, ttlSecs int) error {
	if ttlSecs <= 0 {
		return errors.New("memory store: invalid expire time in setex")
	}
	return c.write(key, value, time.Duration(ttlSecs)*time.Second)
}

func (c *Conn) write(key string, value []byte, ttl time.Duration) error {
	if c.closed {
		return ErrClosed
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()

	it := item{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = c.server.now().Add(ttl)
	}
	c.server.dbs[c.db][c.prefix+key] = it
	return nil
}

func (c *Conn) Del(ctx context.Context, key string) (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()

	_, live := c.server.lookup(c.db, c.prefix+key)
	delete(c.server.dbs[c.db], c.prefix+key)
	if !live {
		return 0, nil
	}
	return 1, nil
}

// FlushDB vacía la db seleccionada entera, sin tener en cuenta el prefijo.
func (c *Conn) FlushDB(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	c.server.dbs[c.db] = make(map[string]item)
	return nil
}

// Keys admite los patrones glob de path.Match; "*" devuelve todas las keys.
func (c *Conn) Keys(ctx context.Context, pattern string) ([]string, error) {
	if c.closed {
		return nil, ErrClosed
	}
	c.server.mu.RLock()
	defer c.server.mu.RUnlock()

	now := c.server.now()
	keys := make([]string, 0)
	for key, it := range c.server.dbs[c.db] {
		if expired(it, now) || !strings.HasPrefix(key, c.prefix) {
			continue
		}
		id := strings.TrimPrefix(key, c.prefix)
		ok := pattern == "*"
		if !ok {
			var err error
			if ok, err = path.Match(pattern, id); err != nil {
				return nil, err
			}
		}
		if ok {
			keys = append(keys, id)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *Conn) Close() error {
	c.closed = true
	return nil
}
