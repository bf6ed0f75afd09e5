package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/cache/domain"
	"github.com/davicafu/rediscache/internal/shared/infra/platform/stats"
)

// RedisBackend implementa domain.Backend sobre un store remoto con TTL nativo.
//
// La conexión se abre de forma perezosa en la primera operación que necesita
// el store y se reutiliza durante toda la vida del backend. Si la apertura
// falla el backend sigue desconectado y la siguiente llamada reintenta la
// secuencia completa (connect, prefijo, select).
//
// Un RedisBackend no es seguro para uso concurrente: trabaja sobre una única
// conexión y no tiene locks. Los front-ends que lo compartan deben serializar.
type RedisBackend struct {
	cfg       domain.AdapterConfig
	connector domain.Connector
	notifier  domain.Notifier
	policies  domain.Policies
	stats     stats.Collector
	log       *zap.Logger
	now       func() time.Time

	conn      domain.Conn
	connected bool
}

// Verificación estática
var _ domain.Backend = (*RedisBackend)(nil)

// Option configura un RedisBackend.
type Option func(*RedisBackend)

// WithNotifier fija el colaborador que recibe las notificaciones de features no soportadas.
// Por defecto se usa un LogNotifier sobre el logger del backend.
func WithNotifier(n domain.Notifier) Option {
	return func(b *RedisBackend) { b.notifier = n }
}

// WithPolicies sustituye la tabla de políticas por defecto.
func WithPolicies(p domain.Policies) Option {
	return func(b *RedisBackend) { b.policies = p }
}

func WithStats(c stats.Collector) Option {
	return func(b *RedisBackend) { b.stats = c }
}

// WithClock cambia el reloj. Pensado para tests.
func WithClock(now func() time.Time) Option {
	return func(b *RedisBackend) { b.now = now }
}

// NewRedisBackend constructor. No abre ninguna conexión.
func NewRedisBackend(cfg domain.AdapterConfig, connector domain.Connector, log *zap.Logger, opts ...Option) *RedisBackend {
	if log == nil {
		log = zap.NewNop()
	}
	b := &RedisBackend{
		cfg:       cfg,
		connector: connector,
		notifier:  NewLogNotifier(log),
		policies:  domain.DefaultPolicies(),
		stats:     stats.NewNoop(),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connected indica si ya hay una sesión abierta.
func (b *RedisBackend) Connected() bool {
	return b.connected
}

// ensureConnected es idempotente: solo conecta si no hay sesión.
func (b *RedisBackend) ensureConnected(ctx context.Context) error {
	if b.connected {
		return nil
	}

	conn, err := b.connector.Connect(ctx, b.cfg.Target())
	if err != nil {
		return b.connectFailed("connect", err)
	}
	if b.cfg.Prefix != "" {
		if err := conn.SetPrefix(b.cfg.Prefix); err != nil {
			_ = conn.Close()
			return b.connectFailed("prefix", err)
		}
	}
	if err := conn.Select(ctx, b.cfg.DB); err != nil {
		_ = conn.Close()
		return b.connectFailed("select", err)
	}

	b.conn = conn
	b.connected = true
	b.stats.IncCounter(stats.MetricConnects, 1)
	b.log.Debug("cache backend connected",
		zap.String("host", b.cfg.Host),
		zap.Int("port", b.cfg.Port),
		zap.String("socket", b.cfg.Socket),
		zap.Int("db", b.cfg.DB),
		zap.Bool("persistent", b.cfg.Persistent),
	)
	return nil
}

func (b *RedisBackend) connectFailed(step string, err error) error {
	b.stats.IncCounter(stats.MetricConnectFailures, 1)
	b.log.Warn("cache backend connection failed",
		zap.String("step", step),
		zap.String("host", b.cfg.Host),
		zap.Int("port", b.cfg.Port),
		zap.String("socket", b.cfg.Socket),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w: %w", step, domain.ErrConnection, err)
}

// storeErr envuelve un fallo del store: no hay reintentos, se propaga como error de conexión.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrConnection, err)
}

// Close libera la sesión. Una llamada posterior vuelve a conectar.
func (b *RedisBackend) Close() error {
	if !b.connected {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	b.connected = false
	return err
}

func (b *RedisBackend) observe(start time.Time) {
	b.stats.ObserveHistogram(stats.MetricOperationSeconds, time.Since(start).Seconds())
}

// fetch lee y decodifica. ok es false si la key no existe o el valor no es un registro.
func (b *RedisBackend) fetch(ctx context.Context, op, id string) (domain.Record, bool, error) {
	if err := b.ensureConnected(ctx); err != nil {
		return domain.Record{}, false, err
	}
	raw, found, err := b.conn.Get(ctx, id)
	if err != nil {
		return domain.Record{}, false, storeErr(op, err)
	}
	if !found {
		return domain.Record{}, false, nil
	}
	rec, ok := domain.DecodeRecord(raw)
	if !ok {
		b.log.Debug("undecodable cache record", zap.String("id", id), zap.String("op", op))
	}
	return rec, ok, nil
}

// write guarda rec con TTL si el lifetime es finito, sin expiración si es infinito.
func (b *RedisBackend) write(ctx context.Context, op, id string, rec domain.Record) error {
	raw, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("%s: encoding record: %w", op, err)
	}
	b.stats.ObserveHistogram(stats.MetricPayloadBytes, float64(len(rec.Payload)))

	if rec.IsInfinite() {
		err = b.conn.Set(ctx, id, raw)
	} else {
		err = b.conn.SetEx(ctx, id, raw, rec.LifetimeSeconds)
	}
	if err != nil {
		return storeErr(op, err)
	}
	return nil
}

// Load devuelve el payload guardado bajo id.
//
// skipValidityCheck se acepta por compatibilidad con el contrato pero no tiene
// efecto: Redis borra las keys expiradas, así que no hay nada que saltarse.
// Los registros legacy (sin lifetime) se devuelven igual.
func (b *RedisBackend) Load(ctx context.Context, id string, skipValidityCheck bool) ([]byte, bool, error) {
	defer b.observe(time.Now())
	b.stats.IncCounter(stats.MetricLoads, 1)

	rec, ok, err := b.fetch(ctx, "load", id)
	if err != nil || !ok {
		if err == nil {
			b.stats.IncCounter(stats.MetricMisses, 1)
		}
		return nil, false, err
	}
	b.stats.IncCounter(stats.MetricHits, 1)
	return rec.Payload, true, nil
}

// Test devuelve el storedAt del registro. Redis no permite leer un campo
// suelto, así que se transfiere el registro completo.
func (b *RedisBackend) Test(ctx context.Context, id string) (int64, bool, error) {
	defer b.observe(time.Now())

	rec, ok, err := b.fetch(ctx, "test", id)
	if err != nil || !ok {
		return 0, false, err
	}
	return rec.StoredAt, true, nil
}

// Save guarda data bajo id. lifetime < 0 usa el lifetime por defecto, 0 es infinito.
// Los tags no se soportan: se notifica y el save sigue adelante.
func (b *RedisBackend) Save(ctx context.Context, data []byte, id string, tags []string, lifetime int) (bool, error) {
	defer b.observe(time.Now())

	if err := b.ensureConnected(ctx); err != nil {
		return false, err
	}
	if len(tags) > 0 {
		if err := b.unsupported(ctx, domain.FeatureTags, "save"); err != nil {
			return false, err
		}
	}

	rec := domain.EncodeRecord(data, b.now(), b.cfg.ResolveLifetime(lifetime))
	if err := b.write(ctx, "save", id, rec); err != nil {
		return false, err
	}
	b.stats.IncCounter(stats.MetricSaves, 1)
	return true, nil
}

// Remove borra id. Devuelve true si había algo que borrar.
func (b *RedisBackend) Remove(ctx context.Context, id string) (bool, error) {
	defer b.observe(time.Now())

	if err := b.ensureConnected(ctx); err != nil {
		return false, err
	}
	n, err := b.conn.Del(ctx, id)
	if err != nil {
		return false, storeErr("remove", err)
	}
	b.stats.IncCounter(stats.MetricRemoves, n)
	return n > 0, nil
}

// Clean con ModeAll vacía la db seleccionada entera, sin tener en cuenta el prefijo.
// ModeOld y los modos por tags no están soportados: se notifica y no se hace nada.
// Un modo desconocido es un error de configuración.
func (b *RedisBackend) Clean(ctx context.Context, mode domain.CleaningMode, tags []string) (bool, error) {
	defer b.observe(time.Now())

	if err := b.ensureConnected(ctx); err != nil {
		return false, err
	}

	switch mode {
	case domain.ModeAll:
		if err := b.conn.FlushDB(ctx); err != nil {
			return false, storeErr("clean", err)
		}
		b.stats.IncCounter(stats.MetricFlushes, 1)
		b.log.Info("cache database flushed", zap.Int("db", b.cfg.DB))
		return true, nil
	case domain.ModeOld:
		if err := b.unsupported(ctx, domain.FeatureCleanOld, "clean"); err != nil {
			return false, err
		}
		return true, nil
	case domain.ModeMatchingTag, domain.ModeNotMatchingTag, domain.ModeMatchingAnyTag:
		if err := b.unsupported(ctx, domain.FeatureCleanTags, "clean"); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("clean: %w: %q", domain.ErrInvalidCleaningMode, string(mode))
	}
}

// IsAutomaticCleaningAvailable es siempre false: la expiración la hace Redis.
func (b *RedisBackend) IsAutomaticCleaningAvailable() bool {
	return false
}

// GetIDs devuelve todas las keys de la db seleccionada, sin orden garantizado.
func (b *RedisBackend) GetIDs(ctx context.Context) ([]string, error) {
	defer b.observe(time.Now())

	if err := b.ensureConnected(ctx); err != nil {
		return nil, err
	}
	keys, err := b.conn.Keys(ctx, "*")
	if err != nil {
		return nil, storeErr("getIds", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Las operaciones por tags no tocan el store: notifican y devuelven una lista vacía.

func (b *RedisBackend) GetTags(ctx context.Context) ([]string, error) {
	return b.emptyTagResult(ctx, "getTags")
}

func (b *RedisBackend) GetIDsMatchingTags(ctx context.Context, tags []string) ([]string, error) {
	return b.emptyTagResult(ctx, "getIdsMatchingTags")
}

func (b *RedisBackend) GetIDsNotMatchingTags(ctx context.Context, tags []string) ([]string, error) {
	return b.emptyTagResult(ctx, "getIdsNotMatchingTags")
}

func (b *RedisBackend) GetIDsMatchingAnyTags(ctx context.Context, tags []string) ([]string, error) {
	return b.emptyTagResult(ctx, "getIdsMatchingAnyTags")
}

func (b *RedisBackend) emptyTagResult(ctx context.Context, op string) ([]string, error) {
	if err := b.unsupported(ctx, domain.FeatureTagEnumeration, op); err != nil {
		return nil, err
	}
	return []string{}, nil
}

// GetFillingPercentage siempre falla: Redis no tiene una capacidad fija sobre la que calcularlo.
func (b *RedisBackend) GetFillingPercentage(ctx context.Context) (int, error) {
	return 0, b.unsupported(ctx, domain.FeatureFillingPercentage, "getFillingPercentage")
}

// GetMetadatas devuelve expire, tags y mtime. Los registros legacy cuentan como inexistentes.
// Para lifetime infinito ExpireAt vale domain.NeverExpires.
func (b *RedisBackend) GetMetadatas(ctx context.Context, id string) (domain.Metadata, bool, error) {
	defer b.observe(time.Now())

	rec, ok, err := b.fetch(ctx, "getMetadatas", id)
	if err != nil || !ok || rec.IsLegacy() {
		return domain.Metadata{}, false, err
	}
	return domain.Metadata{
		ExpireAt: rec.ExpireAt(),
		Tags:     []string{},
		Mtime:    rec.StoredAt,
	}, true, nil
}

// Touch añade extraLifetime segundos al tiempo de vida que le queda al registro
// y lo reescribe con mtime = ahora. Devuelve false, sin escribir nada, si el
// registro no existe, es legacy o el nuevo lifetime sería <= 0.
//
// Un registro con lifetime infinito ya no expira: se devuelve true sin reescribirlo.
//
// La lectura y la reescritura no son atómicas: dos Touch concurrentes sobre la
// misma key pueden perder una de las extensiones.
func (b *RedisBackend) Touch(ctx context.Context, id string, extraLifetime int) (bool, error) {
	defer b.observe(time.Now())

	rec, ok, err := b.fetch(ctx, "touch", id)
	if err != nil || !ok || rec.IsLegacy() {
		return false, err
	}
	if rec.IsInfinite() {
		return true, nil
	}

	now := b.now()
	lifetime := domain.RemainingLifetime(rec, now, extraLifetime)
	if lifetime <= 0 {
		b.stats.IncCounter(stats.MetricTouchRefused, 1)
		return false, nil
	}

	if err := b.write(ctx, "touch", id, domain.EncodeRecord(rec.Payload, now, lifetime)); err != nil {
		return false, err
	}
	b.stats.IncCounter(stats.MetricTouches, 1)
	return true, nil
}

var capabilities = domain.Capabilities{
	AutomaticCleaning: false,
	Tags:              false,
	ExpiredRead:       false,
	Priority:          false,
	InfiniteLifetime:  true,
	GetList:           true,
}

// GetCapabilities devuelve siempre el mismo descriptor.
func (b *RedisBackend) GetCapabilities() domain.Capabilities {
	return capabilities
}

func (b *RedisBackend) unsupported(ctx context.Context, f domain.Feature, op string) error {
	b.stats.IncCounter(stats.MetricUnsupported, 1)
	return b.policies.Apply(ctx, b.notifier, f, op)
}
