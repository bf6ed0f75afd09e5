package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrConnection          = errors.New("cache backend: connection error")
	ErrUnsupported         = errors.New("cache backend: unsupported feature")
	ErrInvalidCleaningMode = errors.New("cache backend: invalid cleaning mode")
)

// UseDefaultLifetime pide a Save que use el lifetime configurado en el adapter.
// Cualquier valor negativo tiene el mismo efecto; 0 es infinito.
const UseDefaultLifetime = -1

// ---------- Modos de limpieza ----------

type CleaningMode string

const (
	ModeAll            CleaningMode = "all"
	ModeOld            CleaningMode = "old"
	ModeMatchingTag    CleaningMode = "matchingTag"
	ModeNotMatchingTag CleaningMode = "notMatchingTag"
	ModeMatchingAnyTag CleaningMode = "matchingAnyTag"
)

// Capabilities describe lo que el backend soporta. Los front-ends deben
// consultarlo antes de intentar operaciones por tags o prioridad.
type Capabilities struct {
	AutomaticCleaning bool `json:"automatic_cleaning"`
	Tags              bool `json:"tags"`
	ExpiredRead       bool `json:"expired_read"`
	Priority          bool `json:"priority"`
	InfiniteLifetime  bool `json:"infinite_lifetime"`
	GetList           bool `json:"get_list"`
}

// Metadata de un registro. ExpireAt vale NeverExpires si el lifetime es infinito.
type Metadata struct {
	ExpireAt int64    `json:"expire"`
	Tags     []string `json:"tags"`
	Mtime    int64    `json:"mtime"`
}

// Never indica si el registro no expira nunca.
func (m Metadata) Never() bool {
	return m.ExpireAt == NeverExpires
}

// ---------- Interfaces (Ports) ----------

// Target es el destino de conexión que el adapter pasa al Connector.
type Target struct {
	Host       string
	Port       int
	Socket     string        // si no está vacío se usa en lugar de host/port
	Timeout    time.Duration // 0 = el default del transporte
	Persistent bool
}

// Connector abre sesiones contra el store remoto.
type Connector interface {
	Connect(ctx context.Context, t Target) (Conn, error)
}

// Conn es el conjunto mínimo de primitivas que el adapter consume del store.
// Si hay un prefijo configurado, la Conn lo aplica y lo quita de forma transparente.
type Conn interface {
	SetPrefix(prefix string) error
	Select(ctx context.Context, db int) error

	// Get devuelve (nil, false, nil) si la key no existe.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	SetEx(ctx context.Context, key string, value []byte, ttlSecs int) error

	// Del devuelve el número de keys eliminadas.
	Del(ctx context.Context, key string) (int64, error)
	FlushDB(ctx context.Context) error
	Keys(ctx context.Context, pattern string) ([]string, error)

	Close() error
}

// Notification es una señal no fatal que acompaña una operación degradada.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Feature   Feature   `json:"feature"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (n Notification) PartitionKey() string {
	return string(n.Feature)
}

// Notifier es el colaborador de logging/notificaciones.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Backend es el contrato genérico que consume el front-end de caché.
type Backend interface {
	// Load devuelve el payload; (nil, false, nil) si no existe.
	// skipValidityCheck no tiene efecto: el store remoto aplica la expiración.
	Load(ctx context.Context, id string, skipValidityCheck bool) ([]byte, bool, error)

	// Test devuelve el storedAt del registro sin interpretar el payload.
	Test(ctx context.Context, id string) (int64, bool, error)

	// Save guarda data bajo id. lifetime < 0 usa el default, 0 es infinito.
	Save(ctx context.Context, data []byte, id string, tags []string, lifetime int) (bool, error)

	Remove(ctx context.Context, id string) (bool, error)
	Clean(ctx context.Context, mode CleaningMode, tags []string) (bool, error)
	IsAutomaticCleaningAvailable() bool

	GetIDs(ctx context.Context) ([]string, error)
	GetTags(ctx context.Context) ([]string, error)
	GetIDsMatchingTags(ctx context.Context, tags []string) ([]string, error)
	GetIDsNotMatchingTags(ctx context.Context, tags []string) ([]string, error)
	GetIDsMatchingAnyTags(ctx context.Context, tags []string) ([]string, error)
	GetFillingPercentage(ctx context.Context) (int, error)

	GetMetadatas(ctx context.Context, id string) (Metadata, bool, error)
	Touch(ctx context.Context, id string, extraLifetime int) (bool, error)
	GetCapabilities() Capabilities
}
