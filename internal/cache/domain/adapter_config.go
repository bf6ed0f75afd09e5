package domain

import "time"

// Valores por defecto de AdapterConfig.
const (
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 6379
	DefaultLifetime = 3600 // segundos
)

// AdapterConfig es la configuración del backend. Se lee una sola vez, al conectar.
type AdapterConfig struct {
	Host       string
	Port       int
	Socket     string        // alternativa a host/port (unix socket)
	Timeout    time.Duration // 0 = sin timeout propio
	Persistent bool
	DB         int
	Prefix     string

	// DefaultLifetime se usa cuando Save no recibe un lifetime explícito. 0 = infinito.
	DefaultLifetime int
}

// DefaultAdapterConfig devuelve la configuración por defecto.
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Host:            DefaultHost,
		Port:            DefaultPort,
		DefaultLifetime: DefaultLifetime,
	}
}

// Target construye el destino de conexión.
func (c AdapterConfig) Target() Target {
	return Target{
		Host:       c.Host,
		Port:       c.Port,
		Socket:     c.Socket,
		Timeout:    c.Timeout,
		Persistent: c.Persistent,
	}
}

// ResolveLifetime devuelve el lifetime efectivo: el explícito si es >= 0, si no el default.
func (c AdapterConfig) ResolveLifetime(specific int) int {
	if specific >= 0 {
		return specific
	}
	if c.DefaultLifetime < 0 {
		return 0
	}
	return c.DefaultLifetime
}
