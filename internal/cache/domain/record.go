package domain

import (
	"encoding/json"
	"math"
	"time"
)

// NeverExpires es el valor de ExpireAt para registros con lifetime infinito.
const NeverExpires int64 = math.MaxInt64

// RecordVersion distingue el formato con el que se escribió un registro.
type RecordVersion int

const (
	// RecordLegacy: [payload, storedAt], sin lifetime.
	RecordLegacy RecordVersion = 2
	// RecordCurrent: [payload, storedAt, lifetime].
	RecordCurrent RecordVersion = 3
)

// Record es la unidad que se guarda bajo una key del store remoto.
// El payload es opaco: nunca se inspecciona.
type Record struct {
	Payload         []byte
	StoredAt        int64 // unix seconds
	LifetimeSeconds int   // 0 = infinito
	Version         RecordVersion
}

// EncodeRecord construye un registro en el formato actual. No tiene efectos secundarios.
func EncodeRecord(payload []byte, writeTime time.Time, lifetimeSeconds int) Record {
	if lifetimeSeconds < 0 {
		lifetimeSeconds = 0
	}
	return Record{
		Payload:         payload,
		StoredAt:        writeTime.Unix(),
		LifetimeSeconds: lifetimeSeconds,
		Version:         RecordCurrent,
	}
}

// Marshal serializa el registro como un array JSON de 2 o 3 elementos.
func (r Record) Marshal() ([]byte, error) {
	payload := r.Payload
	if payload == nil {
		payload = []byte{}
	}
	if r.Version == RecordLegacy {
		return json.Marshal([]interface{}{payload, r.StoredAt})
	}
	return json.Marshal([]interface{}{payload, r.StoredAt, r.LifetimeSeconds})
}

// DecodeRecord interpreta un valor leído del store.
// Devuelve (Record{}, false) si raw no es un registro bien formado: eso cubre
// tanto "no existe la key" como cualquier valor ajeno o corrupto.
func DecodeRecord(raw []byte) (Record, bool) {
	if len(raw) == 0 {
		return Record{}, false
	}

	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, false
	}

	var rec Record
	switch len(fields) {
	case int(RecordLegacy):
		rec.Version = RecordLegacy
	case int(RecordCurrent):
		rec.Version = RecordCurrent
		if err := json.Unmarshal(fields[2], &rec.LifetimeSeconds); err != nil {
			return Record{}, false
		}
		if rec.LifetimeSeconds < 0 {
			return Record{}, false
		}
	default:
		return Record{}, false
	}

	if err := json.Unmarshal(fields[0], &rec.Payload); err != nil {
		return Record{}, false
	}
	if err := json.Unmarshal(fields[1], &rec.StoredAt); err != nil {
		return Record{}, false
	}
	if rec.Payload == nil {
		rec.Payload = []byte{}
	}
	return rec, true
}

// IsLegacy indica que el registro no trae lifetime.
// Las operaciones que dependen de ese campo (metadata, touch) deben tratarlo como ausente.
func (r Record) IsLegacy() bool {
	return r.Version != RecordCurrent
}

// IsInfinite indica que el store no tiene TTL para esta key.
func (r Record) IsInfinite() bool {
	return r.LifetimeSeconds == 0
}

// ExpireAt devuelve storedAt+lifetime, o NeverExpires para registros infinitos.
func (r Record) ExpireAt() int64 {
	if r.IsInfinite() {
		return NeverExpires
	}
	return r.StoredAt + int64(r.LifetimeSeconds)
}

// RemainingLifetime calcula lifetime - (now - storedAt) + extra.
// Un resultado <= 0 significa que el registro ya expiró y no debe extenderse.
func RemainingLifetime(r Record, now time.Time, extra int) int {
	elapsed := now.Unix() - r.StoredAt
	return int(int64(r.LifetimeSeconds) - elapsed + int64(extra))
}
