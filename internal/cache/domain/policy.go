package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Feature identifica una funcionalidad que este backend no soporta.
type Feature string

const (
	FeatureTags              Feature = "tags"
	FeatureCleanOld          Feature = "clean_old"
	FeatureCleanTags         Feature = "clean_tags"
	FeatureTagEnumeration    Feature = "tag_enumeration"
	FeatureFillingPercentage Feature = "filling_percentage"
)

// Policy es lo que se hace cuando se pide una funcionalidad no soportada.
type Policy int

const (
	// NotifyAndContinue: se notifica y la operación sigue (p.ej. save con tags).
	NotifyAndContinue Policy = iota
	// NotifyAndNoop: se notifica y la operación no hace nada, sin error.
	NotifyAndNoop
	// HardFail: se devuelve ErrUnsupported, sin notificación.
	HardFail
)

func (p Policy) String() string {
	switch p {
	case NotifyAndContinue:
		return "notify-and-continue"
	case NotifyAndNoop:
		return "notify-and-noop"
	case HardFail:
		return "hard-fail"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Policies mapea cada Feature a su política.
type Policies map[Feature]Policy

// DefaultPolicies es la tabla de políticas del backend Redis.
func DefaultPolicies() Policies {
	return Policies{
		FeatureTags:              NotifyAndContinue,
		FeatureCleanOld:          NotifyAndNoop,
		FeatureCleanTags:         NotifyAndNoop,
		FeatureTagEnumeration:    NotifyAndNoop,
		FeatureFillingPercentage: HardFail,
	}
}

var featureMessages = map[Feature]string{
	FeatureTags:              "tags are not supported by the redis backend",
	FeatureCleanOld:          "clean old is not supported: expiry is handled by redis",
	FeatureCleanTags:         "tag-based cleaning is not supported by the redis backend",
	FeatureTagEnumeration:    "tags are not supported by the redis backend",
	FeatureFillingPercentage: "filling percentage cannot be computed for redis",
}

// Policy devuelve la política de f. Una feature desconocida se trata como HardFail.
func (p Policies) Policy(f Feature) Policy {
	if pol, ok := p[f]; ok {
		return pol
	}
	return HardFail
}

// Apply ejecuta la política de f para la operación op.
// Devuelve nil si la operación puede seguir, o un error que envuelve ErrUnsupported.
func (p Policies) Apply(ctx context.Context, n Notifier, f Feature, op string) error {
	pol := p.Policy(f)
	if pol == HardFail {
		return fmt.Errorf("%s: %w: %s", op, ErrUnsupported, f)
	}
	if n != nil {
		n.Notify(ctx, NewNotification(f, op))
	}
	return nil
}

// NewNotification construye la notificación para f.
func NewNotification(f Feature, op string) Notification {
	msg, ok := featureMessages[f]
	if !ok {
		msg = string(f) + " is not supported"
	}
	return Notification{
		ID:        uuid.New(),
		Feature:   f,
		Operation: op,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
}
