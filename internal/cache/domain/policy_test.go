package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	got []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) {
	r.got = append(r.got, n)
}

func TestDefaultPolicies(t *testing.T) {
	p := DefaultPolicies()

	assert.Equal(t, NotifyAndContinue, p.Policy(FeatureTags))
	assert.Equal(t, NotifyAndNoop, p.Policy(FeatureCleanOld))
	assert.Equal(t, NotifyAndNoop, p.Policy(FeatureCleanTags))
	assert.Equal(t, NotifyAndNoop, p.Policy(FeatureTagEnumeration))
	assert.Equal(t, HardFail, p.Policy(FeatureFillingPercentage))
	assert.Equal(t, HardFail, p.Policy(Feature("desconocida")))
}

func TestPolicies_ApplyNotifies(t *testing.T) {
	n := &recordingNotifier{}
	err := DefaultPolicies().Apply(context.Background(), n, FeatureCleanOld, "clean")

	assert.NoError(t, err)
	if assert.Len(t, n.got, 1) {
		assert.Equal(t, FeatureCleanOld, n.got[0].Feature)
		assert.Equal(t, "clean", n.got[0].Operation)
		assert.NotEmpty(t, n.got[0].Message)
		assert.NotEqual(t, uuid.Nil, n.got[0].ID)
	}
}

func TestPolicies_ApplyHardFail(t *testing.T) {
	n := &recordingNotifier{}
	err := DefaultPolicies().Apply(context.Background(), n, FeatureFillingPercentage, "getFillingPercentage")

	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Empty(t, n.got)
}

func TestPolicies_ApplyNilNotifier(t *testing.T) {
	assert.NoError(t, DefaultPolicies().Apply(context.Background(), nil, FeatureTags, "save"))
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "notify-and-continue", NotifyAndContinue.String())
	assert.Equal(t, "notify-and-noop", NotifyAndNoop.String())
	assert.Equal(t, "hard-fail", HardFail.String())
	assert.Equal(t, "policy(9)", Policy(9).String())
}
