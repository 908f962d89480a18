package placeholder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushpal/internal/plugin"
	"pushpal/internal/push"
)

func TestRun(t *testing.T) {
	t.Parallel()
	p := New()
	assert.Equal(t, "placeholder", p.ID())

	msgs, err := p.Run(context.Background(), plugin.Context{Now: time.Now()})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, push.FormatText, msgs[0].Format)
	assert.Empty(t, msgs[0].TargetRecipient)
	require.NoError(t, msgs[0].Validate())
}
