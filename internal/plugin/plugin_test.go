package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushpal/internal/push"
)

type stub struct{ id string }

func (s stub) ID() string { return s.id }

func (s stub) Run(context.Context, Context) ([]push.Message, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	require.NoError(t, reg.Register(stub{id: "b"}, stub{id: "a"}))

	assert.True(t, reg.Has("a"))
	assert.False(t, reg.Has("missing"))

	p, ok := reg.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", p.ID())

	assert.Equal(t, []string{"a", "b"}, reg.IDs())
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	require.NoError(t, reg.Register(stub{id: "a"}))
	err := reg.Register(stub{id: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRegistryRejectsEmptyID(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	require.Error(t, reg.Register(stub{}))
}

func TestParseConfig(t *testing.T) {
	t.Parallel()
	type shape struct {
		Symbols []string `json:"symbols"`
	}

	var out shape
	require.NoError(t, ParseConfig("p", json.RawMessage(`{"symbols":["600000.SH"]}`), &out))
	assert.Equal(t, []string{"600000.SH"}, out.Symbols)

	err := ParseConfig("p", nil, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, push.ErrPlugin))

	err = ParseConfig("p", json.RawMessage(`{"symbols":1}`), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, push.ErrPlugin))
}
