package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKnown(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("CreateOrder"))
	assert.True(t, r.Known("CreateOrder"))
	assert.False(t, r.Known("FillOrder"))
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("CreateOrder"))
	assert.Error(t, r.Register("CreateOrder"))
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() {
		r.MustRegister("CreateOrder", "CreateOrder")
	})
}
