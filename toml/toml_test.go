package toml_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustlens/trustlens/toml"
)

func TestDuration_UnmarshalText(t *testing.T) {
	var d toml.Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, toml.Duration(90*time.Second), d)

	require.NoError(t, d.UnmarshalText([]byte("1h30m")))
	assert.Equal(t, toml.Duration(90*time.Minute), d)

	assert.Error(t, d.UnmarshalText([]byte("ninety seconds")))
}

func TestDuration_MarshalText(t *testing.T) {
	d := toml.Duration(10 * time.Second)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "10s", string(text))
	assert.Equal(t, "10s", d.String())
}
