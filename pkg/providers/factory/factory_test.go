package factory

import (
	"testing"
	"time"

	"github.com/nerdneilsfield/kiosk-translate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProvider(t *testing.T) {
	f := New(Options{Timeout: 5 * time.Second})

	for _, name := range config.ProviderNames {
		p, err := f.CreateProvider(name, config.ProviderConfig{APIKey: "k", ProjectID: "p"})
		require.NoError(t, err, name)
		assert.Equal(t, name, p.GetName())
	}
	assert.Equal(t, config.ProviderNames, f.Registry().List())
}

func TestCreateProviderReusesInstance(t *testing.T) {
	f := New(Options{})
	first, err := f.CreateProvider("raw", config.ProviderConfig{})
	require.NoError(t, err)
	second, err := f.CreateProvider("raw", config.ProviderConfig{})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCreateProviderUnknown(t *testing.T) {
	_, err := New(Options{}).CreateProvider("babelfish", config.ProviderConfig{})
	assert.ErrorContains(t, err, "unsupported provider type")
}
