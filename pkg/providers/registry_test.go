package providers_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/raw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryListSorted(t *testing.T) {
	r := providers.NewRegistry()
	assert.Empty(t, r.List())

	for _, name := range []string{"openai", "deepl", "raw", "google", "libretranslate"} {
		require.NoError(t, r.Register(name, raw.New(raw.DefaultConfig())))
	}
	assert.Equal(t, []string{"deepl", "google", "libretranslate", "openai", "raw"}, r.List())
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := providers.NewRegistry()
	p := raw.New(raw.DefaultConfig())
	require.NoError(t, r.Register("raw", p))

	got, err := r.Get("raw")
	require.NoError(t, err)
	assert.Same(t, p, got)

	err = r.Register("raw", raw.New(raw.DefaultConfig()))
	assert.ErrorIs(t, err, providers.ErrProviderExists)
	got, err = r.Get("raw")
	require.NoError(t, err)
	assert.Same(t, p, got, "duplicate registration must not replace the first provider")

	_, err = r.Get("deepl")
	assert.ErrorIs(t, err, providers.ErrProviderNotFound)
}

func TestRegistryRejectsInvalid(t *testing.T) {
	r := providers.NewRegistry()
	assert.Error(t, r.Register("  ", raw.New(raw.DefaultConfig())))
	assert.Error(t, r.Register("raw", nil))
	assert.Empty(t, r.List())
}

func TestRegistryConcurrent(t *testing.T) {
	r := providers.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("p%02d", i)
			assert.NoError(t, r.Register(name, raw.New(raw.DefaultConfig())))
			_, err := r.Get(name)
			assert.NoError(t, err)
			_ = r.List()
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.List(), 20)
	assert.Equal(t, "p00", r.List()[0])
}
