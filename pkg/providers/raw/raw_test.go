package raw

import (
	"context"
	"testing"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateBatchPassthrough(t *testing.T) {
	resp, err := New(DefaultConfig()).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Cart", "Checkout"},
		TargetLanguage: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cart", "Checkout"}, resp.Translations)
}

func TestTranslateBatchPseudo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pseudo = true
	resp, err := New(cfg).TranslateBatch(context.Background(), &providers.ProviderRequest{
		Contents:       []string{"Cart"},
		TargetLanguage: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"[fr] Cart"}, resp.Translations)
}

func TestTranslateBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultConfig()).TranslateBatch(ctx, &providers.ProviderRequest{Contents: []string{"x"}})
	assert.ErrorIs(t, err, context.Canceled)
}
