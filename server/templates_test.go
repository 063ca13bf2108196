package server

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRendererRendersEmbeddedHome(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = renderer.Render(&buf, "home", homeData{
		navData: navData{CartCount: 2, Year: time.Now().Year()},
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "WEAR THE")
	require.Contains(t, buf.String(), `cart-count">2<`)
}

func TestRendererWritesNothingOnError(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = renderer.Render(&buf, "no-such-template", nil)
	require.Error(t, err)
	require.Zero(t, buf.Len())
}

func TestWatchDirRejectsMissingDirectory(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	require.Error(t, renderer.WatchDir(t.TempDir()+"/missing"))
}

func TestTemplateFuncs(t *testing.T) {
	price := templateFuncs["price"].(func(float64) string)
	require.Equal(t, "€19.99", price(19.99))
	require.Equal(t, "€0.00", price(0))

	shortID := templateFuncs["shortID"].(func(string) string)
	require.Equal(t, "0a1b2c3d", shortID("0a1b2c3d-4e5f-6071"))
	require.Equal(t, "o1", shortID("o1"))
}
