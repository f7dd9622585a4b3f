package basket

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/basket/internal/kv"
	"github.com/mesh-intelligence/basket/pkg/types"
)

func quiet() Option {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return WithLogger(logrus.NewEntry(l))
}

func TestOpen_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	c, err := Open(ctx, cfg, quiet())
	require.NoError(t, err)
	require.NoError(t, c.Load(ctx))
	c.AddToCart(types.Product{ID: "sku-1", Title: "Mug", Price: decimal.RequireFromString("7.50")})
	c.AddToCart(types.Product{ID: "sku-2", Title: "Pen", Price: decimal.NewFromInt(2)})
	c.AddToCart(types.Product{ID: "sku-1"})
	require.NoError(t, c.Close(ctx))

	c, err = Open(ctx, cfg, quiet())
	require.NoError(t, err)
	defer c.Close(ctx)
	require.NoError(t, c.Load(ctx))

	got := c.Products()
	require.Len(t, got, 2)
	assert.Equal(t, "sku-2", got[0].ID)
	assert.Equal(t, "sku-1", got[1].ID)
	assert.Equal(t, "Mug", got[1].Title)
	assert.Equal(t, 2, got[1].Quantity)
	assert.True(t, got[1].Price.Equal(decimal.RequireFromString("7.5")))
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), types.Config{Backend: "floppy"})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestNew_CustomStore(t *testing.T) {
	ctx := context.Background()
	c := New(kv.NewMemory(), types.Config{Key: "cart"}, quiet())
	defer c.Close(ctx)

	require.NoError(t, c.Load(ctx))
	select {
	case <-c.Ready():
	default:
		t.Fatal("Ready not closed after Load")
	}
	c.AddToCart(types.Product{ID: "A"})
	require.NoError(t, c.Flush(ctx))
	assert.Len(t, c.Products(), 1)
}
