package webkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhost/emberview/internal/application/port"
	"github.com/emberhost/emberview/internal/domain/entity"
)

func newOffscreenSurface(t *testing.T) port.Surface {
	t.Helper()
	engine := NewOffscreenEngine(zerolog.Nop())
	s, err := engine.Create(context.Background(), port.SurfaceOptions{AppID: "notes"})
	require.NoError(t, err)
	return s
}

func TestOffscreenLoadReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newOffscreenSurface(t)
	require.NoError(t, s.Load(context.Background(), srv.URL))

	url, err := s.CurrentURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL, url)
}

func TestOffscreenLoadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := newOffscreenSurface(t)
	assert.Error(t, s.Load(context.Background(), srv.URL))
}

func TestOffscreenBlankAlwaysSucceeds(t *testing.T) {
	s := newOffscreenSurface(t)
	require.NoError(t, s.Load(context.Background(), "about:blank"))

	url, err := s.CurrentURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "about:blank", url)
}

func TestOffscreenUseAfterDestroy(t *testing.T) {
	ctx := context.Background()
	s := newOffscreenSurface(t)
	require.NoError(t, s.Destroy(ctx))
	require.NoError(t, s.Destroy(ctx), "destroy is idempotent")

	assert.ErrorIs(t, s.Load(ctx, "about:blank"), ErrSurfaceDestroyed)
	assert.ErrorIs(t, s.Attach(ctx, entity.Bounds{Width: 100, Height: 100}), ErrSurfaceDestroyed)
	_, err := s.CurrentURL(ctx)
	assert.ErrorIs(t, err, ErrSurfaceDestroyed)
}

func TestOffscreenSetBoundsRequiresAttach(t *testing.T) {
	ctx := context.Background()
	s := newOffscreenSurface(t)
	assert.Error(t, s.SetBounds(ctx, entity.Bounds{Width: 10, Height: 10}))

	require.NoError(t, s.Attach(ctx, entity.Bounds{Width: 10, Height: 10}))
	assert.NoError(t, s.SetBounds(ctx, entity.Bounds{Width: 20, Height: 20}))
}

func TestOffscreenWindowResizeNotifies(t *testing.T) {
	w := NewOffscreenWindow(entity.Bounds{Width: 800, Height: 600}, nil, zerolog.Nop())

	var got []entity.Bounds
	unsubscribe := w.OnContentBoundsChanged(func(b entity.Bounds) {
		got = append(got, b)
	})

	w.Resize(entity.Bounds{Width: 1024, Height: 768})
	require.Len(t, got, 1)
	assert.Equal(t, entity.Bounds{Width: 1024, Height: 768}, w.ContentBounds())

	unsubscribe()
	unsubscribe()
	w.Resize(entity.Bounds{Width: 640, Height: 480})
	assert.Len(t, got, 1, "unsubscribed observers stay silent")
}
