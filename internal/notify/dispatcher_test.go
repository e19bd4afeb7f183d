package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/settings"
)

func snapWith(enabled bool, destinations ...string) settings.Snapshot {
	return settings.Snapshot{NotificationsEnabled: enabled, Destinations: destinations}
}

func TestWebhookDispatcher(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())
	ctx := context.Background()

	t.Run("posts json to every destination", func(t *testing.T) {
		var got webhookPayload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		}))
		defer srv.Close()

		delivered := d.SendAll(ctx, "Task due soon", "# body", snapWith(true, srv.URL))
		assert.Equal(t, []string{srv.URL}, delivered)
		assert.Equal(t, "Task due soon", got.Title)
		assert.Equal(t, "# body", got.Message)
	})

	t.Run("disabled notifications send nothing", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		delivered := d.SendAll(ctx, "s", "p", snapWith(false, srv.URL))
		assert.Nil(t, delivered)
		assert.False(t, called)
	})

	t.Run("empty destination list sends nothing", func(t *testing.T) {
		assert.Nil(t, d.SendAll(ctx, "s", "p", snapWith(true)))
	})

	t.Run("failed destination does not stop the rest", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer bad.Close()
		good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer good.Close()

		delivered := d.SendAll(ctx, "s", "p", snapWith(true, bad.URL, good.URL))
		assert.Equal(t, []string{good.URL}, delivered)
	})

	t.Run("unreachable destination is skipped", func(t *testing.T) {
		good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer good.Close()

		delivered := d.SendAll(ctx, "s", "p", snapWith(true, "http://127.0.0.1:1", good.URL))
		assert.Equal(t, []string{good.URL}, delivered)
	})
}
