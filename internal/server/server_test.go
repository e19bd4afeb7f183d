package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/server"
	"github.com/nhle/taskboard/internal/settings"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

type testApp struct {
	srv   *httptest.Server
	st    *store.SQLiteStore
	cache *settings.Cache
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	st := testutil.NewTestStore(t)

	cache := settings.NewCache(st)
	_, err := cache.Reload(context.Background())
	require.NoError(t, err)

	disp := notify.NewWebhookDispatcher(zerolog.Nop())
	engine := notify.NewEngine(st, cache, disp, zerolog.Nop())

	s := server.New(server.Config{
		Addr:       ":0",
		UploadsDir: t.TempDir(),
	}, st, cache, engine, zerolog.Nop())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testApp{srv: srv, st: st, cache: cache}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (a *testApp) doList(t *testing.T, path string) (*http.Response, []map[string]interface{}) {
	t.Helper()

	resp, err := a.srv.Client().Get(a.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, server.Version, body["version"])
}

func TestTaskEndpoints(t *testing.T) {
	app := newTestApp(t)

	_, cat := app.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Work"})
	catID := cat["id"].(string)
	_, tag := app.do(t, http.MethodPost, "/api/tags", map[string]string{"name": "urgent"})
	tagID := tag["id"].(string)

	var taskID string

	t.Run("create with category and tag", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{
			"title":       "Write report",
			"description": "quarterly numbers",
			"due_at":      time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
			"category_id": catID,
			"tag_ids":     []string{tagID},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		taskID = body["id"].(string)
		assert.Equal(t, "Write report", body["title"])
		assert.Equal(t, model.TaskStatusPending, body["status"])
		assert.Equal(t, catID, body["category_id"])
		assert.Equal(t, []interface{}{tagID}, body["tag_ids"])
	})

	t.Run("validation failures", func(t *testing.T) {
		resp, _ := app.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "   "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = app.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"title": "x", "category_id": "ghost"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = app.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"title": "x", "tag_ids": []string{"ghost"}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = app.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"title": "x", "due_at": "whenever"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("naive due timestamp is accepted", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{
			"title":  "Naive due",
			"due_at": time.Now().Add(96 * time.Hour).Format("2006-01-02 15:04"),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotNil(t, body["due_at"])
	})

	t.Run("list and search", func(t *testing.T) {
		resp, tasks := app.doList(t, "/api/tasks")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, tasks, 2)

		resp, tasks = app.doList(t, "/api/tasks/search?q=report")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, tasks, 1)
		assert.Equal(t, taskID, tasks[0]["id"])

		resp, _ = app.do(t, http.MethodGet, "/api/tasks/search", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("filter by tag and category", func(t *testing.T) {
		_, tasks := app.doList(t, "/api/tasks?tag="+tagID)
		require.Len(t, tasks, 1)
		assert.Equal(t, taskID, tasks[0]["id"])

		_, tasks = app.doList(t, "/api/categories/"+catID+"/tasks")
		require.Len(t, tasks, 1)

		_, tasks = app.doList(t, "/api/tags/"+tagID+"/tasks")
		require.Len(t, tasks, 1)
	})

	t.Run("upcoming window", func(t *testing.T) {
		_, tasks := app.doList(t, "/api/tasks/next?days=30")
		assert.Len(t, tasks, 2)

		_, tasks = app.doList(t, "/api/tasks/next?hours=1")
		assert.Len(t, tasks, 0)
	})

	t.Run("patch description and due", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPatch, "/api/tasks/"+taskID+"/description", map[string]string{"description": "updated"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "updated", body["description"])

		resp, body = app.do(t, http.MethodPatch, "/api/tasks/"+taskID+"/due", map[string]interface{}{"due_at": nil})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Nil(t, body["due_at"])
	})

	t.Run("complete", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPost, "/api/tasks/"+taskID+"/complete", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, model.TaskStatusCompleted, body["status"])

		resp, _ = app.do(t, http.MethodPost, "/api/tasks/ghost/complete", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("add tags", func(t *testing.T) {
		_, tag2 := app.do(t, http.MethodPost, "/api/tags", map[string]string{"name": "home"})
		resp, body := app.do(t, http.MethodPost, "/api/tasks/"+taskID+"/tags", map[string]interface{}{
			"tag_ids": []string{tag2["id"].(string)},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["tag_ids"], 2)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := app.do(t, http.MethodDelete, "/api/tasks/"+taskID, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = app.do(t, http.MethodDelete, "/api/tasks/"+taskID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCategoryTagConflicts(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Work"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := app.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Work"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["detail"], "already exists")

	resp, _ = app.do(t, http.MethodPost, "/api/tags", map[string]string{"name": "urgent"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = app.do(t, http.MethodPost, "/api/tags", map[string]string{"name": "urgent"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRelationshipEndpoints(t *testing.T) {
	app := newTestApp(t)

	_, t1 := app.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "a"})
	_, t2 := app.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "b"})
	id1 := t1["id"].(string)
	id2 := t2["id"].(string)

	t.Run("create and list", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPost, "/api/relationships", map[string]string{
			"task_id": id1, "related_task_id": id2, "rel_type": "dependency",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["ok"])

		resp, rels := app.doList(t, "/api/relationships?task_id="+id1)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, rels, 1)
		assert.Equal(t, "dependency", rels[0]["rel_type"])
	})

	t.Run("bad rel_type", func(t *testing.T) {
		resp, _ := app.do(t, http.MethodPost, "/api/relationships", map[string]string{
			"task_id": id1, "related_task_id": id2, "rel_type": "friendship",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("dangling reference", func(t *testing.T) {
		resp, _ := app.do(t, http.MethodPost, "/api/relationships", map[string]string{
			"task_id": id1, "related_task_id": "ghost",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing task_id param", func(t *testing.T) {
		resp, _ := app.do(t, http.MethodGet, "/api/relationships", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSummaryEndpoints(t *testing.T) {
	app := newTestApp(t)

	app.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "a"})
	app.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "b"})

	resp, items := app.doList(t, "/api/views/status-summary")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 1)
	assert.Equal(t, model.TaskStatusPending, items[0]["key"])
	assert.Equal(t, float64(2), items[0]["count"])

	resp, items = app.doList(t, "/api/views/categories-summary")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 1)
	assert.Equal(t, "Uncategorized", items[0]["key"])

	resp, items = app.doList(t, "/api/views/tags-summary")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, items, 0)
}

func TestNotificationEndpoints(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	var hits int
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	t.Cleanup(hook.Close)

	s, err := app.st.GetSettings(ctx)
	require.NoError(t, err)
	s.Destinations = hook.URL
	require.NoError(t, app.st.UpdateSettings(ctx, s))
	_, err = app.cache.Reload(ctx)
	require.NoError(t, err)

	due := time.Now().Add(-time.Hour)
	require.NoError(t, app.st.CreateTask(ctx, model.Task{ID: "late", Title: "Late task", DueAt: &due}))

	t.Run("bad mode is a client error", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPost, "/api/notifications/cron?mode=yearly", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["detail"], "mode must be one of")
	})

	t.Run("cron fires the overdue trigger", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPost, "/api/notifications/cron?mode=overdue", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1), body["sent"])
		assert.Equal(t, 1, hits)
	})

	t.Run("repeat cron is suppressed", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPost, "/api/notifications/cron?mode=overdue", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(0), body["sent"])
	})

	t.Run("test notification reports destinations", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPost, "/api/notifications/test", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []interface{}{hook.URL}, body["destinations"])
	})

	t.Run("logs are listed newest first", func(t *testing.T) {
		resp, logs := app.doList(t, "/api/notifications/logs?limit=10")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, logs, 2)
		assert.Equal(t, model.KindTest, logs[0]["kind"])
		assert.Equal(t, model.KindOverdue, logs[1]["kind"])

		resp, _ = app.do(t, http.MethodGet, "/api/notifications/logs?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTemplateEndpoints(t *testing.T) {
	app := newTestApp(t)

	t.Run("unset template reads back empty", func(t *testing.T) {
		resp, body := app.do(t, http.MethodGet, "/api/notifications/templates/due_soon", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "due_soon", body["key"])
		assert.Equal(t, "", body["markdown"])
	})

	t.Run("patch then get round trips", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPatch, "/api/notifications/templates/due_soon", map[string]string{
			"markdown": "soon: {task_title}",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["ok"])

		resp, body = app.do(t, http.MethodGet, "/api/notifications/templates/due_soon", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "soon: {task_title}", body["markdown"])
	})

	t.Run("empty markdown is rejected", func(t *testing.T) {
		resp, _ := app.do(t, http.MethodPatch, "/api/notifications/templates/due_soon", map[string]string{"markdown": "  "})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestConfigEndpoints(t *testing.T) {
	app := newTestApp(t)

	t.Run("get returns defaults", func(t *testing.T) {
		resp, body := app.do(t, http.MethodGet, "/api/config", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "UTC", body["timezone"])
		assert.Equal(t, float64(24), body["near_due_hours"])
	})

	t.Run("patch updates row and cache", func(t *testing.T) {
		resp, body := app.do(t, http.MethodPatch, "/api/config", map[string]interface{}{
			"timezone":       "Asia/Ho_Chi_Minh",
			"near_due_hours": 48,
			"destinations":   "https://a\nhttps://b",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["ok"])

		snap := app.cache.Current()
		assert.Equal(t, "Asia/Ho_Chi_Minh", snap.Timezone)
		assert.Equal(t, 48, snap.NearDueHours)
		assert.Equal(t, []string{"https://a", "https://b"}, snap.Destinations)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		resp, _ := app.do(t, http.MethodPatch, "/api/config", map[string]string{"timezone": "Mars/Olympus_Mons"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = app.do(t, http.MethodPatch, "/api/config", map[string]int{"near_due_hours": 0})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAttachmentEndpoints(t *testing.T) {
	app := newTestApp(t)

	_, task := app.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "with files"})
	taskID := task["id"].(string)

	upload := func(t *testing.T, taskID, filename, content string) *http.Response {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, app.srv.URL+"/api/tasks/"+taskID+"/attachments", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		resp, err := app.srv.Client().Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("upload stores and serves the file", func(t *testing.T) {
		resp := upload(t, taskID, "notes.txt", "hello")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "notes.txt", body["filename"])
		assert.Equal(t, "/static/notes.txt", body["url"])

		served, err := app.srv.Client().Get(app.srv.URL + "/static/notes.txt")
		require.NoError(t, err)
		defer served.Body.Close()
		require.Equal(t, http.StatusOK, served.StatusCode)
		content, err := io.ReadAll(served.Body)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(content))
	})

	t.Run("path components are stripped from filenames", func(t *testing.T) {
		resp := upload(t, taskID, "../../evil.txt", "x")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "evil.txt", body["filename"])
	})

	t.Run("list returns uploads", func(t *testing.T) {
		resp, list := app.doList(t, fmt.Sprintf("/api/tasks/%s/attachments", taskID))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, list, 2)
	})

	t.Run("upload against missing task is 404", func(t *testing.T) {
		resp := upload(t, "ghost", "x.txt", "x")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRateLimit(t *testing.T) {
	st := testutil.NewTestStore(t)
	cache := settings.NewCache(st)
	_, err := cache.Reload(context.Background())
	require.NoError(t, err)
	engine := notify.NewEngine(st, cache, notify.NewWebhookDispatcher(zerolog.Nop()), zerolog.Nop())

	s := server.New(server.Config{
		Addr:       ":0",
		UploadsDir: t.TempDir(),
		RatePerSec: 1,
		RateBurst:  1,
	}, st, cache, engine, zerolog.Nop())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	first, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}
