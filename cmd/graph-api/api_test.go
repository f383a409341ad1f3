package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/engine"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/history"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/policies"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/web"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.Default()

	policyEngine, err := policies.NewEngine(logger, policies.DefaultPreset())
	require.NoError(t, err)

	graphEngine := engine.New(logger, engine.NewStore(), policyEngine, history.NewManager(history.DefaultDepth), nil)

	api, err := NewAPI(context.Background(), logger, graphEngine)
	require.NoError(t, err)

	app, err := api.App()
	require.NoError(t, err)

	return app
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Graph API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/workflows/w1/batch", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_Integration_BatchLifecycle(t *testing.T) {
	app := setupTestApp(t)

	batch := map[string]any{
		"version": models.BatchSchemaVersion,
		"ops": []map[string]any{
			{"op": "add_node", "node": map[string]any{"id": "trigger-1", "type": "trigger:webhook"}},
			{"op": "add_node", "node": map[string]any{"id": "log-1", "type": "log"}},
			{"op": "connect", "from": "trigger-1", "to": "log-1"},
		},
	}

	payload, err := json.Marshal(batch)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/workflows/w1/batch", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var applied web.ApplyBatchResponse

	err = json.NewDecoder(resp.Body).Decode(&applied)
	require.NoError(t, err)
	assert.Equal(t, int64(1), applied.Version)
	assert.Equal(t, 3, applied.AppliedOpCount)

	req = httptest.NewRequest(http.MethodGet, "/workflows/w1", nil)
	req.Header.Set("Accept", "application/json")
	getResp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = getResp.Body.Close() }()

	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	var snapshot models.Snapshot

	err = json.NewDecoder(getResp.Body).Decode(&snapshot)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.Version)
	assert.Len(t, snapshot.Nodes, 2)
	assert.Len(t, snapshot.Connections, 1)

	req = httptest.NewRequest(http.MethodPost, "/workflows/w1/undo", nil)
	undoResp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = undoResp.Body.Close() }()

	assert.Equal(t, http.StatusOK, undoResp.StatusCode)

	var undone web.HistoryResponse

	err = json.NewDecoder(undoResp.Body).Decode(&undone)
	require.NoError(t, err)
	assert.True(t, undone.Success)
	assert.Equal(t, int64(0), undone.Version)

	req = httptest.NewRequest(http.MethodPost, "/workflows/w1/redo", nil)
	redoResp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = redoResp.Body.Close() }()

	assert.Equal(t, http.StatusOK, redoResp.StatusCode)

	var redone web.HistoryResponse

	err = json.NewDecoder(redoResp.Body).Decode(&redone)
	require.NoError(t, err)
	assert.True(t, redone.Success)
	assert.Equal(t, int64(1), redone.Version)
}
