package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/assign"
	"github.com/ukydev/service-center/internal/auth"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/metrics"
	"github.com/ukydev/service-center/internal/middleware"
	"github.com/ukydev/service-center/internal/service"
)

type testAPI struct {
	handler http.Handler
	users   *db.Users
	metrics *metrics.Metrics
}

func newTestAPI(t *testing.T, opts ...func(*RouterConfig)) *testAPI {
	t.Helper()
	store := db.NewMemoryStore()
	users := db.NewUsers(store)
	requests := db.NewServiceRequests(store)
	txs := db.NewTransactions(store)

	assigner, err := assign.New(assign.StrategyLeastLoaded, requests)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	tokens := auth.NewService("test-secret", 0)
	svc := service.New(users, requests, txs, assigner,
		service.WithPublisher(m),
		service.WithLogger(logger),
	)

	cfg := RouterConfig{
		Auth:          NewAuthHandler(tokens, users),
		Workflow:      NewWorkflowHandler(svc),
		Authenticator: middleware.NewAuthMiddleware(auth.NewGate(tokens, users)),
		Metrics:       m,
		Gatherer:      reg,
		Logger:        logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &testAPI{handler: NewRouter(cfg), users: users, metrics: m}
}

// do sends a JSON request and decodes a JSON object response
func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

// signup registers and logs in a user, returning the access token
func (a *testAPI) signup(t *testing.T, role, name string) string {
	t.Helper()
	creds := map[string]string{"name": name, "email": name + "@example.com", "password": "password123"}
	code, body := a.do(t, http.MethodPost, "/"+role+"/register", "", creds)
	require.Equal(t, http.StatusCreated, code, body)

	code, body = a.do(t, http.MethodPost, "/"+role+"/login", "", creds)
	require.Equal(t, http.StatusOK, code, body)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func list(t *testing.T, body map[string]interface{}, key string) []interface{} {
	t.Helper()
	items, ok := body[key].([]interface{})
	require.True(t, ok, "missing %q in %v", key, body)
	return items
}

func field(t *testing.T, item interface{}, key string) interface{} {
	t.Helper()
	obj, ok := item.(map[string]interface{})
	require.True(t, ok)
	return obj[key]
}
