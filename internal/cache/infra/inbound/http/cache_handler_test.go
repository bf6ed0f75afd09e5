package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/cache/application"
	"github.com/davicafu/rediscache/internal/cache/domain"
	"github.com/davicafu/rediscache/internal/cache/infra/outbound/memory"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func newRouter(t *testing.T) (*gin.Engine, *memory.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := memory.NewServer(0)
	t.Cleanup(server.Stop)

	backend := application.NewRedisBackend(domain.DefaultAdapterConfig(), server, zap.NewNop())
	t.Cleanup(func() { _ = backend.Close() })

	r := gin.New()
	RegisterCacheRoutes(r, NewCacheHandler(application.NewSyncBackend(backend), zap.NewNop()))
	return r, server
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCacheHandler_SaveLoadRemove(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(r, http.MethodPut, "/cache/greeting?lifetime=60", "hola mundo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"saved":true}`, string(decode(t, rec).Data))

	rec = do(r, http.MethodGet, "/cache/greeting", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hola mundo", rec.Body.String())
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))

	rec = do(r, http.MethodHead, "/cache/greeting", "")
	require.Equal(t, http.StatusOK, rec.Code)
	storedAt, err := strconv.ParseInt(rec.Header().Get(HeaderStoredAt), 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().Unix(), storedAt, 5)

	rec = do(r, http.MethodDelete, "/cache/greeting", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/cache/greeting", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodHead, "/cache/greeting", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/cache/greeting", "").Code)
}

func TestCacheHandler_SaveInvalidLifetime(t *testing.T) {
	r, _ := newRouter(t)

	for _, lt := range []string{"abc", "-5"} {
		rec := do(r, http.MethodPut, "/cache/k?lifetime="+lt, "v")
		assert.Equal(t, http.StatusBadRequest, rec.Code, lt)
	}
}

func TestCacheHandler_SaveInfiniteLifetime(t *testing.T) {
	r, server := newRouter(t)

	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cache/forever?lifetime=0", "v").Code)
	ttl, ok := server.TTL(0, "forever")
	require.True(t, ok)
	assert.Zero(t, ttl)

	rec := do(r, http.MethodGet, "/cache/forever/metadata", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var md domain.Metadata
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &md))
	assert.True(t, md.Never())
	assert.Empty(t, md.Tags)
}

func TestCacheHandler_MetadataAndTouch(t *testing.T) {
	r, _ := newRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cache/k?lifetime=100", "v").Code)

	rec := do(r, http.MethodGet, "/cache/k/metadata", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var before domain.Metadata
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &before))

	rec = do(r, http.MethodPost, "/cache/k/touch", `{"extra_lifetime":50}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/cache/k/metadata", "")
	var after domain.Metadata
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &after))
	assert.InDelta(t, before.ExpireAt+50, after.ExpireAt, 2)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/cache/missing/metadata", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/cache/missing/touch", `{"extra_lifetime":10}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/cache/k/touch", `{}`).Code)
}

func TestCacheHandler_ListAndClean(t *testing.T) {
	r, _ := newRouter(t)
	for _, id := range []string{"b", "a"} {
		require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cache/"+id, id).Code)
	}

	rec := do(r, http.MethodGet, "/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ids []string
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &ids))
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	// Las consultas por tags no están soportadas: lista vacía
	for _, match := range []string{"all", "none", "any"} {
		rec = do(r, http.MethodGet, "/cache?tags=x,y&match="+match, "")
		require.Equal(t, http.StatusOK, rec.Code, match)
		assert.JSONEq(t, `[]`, string(decode(t, rec).Data), match)
	}
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/cache?tags=x&match=some", "").Code)

	rec = do(r, http.MethodPost, "/cache/clean", `{"mode":"old"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cleaned":true}`, string(decode(t, rec).Data))

	rec = do(r, http.MethodPost, "/cache/clean", `{"mode":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/cache/clean", `{"mode":"all"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/cache", "")
	assert.JSONEq(t, `[]`, string(decode(t, rec).Data))
}

func TestCacheHandler_CapabilitiesAndFilling(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(r, http.MethodGet, "/capabilities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"automatic_cleaning":false,"tags":false,"expired_read":false,"priority":false,"infinite_lifetime":true,"get_list":true}`,
		string(decode(t, rec).Data))

	rec = do(r, http.MethodGet, "/filling-percentage", "")
	require.Equal(t, http.StatusNotImplemented, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unsupported", env.Error.Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
}

func TestCacheHandler_StoreUnavailable(t *testing.T) {
	r, server := newRouter(t)
	server.SetDialError(errors.New("connection refused"))

	rec := do(r, http.MethodGet, "/cache/k", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "store_unavailable", env.Error.Code)

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodHead, "/cache/k", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPut, "/cache/k", "v").Code)

	server.SetDialError(nil)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cache/k", "v").Code)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}
