// internal/catalog/handler_test.go
package catalog_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookvault/internal/catalog"
	"bookvault/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	search := &stubSearch{err: fmt.Errorf("%w: no backend", catalog.ErrSearchUnavailable)}
	svc := catalog.NewService(store.NewMemory(), search, zap.NewNop())
	srv := httptest.NewServer(catalog.NewHandler(svc, zap.NewNop()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "running", body["status"])
}

func TestCreateBookEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books?tenant_id=t1", map[string]any{
		"isbn":     "9780141439518",
		"title":    "Pride and Prejudice",
		"author":   "Jane Austen",
		"category": "fiction",
		"price":    9.99,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "book created", body["message"])
	id, err := uuid.Parse(body["book_id"].(string))
	require.NoError(t, err)

	// The created book is retrievable.
	getResp, err := http.Get(srv.URL + "/api/v1/books/" + id.String() + "?tenant_id=t1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	book := decodeBody(t, getResp)
	assert.Equal(t, "Pride and Prejudice", book["title"])
	assert.Equal(t, true, book["is_active"])
}

func TestCreateWithoutTenantIsBadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books", map[string]any{"isbn": "1"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateDuplicateISBNIsConflict(t *testing.T) {
	srv := newTestServer(t)

	first := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books?tenant_id=t1", map[string]any{"isbn": "123", "title": "a"})
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books?tenant_id=t1", map[string]any{"isbn": "123", "title": "b"})
	defer second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)
}

func TestGetUnknownBookIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/books/" + uuid.NewString() + "?tenant_id=t1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMalformedBookIDIsBadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/books/not-a-uuid?tenant_id=t1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMalformedPageParamIsBadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/books?tenant_id=t1&page=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchWithoutQueryIsBadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/books/search?tenant_id=t1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchDegradedResponseShape(t *testing.T) {
	srv := newTestServer(t)

	created := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books?tenant_id=t1", map[string]any{"isbn": "1", "title": "Dune"})
	created.Body.Close()
	require.Equal(t, http.StatusCreated, created.StatusCode)

	resp, err := http.Get(srv.URL + "/api/v1/books/search?tenant_id=t1&q=dune")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, "fallback-scan", body["source"])

	pagination, ok := body["pagination"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), pagination["total_items"])
	assert.Equal(t, float64(1), pagination["current_page"])
}

func TestListResponseShape(t *testing.T) {
	srv := newTestServer(t)

	created := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books?tenant_id=t1", map[string]any{"isbn": "1", "title": "Dune", "category": "scifi"})
	created.Body.Close()
	require.Equal(t, http.StatusCreated, created.StatusCode)

	resp, err := http.Get(srv.URL + "/api/v1/books?tenant_id=t1&category=scifi")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)

	pagination, ok := body["pagination"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(20), pagination["items_per_page"])
	assert.Equal(t, false, pagination["has_next"])
}

func TestDeleteThenGetByISBN(t *testing.T) {
	srv := newTestServer(t)

	created := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books?tenant_id=t1", map[string]any{"isbn": "42", "title": "Gone"})
	body := decodeBody(t, created)
	require.Equal(t, http.StatusCreated, created.StatusCode)
	id := body["book_id"].(string)

	byISBN, err := http.Get(srv.URL + "/api/v1/books/by-isbn/42?tenant_id=t1")
	require.NoError(t, err)
	byISBN.Body.Close()
	assert.Equal(t, http.StatusOK, byISBN.StatusCode)

	del := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/books/"+id+"?tenant_id=t1", nil)
	del.Body.Close()
	require.Equal(t, http.StatusOK, del.StatusCode)

	gone, err := http.Get(srv.URL + "/api/v1/books/by-isbn/42?tenant_id=t1")
	require.NoError(t, err)
	gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func TestUpdateCoverEndpoint(t *testing.T) {
	srv := newTestServer(t)

	created := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books?tenant_id=t1", map[string]any{"isbn": "7", "title": "Plain"})
	body := decodeBody(t, created)
	require.Equal(t, http.StatusCreated, created.StatusCode)
	id := body["book_id"].(string)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/books/"+id+"/image?tenant_id=t1", map[string]any{
		"cover_image_url": "https://covers.example/plain.jpg",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody(t, resp)
	assert.Equal(t, "https://covers.example/plain.jpg", updated["cover_image_url"])

	// Missing URL is rejected before reaching the service.
	bad := doJSON(t, http.MethodPut, srv.URL+"/api/v1/books/"+id+"/image?tenant_id=t1", map[string]any{})
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestCategoriesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	for i, category := range []string{"fiction", "scifi", "fiction"} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/books?tenant_id=t1", map[string]any{
			"isbn":     fmt.Sprintf("isbn-%d", i),
			"title":    "x",
			"category": category,
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/api/v1/books/categories?tenant_id=t1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	categories, ok := body["categories"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"fiction", "scifi"}, categories)
}
