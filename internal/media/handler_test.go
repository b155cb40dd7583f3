package media

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"media-backend/internal/shared/auth"
	"media-backend/internal/shared/server/middleware"
)

type handlerFixture struct {
	router   *gin.Engine
	provider *fakeProvider
	repo     *countingRepo
	token    string
}

func newHandlerFixture(t *testing.T, maxBytes int64) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager("handler-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := tokens.Sign("user-1", "tester01@example.com")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	provider := newFakeProvider()
	repo := &countingRepo{MemoryRepo: NewMemoryRepo()}
	h := NewHandler(NewService(repo, provider, Resolver{Folder: "media"}, nil), maxBytes, false)

	router := gin.New()
	h.RegisterRoutes(router.Group(""), middleware.RequireAuth(tokens))
	return &handlerFixture{router: router, provider: provider, repo: repo, token: token}
}

func (f *handlerFixture) do(t *testing.T, req *http.Request, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func jsonRequest(method, path string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return body["error"]
}

func TestUploadBase64EndToEnd(t *testing.T) {
	f := newHandlerFixture(t, 0)

	resp := f.do(t, jsonRequest(http.MethodPost, "/media", map[string]string{
		"dataUrl":       "data:image/png;base64,iVBORw0KGgo=",
		"resource_type": "image",
	}), true)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		Item   map[string]any `json:"item"`
		Upload map[string]any `json:"upload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"id", "url", "publicId", "resourceType", "format", "bytes", "createdBy", "createdAt", "updatedAt"} {
		if _, ok := created.Item[key]; !ok {
			t.Fatalf("item missing %q: %v", key, created.Item)
		}
	}
	if created.Item["createdBy"] != "user-1" || created.Item["resourceType"] != "image" {
		t.Fatalf("unexpected item: %v", created.Item)
	}
	if created.Upload["secure_url"] != created.Item["url"] {
		t.Fatalf("upload result must echo the provider: %v", created.Upload)
	}
	if f.repo.creates != 1 || f.provider.calls() != 1 {
		t.Fatalf("expected one upload and one write, got %d/%d", f.provider.calls(), f.repo.creates)
	}
	if !bytes.Equal(f.provider.received, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
		t.Fatalf("provider received %v", f.provider.received)
	}
}

func TestUploadMultipart(t *testing.T) {
	f := newHandlerFixture(t, 0)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("upload", "clip.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte("hello world"))
	_ = w.WriteField("resource_type", "raw")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := f.do(t, req, true)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if string(f.provider.received) != "hello world" || f.provider.lastOpts.FileName != "clip.txt" {
		t.Fatalf("unexpected provider input %q %+v", f.provider.received, f.provider.lastOpts)
	}
}

func TestUploadWithoutTokenSkipsProvider(t *testing.T) {
	f := newHandlerFixture(t, 0)

	resp := f.do(t, jsonRequest(http.MethodPost, "/media", map[string]string{"url": "https://example.com/a.png"}), false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if f.provider.calls() != 0 || f.repo.creates != 0 {
		t.Fatalf("no upload may happen without a token")
	}
}

func TestUploadEmptyBody(t *testing.T) {
	f := newHandlerFixture(t, 0)

	resp := f.do(t, httptest.NewRequest(http.MethodPost, "/media", nil), true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if got := decodeError(t, resp); got != ErrNoUploadSource.Error() {
		t.Fatalf("unexpected error %q", got)
	}
	if f.provider.calls() != 0 {
		t.Fatalf("provider must not be called")
	}

	resp = f.do(t, jsonRequest(http.MethodPost, "/media", map[string]string{}), true)
	if resp.Code != http.StatusBadRequest || f.provider.calls() != 0 {
		t.Fatalf("expected 400 with no provider call, got %d", resp.Code)
	}
}

func TestUploadMalformedBodies(t *testing.T) {
	f := newHandlerFixture(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/media", strings.NewReader("--x\r\nbroken"))
	req.Header.Set("Content-Type", "multipart/form-data")
	resp := f.do(t, req, true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing boundary, got %d", resp.Code)
	}
	if got := decodeError(t, resp); got != ErrMalformedForm.Error() {
		t.Fatalf("unexpected error %q", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/media", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	if resp := f.do(t, req, true); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", resp.Code)
	}

	resp = f.do(t, jsonRequest(http.MethodPost, "/media", map[string]string{"url": "file:///etc/passwd"}), true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-http url, got %d", resp.Code)
	}
	if f.provider.calls() != 0 {
		t.Fatalf("provider must not be called for malformed bodies")
	}
}

func TestUploadTooLarge(t *testing.T) {
	f := newHandlerFixture(t, 64)

	resp := f.do(t, jsonRequest(http.MethodPost, "/media", map[string]string{
		"dataUrl": "data:text/plain;base64," + strings.Repeat("QUFB", 64),
	}), true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if f.provider.calls() != 0 {
		t.Fatalf("provider must not be called")
	}
}

func TestUploadProviderFailureHidesMessage(t *testing.T) {
	f := newHandlerFixture(t, 0)
	f.provider.uploadErr = errInvalidImage

	resp := f.do(t, jsonRequest(http.MethodPost, "/media", map[string]string{"url": "https://example.com/a.png"}), true)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if got := decodeError(t, resp); got != ErrUploadFailed.Error() {
		t.Fatalf("expected generic message, got %q", got)
	}
	if f.repo.creates != 0 {
		t.Fatalf("no record may be written")
	}
}

func TestListGetDelete(t *testing.T) {
	f := newHandlerFixture(t, 0)

	var ids []string
	for i := 0; i < 2; i++ {
		resp := f.do(t, jsonRequest(http.MethodPost, "/media", map[string]string{"url": "https://example.com/a.png"}), true)
		if resp.Code != http.StatusCreated {
			t.Fatalf("seed upload: %d", resp.Code)
		}
		var created CreateResponse
		_ = json.NewDecoder(resp.Body).Decode(&created)
		ids = append(ids, created.Item.ID)
	}

	resp := f.do(t, httptest.NewRequest(http.MethodGet, "/media", nil), false)
	if resp.Code != http.StatusOK {
		t.Fatalf("list: %d", resp.Code)
	}
	var list ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 2 || list.Items[0].ID != ids[1] {
		t.Fatalf("expected newest first, got %+v", list.Items)
	}

	resp = f.do(t, httptest.NewRequest(http.MethodGet, "/media?limit=1&offset=1", nil), false)
	_ = json.NewDecoder(resp.Body).Decode(&list)
	if len(list.Items) != 1 || list.Items[0].ID != ids[0] {
		t.Fatalf("unexpected page: %+v", list.Items)
	}

	resp = f.do(t, httptest.NewRequest(http.MethodGet, "/media/"+ids[0], nil), false)
	if resp.Code != http.StatusOK {
		t.Fatalf("get: %d", resp.Code)
	}

	if resp := f.do(t, httptest.NewRequest(http.MethodDelete, "/media/"+ids[0], nil), false); resp.Code != http.StatusUnauthorized {
		t.Fatalf("delete without token: %d", resp.Code)
	}
	if resp := f.do(t, httptest.NewRequest(http.MethodDelete, "/media/"+ids[0], nil), true); resp.Code != http.StatusOK {
		t.Fatalf("delete: %d", resp.Code)
	}
	resp = f.do(t, httptest.NewRequest(http.MethodGet, "/media/"+ids[0], nil), false)
	if resp.Code != http.StatusNotFound || decodeError(t, resp) != "not found" {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestSignatureUnsupported(t *testing.T) {
	f := newHandlerFixture(t, 0)
	resp := f.do(t, httptest.NewRequest(http.MethodPost, "/media/signature", nil), true)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestSignatureUsesRequestedPreset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewManager("handler-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _ := tokens.Sign("user-1", "tester01@example.com")
	provider := &signingProvider{fakeProvider: newFakeProvider()}
	h := NewHandler(NewService(NewMemoryRepo(), provider, Resolver{DefaultPreset: "env-preset"}, nil), 0, false)
	router := gin.New()
	h.RegisterRoutes(router.Group(""), middleware.RequireAuth(tokens))

	sign := func(req *http.Request) map[string]any {
		t.Helper()
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body
	}

	if got := sign(jsonRequest(http.MethodPost, "/media/signature", map[string]string{"upload_preset": "client-preset"})); got["upload_preset"] != "client-preset" {
		t.Fatalf("expected requested preset, got %v", got)
	}
	if got := sign(httptest.NewRequest(http.MethodPost, "/media/signature", nil)); got["upload_preset"] != "env-preset" {
		t.Fatalf("expected default preset, got %v", got)
	}
}
