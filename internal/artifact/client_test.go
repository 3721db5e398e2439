package artifact

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// fakeStore records uploads received by the test server
type fakeStore struct {
	mu       sync.Mutex
	uploads  map[string]string
	deletes  []string
	failName string
}

func (s *fakeStore) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		switch r.Method {
		case http.MethodPost:
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			if header.Filename == s.failName {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			data, _ := io.ReadAll(file)
			s.uploads[r.URL.Path+"/"+header.Filename] = string(data)
		case http.MethodDelete:
			s.deletes = append(s.deletes, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}
}

func setupStore(t *testing.T) (*fakeStore, *httptest.Server) {
	store := &fakeStore{uploads: make(map[string]string)}
	server := httptest.NewServer(store.handler(t))
	t.Cleanup(server.Close)
	return store, server
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestUploadDir_OnlyJSONFiles(t *testing.T) {
	store, server := setupStore(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"api_response_soccer_epl.json":   `[{"id":"a"}]`,
		"api_response_soccer_spain.json": `[]`,
		"notes.txt":                      "skip me",
	})

	client := NewClient(ClientConfig{BaseURL: server.URL + "/", APIKey: "key", Timeout: time.Second}, zerolog.Nop())

	uploaded, err := client.UploadDir(context.Background(), models.SportFootball, dir)

	require.NoError(t, err)
	assert.Equal(t, 2, uploaded)
	assert.Equal(t, `[{"id":"a"}]`, store.uploads["/football/upload/api_response_soccer_epl.json"])
	assert.Len(t, store.uploads, 2)
}

func TestUploadDir_ContinuesAfterFailure(t *testing.T) {
	store, server := setupStore(t)
	store.failName = "a.json"
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.json": "[]", "b.json": "[]"})

	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "key", Timeout: time.Second}, zerolog.Nop())

	uploaded, err := client.UploadDir(context.Background(), models.SportBasketball, dir)

	assert.Error(t, err)
	assert.Equal(t, 1, uploaded)
	assert.Contains(t, store.uploads, "/basketball/upload/b.json")
}

func TestDeleteAll(t *testing.T) {
	store, server := setupStore(t)
	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "key", Timeout: time.Second}, zerolog.Nop())

	require.NoError(t, client.DeleteAll(context.Background(), models.SportHockey))

	assert.Equal(t, []string{"/hockey/delete_all"}, store.deletes)
}

func TestDeleteAll_Unauthorized(t *testing.T) {
	_, server := setupStore(t)
	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "wrong", Timeout: time.Second}, zerolog.Nop())

	err := client.DeleteAll(context.Background(), models.SportHockey)

	assert.ErrorContains(t, err, "401")
}

func TestClient_RequiresConfiguration(t *testing.T) {
	noKey := NewClient(ClientConfig{BaseURL: "http://localhost"}, zerolog.Nop())
	assert.Error(t, noKey.DeleteAll(context.Background(), models.SportFootball))

	noURL := NewClient(ClientConfig{APIKey: "key"}, zerolog.Nop())
	assert.Error(t, noURL.DeleteAll(context.Background(), models.SportFootball))
}
