package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageService(t *testing.T, environ []string, handler http.HandlerFunc) (*ImageService, string) {
	t.Helper()
	config := NewConfigurationServiceWithSources("", "", environ)
	require.NoError(t, config.Initialize())

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := filepath.Join(t.TempDir(), "images")
	s := NewImageService(config, dir)
	s.SetEndpoint(srv.URL)
	require.NoError(t, s.Initialize())
	return s, dir
}

func TestImageService_GeneratesFourImages(t *testing.T) {
	var (
		mu     sync.Mutex
		inputs []string
		auth   []string
	)
	s, dir := newImageService(t, []string{"HUGGINGFACE_API_KEY=hf_test"}, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		inputs = append(inputs, payload["inputs"])
		auth = append(auth, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	})

	paths, err := s.GenerateImages(context.Background(), "red sports car")
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for i, path := range paths {
		assert.Equal(t, filepath.Join(dir, "red_sports_car"+string(rune('1'+i))+".jpg"), path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(data))
	}

	require.Len(t, inputs, 4)
	for _, in := range inputs {
		assert.True(t, strings.HasPrefix(in, "red sports car, quality=4k, sharpness=maximum"), in)
		assert.Contains(t, in, "seed=")
	}
	assert.Equal(t, []string{"Bearer hf_test", "Bearer hf_test", "Bearer hf_test", "Bearer hf_test"}, auth)
}

func TestImageService_FailureWritesNothing(t *testing.T) {
	s, dir := newImageService(t, []string{"JARVIS_HUGGINGFACE_API_KEY=hf_test"}, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	})

	paths, err := s.GenerateImages(context.Background(), "sunset")
	require.Error(t, err)
	assert.Nil(t, paths)
	assert.Contains(t, err.Error(), "model is loading")
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestImageService_RequiresKeyAndPrompt(t *testing.T) {
	called := false
	s, _ := newImageService(t, nil, func(http.ResponseWriter, *http.Request) { called = true })

	_, err := s.GenerateImages(context.Background(), "sunset")
	assert.ErrorContains(t, err, "API key not configured for provider huggingface")

	_, err = s.GenerateImages(context.Background(), "   ")
	assert.EqualError(t, err, "image prompt is empty")
	assert.False(t, called)

	idle := NewImageService(nil, t.TempDir())
	assert.Equal(t, "image", idle.Name())
	_, err = idle.GenerateImages(context.Background(), "sunset")
	assert.EqualError(t, err, "image service not initialized")
	assert.Error(t, NewImageService(nil, "").Initialize())
}

func TestImageFileBase(t *testing.T) {
	assert.Equal(t, "a_cat_in_space", imageFileBase("a cat in space"))
	assert.Equal(t, "cats__dogs", imageFileBase("cats/ & dogs"))
	assert.Equal(t, "image", imageFileBase("???"))
}
