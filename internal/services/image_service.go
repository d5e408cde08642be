package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"jarvis/internal/logger"
)

const (
	// DefaultImageEndpoint is the Hugging Face inference endpoint for Stable Diffusion XL.
	DefaultImageEndpoint = "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0"
	imageProvider        = "huggingface"
	imagesPerPrompt      = 4
	imageRequestTimeout  = 2 * time.Minute
	imagePromptSuffix    = ", quality=4k, sharpness=maximum, Ultra High details, high resolution, seed=%d"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ImageService generates images for a prompt through the Hugging Face inference API and saves
// them as JPEG files.
type ImageService struct {
	initialized bool
	config      *ConfigurationService
	dir         string
	endpoint    string
	client      *http.Client
	seed        func() int
}

// NewImageService creates a service that saves images under dir and reads the API key
// (HUGGINGFACE_API_KEY) through config.
func NewImageService(config *ConfigurationService, dir string) *ImageService {
	return &ImageService{
		config:   config,
		dir:      dir,
		endpoint: DefaultImageEndpoint,
		client:   &http.Client{Timeout: imageRequestTimeout},
		seed:     func() int { return rand.IntN(1000000) },
	}
}

// Name returns the service name "image" for registration.
func (s *ImageService) Name() string {
	return "image"
}

// Initialize marks the service ready. A missing API key is reported by GenerateImages.
func (s *ImageService) Initialize() error {
	if s.dir == "" {
		return fmt.Errorf("image directory not set")
	}
	s.initialized = true
	return nil
}

// SetEndpoint points the service at another inference URL.
func (s *ImageService) SetEndpoint(endpoint string) {
	s.endpoint = endpoint
}

// GenerateImages requests four variations of prompt concurrently and returns the saved file paths
// in order. Nothing is written unless every request succeeds.
func (s *ImageService) GenerateImages(ctx context.Context, prompt string) ([]string, error) {
	if !s.initialized {
		return nil, fmt.Errorf("image service not initialized")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("image prompt is empty")
	}
	if s.config == nil {
		return nil, fmt.Errorf("configuration service not available")
	}
	key, err := s.config.GetAPIKey(imageProvider)
	if err != nil {
		return nil, err
	}

	images := make([][]byte, imagesPerPrompt)
	g, gctx := errgroup.WithContext(ctx)
	for i := range images {
		g.Go(func() error {
			data, err := s.query(gctx, key, prompt+fmt.Sprintf(imagePromptSuffix, s.seed()))
			if err != nil {
				return err
			}
			images[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	base := imageFileBase(prompt)
	paths := make([]string, 0, len(images))
	for i, data := range images {
		path := filepath.Join(s.dir, fmt.Sprintf("%s%d.jpg", base, i+1))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		paths = append(paths, path)
	}
	logger.Debug("Images saved", "prompt", prompt, "count", len(paths), "dir", s.dir)
	return paths, nil
}

func (s *ImageService) query(ctx context.Context, key, inputs string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"inputs": inputs})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}
	return data, nil
}

// imageFileBase turns a prompt into a file name stem, spaces becoming underscores.
func imageFileBase(prompt string) string {
	base := unsafeFileChars.ReplaceAllString(strings.ReplaceAll(prompt, " ", "_"), "")
	if base == "" {
		return "image"
	}
	return base
}
