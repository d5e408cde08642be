package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"jarvis/internal/automation"
	"jarvis/internal/browser"
	"jarvis/internal/desktop"
	"jarvis/internal/logger"
	"jarvis/internal/services"
	"jarvis/internal/shell"
	"jarvis/internal/storage"
	"jarvis/internal/voice"
	"jarvis/pkg/jarvistypes"
)

// memoryStorage selects the in-process store instead of a database file.
const memoryStorage = "memory"

// settings is the resolved configuration from flags, JARVIS_* variables and jarvis.yaml.
type settings struct {
	LogLevel   string
	LogFile    string
	TestMode   bool
	Headless   bool
	BrowserURL string
	Storage    string
	Provider   string
	Voice      string
	Speak      bool
	Notify     bool
}

func loadSettings(v *viper.Viper) settings {
	return settings{
		LogLevel:   v.GetString("log-level"),
		LogFile:    v.GetString("log-file"),
		TestMode:   v.GetBool("test-mode"),
		Headless:   v.GetBool("headless"),
		BrowserURL: v.GetString("browser-url"),
		Storage:    v.GetString("storage"),
		Provider:   v.GetString("provider"),
		Voice:      v.GetString("voice"),
		Speak:      v.GetBool("speak"),
		Notify:     v.GetBool("notify"),
	}
}

// defaultStoragePath is ~/.config/jarvis/jarvis.db, or ./jarvis.db when there is no config directory.
func defaultStoragePath() string {
	return dataPath("jarvis.db")
}

// dataPath places name under ~/.config/jarvis, or the working directory when there is no config directory.
func dataPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "jarvis", name)
}

func openStorage(location string) (jarvistypes.Storage, func() error, error) {
	if strings.EqualFold(location, memoryStorage) {
		return storage.NewMemoryStorage(), func() error { return nil }, nil
	}
	if location == "" {
		location = defaultStoragePath()
	}
	db, err := storage.OpenSQLite(location)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Storage opened", "path", db.Path())
	return db, db.Close, nil
}

// app owns everything a command needs. The browser side is attached only by commands that drive a page.
type app struct {
	settings   settings
	registry   *services.Registry
	store      jarvistypes.Storage
	chats      *services.ChatStorageService
	images     *services.ImageService
	dispatcher *automation.Dispatcher
	shell      *shell.Shell
	closers    []func() error
}

// newApp opens storage and initializes the services.
func newApp(s settings) (*app, error) {
	store, closeStore, err := openStorage(s.Storage)
	if err != nil {
		return nil, err
	}
	a := &app{settings: s, store: store, closers: []func() error{closeStore}}

	var speaker jarvistypes.Speaker
	if s.Speak {
		cloud := voice.NewCloudSpeaker(voice.NewBeepPlayer())
		a.closers = append(a.closers, cloud.Close)
		speaker = cloud
	}

	mode := jarvistypes.StaticMode(s.TestMode)
	config := services.NewConfigurationService()
	a.chats = services.NewChatStorageService(store, mode)
	voices := services.NewVoiceProfileService(speaker)
	a.images = services.NewImageService(config, dataPath("images"))

	a.registry = services.NewRegistry()
	for _, svc := range []jarvistypes.Service{
		config,
		services.NewThemeService(),
		services.NewMarkdownService(""),
		a.chats,
		voices,
		services.NewAIService(config, s.Provider),
		services.NewProgressService(progressOutput(s.TestMode)),
		a.images,
	} {
		if err := a.registry.RegisterService(svc); err != nil {
			a.Close()
			return nil, err
		}
	}
	if err := a.registry.InitializeAll(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if s.Voice != "" {
		if err := voices.SetProfile(s.Voice); err != nil {
			a.Close()
			return nil, err
		}
	}
	services.SetGlobalRegistry(a.registry)
	logger.Debug("Services initialized")
	return a, nil
}

// attach connects the dispatcher and shell to env. A nil env launches or connects to Chrome.
func (a *app) attach(ctx context.Context, env jarvistypes.Environment, exit func(), opts ...automation.Option) error {
	if env == nil {
		b, err := browser.Launch(ctx, browser.Options{
			ControlURL: a.settings.BrowserURL,
			Headless:   a.settings.Headless,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, b.Close)
		env = b
	}

	base := []automation.Option{
		automation.WithStorage(a.store),
		automation.WithSystemControl(desktop.NewVolumeControl()),
	}
	if a.settings.Notify {
		base = append(base, automation.WithNotifier(desktop.NewNotifier("")))
	}
	if !a.settings.TestMode {
		base = append(base, automation.WithImageGenerator(a.images))
	}
	a.dispatcher = automation.NewDispatcher(env, append(base, opts...)...)
	shellOpts := []shell.Option{shell.WithMode(jarvistypes.StaticMode(a.settings.TestMode))}
	if exit != nil {
		shellOpts = append(shellOpts, shell.WithExit(exit))
	}
	a.shell = shell.New(a.dispatcher, a.registry, shellOpts...)
	return nil
}

// Close stops the dispatcher and releases resources in reverse order of acquisition.
func (a *app) Close() {
	if a.dispatcher != nil {
		a.dispatcher.Close()
		a.dispatcher = nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		logger.Warn("Shutdown finished with errors", "error", err)
	}
}

// progressOutput keeps spinners out of deterministic test runs.
func progressOutput(testMode bool) io.Writer {
	if testMode {
		return nil
	}
	return os.Stdout
}

func validateScriptFile(scriptPath string) error {
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		return fmt.Errorf("script file does not exist: %s", scriptPath)
	}
	if ext := filepath.Ext(scriptPath); ext != ".jarvis" {
		return fmt.Errorf("script file must have .jarvis extension, got: %s", ext)
	}
	return nil
}
