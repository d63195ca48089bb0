package service

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"agromitra/internal/api"
	"agromitra/internal/app"
	"agromitra/internal/config"
	"agromitra/internal/pkg/events"
	"agromitra/internal/pkg/logger"
	"agromitra/internal/speech"
	"agromitra/internal/storage"
	"agromitra/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Flags are the global command-line flags. Non-empty values override the
// configuration.
type Flags struct {
	ConfigFile string
	APIURL     string
	LogLevel   string
	Yes        bool
}

// Env is the runtime a command works against.
type Env struct {
	App        *app.App
	Config     config.Config
	Log        *logger.Logger
	Registry   *prometheus.Registry
	Synth      speech.Synthesizer
	Recognizer speech.Recognizer

	// Close releases the store subscription and flushes the logger.
	Close func()
}

// Loader builds the runtime from the global flags.
type Loader func(Flags) (*Env, error)

// Bootstrap loads the configuration and wires storage, the event bus, the
// farmer and admin clients, the state store and the controllers.
func Bootstrap(flags Flags) (*Env, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if flags.APIURL != "" {
		cfg.APIURL = flags.APIURL
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}

	l, err := logger.CreateLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("service: create logger: %w", err)
	}

	kv, err := storage.NewFile(cfg.StoragePath, l)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := api.NewMetrics(reg)

	bus := events.NewBus()
	opts := []api.Option{
		api.WithLogger(l),
		api.WithMetrics(metrics),
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	farmer := api.NewFarmer(cfg.APIURL, kv, bus, opts...)
	admin := api.NewAdmin(cfg.APIURL, kv, opts...)

	st := store.New(farmer, kv, bus, l)
	st.Init()

	a := app.NewApp(farmer, admin, st, kv, l, app.WithPollInterval(cfg.Orders.PollInterval))
	return &Env{
		App:        a,
		Config:     cfg,
		Log:        l,
		Registry:   reg,
		Synth:      synthesizer(cfg.Speech.TTS, l),
		Recognizer: speech.CommandRecognizer{Path: cfg.Speech.STT},
		Close: func() {
			st.Close()
			_ = l.Sync()
		},
	}, nil
}

// synthesizer returns the configured text-to-speech program, or the first
// one found on PATH.
func synthesizer(path string, l *logger.Logger) speech.Synthesizer {
	if path == "" {
		return speech.Detect(l)
	}
	if strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) == "say" {
		return speech.NewCommand(path, speech.SayArgs, l)
	}
	return speech.NewCommand(path, speech.EspeakArgs, l)
}
