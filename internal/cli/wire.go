package cli

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jwulff/sentiscribe/internal/clients"
	"github.com/jwulff/sentiscribe/internal/config"
	"github.com/jwulff/sentiscribe/internal/feedback"
	"github.com/jwulff/sentiscribe/internal/ledger"
	"github.com/jwulff/sentiscribe/internal/listener"
	applog "github.com/jwulff/sentiscribe/internal/log"
	"github.com/jwulff/sentiscribe/internal/speech"
	"github.com/jwulff/sentiscribe/internal/transcribe"
)

// session bundles everything one listening run needs.
type session struct {
	ledger   *ledger.Ledger
	loop     *listener.Loop
	typed    *transcribe.Typed // nil unless the typed provider is configured
	feedback *feedback.Dispatcher
	closers  []func() error
}

// setup loads configuration and opens the log file.
func setup() (*config.Config, *zap.Logger, func(), error) {
	cfg, used, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, closeLog, err := applog.New(applog.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("config loaded",
		zap.String("file", used),
		zap.String("provider", cfg.Transcription.Provider),
		zap.String("classifier", cfg.Classifier.URL))
	return cfg, logger, closeLog, nil
}

func newProvider(cfg config.TranscriptionConfig, logger *zap.Logger) (transcribe.Provider, *transcribe.Typed, func() error, error) {
	switch cfg.Provider {
	case config.ProviderTyped:
		t := transcribe.NewTyped(cfg.Timeout)
		return t, t, nil, nil
	case config.ProviderDaemon:
		d := transcribe.NewDaemon(transcribe.DaemonOptions{
			Socket:  cfg.Socket,
			Locale:  cfg.Locale,
			Device:  cfg.Device,
			Timeout: cfg.Timeout,
			Logger:  logger.Named("daemon"),
		})
		return d, nil, d.Close, nil
	case config.ProviderWebSocket:
		w := transcribe.NewWebSocket(transcribe.WebSocketOptions{
			URL:     cfg.URL,
			Timeout: cfg.Timeout,
			Logger:  logger.Named("websocket"),
		})
		return w, nil, w.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
}

func newSynthesizer(cfg config.SpeechConfig) speech.Synthesizer {
	if !cfg.Enabled {
		return speech.Nop{}
	}
	return speech.Command{Name: cfg.Command, Args: cfg.Args}
}

// newSession wires provider, classifier, ledger, feedback and loop.
func newSession(cfg *config.Config, logger *zap.Logger, onEvent func(listener.Event)) (*session, error) {
	provider, typed, closeProvider, err := newProvider(cfg.Transcription, logger)
	if err != nil {
		return nil, err
	}

	synth := newSynthesizer(cfg.Speech)
	var fb *feedback.Dispatcher
	if cfg.Speech.Async {
		fb = feedback.NewAsync(synth, logger.Named("feedback"))
	} else {
		fb = feedback.New(synth, logger.Named("feedback"))
	}

	l := ledger.New()
	loop := listener.New(listener.Options{
		Provider:   provider,
		Classifier: clients.NewSentimentClient(cfg.Classifier.URL, cfg.Classifier.Timeout),
		Ledger:     l,
		Feedback:   fb,
		Logger:     logger.Named("listener"),
		Delay:      cfg.Listener.Delay,
		StopPhrase: cfg.Listener.StopPhrase,
		OnEvent:    onEvent,
	})

	s := &session{ledger: l, loop: loop, typed: typed, feedback: fb}
	if closeProvider != nil {
		s.closers = append(s.closers, closeProvider)
	}
	return s, nil
}

// Close stops the loop, waits for it, then releases the provider and
// drains pending feedback.
func (s *session) Close() error {
	s.loop.Stop()
	s.loop.Wait()
	s.feedback.Close()

	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
