package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samvad-hq/samvad-blog-client/internal/config"
	"github.com/samvad-hq/samvad-blog-client/internal/logger"
	"github.com/samvad-hq/samvad-blog-client/internal/storage"
	"github.com/samvad-hq/samvad-blog-client/pkg/blogapi"
	"github.com/samvad-hq/samvad-blog-client/pkg/httpclient"
	"github.com/samvad-hq/samvad-blog-client/pkg/publishers"
)

// App is the blogctl runtime. It owns the API client, the session store and the
// activity publishers, and runs one command per invocation.
type App struct {
	cfg    *config.Config
	client *blogapi.Client
	store  storage.Store
	fanout *publishers.Fanout
	log    logger.Logger
	stdin  io.Reader
	stdout io.Writer
}

// NewApp builds the runtime from config. stdin feeds --password-stdin and stdout
// receives command results.
func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger, stdin io.Reader, stdout io.Writer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}

	client, err := blogapi.New(httpclient.NewRestyClient(cfg.APIBaseURL, cfg.APITimeout), log)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.SessionStoreType, cfg.SessionStorePath, storage.Options{
		SessionTTL:      cfg.SessionTTL,
		CleanupInterval: cfg.SessionCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("session storage initialized", "storage_config", map[string]any{
		"type":                     cfg.SessionStoreType,
		"path":                     cfg.SessionStorePath,
		"session_ttl_seconds":      int(cfg.SessionTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.SessionCleanupInterval.Seconds()),
	})

	return &App{
		cfg:    cfg,
		client: client,
		store:  store,
		fanout: fanout,
		log:    log,
		stdin:  stdin,
		stdout: stdout,
	}, nil
}

// buildFanout loads the optional publishers file. No file means no activity publishing.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil), nil
	}
	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	fanout, err := publishers.DefaultRegistry().BuildFanout(ctx, enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, p := range enabled {
		summaries = append(summaries, map[string]string{"id": p.ID, "type": p.Type})
	}
	log.DebugObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return fanout, nil
}

// Close releases the session store and publisher connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := a.fanout.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publishers: %w", err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// openSession restores the profile's persisted cookies, if any.
func (a *App) openSession(profile string) (*blogapi.Session, error) {
	cookies, err := a.store.LoadSession(profile)
	if err != nil {
		a.log.WarnObj("could not load stored session", "session_load", map[string]any{
			"profile": profile,
			"error":   err.Error(),
		})
		cookies = nil
	}
	sess, err := a.client.RestoreSession(cookies)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return sess, nil
}

// persistSession writes back whatever the session holds after a command. An empty
// session removes the stored entry.
func (a *App) persistSession(profile string, sess *blogapi.Session) {
	var err error
	if sess.Authenticated() {
		err = a.store.SaveSession(profile, sess.Export())
	} else {
		err = a.store.DeleteSession(profile)
	}
	if err != nil {
		a.log.WarnObj("could not persist session", "session_save", map[string]any{
			"profile": profile,
			"error":   err.Error(),
		})
	}
}

// publish reports a completed state change. Failures are logged and never alter the
// command's outcome.
func (a *App) publish(ctx context.Context, evt publishers.Event) {
	if a.fanout.Size() == 0 {
		return
	}
	delivered, err := a.fanout.Publish(ctx, evt)
	if err != nil {
		a.log.WarnObj("activity publish failed", "publish_error", map[string]any{
			"event_id":  evt.ID,
			"action":    evt.Action,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	a.log.DebugObj("activity published", "publish_result", map[string]any{
		"event_id":  evt.ID,
		"action":    evt.Action,
		"delivered": delivered,
	})
}

// Exit codes returned by blogctl.
const (
	ExitOK = iota
	ExitFailure
	ExitUsage
	ExitAuth
	ExitNotFound
	ExitNetwork
)

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrUsage) {
		return ExitUsage
	}
	kind, ok := blogapi.KindOf(err)
	if !ok {
		return ExitFailure
	}
	switch kind {
	case blogapi.KindAuth, blogapi.KindForbidden:
		return ExitAuth
	case blogapi.KindNotFound:
		return ExitNotFound
	case blogapi.KindNetwork, blogapi.KindCanceled:
		return ExitNetwork
	}
	return ExitFailure
}
