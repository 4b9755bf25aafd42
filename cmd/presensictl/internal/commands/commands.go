package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"presensictl/internal/api"
	"presensictl/internal/session"
	"presensictl/internal/transport"
)

// Globals carries top-level flags into every command.
type Globals struct {
	Debug   bool
	Version string
	Config  string
	BaseURL string
}

// app wires the session, pipeline and API client together for a single
// invocation.
type app struct {
	cfg     *Config
	session *session.Session
	client  *api.Client
}

func newApp(globals *Globals) (*app, error) {
	cfg, err := LoadConfig(globals.Config)
	if err != nil {
		return nil, err
	}
	if globals.BaseURL != "" {
		cfg.APIBaseURL = globals.BaseURL
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("no API base URL configured; set api_base_url in %s or pass --base-url", ConfigPath(globals.Config))
	}

	slot, err := session.NewSlot(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session storage: %w", err)
	}

	sess := session.New(slot)

	pipeline := transport.New(sess, transport.Config{
		RefreshPath:      api.RefreshPath,
		PassthroughPaths: []string{api.LoginPath, api.LogoutPath},
		Navigator: transport.NavigatorFunc(func() {
			fmt.Fprintln(os.Stderr, "Session expired. Run 'presensictl login' to sign in again.")
		}),
		Notifier: transport.NotifierFunc(func(category transport.Category, err error) {
			log.Debug().Str("category", category.String()).Err(err).Msg("request notification")
		}),
	})
	sess.AddLogoutHook(pipeline.Reset)

	httpClient := &http.Client{
		Transport: pipeline,
		Timeout:   cfg.Timeout,
	}

	client := api.NewClient(api.Config{
		BaseURL:           cfg.APIBaseURL,
		HTTPClient:        httpClient,
		CachingHTTPClient: api.NewCachingHTTPClient(pipeline, cfg.CacheDir, cfg.Timeout),
	})
	sess.AttachAPI(client)

	return &app{cfg: cfg, session: sess, client: client}, nil
}

// requireUser runs the bootstrap recovery and fails when no usable
// identity comes out of it.
func (a *app) requireUser(ctx context.Context) (*session.User, error) {
	if !a.session.Bootstrap(ctx) {
		return nil, fmt.Errorf("not logged in; run 'presensictl login'")
	}
	user := a.session.User()
	if user == nil {
		return nil, fmt.Errorf("not logged in; run 'presensictl login'")
	}
	return user, nil
}
