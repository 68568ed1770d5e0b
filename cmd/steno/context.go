package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"steno/internal/clipboard"
	"steno/internal/config"
	"steno/internal/jobclient"
	"steno/internal/jobsync"
	"steno/internal/kvstore"
	"steno/internal/logging"
	"steno/internal/prefs"
	"steno/internal/speakers"
	"steno/internal/summary"
	"steno/internal/transcript"
	"steno/internal/view"
)

type commandContext struct {
	configFlag *string
	serverFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	clipboard clipboard.Writer
}

func newCommandContext(configFlag, serverFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.serverFlag != nil {
			if server := strings.TrimSpace(*c.serverFlag); server != "" {
				cfg.Server.BaseURL = strings.TrimRight(server, "/")
				if err := cfg.Validate(); err != nil {
					c.configErr = err
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) clipboardWriter() clipboard.Writer {
	if c.clipboard != nil {
		return c.clipboard
	}
	return clipboard.System{}
}

// session bundles the collaborators one command invocation needs.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	client    *jobclient.Client
	kv        kvstore.Store
	speakers  *speakers.Store
	templates *summary.Templates
	prefs     *prefs.Store
}

func (c *commandContext) withSession(cmd *cobra.Command, fn func(context.Context, *session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	client, err := jobclient.New(jobclient.Options{
		BaseURL: cfg.Server.BaseURL,
		Timeout: cfg.RequestTimeout(),
		Token:   cfg.Server.APIToken,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	kv, err := kvstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer kv.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s := &session{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		kv:        kv,
		speakers:  speakers.NewStore(ctx, kv, logger),
		templates: summary.NewTemplates(ctx, kv, logger),
		prefs:     prefs.New(kv, cfg.Display),
	}
	return wrapBackendError(fn(ctx, s), cfg.Server.BaseURL)
}

func (s *session) displayOptions(ctx context.Context) view.Options {
	return view.Options{
		PreviewMode:       s.prefs.PreviewMode(ctx),
		SummaryRenderMode: s.prefs.SummaryRenderMode(ctx),
	}
}

func (s *session) resolver() *transcript.Resolver {
	return transcript.NewResolver(s.client, s.logger)
}

func (s *session) newEngine(ctx context.Context, hooks jobsync.Hooks) *jobsync.Engine {
	return jobsync.New(s.client, jobsync.Options{
		Interval: s.cfg.PollInterval(),
		Resolver: s.resolver(),
		Names:    s.speakers,
		Display:  s.displayOptions(ctx),
		Hooks:    hooks,
		Logger:   s.logger,
	})
}

func (s *session) displayName(jobID string) transcript.DisplayNameFunc {
	return func(raw string) string { return s.speakers.DisplayName(jobID, raw) }
}

func wrapBackendError(err error, baseURL string) error {
	if err == nil {
		return nil
	}
	var httpErr *jobclient.HTTPError
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case jobclient.IsUnavailable(err):
		return fmt.Errorf("connect to backend: %s is not reachable; verify the transcription service is running: %w", baseURL, err)
	case errors.Is(err, jobclient.ErrNotFound):
		return fmt.Errorf("%s", jobclient.DetailMessage(err, "not found"))
	case errors.As(err, &httpErr):
		return fmt.Errorf("backend error (%d): %s", httpErr.StatusCode, httpErr.Message("request failed"))
	default:
		return err
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
