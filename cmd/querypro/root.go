package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goatkit/querypro/internal/client"
	"github.com/goatkit/querypro/internal/config"
	"github.com/goatkit/querypro/internal/models"
	"github.com/goatkit/querypro/internal/session"
)

// skipSession marks commands that run without a session store or API client.
const skipSession = "skip-session"

// app carries the state shared by all commands of one invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfgFile string
	admin   bool
	output  string

	cfg      *config.Config
	logger   *slog.Logger
	store    session.Store
	provider *session.Provider
	api      *client.Client
}

func (a *app) role() models.Role {
	if a.admin {
		return models.RoleAdmin
	}
	return models.RoleStudent
}

// run executes one CLI invocation with args and releases the session store
// afterwards, whatever the outcome.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{in: in, out: out, errOut: errOut}
	defer func() { _ = a.close() }()

	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "querypro",
		Short:         "Query Pro complaint management client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default querypro.yaml in . or the user config dir)")
	flags.BoolVar(&a.admin, "admin", false, "act with the admin session")
	flags.StringVarP(&a.output, "output", "o", "table", "output format: table, json or yaml")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newComplaintsCmd(a),
		newStatsCmd(a),
		newTrackCmd(a),
		newSubmitCmd(a),
		newChatCmd(a),
		newPreviewCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
		newMockServerCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	switch a.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}

	cfg, err := config.Load(viper.New(), a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Log, a.errOut)
	slog.SetDefault(a.logger)

	if cmd.Annotations[skipSession] == "true" {
		return nil
	}

	store, err := session.OpenStore(cmd.Context(), &cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	a.store = store
	a.provider = session.NewProvider(store, a.role(), session.WithLogger(a.logger))
	if _, err := a.provider.Init(cmd.Context()); err != nil && !errors.Is(err, session.ErrNoSession) {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	a.api = client.New(cfg.API.BaseURL, a.provider,
		client.WithLogger(a.logger),
		client.WithTimeout(cfg.API.Timeout),
		client.WithUserAgent(cfg.API.UserAgent),
	)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
