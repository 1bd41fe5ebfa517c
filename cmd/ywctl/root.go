package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"github.com/youwol/backends/pkg/backend"
	"github.com/youwol/backends/pkg/buildtime"
	"github.com/youwol/backends/pkg/configs/gateway"
	"github.com/youwol/backends/pkg/echoutil"
	"github.com/youwol/backends/pkg/rest"
)

type globalFlags struct {
	configPath string
	headers    []string
	token      string
	admin      bool
	loglevel   string
}

// session of a command: wired clients and headers to be sent.
type session struct {
	conf    *backend.Configuration
	headers rest.Headers
	out     io.Writer
}

func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "ywctl",
		Short: "Call youwol backend services",
		Long: `ywctl calls youwol backend services with the gateway configuration.

Headers are sent only as given by --header, --token or --admin.

Commands:
  healthz   Check health of backend services
  session   Show the session of the token
  storage   Get or post documents in session storage
  tree      Manage drives and folders
  cdn       Inspect libraries`,
		Version:      buildtime.VersionString(),
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config-path", "", "gateway config path. (default: $"+gateway.EnvConfigPath+")")
	pf.StringArrayVarP(&flags.headers, "header", "H", nil, "header to be sent, as KEY=VALUE. repeatable")
	pf.StringVar(&flags.token, "token", "", "bearer token to be sent as Authorization header")
	pf.BoolVar(&flags.admin, "admin", false, "send Authorization header with the admin credentials in config")
	pf.StringVar(&flags.loglevel, "loglevel", "warn", "log level. debug|info|warn|error|off")

	open := func(cmd *cobra.Command) (*session, func(), error) {
		return flags.open(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	root.AddCommand(
		newHealthzCommand(open),
		newSessionCommand(open),
		newStorageCommand(open),
		newTreeCommand(open),
		newCdnCommand(open),
	)
	return root
}

type opener func(cmd *cobra.Command) (*session, func(), error)

func (f *globalFlags) open(ctx context.Context, out io.Writer, errout io.Writer) (*session, func(), error) {
	cfg, err := gateway.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := log.New("ywctl")
	logger.SetOutput(errout)
	lvl, ok := echoutil.ParseLevel(f.loglevel)
	if !ok {
		return nil, nil, fmt.Errorf("unknown loglevel: %s", f.loglevel)
	}
	logger.SetLevel(lvl)

	conf, closer, err := backend.New(ctx, cfg, backend.WithExecutorOptions(rest.WithLogger(logger)))
	if err != nil {
		return nil, nil, err
	}

	headers := rest.Headers{}
	if f.admin {
		if !cfg.Admin.Enabled() {
			closer()
			return nil, nil, fmt.Errorf("--admin: admin credentials are not configured")
		}
		admin, err := conf.AdminHeaders.Resolve(ctx)
		if err != nil {
			closer()
			return nil, nil, err
		}
		headers = headers.Merge(admin)
	}
	if f.token != "" {
		headers = headers.Merge(rest.Headers{"Authorization": "Bearer " + f.token})
	}
	given, err := parseHeaders(f.headers)
	if err != nil {
		closer()
		return nil, nil, err
	}
	headers = headers.Merge(given)

	return &session{conf: conf, headers: headers, out: out}, closer, nil
}

func parseHeaders(pairs []string) (rest.Headers, error) {
	h := rest.Headers{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("--header: should be KEY=VALUE: %q", p)
		}
		h[strings.TrimSpace(k)] = v
	}
	return h, nil
}

func (s *session) print(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
