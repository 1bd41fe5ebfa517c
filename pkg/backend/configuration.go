// Package backend wires clients of backend services from the gateway configuration.
package backend

import (
	"context"
	"net/http"

	"github.com/youwol/backends/pkg/clients/accounts"
	"github.com/youwol/backends/pkg/clients/cdn"
	"github.com/youwol/backends/pkg/clients/files"
	"github.com/youwol/backends/pkg/clients/storage"
	"github.com/youwol/backends/pkg/clients/treedb"
	"github.com/youwol/backends/pkg/configs/gateway"
	"github.com/youwol/backends/pkg/dependency"
	xe "github.com/youwol/backends/pkg/errors"
	"github.com/youwol/backends/pkg/locks"
	"github.com/youwol/backends/pkg/locks/postgres"
	"github.com/youwol/backends/pkg/rest"
	"github.com/youwol/backends/pkg/treepath"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Configuration holds resolved dependencies of request handlers.
//
// It is immutable after construction.
type Configuration struct {
	TreeDb   *treedb.Client
	Storage  *storage.Client
	Accounts *accounts.Client
	Cdn      *cdn.Client
	Files    *files.Client

	// FilesForward is the executor of the files service, for raw forwarding.
	FilesForward *rest.Executor

	Paths *treepath.Ensurer

	// AdminHeaders are headers to call backends as the gateway itself.
	AdminHeaders dependency.Source[rest.Headers]
}

type options struct {
	executor []rest.Option
	locker   locks.Locker
}

type Option func(*options) *options

// WithExecutorOptions applies options to executors of all services.
func WithExecutorOptions(opts ...rest.Option) Option {
	return func(o *options) *options {
		o.executor = append(o.executor, opts...)
		return o
	}
}

// WithLocker overrides the path lock chosen by configuration.
func WithLocker(l locks.Locker) Option {
	return func(o *options) *options {
		o.locker = l
		return o
	}
}

// New builds Configuration from cfg.
//
// # Returns
//
// - *Configuration
//
// - func(): releases resources (e.g. connections for path locks).
//
// - error: wraps errors.ErrConfiguration when cfg cannot be wired.
func New(ctx context.Context, cfg gateway.Config, opts ...Option) (*Configuration, func(), error) {
	o := &options{}
	for _, opt := range opts {
		o = opt(o)
	}

	common := []rest.Option{rest.WithTimeout(cfg.Timeout), rest.WithCACerts(cfg.CACerts...)}
	common = append(common, o.executor...)
	executor := func(service string, base string) (*rest.Executor, error) {
		exec, err := rest.New(service, base, common...)
		if err != nil {
			return nil, xe.WrapWithNote("wiring "+service, err)
		}
		return exec, nil
	}

	svc := cfg.Services
	execs := map[string]*rest.Executor{}
	for name, u := range map[string]string{
		"treedb":   svc.TreeDb.String(),
		"storage":  svc.Storage.String(),
		"accounts": svc.Accounts.String(),
		"cdn":      svc.Cdn.String(),
		"files":    svc.Files.String(),
	} {
		exec, err := executor(name, u)
		if err != nil {
			return nil, nil, err
		}
		execs[name] = exec
	}

	closer := func() {}
	locker := o.locker
	if locker == nil && cfg.PathLock.Postgres != "" {
		pg, err := postgres.Connect(ctx, cfg.PathLock.Postgres)
		if err != nil {
			return nil, nil, xe.Wrap(xe.Configuration("path lock: %s", err))
		}
		locker = pg
		closer = pg.Close
	}

	tree := treedb.New(execs["treedb"])
	conf := &Configuration{
		TreeDb:       tree,
		Storage:      storage.New(execs["storage"]),
		Accounts:     accounts.New(execs["accounts"]),
		Cdn:          cdn.New(execs["cdn"]),
		Files:        files.New(execs["files"]),
		FilesForward: execs["files"],
		Paths:        treepath.New(tree, locker),
		AdminHeaders: AdminHeaders(ctx, cfg.Admin, execs["accounts"].HTTPClient()),
	}
	return conf, closer, nil
}

// AdminHeaders returns a Source of Authorization header
// with an access token issued by OAuth2 client credentials flow.
//
// Tokens are cached until they expire.
// When admin is not enabled, the Source yields empty Headers.
//
// # Args
//
// - ctx: context to be used while fetching tokens. It should live as long as the Source.
//
// - admin: client credentials.
//
// - hc: client to call the token endpoint. If nil, http.DefaultClient is used.
func AdminHeaders(ctx context.Context, admin gateway.Admin, hc *http.Client) dependency.Source[rest.Headers] {
	if !admin.Enabled() {
		return dependency.Constant(rest.Headers{})
	}
	if hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	cc := clientcredentials.Config{
		ClientID:     admin.ClientId,
		ClientSecret: admin.ClientSecret,
		TokenURL:     admin.TokenUrl,
		Scopes:       admin.Scopes,
	}
	tokens := cc.TokenSource(ctx)

	return dependency.Deferred(func(context.Context) (rest.Headers, error) {
		tok, err := tokens.Token()
		if err != nil {
			return nil, xe.WrapWithNote("fetching admin token", err)
		}
		return rest.Headers{"Authorization": tok.Type() + " " + tok.AccessToken}, nil
	})
}
