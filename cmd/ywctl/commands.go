package main

import (
	"context"
	"errors"
	"io"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	xe "github.com/youwol/backends/pkg/errors"
	"github.com/youwol/backends/pkg/rest"
	"github.com/youwol/backends/pkg/utils/retry"
)

func newHealthzCommand(open opener) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "healthz",
		Short: "Check health of accounts, tree-db and cdn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closer, err := open(cmd)
			if err != nil {
				return err
			}
			defer closer()

			ctx := cmd.Context()
			if 0 < wait {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, wait)
				defer cancel()
			}

			result, err := retry.Until(
				ctx, retry.Exponential(200*time.Millisecond, 2, 5*time.Second),
				func(ctx context.Context) (map[string]string, error) {
					result, err := s.healthz(ctx)
					if err != nil && 0 < wait && transient(err) {
						return nil, retry.Transient(err)
					}
					return result, err
				},
			)
			if err != nil {
				return err
			}
			return s.print(result)
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "keep checking until all backends are healthy, up to this duration")
	return cmd
}

func (s *session) healthz(ctx context.Context) (map[string]string, error) {
	result := map[string]string{}
	acc, err := s.conf.Accounts.Healthz(ctx, s.headers)
	if err != nil {
		return nil, err
	}
	result["accounts"] = acc.Status
	tree, err := s.conf.TreeDb.Healthz(ctx, s.headers)
	if err != nil {
		return nil, err
	}
	result["treedb"] = tree.Status
	cdn, err := s.conf.Cdn.Healthz(ctx, s.headers)
	if err != nil {
		return nil, err
	}
	result["cdn"] = cdn.Status
	return result, nil
}

// transient tells whether err may be gone by itself: transport errors and 5xx.
func transient(err error) bool {
	if errors.Is(err, xe.ErrValidation) || errors.Is(err, xe.ErrConfiguration) {
		return false
	}
	if se, ok := rest.AsServiceError(err); ok {
		return rest.ClassOf(se.StatusCode()) == rest.ServerError
	}
	return true
}

func newSessionCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the session details of the given credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closer, err := open(cmd)
			if err != nil {
				return err
			}
			defer closer()

			session, err := s.conf.Accounts.GetSessionDetails(cmd.Context(), s.headers)
			if err != nil {
				return err
			}
			return s.print(session)
		},
	}
}

func newStorageCommand(open opener) *cobra.Command {
	storage := &cobra.Command{
		Use:   "storage",
		Short: "Get or post documents in session storage",
	}

	storage.AddCommand(&cobra.Command{
		Use:   "get <package> <key>",
		Short: "Print the document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closer, err := open(cmd)
			if err != nil {
				return err
			}
			defer closer()

			doc, err := s.conf.Storage.Get(cmd.Context(), args[0], args[1], s.headers)
			if err != nil {
				return err
			}
			return s.print(doc)
		},
	})

	storage.AddCommand(&cobra.Command{
		Use:   "post <package> <key> <json|->",
		Short: "Store a JSON object. With \"-\", it is read from stdin",
		Example: `  ywctl storage post my-app settings '{"theme": "dark"}'
  cat settings.json | ywctl storage post my-app settings -`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(args[2])
			if args[2] == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				raw = b
			}
			doc := map[string]any{}
			if err := json.Unmarshal(raw, &doc); err != nil {
				return err
			}

			s, closer, err := open(cmd)
			if err != nil {
				return err
			}
			defer closer()

			if _, err := s.conf.Storage.Post(cmd.Context(), args[0], args[1], doc, s.headers); err != nil {
				return err
			}
			return nil
		},
	})
	return storage
}

func newTreeCommand(open opener) *cobra.Command {
	tree := &cobra.Command{
		Use:   "tree",
		Short: "Manage drives and folders",
	}
	tree.AddCommand(&cobra.Command{
		Use:   "ensure-path <groupId> <driveName> [folder...]",
		Short: "Create the drive and folders if missing, and print their ids",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closer, err := open(cmd)
			if err != nil {
				return err
			}
			defer closer()

			path, err := s.conf.Paths.Ensure(cmd.Context(), args[0], args[1], args[2:], s.headers)
			if err != nil {
				return err
			}
			return s.print(path)
		},
	})
	return tree
}

func newCdnCommand(open opener) *cobra.Command {
	cdn := &cobra.Command{
		Use:   "cdn",
		Short: "Inspect libraries",
	}
	cdn.AddCommand(&cobra.Command{
		Use:   "library <libraryId>",
		Short: "Print the library info",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closer, err := open(cmd)
			if err != nil {
				return err
			}
			defer closer()

			lib, err := s.conf.Cdn.GetLibraryInfo(cmd.Context(), args[0], s.headers)
			if err != nil {
				return err
			}
			return s.print(lib)
		},
	})
	return cdn
}
