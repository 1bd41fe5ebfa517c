package gateway_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/youwol/backends/pkg/configs/gateway"
	xe "github.com/youwol/backends/pkg/errors"
	"github.com/youwol/backends/pkg/utils/try"
)

const services = `
services:
  treedb: http://treedb:8080
  storage: http://storage:8080/api
  accounts: http://accounts:8080
  cdn: http://cdn:8080
  files: https://files.example.com
`

func write(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestLoad(t *testing.T) {
	t.Run("it loads full config", func(t *testing.T) {
		file := write(t, `
port: "9090"
logLevel: debug
timeout: 15s
caCerts: [Y2VydA==]
auth:
  hmacSecret: s3cret
admin:
  tokenUrl: https://auth.example.com/token
  clientId: gateway
  clientSecret: xxx
  scopes: [openid, profile]
pathLock:
  postgres: postgres://u:p@pg:5432/locks
`+services)

		actual := try.To(gateway.Load(file)).OrFatal(t)

		if actual.Port != "9090" || actual.LogLevel != "debug" || actual.Timeout != 15*time.Second {
			t.Errorf("unexpected: %+v", actual)
		}
		if !slices.Equal(actual.CACerts, []string{"Y2VydA=="}) {
			t.Errorf("unexpected caCerts: %v", actual.CACerts)
		}
		if actual.Services.Storage.String() != "http://storage:8080/api" ||
			actual.Services.Files.String() != "https://files.example.com" {
			t.Errorf("unexpected services: %+v", actual.Services)
		}
		if actual.Auth.HmacSecret != "s3cret" {
			t.Errorf("unexpected auth: %+v", actual.Auth)
		}
		if !actual.Admin.Enabled() || actual.Admin.ClientId != "gateway" ||
			!slices.Equal(actual.Admin.Scopes, []string{"openid", "profile"}) {
			t.Errorf("unexpected admin: %+v", actual.Admin)
		}
		if actual.PathLock.Postgres != "postgres://u:p@pg:5432/locks" {
			t.Errorf("unexpected pathLock: %+v", actual.PathLock)
		}
	})

	t.Run("it fills defaults", func(t *testing.T) {
		actual := try.To(gateway.Load(write(t, services))).OrFatal(t)

		if actual.Port != "8080" || actual.Timeout != 0 || actual.Admin.Enabled() || actual.Auth.HmacSecret != "" {
			t.Errorf("unexpected: %+v", actual)
		}
	})

	t.Run("when path is empty, it is taken from environment", func(t *testing.T) {
		t.Setenv(gateway.EnvConfigPath, write(t, services))
		actual := try.To(gateway.Load("")).OrFatal(t)
		if actual.Services.TreeDb.Host != "treedb:8080" {
			t.Errorf("unexpected: %+v", actual.Services)
		}
	})

	for name, content := range map[string]string{
		"when services are missing": `port: "8080"`,
		"when a service is missing": "services:\n  treedb: http://treedb:8080\n",
		"when a service is not absolute": `
services:
  treedb: /treedb
  storage: http://storage:8080
  accounts: http://accounts:8080
  cdn: http://cdn:8080
  files: http://files:8080
`,
		"when admin is partial": `
admin:
  clientId: gateway
` + services,
		"when timeout is negative": "timeout: -1s\n" + services,
		"when file is empty":       "",
		"when file is not yaml":    "services: [",
	} {
		t.Run(name+", it is a configuration error", func(t *testing.T) {
			_, err := gateway.Load(write(t, content))
			if !errors.Is(err, xe.ErrConfiguration) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	t.Run("when no path is given anywhere, it is a configuration error", func(t *testing.T) {
		t.Setenv(gateway.EnvConfigPath, "")
		if _, err := gateway.Load(""); !errors.Is(err, xe.ErrConfiguration) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("when file does not exist, it is a configuration error", func(t *testing.T) {
		_, err := gateway.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, xe.ErrConfiguration) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
