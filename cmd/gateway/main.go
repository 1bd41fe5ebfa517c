package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/youwol/backends/pkg/backend"
	"github.com/youwol/backends/pkg/buildtime"
	"github.com/youwol/backends/pkg/configs/gateway"
	"github.com/youwol/backends/pkg/dependency"
	"github.com/youwol/backends/pkg/metrics"
	"github.com/youwol/backends/pkg/rest"
	"github.com/youwol/backends/pkg/utils/filewatch"
)

func main() {
	configPath := flag.String("config-path", "", "gateway config path. (default: $"+gateway.EnvConfigPath+")")
	loglevel := flag.String("loglevel", "", "log level, overriding config. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	conf, err := gateway.Load(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}
	if *loglevel != "" {
		conf.LogLevel = *loglevel
	}

	reg := promclient.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := metrics.New(reg)
	if err != nil {
		log.Fatalf("can not register metrics: %s", err)
	}

	ctx := context.Background()
	registry := &dependency.Registry[*backend.Configuration]{}
	e := BuildServer(registry, ServerOptions{
		LogLevel:   conf.LogLevel,
		HmacSecret: []byte(conf.Auth.HmacSecret),
		Gatherer:   reg,
	})

	bconf, closer, err := backend.New(
		ctx, conf,
		backend.WithExecutorOptions(rest.WithLogger(e.Logger), rest.WithObserver(observer)),
	)
	if err != nil {
		log.Fatalf("can not wire backend services: %s", err)
	}
	defer closer()
	registry.SetValue(bconf)

	{
		wctx, cancel, err := filewatch.UntilModified(ctx, gateway.Path(*configPath))
		if err != nil {
			log.Fatalf("can not watch configuration: %s", err)
		}
		defer cancel()
		context.AfterFunc(wctx, func() {
			log.Printf("quit to restart server: %s", context.Cause(wctx))
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	log.Printf("youwol gateway %s", buildtime.VersionString())
	log.Println("registered routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		err = e.StartTLS(":"+conf.Port, cert, key)
	} else {
		err = e.Start(":" + conf.Port)
	}
	if !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}
