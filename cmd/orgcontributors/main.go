package main

import (
	"context"
	"fmt"
	netHttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/m-zajac/orgcontributors/internal/adapter/github"
	"github.com/m-zajac/orgcontributors/internal/api/grpc"
	"github.com/m-zajac/orgcontributors/internal/api/http"
	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/m-zajac/orgcontributors/internal/database"
	"github.com/m-zajac/orgcontributors/internal/limiter"
	"github.com/m-zajac/orgcontributors/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	l := logrus.New()
	l.Level = logrus.InfoLevel

	var conf Config
	if err := envconfig.Process("", &conf); err != nil {
		l.Fatalf("couldn't parse config: %v", err)
	}
	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		l.Fatalf("invalid log level: %v", err)
	}
	l.Level = level

	defaultVariant, err := app.ParseVariant(conf.DefaultVariant)
	if err != nil {
		l.Fatalf("invalid default variant: %v", err)
	}

	httpClient := &netHttp.Client{
		Timeout: 30 * time.Second,
	}
	limitedHTTPClient := limiter.NewHTTPDoer(
		httpClient,
		conf.GithubAPIRateLimit,
		conf.GithubAPIRateBurst,
	)
	clientOpts := []github.ClientOption{
		github.WithPageSize(conf.GithubPageSize),
		github.WithMaxPages(conf.GithubMaxPages),
	}
	serverCredentials := app.Credentials{
		Username: conf.GithubUsername,
		Token:    conf.GithubAPIToken,
	}

	var sharedClient app.GithubClient = github.NewClient(
		limitedHTTPClient,
		conf.GithubAPIAddress,
		serverCredentials,
		clientOpts...,
	)

	if conf.GithubDBPath != "" {
		kvStore, err := database.NewBoltKVStore(
			conf.GithubDBPath,
			conf.GithubDBBucketName,
		)
		if err != nil {
			l.Fatalf("couldn't create bolt kv store: %v", err)
		}
		defer kvStore.Close()

		githubStaleDataClient, err := github.NewClientWithStaleData(
			sharedClient,
			kvStore,
			conf.GithubDBDataTTL,
			conf.GithubDBDataRefreshTTL,
			l.WithField("component", "githubStaleDataClient"),
		)
		if err != nil {
			l.Fatalf("couldn't create github db client: %v", err)
		}
		githubStaleDataClient.RunScheduler()
		defer githubStaleDataClient.Close()
		sharedClient = githubStaleDataClient
	}

	githubCachedClient, err := github.NewCachedClient(
		sharedClient,
		conf.GithubClientCacheSize,
		conf.GithubClientCacheTTL,
	)
	if err != nil {
		l.Fatalf("couldn't create github client cache: %v", err)
	}

	// Requests with own credentials bypass shared caches, data visible to
	// these credentials may differ.
	newClient := func(c app.Credentials) app.GithubClient {
		if c.IsZero() || c == serverCredentials {
			return githubCachedClient
		}
		return github.NewClient(limitedHTTPClient, conf.GithubAPIAddress, c, clientOpts...)
	}

	m := metrics.New()
	service := app.NewService(
		newClient,
		m,
		l.WithField("component", "service"),
		app.WithChannelSize(conf.ChannelSize),
		app.WithMaxConcurrency(conf.MaxConcurrency),
	)

	mux := http.NewMux(
		service,
		defaultVariant,
		conf.ServiceResponseTimeout,
		m.Handler(),
		l.WithField("component", "mux"),
	)
	server := http.NewServer(
		conf.HTTPServerAddress,
		conf.HTTPProfileServerAddress,
		mux,
		l.WithField("component", "httpServer"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Any server failing stops the other one.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Run(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if conf.GRPCServerAddress != "" {
		grpcServer := grpc.NewServer(
			grpc.NewHandler(
				service,
				defaultVariant,
				conf.ServiceResponseTimeout,
				l.WithField("component", "grpcHandler"),
			),
			conf.GRPCServerAddress,
			l.WithField("component", "grpcServer"),
		)
		g.Go(func() error {
			if err := grpcServer.Run(ctx); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		l.Errorf("server returned error: %v", err)
	}
}
