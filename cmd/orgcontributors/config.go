package main

import "time"

// Config is the container for app configuration
type Config struct {
	// LogLevel - logrus level name
	LogLevel string `default:"info"`

	// HTTPServerAddress - listen address for http server
	HTTPServerAddress string `default:"0.0.0.0:8080"`

	// HTTPProfileServerAddress - listen address for profiler http server. If empty, profiler server is disabled
	HTTPProfileServerAddress string `default:""`

	// GRPCServerAddress - listen address for grpc server. If empty, grpc server is disabled
	GRPCServerAddress string `default:"0.0.0.0:9090"`

	// ServiceResponseTimeout - timeout for a single loading job started by http or grpc request
	ServiceResponseTimeout time.Duration `default:"60s"`

	// DefaultVariant - strategy used when request doesn't name one
	DefaultVariant string `default:"concurrent"`

	// ChannelSize - buffer capacity for the channels strategy
	ChannelSize int `default:"8"`

	// MaxConcurrency - maximum number of concurrent contributors requests per job, 0 means no limit
	MaxConcurrency int `default:"0"`

	// GithubAPIAddress - address for rest api with protocol
	GithubAPIAddress string `default:"https://api.github.com"`

	// GithubUsername - username for basic auth (optional, token auth is used without it)
	GithubUsername string `default:""`

	// GithubAPIToken - auth token for rest github api (optional, rate limit is lower without this token)
	GithubAPIToken string `default:""`

	// GithubAPIRateLimit - max frequency for github rest api calls, 0 disables limiting
	GithubAPIRateLimit float64 `default:"10"`

	// GithubAPIRateBurst - number of github rest api calls allowed at once
	GithubAPIRateBurst int `default:"5"`

	// GithubPageSize - items requested per page (max 100)
	GithubPageSize int `default:"100"`

	// GithubMaxPages - maximum number of pages fetched for a single list
	GithubMaxPages int `default:"10"`

	// GithubClientCacheSize - maximum number of elements in cache for each github client method
	GithubClientCacheSize int `default:"10000"`

	// GithubClientCacheTTL - maximum lifetime for github client cache entries
	GithubClientCacheTTL time.Duration `default:"10m"`

	// GithubDBPath - filepath for bolt db data. If empty, data is not persisted
	GithubDBPath string `default:"./github.data"`

	// GithubDBBucketName - bolt db bucket name
	GithubDBBucketName string `default:"github"`

	// GithubDBDataTTL - maximum lifetime for staled data in db
	GithubDBDataTTL time.Duration `default:"8h"`

	// GithubDBDataRefreshTTL - maximum lifetime for staled data to be queued for refresh
	GithubDBDataRefreshTTL time.Duration `default:"1h"`
}
