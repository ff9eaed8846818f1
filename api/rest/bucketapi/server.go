package bucketapi

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/timemore/bucket/api/rest"
	"github.com/timemore/bucket/app"
	"github.com/timemore/bucket/bucket"
	"github.com/timemore/bucket/errors"
)

const EnvPrefixDefault = "BUCKETAPI"

type Config struct {
	Addr          string                `default:":8080"`
	ServePath     string                `split_words:"true" default:"/buckets"`
	MaxUploadSize int64                 `split_words:"true" default:"33554432"`
	CORS          rest.CORSFilterConfig `envconfig:"CORS"`
}

func ConfigFromEnv(prefix string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return cfg, errors.Wrap("config loading from environment variables", err)
	}
	return cfg, nil
}

// Server serves the bucket web service together with /stats and
// /metrics.
type Server struct {
	config     Config
	container  *restful.Container
	stats      *rest.StatsFilter
	httpServer *http.Server

	accepting atomic.Bool
}

var _ app.ServiceServer = &Server{}

func NewServer(cfg Config, manager *bucket.Manager) *Server {
	if cfg.ServePath == "" {
		cfg.ServePath = "/buckets"
	}

	container := restful.NewContainer()
	container.DoNotRecover(false)
	container.RecoverHandler(rest.NewRecover().RecoverOnPanic)

	statsFilter := rest.NewStatsFilter()
	container.Filter(rest.NewRequestLoggingFilter().Filter)
	container.Filter(statsFilter.Filter)
	rest.SetupCORSFilter(container, cfg.CORS)

	container.Add(NewBucketResource(manager, cfg.MaxUploadSize).RestfulWebService(cfg.ServePath))
	container.Handle("/stats", statsFilter)
	container.Handle("/metrics", promhttp.Handler())

	return &Server{
		config:    cfg,
		container: container,
		stats:     statsFilter,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           container,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (srv *Server) Handler() http.Handler { return srv.container }

func (srv *Server) ServerName() string { return "Bucket REST server" }

func (srv *Server) Serve() error {
	ln, err := net.Listen("tcp", srv.httpServer.Addr)
	if err != nil {
		return errors.Wrap("listen "+srv.httpServer.Addr, err)
	}
	log.Info().Str("addr", ln.Addr().String()).Str("path", srv.config.ServePath).Msg("serving")

	srv.accepting.Store(true)
	err = srv.httpServer.Serve(ln)
	srv.accepting.Store(false)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (srv *Server) Shutdown(ctx context.Context) error {
	srv.accepting.Store(false)
	return srv.httpServer.Shutdown(ctx)
}

func (srv *Server) IsAcceptingClients() bool { return srv.accepting.Load() }

func (srv *Server) IsHealthy() bool { return true }
