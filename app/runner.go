package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/timemore/bucket/logger"
)

var log = logger.NewPkgLogger()

const ShutdownTimeoutDefault = 15 * time.Second

// ServiceServer is a long-running server managed by RunServers.
type ServiceServer interface {
	ServerName() string

	// Serve blocks until the server stops. A server stopped through
	// Shutdown returns nil.
	Serve() error

	Shutdown(ctx context.Context) error

	// IsAcceptingClients reports whether Serve is accepting connections.
	IsAcceptingClients() bool

	IsHealthy() bool
}

// RunServers runs servers until the process receives SIGINT or SIGTERM.
// A second signal exits immediately.
func RunServers(servers []ServiceServer) {
	if len(servers) == 0 {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		// Restore the default behavior so another signal is fatal.
		stop()
		forced := make(chan os.Signal, 1)
		signal.Notify(forced, syscall.SIGINT, syscall.SIGTERM)
		<-forced
		log.Info().Msg("Forced shutdown.")
		os.Exit(0)
	}()

	RunServersUntil(ctx, servers, ShutdownTimeoutDefault)
}

// RunServersUntil starts every server and shuts them down once ctx is
// done. It returns when all servers have stopped.
func RunServersUntil(ctx context.Context, servers []ServiceServer, shutdownTimeout time.Duration) {
	// used to determine if all servers have stopped
	var serverStopWaiter sync.WaitGroup

	for _, srv := range servers {
		serverStopWaiter.Add(1)
		go func(innerSrv ServiceServer) {
			defer serverStopWaiter.Done()
			srvName := innerSrv.ServerName()
			log.Info().Msgf("Starting %s...", srvName)
			if err := innerSrv.Serve(); err != nil {
				log.Fatal().Err(err).Msgf("%s serve", srvName)
			}
			log.Info().Msgf("%s stopped", srvName)
		}(srv)
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		go func(innerSrv ServiceServer) {
			srvName := innerSrv.ServerName()
			log.Info().Msgf("shutting down %s...", srvName)
			if err := innerSrv.Shutdown(shutdownCtx); err != nil {
				log.Err(err).Msgf("%s shutdown", srvName)
			}
		}(srv)
	}

	serverStopWaiter.Wait()
	log.Info().Msg("Done.")
}
