package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"beacon/internal/logging"
	"beacon/internal/metrics"
)

const (
	maxBindAttempts = 10
	shutdownTimeout = 5 * time.Second
)

// Sweeper is the drop-box maintenance loop run alongside the listener.
type Sweeper interface {
	RunSweeper(ctx context.Context, interval time.Duration)
}

// Options assembles a daemon from its collaborators. Registry and Resolver
// are created when absent; everything else stays nil unless wired.
type Options struct {
	Port          int
	Version       string
	Registry      *Registry
	Resolver      *Resolver
	Delivery      InputChannel
	Sweeper       Sweeper
	SweepInterval time.Duration
	Notifier      EventNotifier
	Refresher     Refresher
	Replies       ReplyHandler
	PersistPort   func(port int) error
	Logger        logging.Logger
}

type Daemon struct {
	opts   Options
	logger logging.Logger

	mu     sync.Mutex
	port   int
	server *http.Server
}

func New(opts Options) *Daemon {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Resolver == nil {
		opts.Resolver = NewResolver(opts.Registry)
	}
	opts.Registry.SetLogger(opts.Logger)
	return &Daemon{opts: opts, logger: opts.Logger, port: opts.Port}
}

// CurrentPort reports the port actually bound, which may exceed the
// configured one after conflict recovery.
func (d *Daemon) CurrentPort() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port
}

// Run binds the hook listener and serves until ctx is cancelled or the
// server fails. The drop-box sweeper runs alongside under the same group.
func (d *Daemon) Run(ctx context.Context) error {
	metrics.Register()

	listener, err := d.bind()
	if err != nil {
		return err
	}

	api := &API{
		Version:   d.opts.Version,
		Registry:  d.opts.Registry,
		Resolver:  d.opts.Resolver,
		Delivery:  d.opts.Delivery,
		Notifier:  d.opts.Notifier,
		Refresher: d.opts.Refresher,
		Replies:   d.opts.Replies,
		Logger:    d.logger,
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	server := &http.Server{Handler: LoggingMiddleware(d.logger, RecoverMiddleware(d.logger, mux))}
	d.mu.Lock()
	d.server = server
	d.mu.Unlock()

	d.logger.Info("daemon_listening",
		logging.F("addr", listener.Addr().String()),
		logging.F("version", d.opts.Version),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if d.opts.Sweeper != nil {
		g.Go(func() error {
			d.opts.Sweeper.RunSweeper(gctx, d.opts.SweepInterval)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Stop shuts the listener down without waiting for ctx cancellation.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	server := d.server
	d.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// bind claims a loopback listener, walking forward from the configured
// port while it is taken. Every migration is persisted before the retry so
// hook scripts can rediscover the daemon even if a later attempt fails.
func (d *Daemon) bind() (net.Listener, error) {
	port := d.opts.Port
	for attempt := 0; attempt < maxBindAttempts; attempt++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			bound := port
			if addr, ok := listener.Addr().(*net.TCPAddr); ok {
				bound = addr.Port
			}
			d.mu.Lock()
			d.port = bound
			d.mu.Unlock()
			return listener, nil
		}
		if !isAddrInUse(err) {
			return nil, err
		}
		d.logger.Warn("hook_port_in_use", logging.F("port", port))
		port++
		if d.opts.PersistPort != nil {
			if perr := d.opts.PersistPort(port); perr != nil {
				d.logger.Warn("hook_port_persist_failed", logging.F("port", port), logging.Err(perr))
			}
		}
	}
	return nil, fmt.Errorf("no free hook port after %d attempts starting at %d", maxBindAttempts, d.opts.Port)
}

func isAddrInUse(err error) bool {
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "address already in use")
}
