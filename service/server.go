package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Run starts the server and blocks until a shutdown signal (SIGTERM,
// SIGINT), context cancellation, or a listener error. On the way out
// it drains in-flight requests for up to ShutdownTimeout and releases
// the facade's probes.
func (s *Service) Run(ctx context.Context) error {
	return s.serve(ctx, false, "", "")
}

// RunTLS is Run with TLS using the given certificate and key files.
func (s *Service) RunTLS(ctx context.Context, certFile, keyFile string) error {
	return s.serve(ctx, true, certFile, keyFile)
}

func (s *Service) serve(ctx context.Context, useTLS bool, certFile, keyFile string) error {
	defer s.close()

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.root,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		MaxHeaderBytes:    s.cfg.MaxHeaderBytes,
		TLSConfig:         s.cfg.TLSConfig,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(shutdownChan)

	serverErrChan := make(chan error, 1)

	go func() {
		s.log.Base().Info().
			Str("addr", srv.Addr).
			Bool("tls", useTLS).
			Str("service", s.cfg.Name).
			Msg("server starting")

		var err error
		if useTLS {
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = srv.ListenAndServe()
		}

		// ErrServerClosed is expected during graceful shutdown.
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
		close(serverErrChan)
	}()

	select {
	case err := <-serverErrChan:
		if err != nil {
			s.log.Base().Error().Err(err).Msg("server error")
			return err
		}
	case sig := <-shutdownChan:
		s.log.Base().Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received")
	case <-ctx.Done():
		s.log.Base().Info().
			Err(ctx.Err()).
			Msg("context cancelled, shutting down")
	}

	return s.shutdown(ctx, srv)
}

func (s *Service) shutdown(ctx context.Context, srv *http.Server) error {
	s.log.Base().Info().
		Dur("timeout", s.cfg.ShutdownTimeout).
		Msg("starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(
		context.WithoutCancel(ctx),
		s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Base().Error().
			Err(err).
			Msg("graceful shutdown failed, forcing close")

		if closeErr := srv.Close(); closeErr != nil {
			s.log.Base().Error().Err(closeErr).Msg("force close failed")
		}
		return err
	}

	s.log.Base().Info().Msg("server stopped gracefully")
	return nil
}

// Addr returns the configured listen address.
func (s *Service) Addr() string {
	return s.cfg.Addr
}

// Name returns the configured service name.
func (s *Service) Name() string {
	return s.cfg.Name
}
