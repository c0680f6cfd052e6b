package internal

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// shutdownTimeout bounds how long shutdown tasks may take before the process
// is killed anyway. Kubernetes sends SIGTERM 30 seconds before killing the pod.
const shutdownTimeout = 25 * time.Second

type GracefulShutdownHandler interface {
	Shutdown()          // Triggers a graceful shutdown programmatically.
	ShuttingDown() bool // Quickly checks if a shutdown is in progress.
	Wait()              // Blocks until shutdown tasks are complete.
}

type gracefulShutdown struct {
	quit         chan os.Signal
	shuttingDown atomic.Bool
	wg           sync.WaitGroup
}

// NewGracefulShutdown installs a SIGINT/SIGTERM handler. onShutdown (if not
// nil) runs once after a signal is received; the process exits afterwards.
func NewGracefulShutdown(onShutdown func() error) GracefulShutdownHandler {
	gs := &gracefulShutdown{
		quit: make(chan os.Signal, 1),
	}
	gs.wg.Add(1)

	go func() {
		defer gs.wg.Done()
		signal.Notify(gs.quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-gs.quit
		gs.shuttingDown.Store(true)
		zap.S().Infow("Received signal, shutting down", "signal", sig.String())

		if onShutdown != nil {
			timer := time.AfterFunc(shutdownTimeout, func() {
				zap.S().Errorw("Shutdown tasks did not complete in time", "timeout", shutdownTimeout)
				_ = zap.S().Sync()
				os.Exit(1)
			})
			defer timer.Stop()

			err := onShutdown()
			if err != nil {
				zap.S().Errorw("Error during shutdown", "error", err)
				return
			}
		}
		zap.S().Info("Shutdown tasks completed. Ready to exit.")
		os.Exit(0)
	}()

	return gs
}

func (gs *gracefulShutdown) ShuttingDown() bool {
	return gs.shuttingDown.Load()
}

func (gs *gracefulShutdown) Shutdown() {
	if !gs.ShuttingDown() {
		gs.quit <- syscall.SIGTERM
	}
}

func (gs *gracefulShutdown) Wait() {
	gs.wg.Wait()
}
