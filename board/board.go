// Package board wires the soundboard together: catalog, playback
// controller, import surface, HTTP server, and the optional manifest
// watcher.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/telagraphic/sfx-board/catalog"
	"github.com/telagraphic/sfx-board/config"
	"github.com/telagraphic/sfx-board/importjob"
	"github.com/telagraphic/sfx-board/logger"
	"github.com/telagraphic/sfx-board/playback"
	"github.com/telagraphic/sfx-board/server"
)

// Board represents the running soundboard
type Board struct {
	config     *config.Config
	catalog    *catalog.Service
	output     *playback.Output
	controller *playback.Controller
	imports    *importjob.Service
	server     *server.Server
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	errorChan  chan error
}

// New creates a Board from configuration. The speaker is not touched until
// Start.
func New(cfg *config.Config) *Board {
	ctx, cancel := context.WithCancel(context.Background())

	b := &Board{
		config:    cfg,
		catalog:   catalog.NewService(cfg.Server.Manifest),
		imports:   importjob.NewService(cfg.Import.SimulateDuration),
		logger:    logger.WithComponent("board"),
		ctx:       ctx,
		cancel:    cancel,
		errorChan: make(chan error, 1),
	}
	return b
}

// Start initializes audio output, loads the catalog, and begins serving.
// A manifest that cannot be loaded yields an empty board, not a failure;
// the board stays interactive and the manifest can be reloaded later.
func (b *Board) Start() error {
	b.logger.Info("Starting board...")

	output, err := playback.NewOutput(b.config.Playback.SampleRate)
	if err != nil {
		return fmt.Errorf("failed to initialize audio output: %w", err)
	}
	b.output = output

	loadCtx, cancel := context.WithTimeout(b.ctx, 10*time.Second)
	defer cancel()
	if err := b.catalog.Load(loadCtx); err != nil {
		b.logger.Warn("Manifest unavailable, starting with an empty board", logger.Err(err))
	} else {
		b.logger.Info("Catalog loaded", "clips", b.catalog.Len())
	}

	loader := playback.NewClipLoader(output, b.config.Server.AssetRoot, b.config.Playback.ProbeTTL)
	b.controller = playback.NewController(b.catalog, loader, playback.Options{
		LoadTimeout:   b.config.Playback.LoadTimeout,
		FinishedFlash: b.config.Playback.FinishedFlash,
	})

	b.server = server.New(b.config.Server.Addr, b.config.Server.AssetRoot, b.catalog, b.controller, b.imports)
	b.controller.SetListener(b.server.Publish)

	if b.config.Server.WatchManifest && !strings.HasPrefix(b.config.Server.Manifest, "http") {
		if err := b.startWatcher(); err != nil {
			b.logger.Warn("Manifest watcher unavailable", logger.Err(err))
		}
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case b.errorChan <- err:
			default:
			}
		}
	}()

	b.logger.Info("Board started", "addr", b.config.Server.Addr)
	return nil
}

// Stop gracefully shuts the board down
func (b *Board) Stop() error {
	b.logger.Info("Stopping board...")

	b.cancel()

	if b.watcher != nil {
		b.watcher.Close()
	}

	if b.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.server.Shutdown(ctx); err != nil {
			b.logger.Error("Server shutdown failed", logger.Err(err))
		}
	}

	if b.controller != nil {
		b.controller.Close()
	}
	if b.output != nil {
		b.output.Close()
	}

	b.wg.Wait()
	b.logger.Info("Board stopped")
	return nil
}

// Error returns the channel carrying fatal runtime errors
func (b *Board) Error() <-chan error {
	return b.errorChan
}

// startWatcher reloads the catalog whenever the manifest file changes on
// disk. Editors tend to replace rather than rewrite, so the parent
// directory is watched and events are filtered by file name.
func (b *Board) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(b.config.Server.Manifest)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	b.watcher = watcher

	manifest := filepath.Clean(b.config.Server.Manifest)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-b.ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != manifest {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				ctx, cancel := context.WithTimeout(b.ctx, 5*time.Second)
				if err := b.catalog.Load(ctx); err != nil {
					b.logger.Warn("Manifest reload failed", logger.Err(err))
				} else {
					b.logger.Info("Manifest reloaded", "clips", b.catalog.Len())
				}
				cancel()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				b.logger.Warn("Watcher error", logger.Err(err))
			}
		}
	}()

	b.logger.Info("Watching manifest", "path", b.config.Server.Manifest)
	return nil
}
