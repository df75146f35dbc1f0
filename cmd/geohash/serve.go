package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/1F47E/geohash-zones/pkg/api"
	"github.com/1F47E/geohash-zones/pkg/geocode"
	"github.com/1F47E/geohash-zones/pkg/overlay"
	"github.com/1F47E/geohash-zones/pkg/session"
	"github.com/1F47E/geohash-zones/pkg/wsmap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and the websocket map bridge",
	Run:   runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	preferences := openPreferences(ctx, logger)
	defer preferences.Close()

	geocoder := geocode.NewFromConfig(cfg, logger)
	ws := wsmap.NewServer(logger, geocoder,
		session.WithPreferences(preferences),
		session.WithOverlay(
			overlay.WithZoneDelay(cfg.ZoneDelay()),
			overlay.WithMaxGridCells(cfg.Map.MaxGridCells),
		),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.New(logger, geocoder, ws),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Graceful shutdown failed")
	}
}
