package main

import (
	"context"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/1F47E/geohash-zones/pkg/geocode"
	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/mapview"
	"github.com/1F47E/geohash-zones/pkg/overlay"
	"github.com/1F47E/geohash-zones/pkg/session"
	"github.com/1F47E/geohash-zones/pkg/tui"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Explore geohash zones in the terminal",
	Run:   runExplore,
}

func runExplore(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	// Log lines would tear the full-screen UI.
	quiet := logging.Discard()

	preferences := openPreferences(ctx, quiet)
	defer preferences.Close()

	view := mapview.New()
	sess := session.New(ctx, view,
		session.WithLogger(quiet),
		session.WithPreferences(preferences),
		session.WithOverlay(
			overlay.WithZoneDelay(cfg.ZoneDelay()),
			overlay.WithMaxGridCells(cfg.Map.MaxGridCells),
		),
	)
	defer sess.Close()

	p := tea.NewProgram(tui.New(ctx, sess, view, geocode.NewFromConfig(cfg, quiet)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Explorer failed: %v", err)
	}
}
