package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1F47E/geohash-zones/pkg/geocode"
	"github.com/1F47E/geohash-zones/pkg/livehash"
	"github.com/1F47E/geohash-zones/pkg/models"
)

var searchLocalOnly bool

var searchCmd = &cobra.Command{
	Use:   "search <address>",
	Short: "Look up an address and print its geohash",
	Long:  `Look up an address through geocode.maps.co, then photon.komoot.io, then a built-in table of well-known places.`,
	Args:  cobra.MinimumNArgs(1),
	Run:   runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchLocalOnly, "local", false, "Only use the built-in place table")
}

func runSearch(cmd *cobra.Command, args []string) {
	if searchLocalOnly {
		cfg.Geocode.LocalOnly = true
	}
	resolver := geocode.NewFromConfig(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 3*cfg.GeocodeTimeout())
	defer cancel()

	res, err := resolver.Resolve(ctx, strings.Join(args, " "))
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printTitle(res.Label)
	printStat("Coordinates", fmt.Sprintf("%.6f, %.6f", res.Lat, res.Lng))
	printStat("Geohash", res.Geohash)
	printStat("Source", res.Source)

	printSubtitle("Live geohash")
	for _, row := range livehash.Build(models.Location{Lat: res.Lat, Lon: res.Lng}).Rows() {
		fmt.Printf("  %d  %-9s %s\n", row.Precision, row.Hash, row.Label)
	}
}
