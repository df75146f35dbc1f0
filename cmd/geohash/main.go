package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/1F47E/geohash-zones/pkg/config"
	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/prefs"
)

var (
	configFile string
	verbose    bool
	logFormat  string

	cfg    config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "geohash",
	Short: "Geohash zone explorer",
	Long:  `Encode and decode geohashes, pick the precision for a map zoom, and explore the active zone interactively or over a websocket map.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger("warn", logFormat)
		config.LoadEnv(logger)

		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		format := cfg.Log.Format
		if cmd.Flags().Changed("log-format") {
			format = logFormat
		}
		logger = logging.NewLogger(level, format)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path (default config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(encodeCmd, decodeCmd, precisionCmd, liveCmd, neighborsCmd, coverCmd)
	rootCmd.AddCommand(searchCmd, serveCmd, exploreCmd, benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openPreferences opens the configured store, falling back to memory when
// the backend is unreachable. l receives later load and save warnings.
func openPreferences(ctx context.Context, l *logrus.Logger) *prefs.Preferences {
	store, err := prefs.Open(ctx, cfg)
	if err != nil {
		logger.WithError(err).WithField("backend", cfg.Prefs.Backend).Warn("Preference store unavailable, settings will not persist")
		store = prefs.NewMemoryStore()
	}
	p := prefs.New(store, l)
	p.SetMapDefaults(prefs.MapContext{
		Zoom:      cfg.Map.DefaultZoom,
		Latitude:  cfg.Map.DefaultLat,
		Longitude: cfg.Map.DefaultLon,
	})
	return p
}

func mustParseFloat(name, s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Fatalf("Invalid %s %q: %v", name, s, err)
	}
	return v
}
