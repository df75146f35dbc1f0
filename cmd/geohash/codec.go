package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/geojson"
	"github.com/1F47E/geohash-zones/pkg/livehash"
	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/mapview"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/overlay"
	"github.com/1F47E/geohash-zones/pkg/precision"
)

var (
	encodePrecision int
	encodeZoom      float64
	liveZoom        float64
	coverPrecision  int
	coverZoom       float64
	asGeoJSON       bool
	coverSave       string
)

var encodeCmd = &cobra.Command{
	Use:   "encode <lat> <lng>",
	Short: "Encode a coordinate",
	Long:  `Encode a coordinate at the given precision, or at the precision picked for --zoom.`,
	Example: `  geohash encode -p 5 -- 42.6 -5.6
  geohash encode -z 12 -- 37.7749 -122.4194`,
	Args: cobra.ExactArgs(2),
	Run:  runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hash>",
	Short: "Decode a geohash to its cell",
	Args:  cobra.ExactArgs(1),
	Run:   runDecode,
}

var precisionCmd = &cobra.Command{
	Use:   "precision [zoom]",
	Short: "Show the precision for a zoom, or the whole zoom table",
	Args:  cobra.MaximumNArgs(1),
	Run:   runPrecision,
}

var liveCmd = &cobra.Command{
	Use:     "live <lat> <lng>",
	Short:   "Show the hash of a coordinate at every precision",
	Example: `  geohash live -z 13 -- 51.5074 -0.1278`,
	Args:    cobra.ExactArgs(2),
	Run:     runLive,
}

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <hash>",
	Short: "Show the eight cells around a geohash",
	Args:  cobra.ExactArgs(1),
	Run:   runNeighbors,
}

var coverCmd = &cobra.Command{
	Use:     "cover <south> <west> <north> <east>",
	Short:   "List the cells covering a bounding box",
	Example: `  geohash cover -p 2 -- 30 -130 45 -110`,
	Args:    cobra.ExactArgs(4),
	Run:     runCover,
}

func init() {
	encodeCmd.Flags().IntVarP(&encodePrecision, "precision", "p", precision.Max, "Precision (1-9)")
	encodeCmd.Flags().Float64VarP(&encodeZoom, "zoom", "z", -1, "Map zoom; overrides --precision")

	liveCmd.Flags().Float64VarP(&liveZoom, "zoom", "z", -1, "Map zoom to highlight the optimal row")
	liveCmd.Flags().BoolVar(&asGeoJSON, "geojson", false, "Print the cells as GeoJSON")

	coverCmd.Flags().IntVarP(&coverPrecision, "precision", "p", 0, "Precision (1-9)")
	coverCmd.Flags().Float64VarP(&coverZoom, "zoom", "z", 6, "Map zoom, used when --precision is not set")
	coverCmd.Flags().BoolVar(&asGeoJSON, "geojson", false, "Print the cells as GeoJSON")
	coverCmd.Flags().StringVar(&coverSave, "save", "", "Also write the cells as a map snapshot to this file")
}

func runEncode(cmd *cobra.Command, args []string) {
	lat := mustParseFloat("latitude", args[0])
	lng := mustParseFloat("longitude", args[1])

	p := encodePrecision
	if cmd.Flags().Changed("zoom") {
		p = precision.Select(encodeZoom)
	}
	if !precision.Valid(p) {
		log.Fatalf("Precision must be between %d and %d, got %d", precision.Min, precision.Max, p)
	}
	fmt.Println(geohash.Encode(lat, lng, p))
}

func runDecode(cmd *cobra.Command, args []string) {
	cell, err := geohash.Decode(args[0])
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	center := cell.Center()
	bounds := cell.Bounds()
	printTitle("Geohash " + cell.Hash)
	printStat("Precision", precision.Describe(cell.Precision()))
	printStat("Center", fmt.Sprintf("%.6f, %.6f", center.Lat, center.Lon))
	printStat("South-west", fmt.Sprintf("%.6f, %.6f", bounds.BottomLeft.Lat, bounds.BottomLeft.Lon))
	printStat("North-east", fmt.Sprintf("%.6f, %.6f", bounds.TopRight.Lat, bounds.TopRight.Lon))
	printStat("Size", fmt.Sprintf("%.6f° x %.6f°", cell.Height(), cell.Width()))
}

func runPrecision(cmd *cobra.Command, args []string) {
	if len(args) == 1 {
		p := precision.Select(mustParseFloat("zoom", args[0]))
		printStat("Precision", precision.Describe(p))
		return
	}

	printTitle("Zoom to precision")
	for _, t := range precision.ZoomTable {
		printStat(fmt.Sprintf("zoom <= %g", t.MaxZoom), precision.Describe(t.Precision))
	}
	printStat(fmt.Sprintf("zoom > %g", precision.ZoomTable[len(precision.ZoomTable)-1].MaxZoom), precision.Describe(precision.Max))
}

func runLive(cmd *cobra.Command, args []string) {
	center := models.Location{
		Lat: mustParseFloat("latitude", args[0]),
		Lon: mustParseFloat("longitude", args[1]),
	}
	set := livehash.Build(center)

	if asGeoJSON {
		printJSON(geojson.LiveSet(set))
		return
	}

	optimal := 0
	if cmd.Flags().Changed("zoom") {
		optimal = precision.Select(liveZoom)
	}

	printTitle(fmt.Sprintf("Live geohash at %.5f, %.5f", center.Lat, center.Lon))
	for _, row := range set.Rows() {
		marker := "  "
		if row.Precision == optimal {
			marker = "▶ "
		}
		fmt.Printf("%s%s%d%s  %-9s %s\n", marker, colorBold, row.Precision, colorReset, row.Hash, row.Label)
	}
}

func runNeighbors(cmd *cobra.Command, args []string) {
	hashes, err := geohash.Neighbors(args[0])
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	// 3x3 grid, north up
	grid := [3][3]string{
		{hashes[geohash.NorthWest], hashes[geohash.North], hashes[geohash.NorthEast]},
		{hashes[geohash.West], args[0], hashes[geohash.East]},
		{hashes[geohash.SouthWest], hashes[geohash.South], hashes[geohash.SouthEast]},
	}
	width := len(args[0])
	for _, row := range grid {
		for i, h := range row {
			if h == "" {
				h = "-"
			}
			if i > 0 {
				fmt.Print("  ")
			}
			fmt.Printf("%-*s", width, h)
		}
		fmt.Println()
	}
}

func runCover(cmd *cobra.Command, args []string) {
	box := models.BoundingBox{
		BottomLeft: models.Location{Lat: mustParseFloat("south", args[0]), Lon: mustParseFloat("west", args[1])},
		TopRight:   models.Location{Lat: mustParseFloat("north", args[2]), Lon: mustParseFloat("east", args[3])},
	}
	p := coverPrecision
	if p == 0 {
		p = precision.Select(coverZoom)
	}
	if !precision.Valid(p) {
		log.Fatalf("Precision must be between %d and %d, got %d", precision.Min, precision.Max, p)
	}

	hashes, truncated := overlay.CoverBox(box, p, cfg.Map.MaxGridCells)
	if truncated {
		logger.WithField("max_cells", cfg.Map.MaxGridCells).Warn("Cover truncated")
	}
	if coverSave != "" {
		saveCover(box, p, hashes)
	}

	if asGeoJSON {
		fc, err := geojson.Cells(hashes)
		if err != nil {
			log.Fatalf("Failed to build GeoJSON: %v", err)
		}
		printJSON(fc)
		return
	}
	for _, h := range hashes {
		fmt.Println(h)
	}
}

func saveCover(box models.BoundingBox, p int, hashes []string) {
	m := mapview.New()
	m.SetReady(true)
	m.SetViewport(models.Viewport{
		Center: models.Location{
			Lat: (box.BottomLeft.Lat + box.TopRight.Lat) / 2,
			Lon: (box.BottomLeft.Lon + box.TopRight.Lon) / 2,
		},
		Zoom:   coverZoom,
		Bounds: box,
	})
	for _, h := range hashes {
		cell, err := geohash.Decode(h)
		if err != nil {
			log.Fatalf("Failed to decode %s: %v", h, err)
		}
		r := models.Rectangle{Layer: models.LayerGrid, Hash: h, Bounds: cell.Bounds(), Style: overlay.GridStyle}
		if _, err := m.DrawRectangle(r); err != nil {
			log.Fatalf("Failed to add %s: %v", h, err)
		}
	}
	if err := m.SaveToFile(coverSave); err != nil {
		log.Fatalf("Failed to save map: %v", err)
	}
	logger.WithFields(logging.Fields{
		"file":      coverSave,
		"precision": p,
		"cells":     len(hashes),
	}).Info("Map snapshot saved")
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode JSON: %v", err)
	}
}
