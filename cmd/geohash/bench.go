package main

import (
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/livehash"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/overlay"
	"github.com/1F47E/geohash-zones/pkg/precision"
)

type benchmarkResult struct {
	Kind          string
	TotalOps      int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	OpsPerSec     float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	TotalResults  int64
}

var (
	benchKind      string
	benchOps       int
	benchWorkers   int
	benchPrecision int
	benchBoxSize   float64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark the codec and the grid cover",
	Long:  `Run encode, decode, live-set or cover operations on random points across worker goroutines.`,
	Run:   runBench,
}

func init() {
	benchCmd.Flags().StringVarP(&benchKind, "type", "t", "mixed", "Operation: encode, decode, live, cover, mixed")
	benchCmd.Flags().IntVarP(&benchOps, "ops", "n", 100000, "Number of operations")
	benchCmd.Flags().IntVarP(&benchWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")
	benchCmd.Flags().IntVarP(&benchPrecision, "precision", "p", 7, "Precision for encode, decode and cover")
	benchCmd.Flags().Float64Var(&benchBoxSize, "box-size", 0.5, "Box size in degrees for cover")
}

func runBench(cmd *cobra.Command, args []string) {
	if !precision.Valid(benchPrecision) {
		log.Fatalf("Precision must be between %d and %d, got %d", precision.Min, precision.Max, benchPrecision)
	}
	if benchWorkers < 1 {
		benchWorkers = 1
	}

	var op func(r *rand.Rand, loc models.Location) int
	switch benchKind {
	case "encode":
		op = benchEncode
	case "decode":
		op = benchDecode
	case "live":
		op = benchLive
	case "cover":
		op = benchCover
	case "mixed":
		ops := []func(*rand.Rand, models.Location) int{benchEncode, benchDecode, benchLive, benchCover}
		op = func(r *rand.Rand, loc models.Location) int {
			return ops[r.Intn(len(ops))](r, loc)
		}
	default:
		log.Fatalf("Unknown operation type: %s", benchKind)
	}

	printTitle("Geohash benchmark")
	fmt.Printf("Generating %d random points using %d workers...\n", benchOps, benchWorkers)
	points := generateRandomPoints(benchOps)

	fmt.Printf("Running %d %s operations...\n", benchOps, benchKind)
	result := runWorkers(points, benchWorkers, op)
	result.Kind = benchKind

	printSubtitle("Benchmark Results")
	printStat("Operation", result.Kind)
	printStat("Total operations", result.TotalOps)
	printStat("Total time", result.TotalDuration)
	printStat("Operations per second", fmt.Sprintf("%.0f", result.OpsPerSec))
	printStat("Average time", result.AvgDuration)
	printStat("Min time", result.MinDuration)
	printStat("Max time", result.MaxDuration)
	printStat("Cells produced", result.TotalResults)
	printStat("Workers used", benchWorkers)
	printStat("CPU cores", runtime.NumCPU())
	printSuccess("Done")
}

func benchEncode(_ *rand.Rand, loc models.Location) int {
	geohash.EncodeLocation(loc, benchPrecision)
	return 1
}

func benchDecode(_ *rand.Rand, loc models.Location) int {
	if _, err := geohash.Decode(geohash.EncodeLocation(loc, benchPrecision)); err != nil {
		return 0
	}
	return 1
}

func benchLive(_ *rand.Rand, loc models.Location) int {
	return len(livehash.Build(loc).Hashes)
}

func benchCover(_ *rand.Rand, loc models.Location) int {
	box := models.BoundingBox{
		BottomLeft: loc,
		TopRight:   models.Location{Lat: min(90, loc.Lat+benchBoxSize), Lon: min(180, loc.Lon+benchBoxSize)},
	}
	hashes, _ := overlay.CoverBox(box, precision.Clamp(benchPrecision-2), overlay.DefaultMaxGridCells)
	return len(hashes)
}

func runWorkers(points []models.Location, workers int, op func(*rand.Rand, models.Location) int) benchmarkResult {
	var (
		totalResults atomic.Int64
		minDuration  = time.Hour
		maxDuration  time.Duration
		mu           sync.Mutex
	)

	start := time.Now()

	// Worker pool
	work := make(chan models.Location, len(points))
	for _, p := range points {
		work <- p
	}
	close(work)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(rand.Int63()))
			localMin, localMax := time.Hour, time.Duration(0)

			for loc := range work {
				opStart := time.Now()
				n := op(r, loc)
				d := time.Since(opStart)

				totalResults.Add(int64(n))
				if d < localMin {
					localMin = d
				}
				if d > localMax {
					localMax = d
				}
			}

			mu.Lock()
			if localMin < minDuration {
				minDuration = localMin
			}
			if localMax > maxDuration {
				maxDuration = localMax
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	result := benchmarkResult{
		TotalOps:      len(points),
		TotalDuration: elapsed,
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		TotalResults:  totalResults.Load(),
	}
	if len(points) > 0 {
		result.AvgDuration = elapsed / time.Duration(len(points))
		result.OpsPerSec = float64(len(points)) / elapsed.Seconds()
	}
	return result
}

func generateRandomPoints(n int) []models.Location {
	points := make([]models.Location, n)

	// Use multiple goroutines to generate points in parallel
	numWorkers := runtime.NumCPU()
	batchSize := n / numWorkers
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * batchSize
		endIdx := startIdx + batchSize
		if w == numWorkers-1 {
			endIdx = n
		}

		go func(start, end int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(start)))

			for i := start; i < end; i++ {
				// Concentrate around major population centers
				var lat, lon float64
				switch r.Intn(5) {
				case 0: // North America
					lat = r.Float64()*30 + 30
					lon = r.Float64()*60 - 120
				case 1: // Europe
					lat = r.Float64()*20 + 40
					lon = r.Float64()*40 - 10
				case 2: // Asia
					lat = r.Float64()*40 + 20
					lon = r.Float64()*80 + 60
				case 3: // South America
					lat = r.Float64()*40 - 50
					lon = r.Float64()*30 - 80
				default:
					lat = r.Float64()*180 - 90
					lon = r.Float64()*360 - 180
				}
				points[i] = models.Location{Lat: lat, Lon: lon}
			}
		}(startIdx, endIdx)
	}

	wg.Wait()
	return points
}
