package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/schollz/progressbar/v3"

	"github.com/aoipack/go-aoipack/aoipack"
)

func loadAOI(path string) (orb.MultiPolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		if len(fc.Features) == 0 {
			return nil, fmt.Errorf("feature collection in %s is empty", path)
		}

		var aoi orb.MultiPolygon
		for i, feature := range fc.Features {
			members, err := polygonsFromGeometry(feature.Geometry)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			aoi = append(aoi, members...)
		}
		return aoi, nil
	}

	if f, err := geojson.UnmarshalFeature(data); err == nil {
		return polygonsFromGeometry(f.Geometry)
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s as GeoJSON: %w", path, err)
	}

	return polygonsFromGeometry(g.Geometry())
}

func polygonsFromGeometry(g orb.Geometry) (orb.MultiPolygon, error) {
	switch geometry := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{geometry}, nil
	case orb.MultiPolygon:
		if len(geometry) == 0 {
			return nil, fmt.Errorf("multipolygon has no members")
		}
		return geometry, nil
	default:
		return nil, fmt.Errorf("AOI must be a polygon or multipolygon, got %s", g.GeoJSONType())
	}
}

func parseTimeRange(startStr, endStr string) (aoipack.TimeRange, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return aoipack.TimeRange{}, fmt.Errorf("could not parse end date: %w", err)
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -30)
	if startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return aoipack.TimeRange{}, fmt.Errorf("could not parse start date: %w", err)
		}
		start = parsed
	}

	if start.After(end) {
		return aoipack.TimeRange{}, fmt.Errorf("start date %s is after end date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	return aoipack.TimeRange{Start: start, End: end}, nil
}

func processResults(waitGroup *sync.WaitGroup, results chan *aoipack.TileResponse, processor aoipack.TileOutputter, bar *progressbar.ProgressBar) {
	defer waitGroup.Done()

	counter := 0
	for result := range results {
		err := processor.Save(result.Tile, result.Data)
		if err != nil {
			log.Printf("Couldn't save tile %s: %+v", result.Tile.ID(), err)
		}

		counter++
		bar.Add(1)
	}
	log.Printf("Saved %d tiles", counter)

	err := processor.Close()
	if err != nil {
		log.Printf("Error closing processor: %+v", err)
	}
}

func main() {
	geojsonPath := flag.String("geojson", "", "Path to a GeoJSON file with the area of interest polygon.")
	targetCount := flag.Int("tiles", 16, "Target number of tiles to partition the AOI bounding box into.")
	threshold := flag.Float64("threshold", aoipack.DefaultInclusionThreshold, "Minimum percentage of a tile covered by the AOI for the tile to be fetched.")
	resolution := flag.Float64("resolution", 10.0, "Ground resolution in meters per pixel.")
	startStr := flag.String("start", "", "Start of the acquisition window (YYYY-MM-DD). Defaults to 30 days before the end date.")
	endStr := flag.String("end", "", "End of the acquisition window (YYYY-MM-DD). Defaults to today.")
	bandsStr := flag.String("bands", "B04,B03,B02", "Comma-separated list of bands to request.")
	generatorStr := flag.String("generator", "http", "Which imagery fetcher to use. Options are http, s3.")
	urlTemplateStr := flag.String("url-template", "", "(For http generator) URL template with {minx}/{miny}/{maxx}/{maxy}/{width}/{height}/{start}/{end}/{bands} placeholders.")
	bucketStr := flag.String("bucket", "", "(For s3 generator) The name of the S3 bucket to fetch scenes from.")
	keyTemplateStr := flag.String("key-template", "", "(For s3 generator) The key template with {tile_id} and bound placeholders.")
	requesterPays := flag.Bool("requester-pays", false, "(For s3 generator) Send requester-pays on S3 requests.")
	outputMode := flag.String("output-mode", "disk", "Valid modes are: disk, pack.")
	outputDSN := flag.String("dsn", "", "Path, or DSN string, to output files.")
	numFetchWorkers := flag.Int("workers", 4, "Number of fetch workers to use.")
	requestTimeout := flag.Int("timeout", 120, "HTTP client timeout for imagery requests, in seconds.")
	cpuProfile := flag.String("cpuprofile", "", "Enables CPU profiling. Saves the dump to the given path.")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	if *geojsonPath == "" {
		log.Fatalf("AOI GeoJSON path (-geojson) is required")
	}

	if *outputDSN == "" {
		log.Fatalf("Output DSN (-dsn) is required")
	}

	aoi, err := loadAOI(*geojsonPath)
	if err != nil {
		log.Fatalf("Couldn't load AOI: %+v", err)
	}

	timeRange, err := parseTimeRange(*startStr, *endStr)
	if err != nil {
		log.Fatalf("Couldn't parse acquisition window: %+v", err)
	}

	bands := strings.Split(*bandsStr, ",")

	// Run the partition up front so validation errors surface before any
	// network work and the progress bar knows its length.
	tiles, err := aoipack.Tiles(aoi, *targetCount, *threshold)
	if err != nil {
		log.Fatalf("Couldn't partition AOI: %+v", err)
	}
	log.Printf("Partitioned AOI into %d tiles above the %.0f%% inclusion threshold", len(tiles), *threshold)

	var jobCreator aoipack.JobGenerator

	switch *generatorStr {
	case "http":
		jobCreator, err = aoipack.NewImageryJobGenerator(*urlTemplateStr, aoi, *targetCount, *threshold, *resolution, timeRange, bands, time.Duration(*requestTimeout)*time.Second)
	case "s3":
		if *bucketStr == "" {
			log.Fatalf("Bucket name is required")
		}

		if *keyTemplateStr == "" {
			log.Fatalf("Key template is required")
		}

		jobCreator, err = aoipack.NewS3SceneJobGenerator(*bucketStr, *keyTemplateStr, *requesterPays, aoi, *targetCount, *threshold, timeRange)
	default:
		log.Fatalf("Unknown job generator type %s", *generatorStr)
	}

	if err != nil {
		log.Fatalf("Failed to create jobCreator: %s", err)
	}

	var outputter aoipack.TileOutputter
	var outputterErr error

	switch *outputMode {
	case "disk":
		outputter, outputterErr = aoipack.NewDiskOutputter(*outputDSN)
	case "pack":
		packOutputter, err := aoipack.NewScenePackOutputter(*outputDSN)
		if err == nil {
			bound, _ := aoipack.BoundsOf(aoi)
			err = packOutputter.SetMetadata(map[string]string{
				"name":       *geojsonPath,
				"bounds":     aoipack.FormatBounds(bound),
				"threshold":  fmt.Sprintf("%g", *threshold),
				"resolution": fmt.Sprintf("%g", *resolution),
			})
		}
		outputter, outputterErr = packOutputter, err
	default:
		log.Fatalf("Unknown outputter: %s", *outputMode)
	}

	if outputterErr != nil {
		log.Fatalf("Couldn't create %s output: %+v", *outputMode, outputterErr)
	}

	if err := outputter.CreateTiles(); err != nil {
		log.Fatalf("Failed to create %s output: %+v", *outputMode, err)
	}

	jobs := make(chan *aoipack.TileRequest, len(tiles))
	results := make(chan *aoipack.TileResponse, len(tiles))

	bar := progressbar.Default(int64(len(tiles)), "fetching")

	// Start up the workers that will fetch imagery
	workerWG := &sync.WaitGroup{}
	for w := 0; w < *numFetchWorkers; w++ {
		worker, err := jobCreator.CreateWorker()
		if err != nil {
			log.Fatalf("Couldn't create %s worker: %+v", *generatorStr, err)
		}

		workerWG.Add(1)
		go func(id int) {
			defer workerWG.Done()
			worker(id, jobs, results)
		}(w)
	}

	// Start the worker that receives data from fetch workers
	resultWG := &sync.WaitGroup{}
	resultWG.Add(1)
	go processResults(resultWG, results, outputter, bar)

	if err := jobCreator.CreateJobs(jobs); err != nil {
		log.Fatalf("Failed to create jobs: %+v", err)
	}

	close(jobs)
	log.Print("Job queue closed")

	// When the workers are done, close the results channel
	workerWG.Wait()
	close(results)
	log.Print("Finished making imagery requests")

	// Wait for the results to be written out
	resultWG.Wait()
	log.Print("Finished processing tiles")
}
