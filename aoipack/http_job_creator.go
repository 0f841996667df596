package aoipack

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

const (
	httpUserAgent = "go-aoipack/1.0"

	// TokenEnvVar names the environment variable holding the bearer token
	// sent with imagery requests, when set.
	TokenEnvVar = "AOIPACK_TOKEN"
)

// NewImageryJobGenerator builds a JobGenerator that requests one raster per
// included tile from an HTTP imagery service. The URL template may use the
// placeholders {minx}, {miny}, {maxx}, {maxy}, {width}, {height}, {start},
// {end} and {bands}.
func NewImageryJobGenerator(urlTemplate string, aoi orb.MultiPolygon, targetCount int, thresholdPercent float64, metersPerPixel float64, timeRange TimeRange, bands []string, httpTimeout time.Duration) (JobGenerator, error) {
	if urlTemplate == "" {
		return nil, fmt.Errorf("URL template is required")
	}

	// Configure the HTTP client with a timeout and connection pools
	httpClient := &http.Client{
		Timeout: httpTimeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 100,
		},
	}

	return &imageryJobGenerator{
		httpClient:       httpClient,
		urlTemplate:      urlTemplate,
		aoi:              aoi,
		targetCount:      targetCount,
		thresholdPercent: thresholdPercent,
		metersPerPixel:   metersPerPixel,
		timeRange:        timeRange,
		bands:            bands,
		authToken:        os.Getenv(TokenEnvVar),
	}, nil
}

type imageryJobGenerator struct {
	httpClient       *http.Client
	urlTemplate      string
	aoi              orb.MultiPolygon
	targetCount      int
	thresholdPercent float64
	metersPerPixel   float64
	timeRange        TimeRange
	bands            []string
	authToken        string
}

func doHTTPWithRetry(client *http.Client, request *http.Request, nRetries int) (*http.Response, error) {
	sleep := 500 * time.Millisecond

	for i := 0; i < nRetries; i++ {
		resp, err := client.Do(request)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == 200 {
			return resp, nil
		}

		resp.Body.Close()

		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			time.Sleep(sleep)
			sleep *= 2
			if sleep > 30*time.Second {
				sleep = 30 * time.Second
			}
			continue
		}

		return nil, fmt.Errorf("imagery request for %s failed: %s", request.URL, resp.Status)
	}

	return nil, fmt.Errorf("ran out of HTTP GET retries for %s", request.URL)
}

func (g *imageryJobGenerator) CreateWorker() (func(id int, jobs chan *TileRequest, results chan *TileResponse), error) {
	f := func(id int, jobs chan *TileRequest, results chan *TileResponse) {
		for request := range jobs {
			start := time.Now()

			httpReq, err := http.NewRequest("GET", request.URL, nil)
			if err != nil {
				log.Printf("Unable to create HTTP request: %+v", err)
				continue
			}

			httpReq.Header.Add("User-Agent", httpUserAgent)
			if g.authToken != "" {
				httpReq.Header.Add("Authorization", "Bearer "+g.authToken)
			}

			resp, err := doHTTPWithRetry(g.httpClient, httpReq, 5)
			if err != nil {
				log.Printf("Skipping tile %s: %+v", request.Tile.ID(), err)
				continue
			}

			bodyData, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				log.Printf("Error copying bytes from HTTP response: %+v", err)
				continue
			}

			results <- &TileResponse{
				Tile:    request.Tile,
				Data:    bodyData,
				Elapsed: time.Since(start).Seconds(),
			}

			// Sleep a tiny bit to try to prevent thundering herd
			time.Sleep(time.Duration(rand.Intn(50)) * time.Millisecond)
		}
	}

	return f, nil
}

func (g *imageryJobGenerator) CreateJobs(jobs chan *TileRequest) error {
	tiles, err := Tiles(g.aoi, g.targetCount, g.thresholdPercent)
	if err != nil {
		return err
	}

	for _, tile := range tiles {
		width, height, err := RasterSize(tile.Bound, g.metersPerPixel)
		if err != nil {
			return err
		}

		url := strings.NewReplacer(
			"{minx}", formatCoord(tile.Bound.Min.X()),
			"{miny}", formatCoord(tile.Bound.Min.Y()),
			"{maxx}", formatCoord(tile.Bound.Max.X()),
			"{maxy}", formatCoord(tile.Bound.Max.Y()),
			"{width}", strconv.Itoa(width),
			"{height}", strconv.Itoa(height),
			"{start}", g.timeRange.Start.Format("2006-01-02"),
			"{end}", g.timeRange.End.Format("2006-01-02"),
			"{bands}", strings.Join(g.bands, ","),
		).Replace(g.urlTemplate)

		jobs <- &TileRequest{
			Tile:   tile,
			URL:    url,
			Width:  width,
			Height: height,
			Range:  g.timeRange,
			Bands:  g.bands,
		}
	}

	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
