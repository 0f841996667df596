package aoipack

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/paulmach/orb"
)

// NewS3SceneJobGenerator builds a JobGenerator that fetches one raster per
// included tile from an S3 bucket holding pre-rendered scenes. The key
// template may use the {tile_id}, {minx}, {miny}, {maxx}, {maxy}, {start}
// and {end} placeholders. Credentials come from the default AWS chain.
func NewS3SceneJobGenerator(bucket string, keyTemplate string, requesterPays bool, aoi orb.MultiPolygon, targetCount int, thresholdPercent float64, timeRange TimeRange) (JobGenerator, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}

	downloader := s3manager.NewDownloader(
		sess,
		func(downloader *s3manager.Downloader) {
			// See https://levyeran.medium.com/high-memory-allocations-and-gc-cycles-while-downloading-large-s3-objects-using-the-aws-sdk-for-go-e776a136c5d0
			downloader.BufferProvider = s3manager.NewPooledBufferedWriterReadFromProvider(15 * 1024 * 1024)
		},
	)

	return &s3SceneJobGenerator{
		s3Client:         downloader,
		bucket:           bucket,
		requesterPays:    requesterPays,
		keyTemplate:      keyTemplate,
		aoi:              aoi,
		targetCount:      targetCount,
		thresholdPercent: thresholdPercent,
		timeRange:        timeRange,
	}, nil
}

type s3SceneJobGenerator struct {
	s3Client         *s3manager.Downloader
	bucket           string
	requesterPays    bool
	keyTemplate      string
	aoi              orb.MultiPolygon
	targetCount      int
	thresholdPercent float64
	timeRange        TimeRange
}

func (g *s3SceneJobGenerator) CreateWorker() (func(id int, jobs chan *TileRequest, results chan *TileResponse), error) {
	f := func(id int, jobs chan *TileRequest, results chan *TileResponse) {
		for request := range jobs {
			start := time.Now()

			input := &s3.GetObjectInput{
				Bucket: aws.String(g.bucket),
				Key:    aws.String(request.URL),
			}
			if g.requesterPays {
				input.RequestPayer = aws.String("requester")
			}

			buf := aws.NewWriteAtBuffer(nil)
			_, err := g.s3Client.Download(buf, input)
			if err != nil {
				log.Printf("Skipping tile %s: %+v", request.Tile.ID(), err)
				continue
			}

			results <- &TileResponse{
				Tile:    request.Tile,
				Data:    buf.Bytes(),
				Elapsed: time.Since(start).Seconds(),
			}
		}
	}

	return f, nil
}

func (g *s3SceneJobGenerator) CreateJobs(jobs chan *TileRequest) error {
	tiles, err := Tiles(g.aoi, g.targetCount, g.thresholdPercent)
	if err != nil {
		return err
	}

	for _, tile := range tiles {
		key := strings.NewReplacer(
			"{tile_id}", tile.ID(),
			"{minx}", strconv.FormatFloat(tile.Bound.Min.X(), 'f', -1, 64),
			"{miny}", strconv.FormatFloat(tile.Bound.Min.Y(), 'f', -1, 64),
			"{maxx}", strconv.FormatFloat(tile.Bound.Max.X(), 'f', -1, 64),
			"{maxy}", strconv.FormatFloat(tile.Bound.Max.Y(), 'f', -1, 64),
			"{start}", g.timeRange.Start.Format("2006-01-02"),
			"{end}", g.timeRange.End.Format("2006-01-02"),
		).Replace(g.keyTemplate)

		jobs <- &TileRequest{
			Tile:  tile,
			URL:   key,
			Range: g.timeRange,
		}
	}

	return nil
}
