package main

import (
	"flag"
	"log"
	gohttp "net/http"
	"os"
	"time"

	"github.com/aoipack/go-aoipack/aoipack"
	"github.com/aoipack/go-aoipack/http"
)

func loggingMiddleware(logger *log.Logger) func(gohttp.Handler) gohttp.Handler {
	return func(next gohttp.Handler) gohttp.Handler {
		return gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
			defer func() {
				logger.Println(r.Method, r.URL.Path, r.RemoteAddr, r.UserAgent())
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func main() {
	packFile := flag.String("input", "", "The name of the scene pack file to serve from.")
	addr := flag.String("listen", ":8080", "The address and port to listen on")
	flag.Parse()

	logger := log.New(os.Stdout, "http: ", log.LstdFlags)

	if *packFile == "" {
		logger.Fatal("Need to provide --input parameter")
	}

	reader, err := aoipack.NewScenePackReader(*packFile)
	if err != nil {
		logger.Fatalf("Couldn't create scene pack reader, %v", err)
	}

	if metadata, err := reader.Metadata(); err == nil {
		if bounds, err := metadata.Bounds(); err == nil {
			logger.Printf("Serving scenes covering %s", aoipack.FormatBounds(bounds))
		}
	}

	rasterHandler := http.RasterHandler(reader)

	router := gohttp.NewServeMux()
	router.Handle("/rasters/", rasterHandler)
	router.HandleFunc("/", defaultHandler)

	server := &gohttp.Server{
		Addr:         *addr,
		Handler:      loggingMiddleware(logger)(router),
		ErrorLog:     logger,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		logger.Fatalf("Could not listen on %s: %v\n", *addr, err)
	}
}

func defaultHandler(w gohttp.ResponseWriter, r *gohttp.Request) {
	gohttp.NotFound(w, r)
}
