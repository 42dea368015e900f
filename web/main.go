package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/df07/go-blackhole-raytracer/pkg/scene"
	"github.com/df07/go-blackhole-raytracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	verbose := flag.Bool("verbose", false, "Log debug output")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	scene.SetLogger(logger)

	// Create and start web server
	webServer := server.NewServer(*port, logger)

	logger.Info("Black Hole Raytracer Web Server", "port", *port)

	if err := webServer.Start(); err != nil {
		logger.Error("Error starting server", "error", err)
		os.Exit(1)
	}
}
