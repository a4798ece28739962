package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ivlev/demorec/internal/artifact"
	"github.com/ivlev/demorec/internal/capture"
	"github.com/ivlev/demorec/internal/config"
	"github.com/ivlev/demorec/internal/engine"
	"github.com/ivlev/demorec/internal/system"
)

var version = "dev"

func main() {
	// Machine-local tool paths can live in a .env next to the working dir
	if err := godotenv.Load(); err == nil {
		fmt.Println("[*] Loaded environment overrides from .env")
	}

	buildPtr := flag.String("build", "go build -o bin/demo ./examples/demo", "Build command for the demo executables (run once via sh -c)")
	runnerPtr := flag.String("runner", "bin/demo", "Demo runner; the capture tool invokes '<runner> <name>'")
	captureBinPtr := flag.String("capture-bin", envOr("DEMOREC_CAPTURE_BIN", "svg-term"), "Capture tool emitting an animated SVG on stdout")
	outputPtr := flag.String("output", envOr("DEMOREC_OUTPUT_DIR", "images"), "Output directory for the embeddable artifacts")
	demosPtr := flag.String("demos", "", "YAML file with the demo list (name/height); built-in list if empty")
	widthPtr := flag.Int("width", 60, "Terminal width in columns for every capture")
	delayPtr := flag.Float64("end-delay", 2.0, "Seconds the loop rests on its final frame before restarting")
	timeoutPtr := flag.Duration("capture-timeout", 2*time.Minute, "Per-capture timeout (0 disables)")
	statsPtr := flag.Bool("stats", false, "Print a performance report after the run")

	flag.Parse()

	if *delayPtr <= 0 {
		log.Fatalf("[-] -end-delay must be positive, got %v", *delayPtr)
	}

	demos := config.DefaultDemos
	if *demosPtr != "" {
		loaded, err := config.LoadDemos(*demosPtr)
		if err != nil {
			log.Fatalf("[-] Could not load demo list: %v", err)
		}
		demos = loaded
		fmt.Printf("[*] Demo list: %s (%d demos)\n", *demosPtr, len(demos))
	}

	cfg := &config.Config{
		BuildCommand:   *buildPtr,
		DemoRunner:     *runnerPtr,
		CaptureBin:     *captureBinPtr,
		OutputDir:      *outputPtr,
		Width:          *widthPtr,
		EndDelay:       *delayPtr,
		CaptureTimeout: *timeoutPtr,
		ShowStats:      *statsPtr,
		BuildVersion:   version,
		Demos:          demos,
	}

	system.RaiseFileLimit(len(cfg.Demos))

	sink, err := artifact.NewDirSink(cfg.OutputDir)
	if err != nil {
		log.Fatalf("[-] Output directory: %v", err)
	}

	builder := &capture.ShellBuilder{Command: cfg.BuildCommand}
	capturer := &capture.SVGTermCapturer{
		Bin:     cfg.CaptureBin,
		Args:    []string{"--no-cursor"},
		Timeout: cfg.CaptureTimeout,
	}

	project := engine.NewRecordingProject(cfg, builder, capturer, sink)
	if err := project.Run(context.Background()); err != nil {
		log.Fatalf("[-] Run failed: %v", err)
	}

	fmt.Printf("[+++] Done! Artifacts in %s\n", cfg.OutputDir)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
