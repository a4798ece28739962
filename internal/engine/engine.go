package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/demorec/internal/anim"
	"github.com/ivlev/demorec/internal/artifact"
	"github.com/ivlev/demorec/internal/capture"
	"github.com/ivlev/demorec/internal/config"
	"github.com/ivlev/demorec/internal/system"
)

// RecordingProject drives the whole run: build once, capture every demo
// concurrently, then normalize, encode and write each result in list order.
type RecordingProject struct {
	Config   *config.Config
	Builder  capture.Builder
	Capturer capture.Capturer
	Sink     artifact.Sink
}

func NewRecordingProject(cfg *config.Config, b capture.Builder, c capture.Capturer, s artifact.Sink) *RecordingProject {
	return &RecordingProject{
		Config:   cfg,
		Builder:  b,
		Capturer: c,
		Sink:     s,
	}
}

type captureResult struct {
	raw []byte
	err error
}

// Run records all configured demos. Per-demo failures (failed capture,
// malformed animation) are logged and skipped; a sink write failure aborts
// the run. If any demo was skipped, Run returns a summary error so the
// process still exits non-zero.
func (p *RecordingProject) Run(ctx context.Context) error {
	startTime := time.Now()

	demos := p.Config.Demos
	if len(demos) == 0 {
		return fmt.Errorf("no demos configured")
	}

	names := make([]string, len(demos))
	for i, d := range demos {
		names[i] = d.Name
	}
	if err := p.Sink.Purge(names); err != nil {
		log.Printf("[!] Stale artifact cleanup failed: %v", err)
	}

	// Placeholders unblock build steps that enumerate expected outputs
	// before any artifact exists. Removed again right after the build.
	for _, d := range demos {
		if err := p.Sink.WritePlaceholder(d.Name); err != nil {
			return fmt.Errorf("placeholder for %s: %w", d.Name, err)
		}
	}

	buildStart := time.Now()
	if err := p.Builder.Build(ctx); err != nil {
		log.Printf("[!] Build failed, captures may fail individually: %v", err)
	}
	buildTime := time.Since(buildStart)

	for _, d := range demos {
		if err := p.Sink.RemovePlaceholder(d.Name); err != nil {
			log.Printf("[!] Could not remove placeholder for %s: %v", d.Name, err)
		}
	}

	fmt.Printf("[*] Recording %d demos at width %d\n", len(demos), p.Config.Width)

	// Fire every capture before waiting on any, then consume in list order.
	// Each demo owns a buffered single-slot channel, so a slow demo delays
	// only the consumption loop, never its siblings' processes.
	captureStart := time.Now()
	var g errgroup.Group
	results := make([]chan captureResult, len(demos))
	for i, d := range demos {
		ch := make(chan captureResult, 1)
		results[i] = ch
		command := p.Config.DemoCommand(d.Name)
		height := d.Height
		g.Go(func() error {
			raw, err := p.Capturer.Capture(ctx, command, p.Config.Width, height)
			ch <- captureResult{raw: raw, err: err}
			return nil
		})
	}

	failed := 0
	for i, d := range demos {
		res := <-results[i]
		if res.err != nil && len(res.raw) == 0 {
			log.Printf("[!] %s: capture failed: %v", d.Name, res.err)
			failed++
			continue
		}
		if res.err != nil {
			log.Printf("[!] %s: capture exited with error, keeping partial output: %v", d.Name, res.err)
		}

		normalized, err := anim.Normalize(res.raw, p.Config.EndDelay)
		if err != nil {
			log.Printf("[!] %s: %v", d.Name, err)
			failed++
			continue
		}

		if err := p.Sink.Write(d.Name, artifact.Encode(normalized)); err != nil {
			return fmt.Errorf("write artifact for %s: %w", d.Name, err)
		}
		fmt.Printf("[>] Ready: %s (%d/%d)\n", d.Name, i+1, len(demos))
	}
	g.Wait()
	captureTime := time.Since(captureStart)

	if p.Config.ShowStats {
		p.printStats(len(demos), failed, time.Since(startTime), buildTime, captureTime)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d demos failed", failed, len(demos))
	}
	return nil
}

func (p *RecordingProject) printStats(total, failed int, totalTime, buildTime, captureTime time.Duration) {
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Demos: %d (%d failed)\n"+
			"Total Time: %.2fs\n"+
			"Build Step: %.2fs\n"+
			"Capture+Encode: %.2fs\n",
		p.Config.BuildVersion, total, failed,
		totalTime.Seconds(), buildTime.Seconds(), captureTime.Seconds(),
	)

	if st, err := system.Snapshot(); err == nil {
		report += fmt.Sprintf("CPU Time: %.2fs\nRSS: %.1f MB\n", st.CPUSeconds, float64(st.RSSBytes)/1024/1024)
	}

	report += "----------------------------\n"
	fmt.Print(report)
}
