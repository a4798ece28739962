package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/demorec/internal/anim"
	"github.com/ivlev/demorec/internal/artifact"
	"github.com/ivlev/demorec/internal/config"
)

const validAnim = "animation-duration: 4s; 0% {x:0} 50% {x:5} to {x:10}"

type fakeBuilder struct {
	mu      sync.Mutex
	calls   int
	err     error
	inBuild func()
}

func (b *fakeBuilder) Build(ctx context.Context) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.inBuild != nil {
		b.inBuild()
	}
	return b.err
}

type fakeCapturer struct {
	mu      sync.Mutex
	outputs map[string][]byte
	errs    map[string]error
	delays  map[string]time.Duration
	started []string
}

func (c *fakeCapturer) Capture(ctx context.Context, command string, width, height int) ([]byte, error) {
	fields := strings.Fields(command)
	name := fields[len(fields)-1]

	c.mu.Lock()
	c.started = append(c.started, name)
	c.mu.Unlock()

	if d := c.delays[name]; d > 0 {
		time.Sleep(d)
	}
	return c.outputs[name], c.errs[name]
}

type memorySink struct {
	mu           sync.Mutex
	placeholders map[string]bool
	artifacts    map[string][]byte
	writeOrder   []string
	events       []string
	writeErr     map[string]error
}

func newMemorySink() *memorySink {
	return &memorySink{
		placeholders: map[string]bool{},
		artifacts:    map[string][]byte{},
		writeErr:     map[string]error{},
	}
}

func (s *memorySink) WritePlaceholder(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placeholders[name] = true
	s.events = append(s.events, "placeholder:"+name)
	return nil
}

func (s *memorySink) RemovePlaceholder(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.placeholders, name)
	s.events = append(s.events, "remove:"+name)
	return nil
}

func (s *memorySink) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr[name]; err != nil {
		return err
	}
	s.artifacts[name] = data
	s.writeOrder = append(s.writeOrder, name)
	s.events = append(s.events, "write:"+name)
	return nil
}

func (s *memorySink) Purge(keep []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "purge")
	return nil
}

func testConfig(names ...string) *config.Config {
	demos := make([]config.Demo, len(names))
	for i, n := range names {
		demos[i] = config.Demo{Name: n, Height: 1}
	}
	return &config.Config{
		DemoRunner: "bin/demo",
		Width:      60,
		EndDelay:   2,
		Demos:      demos,
	}
}

func newProject(cfg *config.Config, c *fakeCapturer, s *memorySink) (*RecordingProject, *fakeBuilder) {
	b := &fakeBuilder{}
	return NewRecordingProject(cfg, b, c, s), b
}

func TestRunWritesAllArtifacts(t *testing.T) {
	cfg := testConfig("simple", "multiple", "indeterminate")
	capturer := &fakeCapturer{outputs: map[string][]byte{
		"simple":        []byte(validAnim),
		"multiple":      []byte(validAnim),
		"indeterminate": []byte(validAnim),
	}}
	sink := newMemorySink()
	project, builder := newProject(cfg, capturer, sink)

	if err := project.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if builder.calls != 1 {
		t.Errorf("Expected exactly one build, got %d", builder.calls)
	}
	if len(sink.placeholders) != 0 {
		t.Errorf("Placeholders left behind: %v", sink.placeholders)
	}

	normalized, err := anim.Normalize([]byte(validAnim), cfg.EndDelay)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	want := string(artifact.Encode(normalized))

	for _, d := range cfg.Demos {
		got, ok := sink.artifacts[d.Name]
		if !ok {
			t.Errorf("No artifact for %s", d.Name)
			continue
		}
		if string(got) != want {
			t.Errorf("Artifact for %s differs from encode(normalize(raw))", d.Name)
		}
	}
}

func TestRunWritesInListOrder(t *testing.T) {
	cfg := testConfig("slow", "mid", "fast")
	capturer := &fakeCapturer{
		outputs: map[string][]byte{
			"slow": []byte(validAnim),
			"mid":  []byte(validAnim),
			"fast": []byte(validAnim),
		},
		delays: map[string]time.Duration{
			"slow": 150 * time.Millisecond,
			"mid":  50 * time.Millisecond,
		},
	}
	sink := newMemorySink()
	project, _ := newProject(cfg, capturer, sink)

	if err := project.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"slow", "mid", "fast"}
	if len(sink.writeOrder) != len(want) {
		t.Fatalf("Expected %d writes, got %v", len(want), sink.writeOrder)
	}
	for i := range want {
		if sink.writeOrder[i] != want[i] {
			t.Fatalf("Artifacts written out of order: %v", sink.writeOrder)
		}
	}
}

func TestRunLaunchesCapturesConcurrently(t *testing.T) {
	cfg := testConfig("a", "b", "c", "d")
	capturer := &fakeCapturer{
		outputs: map[string][]byte{
			"a": []byte(validAnim),
			"b": []byte(validAnim),
			"c": []byte(validAnim),
			"d": []byte(validAnim),
		},
		delays: map[string]time.Duration{
			"a": 100 * time.Millisecond,
			"b": 100 * time.Millisecond,
			"c": 100 * time.Millisecond,
			"d": 100 * time.Millisecond,
		},
	}
	sink := newMemorySink()
	project, _ := newProject(cfg, capturer, sink)

	start := time.Now()
	if err := project.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Serial execution would need 400ms; overlapped captures far less.
	if elapsed := time.Since(start); elapsed > 350*time.Millisecond {
		t.Errorf("Captures do not appear to overlap: run took %v", elapsed)
	}
}

func TestRunIsolatesPerDemoFailures(t *testing.T) {
	cfg := testConfig("ok", "malformed", "dead")
	capturer := &fakeCapturer{
		outputs: map[string][]byte{
			"ok":        []byte(validAnim),
			"malformed": []byte("<svg>no timing</svg>"),
		},
		errs: map[string]error{
			"dead": errors.New("exit status 1"),
		},
	}
	sink := newMemorySink()
	project, _ := newProject(cfg, capturer, sink)

	err := project.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "2 of 3") {
		t.Errorf("Expected '2 of 3' failure summary, got %v", err)
	}

	if _, ok := sink.artifacts["ok"]; !ok {
		t.Error("Healthy demo has no artifact")
	}
	// Failed demos leave no file at all: absence is the failure signal
	if _, ok := sink.artifacts["malformed"]; ok {
		t.Error("Malformed demo must not produce an artifact")
	}
	if _, ok := sink.artifacts["dead"]; ok {
		t.Error("Dead capture must not produce an artifact")
	}
}

func TestRunKeepsPartialOutputOnSoftFailure(t *testing.T) {
	cfg := testConfig("flaky")
	capturer := &fakeCapturer{
		outputs: map[string][]byte{"flaky": []byte(validAnim)},
		errs:    map[string]error{"flaky": errors.New("exit status 1")},
	}
	sink := newMemorySink()
	project, _ := newProject(cfg, capturer, sink)

	if err := project.Run(context.Background()); err != nil {
		t.Fatalf("Soft failure must not fail the run: %v", err)
	}
	if _, ok := sink.artifacts["flaky"]; !ok {
		t.Error("Partial output was not processed")
	}
}

func TestRunBuildFailureIsNotFatal(t *testing.T) {
	cfg := testConfig("simple")
	capturer := &fakeCapturer{outputs: map[string][]byte{"simple": []byte(validAnim)}}
	sink := newMemorySink()
	project, builder := newProject(cfg, capturer, sink)
	builder.err = errors.New("compiler exploded")

	if err := project.Run(context.Background()); err != nil {
		t.Fatalf("Build failure must not abort the run: %v", err)
	}
	if len(capturer.started) != 1 {
		t.Errorf("Captures skipped after failed build: %v", capturer.started)
	}
	if _, ok := sink.artifacts["simple"]; !ok {
		t.Error("Artifact missing after failed build with working capture")
	}
}

func TestRunPlaceholdersExistDuringBuild(t *testing.T) {
	cfg := testConfig("simple", "multiple")
	capturer := &fakeCapturer{outputs: map[string][]byte{
		"simple":   []byte(validAnim),
		"multiple": []byte(validAnim),
	}}
	sink := newMemorySink()
	project, builder := newProject(cfg, capturer, sink)

	builder.inBuild = func() {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		for _, d := range cfg.Demos {
			if !sink.placeholders[d.Name] {
				t.Errorf("Placeholder for %s absent during build", d.Name)
			}
		}
	}

	if err := project.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Stale cleanup precedes everything else
	if len(sink.events) == 0 || sink.events[0] != "purge" {
		t.Errorf("Expected purge first, events: %v", sink.events)
	}
}

func TestRunSinkWriteFailureAborts(t *testing.T) {
	cfg := testConfig("simple")
	capturer := &fakeCapturer{outputs: map[string][]byte{"simple": []byte(validAnim)}}
	sink := newMemorySink()
	sink.writeErr["simple"] = fmt.Errorf("disk full")
	project, _ := newProject(cfg, capturer, sink)

	err := project.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Expected propagated sink error, got %v", err)
	}
}

func TestRunNoDemos(t *testing.T) {
	project, _ := newProject(testConfig(), &fakeCapturer{}, newMemorySink())

	if err := project.Run(context.Background()); err == nil {
		t.Error("Expected error for empty demo list")
	}
}
