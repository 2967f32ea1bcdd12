package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/sassbuild/internal/compiler"
	"github.com/bianoble/sassbuild/internal/config"
	"github.com/bianoble/sassbuild/internal/diagnostic"
	"github.com/bianoble/sassbuild/internal/host"
	"github.com/bianoble/sassbuild/internal/metrics"
)

// fakeCompiler records requests and fails for inputs containing "bad".
type fakeCompiler struct {
	mu       sync.Mutex
	requests []compiler.Request
	noMap    bool
}

func (c *fakeCompiler) CompileFile(ctx context.Context, req compiler.Request) (*compiler.Output, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if strings.Contains(filepath.Base(req.Input), "bad") {
		return nil, &compiler.CompilationError{
			File:    req.Input,
			Message: `expected "{".`,
			Payload: `{"status": 1, "line": 4, 'column': 1, "message": "expected \"{\"."}`,
		}
	}
	data, err := os.ReadFile(req.Input)
	if err != nil {
		return nil, err
	}
	out := &compiler.Output{CSS: "/* " + string(data) + " */\n"}
	if !c.noMap {
		out.SourceMap = `{"version":3,"sources":["` + filepath.Base(req.Input) + `"]}`
	}
	return out, nil
}

func (c *fakeCompiler) inputs(root string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var rels []string
	for _, r := range c.requests {
		rel, _ := filepath.Rel(root, r.Input)
		rels = append(rels, filepath.ToSlash(rel))
	}
	return rels
}

// recordingHost implements every host capability.
type recordingHost struct {
	incremental bool
	delta       bool
	messages    []diagnostic.Diagnostic
	refreshed   []string
}

func (h *recordingHost) IsIncremental() bool                { return h.incremental }
func (h *recordingHost) HasDelta(string) bool               { return h.delta }
func (h *recordingHost) AddMessage(d diagnostic.Diagnostic) { h.messages = append(h.messages, d) }
func (h *recordingHost) Refresh(path string)                { h.refreshed = append(h.refreshed, path) }

// countingRecorder is a metrics.Recorder that counts calls.
type countingRecorder struct {
	metrics.NoopRecorder
	files    map[metrics.FileResult]int
	outcomes map[metrics.RunOutcome]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{files: map[metrics.FileResult]int{}, outcomes: map[metrics.RunOutcome]int{}}
}

func (r *countingRecorder) IncFileResult(res metrics.FileResult) { r.files[res]++ }
func (r *countingRecorder) IncRunOutcome(o metrics.RunOutcome)   { r.outcomes[o]++ }

func newProject(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Version = 1
	cfg.Root = t.TempDir()
	cfg.SourceMapOutputPath = filepath.Join("target", "maps")

	for rel, content := range files {
		p := filepath.Join(cfg.InputRoot(), filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	require.NoError(t, os.MkdirAll(cfg.InputRoot(), 0755))
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunWritesMappedArtifacts(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"x/y.scss":       "y",
		"site.scss":      "site",
		"_vars.scss":     "vars",
		"x/_mixins.scss": "mixins",
		"notes.txt":      "notes",
	})
	fc := &fakeCompiler{}
	h := &recordingHost{}
	rec := newCountingRecorder()

	e := &CompileEngine{Compiler: fc, Host: host.Bind(nil, h), Metrics: rec}
	outcome, err := e.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.FilesSeen)
	assert.Zero(t, outcome.Failures)
	assert.False(t, outcome.Skipped)
	assert.NotEmpty(t, outcome.RunID)

	assert.Equal(t, []string{"site.scss", "x/y.scss"}, fc.inputs(cfg.InputRoot()), "partials are never compiled")

	assert.Equal(t, "/* y */\n", readFile(t, filepath.Join(cfg.Root, "target", "x", "y.css")))
	assert.Contains(t, readFile(t, filepath.Join(cfg.Root, "target", "maps", "x", "y.css.map")), `"y.scss"`)
	assert.FileExists(t, filepath.Join(cfg.Root, "target", "site.css"))
	assert.NoFileExists(t, filepath.Join(cfg.Root, "target", "_vars.css"))

	assert.Len(t, outcome.Written, 4)
	assert.Equal(t, len(outcome.Written), len(h.refreshed), "one refresh per written file")
	assert.Equal(t, []string{
		filepath.Join(cfg.Root, "target", "site.css"),
		filepath.Join(cfg.Root, "target", "maps", "site.css.map"),
	}, outcome.WrittenBySource()["site.scss"])

	assert.Equal(t, 2, rec.files[metrics.FileCompiled])
	assert.Equal(t, 1, rec.outcomes[metrics.RunSuccess])
}

func TestRunPassesTargetsToCompiler(t *testing.T) {
	cfg := newProject(t, map[string]string{"x/y.scss": "y"})
	fc := &fakeCompiler{}

	_, err := (&CompileEngine{Compiler: fc}).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, fc.requests, 1)
	assert.Equal(t, filepath.Join(cfg.Root, "target", "x", "y.css"), fc.requests[0].OutputCSS)
	assert.Equal(t, filepath.Join(cfg.Root, "target", "maps", "x", "y.css.map"), fc.requests[0].OutputSourceMap)
}

func TestRunFailOnError(t *testing.T) {
	files := map[string]string{"a.scss": "a", "bad1.scss": "x", "sub/bad2.scss": "x", "z.scss": "z"}

	t.Run("enabled", func(t *testing.T) {
		cfg := newProject(t, files)
		h := &recordingHost{}
		outcome, err := (&CompileEngine{Compiler: &fakeCompiler{}, Host: host.Bind(nil, h)}).Run(context.Background(), cfg)

		var failure *RunFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, 2, failure.Failures)
		assert.Equal(t, "failed with 2 errors", failure.Error())
		assert.Equal(t, 4, outcome.FilesSeen)

		// No rollback of successful files.
		assert.FileExists(t, filepath.Join(cfg.Root, "target", "a.css"))
		assert.FileExists(t, filepath.Join(cfg.Root, "target", "z.css"))
		assert.Len(t, h.messages, 2)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := newProject(t, files)
		cfg.FailOnError = false
		outcome, err := (&CompileEngine{Compiler: &fakeCompiler{}}).Run(context.Background(), cfg)

		require.NoError(t, err)
		assert.Equal(t, 2, outcome.Failures)
		assert.FileExists(t, filepath.Join(cfg.Root, "target", "a.css"))
		assert.FileExists(t, filepath.Join(cfg.Root, "target", "z.css"))
		assert.NoFileExists(t, filepath.Join(cfg.Root, "target", "bad1.css"))
	})
}

func TestRunReportsDiagnostics(t *testing.T) {
	cfg := newProject(t, map[string]string{"bad.scss": "x"})
	h := &recordingHost{}

	_, err := (&CompileEngine{Compiler: &fakeCompiler{}, Host: host.Bind(nil, h)}).Run(context.Background(), cfg)
	require.Error(t, err)

	require.Len(t, h.messages, 1)
	d := h.messages[0]
	assert.Equal(t, diagnostic.SeverityError, d.Severity)
	assert.Equal(t, filepath.Join(cfg.InputRoot(), "bad.scss"), d.File)
	assert.Equal(t, 4, d.Line)
	assert.Equal(t, 1, d.Column)
	assert.Equal(t, `expected "{".`, d.Message)
	assert.NotEmpty(t, d.Payload)

	var cerr *compiler.CompilationError
	assert.ErrorAs(t, d.Cause, &cerr)
	assert.Empty(t, h.refreshed, "failed files write nothing")
}

func TestRunSkipsWithoutDelta(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.scss": "a"})
	fc := &fakeCompiler{}
	h := &recordingHost{incremental: true, delta: false}
	rec := newCountingRecorder()

	outcome, err := (&CompileEngine{Compiler: fc, Host: host.Bind(nil, h), Metrics: rec}).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, outcome.Skipped)
	assert.Zero(t, outcome.FilesSeen)
	assert.Empty(t, fc.requests)
	assert.Empty(t, h.refreshed)
	assert.NoDirExists(t, filepath.Join(cfg.Root, "target"), "a skipped run touches nothing")
	assert.Equal(t, 1, rec.outcomes[metrics.RunSkipped])
}

func TestRunIncrementalWithDelta(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.scss": "a"})
	h := &recordingHost{incremental: true, delta: true}

	outcome, err := (&CompileEngine{Compiler: &fakeCompiler{}, Host: host.Bind(nil, h)}).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, outcome.Skipped)
	assert.Equal(t, 1, outcome.FilesSeen)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.scss": "a", "b/c.scss": "c"})
	cfg.FailOnError = false
	e := &CompileEngine{Compiler: &fakeCompiler{}}

	_, err := e.Run(context.Background(), cfg)
	require.NoError(t, err)
	first := readFile(t, filepath.Join(cfg.Root, "target", "b", "c.css"))

	_, err = e.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, filepath.Join(cfg.Root, "target", "b", "c.css")))
}

func TestRunMissingInputRoot(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	fc := &fakeCompiler{}

	_, err := (&CompileEngine{Compiler: fc}).Run(context.Background(), cfg)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cfg.InputRoot(), cerr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, fc.requests)
}

func TestRunOutputRootNotCreatable(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.scss": "a"})
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Root, "target"), []byte("in the way"), 0644))
	fc := &fakeCompiler{}

	_, err := (&CompileEngine{Compiler: fc}).Run(context.Background(), cfg)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "creating output root", cerr.Op)
	assert.Empty(t, fc.requests)
}

func TestRunCanceled(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.scss": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := (&CompileEngine{Compiler: &fakeCompiler{}}).Run(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Aborted)
}

func TestRunWithoutSourceMap(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.scss": "a"})
	outcome, err := (&CompileEngine{Compiler: &fakeCompiler{noMap: true}}).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Len(t, outcome.Written, 1)
	assert.NoFileExists(t, filepath.Join(cfg.Root, "target", "maps", "a.css.map"))
}

func TestVerdict(t *testing.T) {
	assert.NoError(t, Verdict(&RunOutcome{FilesSeen: 3}, true, nil))
	assert.NoError(t, Verdict(&RunOutcome{FilesSeen: 3, Failures: 1}, false, nil))

	var failure *RunFailure
	require.ErrorAs(t, Verdict(&RunOutcome{FilesSeen: 3, Failures: 3}, true, nil), &failure)
	assert.Equal(t, 3, failure.Failures)
}

func TestTallyConcurrent(t *testing.T) {
	var tally Tally
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tally.Record(i%4 != 0)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, tally.Seen())
	assert.Equal(t, 25, tally.Failures())
}

func TestConfigErrorFormat(t *testing.T) {
	err := &ConfigError{Op: "reading input root", Path: "/in", Err: os.ErrNotExist}
	assert.Equal(t, "reading input root /in: file does not exist", err.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunDurationRecorded(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.scss": "a"})
	outcome, err := (&CompileEngine{Compiler: &fakeCompiler{}}).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Greater(t, outcome.Duration, time.Duration(0))
}
