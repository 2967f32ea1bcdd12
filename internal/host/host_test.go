package host

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bianoble/sassbuild/internal/diagnostic"
)

type fullHost struct {
	incremental bool
	delta       map[string]bool
	messages    []diagnostic.Diagnostic
	refreshed   []string
}

func (h *fullHost) IsIncremental() bool               { return h.incremental }
func (h *fullHost) HasDelta(path string) bool         { return h.delta[path] }
func (h *fullHost) AddMessage(d diagnostic.Diagnostic) { h.messages = append(h.messages, d) }
func (h *fullHost) Refresh(path string)               { h.refreshed = append(h.refreshed, path) }

type sinkOnly struct{ messages []diagnostic.Diagnostic }

func (s *sinkOnly) AddMessage(d diagnostic.Diagnostic) { s.messages = append(s.messages, d) }

func TestUnboundDefaults(t *testing.T) {
	a := Bind(nil)

	assert.False(t, a.Bound())
	assert.False(t, a.IsIncremental())
	assert.True(t, a.HasDelta("/in"))
	assert.True(t, a.ShouldRun("/in"))
	assert.Empty(t, a.Capabilities())

	assert.NotPanics(t, func() {
		a.Report(diagnostic.Diagnostic{Message: "x"})
		a.Refresh("/out/a.css")
	})
}

func TestNilAdapter(t *testing.T) {
	var a *Adapter
	assert.True(t, a.ShouldRun("/in"))
	assert.NotPanics(t, func() {
		a.Report(diagnostic.Diagnostic{})
		a.Refresh("x")
	})
}

func TestShouldRun(t *testing.T) {
	tests := []struct {
		name        string
		incremental bool
		delta       bool
		want        bool
	}{
		{"full build", false, false, true},
		{"full build with delta", false, true, true},
		{"incremental with delta", true, true, true},
		{"incremental without delta", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fullHost{incremental: tt.incremental, delta: map[string]bool{"/in": tt.delta}}
			assert.Equal(t, tt.want, Bind(nil, h).ShouldRun("/in"))
		})
	}
}

func TestMissingCapabilitiesUseSafeDefaults(t *testing.T) {
	s := &sinkOnly{}
	a := Bind(nil, s)

	assert.True(t, a.Bound())
	assert.False(t, a.IsIncremental())
	assert.True(t, a.HasDelta("/in"))
	assert.True(t, a.ShouldRun("/in"))
	assert.Equal(t, []string{"diagnostics"}, a.Capabilities())

	a.Report(diagnostic.Diagnostic{Message: "boom"})
	assert.Len(t, s.messages, 1)
	assert.NotPanics(t, func() { a.Refresh("/out/a.css") })
}

func TestHostWithNoCapabilities(t *testing.T) {
	a := Bind(nil, struct{}{})
	assert.True(t, a.Bound())
	assert.True(t, a.ShouldRun("/in"))
}

func TestFanOutAndFirstQueryWins(t *testing.T) {
	first := &fullHost{incremental: true, delta: map[string]bool{}}
	second := &fullHost{incremental: false, delta: map[string]bool{"/in": true}}
	sink := &sinkOnly{}

	a := Bind(nil, nil, first, second, sink)

	assert.True(t, a.IsIncremental())
	assert.False(t, a.HasDelta("/in"))
	assert.False(t, a.ShouldRun("/in"))

	a.Report(diagnostic.Diagnostic{Message: "boom"})
	a.Refresh("/out/a.css")

	assert.Len(t, first.messages, 1)
	assert.Len(t, second.messages, 1)
	assert.Len(t, sink.messages, 1)
	assert.Equal(t, []string{"/out/a.css"}, first.refreshed)
	assert.Equal(t, []string{"/out/a.css"}, second.refreshed)
	assert.Equal(t, []string{"incremental", "delta", "diagnostics", "refresh"}, a.Capabilities())
}
