package plugin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleep909/multipage/internal/bundle"
)

type recordingPlugin struct {
	name   string
	calls  *[]string
	cfgErr error
}

func (p *recordingPlugin) Metadata() Metadata { return Metadata{Name: p.name, Version: "v1.0.0"} }

func (p *recordingPlugin) Config(context.Context, *bundle.Options) error {
	*p.calls = append(*p.calls, p.name+":config")
	return p.cfgErr
}

func (p *recordingPlugin) ConfigureServer(Server) {
	*p.calls = append(*p.calls, p.name+":server")
}

func (p *recordingPlugin) WriteBundle(context.Context, *bundle.Options) error {
	*p.calls = append(*p.calls, p.name+":write")
	return nil
}

type metadataOnly struct{ md Metadata }

func (p metadataOnly) Metadata() Metadata { return p.md }

type fakeServer struct {
	middlewares []func(http.Handler) http.Handler
	open        string
	watched     map[string]func(context.Context) error
}

func newFakeServer() *fakeServer {
	return &fakeServer{watched: map[string]func(context.Context) error{}}
}

func (s *fakeServer) Use(mw func(http.Handler) http.Handler) {
	s.middlewares = append(s.middlewares, mw)
}

func (s *fakeServer) SetOpen(p string) { s.open = p }

func (s *fakeServer) Watch(dir string, fn func(context.Context) error) {
	s.watched[dir] = fn
}

func TestRegistryRegister(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	require.NoError(t, r.Register(metadataOnly{Metadata{Name: "a", Version: "v1"}}))
	assert.True(t, r.Has("a"))
	assert.Equal(t, 1, r.Count())

	err = r.Register(metadataOnly{Metadata{Name: "a", Version: "v2"}})
	assert.Error(t, err, "names must be unique")

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(metadataOnly{Metadata{Version: "v1"}}))
	assert.Error(t, r.Register(metadataOnly{Metadata{Name: "b"}}))

	p, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a@v1", p.Metadata().String())

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestNewRegistry_RejectsInvalid(t *testing.T) {
	_, err := NewRegistry(metadataOnly{Metadata{Name: "x"}})
	assert.Error(t, err)
}

func TestRegistry_DispatchOrder(t *testing.T) {
	var calls []string
	r, err := NewRegistry(
		&recordingPlugin{name: "first", calls: &calls},
		metadataOnly{Metadata{Name: "inert", Version: "v1"}},
		&recordingPlugin{name: "second", calls: &calls},
	)
	require.NoError(t, err)

	ctx := context.Background()
	opts := &bundle.Options{}
	require.NoError(t, r.RunConfig(ctx, opts))
	r.ConfigureServer(newFakeServer())
	require.NoError(t, r.RunWriteBundle(ctx, opts))

	assert.Equal(t, []string{
		"first:config", "second:config",
		"first:server", "second:server",
		"first:write", "second:write",
	}, calls)
	assert.Len(t, r.List(), 3)
}

func TestRegistry_ConfigErrorStops(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	r, err := NewRegistry(
		&recordingPlugin{name: "first", calls: &calls, cfgErr: boom},
		&recordingPlugin{name: "second", calls: &calls},
	)
	require.NoError(t, err)

	err = r.RunConfig(context.Background(), &bundle.Options{})
	require.ErrorIs(t, err, boom)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "first", pe.PluginName)
	assert.Equal(t, "config", pe.Hook)
	assert.Equal(t, []string{"first:config"}, calls)
}

func TestRegistry_WriteBundleHonoursContext(t *testing.T) {
	var calls []string
	r, err := NewRegistry(&recordingPlugin{name: "only", calls: &calls})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.RunWriteBundle(ctx, &bundle.Options{}), context.Canceled)
	assert.Empty(t, calls)
}
