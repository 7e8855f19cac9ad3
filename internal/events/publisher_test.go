package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleep909/multipage/internal/config"
	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
)

type fakeConn struct {
	published  [][]byte
	subjects   []string
	publishErr []error
	flushes    int
	closed     int
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if len(c.publishErr) > 0 {
		err := c.publishErr[0]
		c.publishErr = c.publishErr[1:]
		if err != nil {
			return err
		}
	}
	c.subjects = append(c.subjects, subject)
	c.published = append(c.published, data)
	return nil
}

func (c *fakeConn) FlushWithContext(context.Context) error { c.flushes++; return nil }
func (c *fakeConn) Close()                                 { c.closed++ }

func testEventsConfig() config.EventsConfig {
	cfg := config.Default().Events
	cfg.Retry.Initial = time.Millisecond
	cfg.Retry.Max = time.Millisecond
	return cfg
}

func TestNew_NoURLIsNoop(t *testing.T) {
	p, err := New(config.EventsConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.PublishBuild(context.Background(), &BuildEvent{}))
	p.Close()
}

func TestNewNATSPublisher_RequiresSubject(t *testing.T) {
	_, err := NewNATSPublisher(config.EventsConfig{NATSURL: "nats://127.0.0.1:4222"}, nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestPublishBuild(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, testEventsConfig(), testLogger())

	ev := &BuildEvent{BuildID: "b-1", Status: "success", Pages: 2, Moved: 2, DurationMS: 12}
	require.NoError(t, p.PublishBuild(context.Background(), ev))

	require.Len(t, fc.published, 1)
	assert.Equal(t, []string{"multipage.build"}, fc.subjects)
	assert.Equal(t, 1, fc.flushes)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.published[0], &got))
	assert.Equal(t, "b-1", got["build_id"])
	assert.Equal(t, "success", got["status"])
	assert.EqualValues(t, 2, got["pages"])
	assert.NotEmpty(t, got["timestamp"])
	assert.NotContains(t, got, "error")
}

func TestPublishBuild_RetriesTransient(t *testing.T) {
	fc := &fakeConn{publishErr: []error{nats.ErrTimeout, nil}}
	p := newNATSPublisher(fc, testEventsConfig(), testLogger())

	require.NoError(t, p.PublishBuild(context.Background(), &BuildEvent{BuildID: "b-2"}))
	assert.Len(t, fc.published, 1)
}

func TestPublishBuild_GivesUp(t *testing.T) {
	fc := &fakeConn{publishErr: []error{nats.ErrConnectionClosed}}
	p := newNATSPublisher(fc, testEventsConfig(), testLogger())

	err := p.PublishBuild(context.Background(), &BuildEvent{BuildID: "b-3"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, nats.ErrConnectionClosed))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
	assert.Empty(t, fc.published)
}

func TestClose_Once(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, testEventsConfig(), testLogger())
	p.Close()
	p.Close()
	assert.Equal(t, 1, fc.closed)
}
