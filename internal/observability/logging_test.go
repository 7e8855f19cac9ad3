package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithBuildID(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-123")

	if lc := GetContext(ctx); lc.BuildID != "build-123" {
		t.Errorf("expected build-123, got %s", lc.BuildID)
	}
}

func TestWithStageKeepsBuildID(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-1")
	ctx = WithStage(ctx, "bundle")

	lc := GetContext(ctx)
	if lc.BuildID != "build-1" || lc.Stage != "bundle" {
		t.Errorf("unexpected log context %+v", lc)
	}
}

func TestAttrsEmpty(t *testing.T) {
	if attrs := Attrs(context.Background()); len(attrs) != 0 {
		t.Errorf("expected no attrs, got %v", attrs)
	}
}

func TestInfoContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithStage(WithBuildID(context.Background(), "b-9"), "reorganize")
	InfoContext(ctx, logger, "hello", slog.Int("pages", 2))
	DebugContext(ctx, logger, "dbg")

	out := buf.String()
	for _, want := range []string{"msg=hello", "build_id=b-9", "stage=reorganize", "pages=2", "msg=dbg"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
