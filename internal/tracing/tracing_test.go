package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/diffdeck/internal/config"
)

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := NewProvider(config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	// No-op spans never record.
	_, span := StartSpan(context.Background(), p.Tracer(), SpanParse)
	require.False(t, span.IsRecording())
	EndSpan(span, nil)

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_RejectsUnknownExporter(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "carrier-pigeon"})
	require.Error(t, err)
}

func TestNewProvider_FileExporterRequiresPath(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "file"})
	require.Error(t, err)
}

func TestFileExporter_WritesSpansAsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")

	p, err := NewProvider(config.TracingConfig{
		Enabled:  true,
		Exporter: "file",
		FilePath: path,
	})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	ctx, parent := StartSpan(context.Background(), p.Tracer(), SpanLoad,
		attribute.String("mode", "uncommitted"))
	_, child := StartSpan(ctx, p.Tracer(), SpanParse,
		attribute.Int("files", 3))
	EndSpan(child, nil)
	EndSpan(parent, errors.New("boom"))

	require.NoError(t, p.Shutdown(context.Background()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records := map[string]spanRecord{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec spanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records[rec.Name] = rec
	}
	require.NoError(t, scanner.Err())
	require.Len(t, records, 2)

	load := records[SpanLoad]
	require.Equal(t, "ERROR", load.Status)
	require.Equal(t, "boom", load.StatusMsg)
	require.Equal(t, "uncommitted", load.Attributes["mode"])
	require.Empty(t, load.ParentSpanID)

	parse := records[SpanParse]
	require.Equal(t, "OK", parse.Status)
	require.Equal(t, load.SpanID, parse.ParentSpanID)
	require.Equal(t, load.TraceID, parse.TraceID)
}

func TestFileExporter_ShutdownTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl")
	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()))
}
