package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/go-movies-backend/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabled(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_Disabled_NoOp(t *testing.T) {
	preserveOTelGlobals(t)
	prevTP := otel.GetTracerProvider()

	cfg := enabled("svc", true)
	cfg.Enabled = false
	shutdown, err := SetupOTel(context.Background(), cfg, "v0.0.0")
	if err != nil || shutdown == nil {
		t.Fatalf("disabled setup = %v, %v", shutdown, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("disabled setup must not install a provider")
	}
}

func TestSetupOTel_InstallsProvider(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name string
		ctx  context.Context
		cfg  config.OTELConfig
	}{
		{"insecure", context.Background(), enabled("movies-insecure", true)},
		{"tls", context.Background(), enabled("movies-tls", false)},
		// the gRPC client connects lazily
		{"cancelled ctx", cancelled, enabled("movies-cancelled", true)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			preserveOTelGlobals(t)

			shutdown, err := SetupOTel(tc.ctx, tc.cfg, "v1.2.3")
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
				t.Fatalf("expected *sdktrace.TracerProvider, got %T", otel.GetTracerProvider())
			}

			carrier := propagation.MapCarrier{}
			ctx, span := otel.Tracer("movies-test").Start(context.Background(), "span")
			otel.GetTextMapPropagator().Inject(ctx, carrier)
			span.End()
			if carrier.Get("traceparent") == "" {
				t.Fatalf("expected traceparent to be injected, got %v", carrier)
			}
		})
	}
}

func TestSetupOTel_SeamErrors_LeaveGlobalsIntact(t *testing.T) {
	origExp, origRes := newOTLPExporterFn, newServiceResourceFn
	t.Cleanup(func() { newOTLPExporterFn, newServiceResourceFn = origExp, origRes })

	cases := []struct {
		name  string
		setup func()
	}{
		{"exporter", func() {
			newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
				return nil, errors.New("boom-exporter")
			}
		}},
		{"resource", func() {
			newServiceResourceFn = func(context.Context, string, string) (*resource.Resource, error) {
				return nil, errors.New("boom-resource")
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			newOTLPExporterFn, newServiceResourceFn = origExp, origRes
			tc.setup()
			preserveOTelGlobals(t)
			prevTP := otel.GetTracerProvider()
			prevProp := otel.GetTextMapPropagator()

			if _, err := SetupOTel(context.Background(), enabled("svc", true), "v0"); err == nil || !strings.Contains(err.Error(), "boom-"+tc.name) {
				t.Fatalf("expected boom-%s, got %v", tc.name, err)
			}
			if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
				t.Fatalf("globals changed on failure")
			}
		})
	}
}

func TestServiceResource_CarriesNameAndVersion(t *testing.T) {
	res, err := newServiceResourceFn(context.Background(), "go-movies-backend", "v9")
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	if got["service.name"] != "go-movies-backend" || got["service.version"] != "v9" {
		t.Fatalf("unexpected resource attributes: %v", got)
	}
}

func TestShutdown_WithinDeadline(t *testing.T) {
	preserveOTelGlobals(t)

	shutdown, err := SetupOTel(context.Background(), enabled("svc-shutdown", true), "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}

func TestSampler_Bounds(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tc := range cases {
		desc := sampler(tc.ratio).Description()
		if !strings.Contains(desc, tc.want) || !strings.HasPrefix(desc, "ParentBased") {
			t.Fatalf("sampler(%v) = %q; want ParentBased with %s", tc.ratio, desc, tc.want)
		}
	}
}
