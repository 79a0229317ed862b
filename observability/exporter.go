package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/xlog"
)

const (
	defaultExportInterval = 30 * time.Second
	defaultExportTimeout  = 5 * time.Second
	defaultMetricsPath    = "/metrics"
)

// MetricsExporter owns the global meter provider it installed.
type MetricsExporter struct {
	mp     *metric.MeterProvider
	srv    *http.Server
	ln     net.Listener
	logger xlog.XLogger
}

type exporterOption struct {
	interval time.Duration
	timeout  time.Duration
	writer   io.Writer
	addr     string
	logger   xlog.XLogger
}

type ExporterOption func(opt *exporterOption)

func WithExporterInterval(interval, timeout time.Duration) ExporterOption {
	return func(opt *exporterOption) {
		if interval > 0 {
			opt.interval = interval
		}
		if timeout > 0 {
			opt.timeout = timeout
		}
	}
}

func WithExporterWriter(w io.Writer) ExporterOption {
	return func(opt *exporterOption) {
		opt.writer = w
	}
}

// WithExporterAddr is where the prometheus scrape endpoint
// listens, port 0 picks a free one.
func WithExporterAddr(addr string) ExporterOption {
	return func(opt *exporterOption) {
		opt.addr = addr
	}
}

func WithExporterLogger(logger xlog.XLogger) ExporterOption {
	return func(opt *exporterOption) {
		opt.logger = logger
	}
}

func newExporterOption(opts ...ExporterOption) *exporterOption {
	opt := &exporterOption{
		interval: defaultExportInterval,
		timeout:  defaultExportTimeout,
		writer:   os.Stdout,
		addr:     ":9464",
		logger:   xlog.NewNopXLogger(),
	}
	for _, o := range opts {
		if o != nil {
			o(opt)
		}
	}
	return opt
}

// NewConsoleMetricsExporter serves for test/dev environment, the
// metrics are dumped periodically as JSON.
func NewConsoleMetricsExporter(opts ...ExporterOption) (*MetricsExporter, error) {
	opt := newExporterOption(opts...)
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(opt.writer))
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] stdout exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(opt.interval),
		metric.WithTimeout(opt.timeout),
	)))
	otel.SetMeterProvider(mp)
	return &MetricsExporter{mp: mp, logger: opt.logger}, nil
}

// NewPrometheusMetricsExporter serves for the product environment,
// the stats metrics are fetched by HTTP.
func NewPrometheusMetricsExporter(opts ...ExporterOption) (*MetricsExporter, error) {
	opt := newExporterOption(opts...)
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] prometheus exporter")
	}
	ln, err := net.Listen("tcp", opt.addr)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] listen "+opt.addr)
	}
	mux := http.NewServeMux()
	mux.Handle(defaultMetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	e := &MetricsExporter{
		mp:     metric.NewMeterProvider(metric.WithReader(exporter)),
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: opt.timeout},
		ln:     ln,
		logger: opt.logger,
	}
	otel.SetMeterProvider(e.mp)
	go func() {
		if err := e.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.ErrorStack(infra.WrapErrorStack(err), "[observability] metrics endpoint stopped")
		}
	}()
	return e, nil
}

// Addr is the scrape endpoint address, empty for the console
// exporter.
func (e *MetricsExporter) Addr() string {
	if e == nil || e.ln == nil {
		return ""
	}
	return e.ln.Addr().String()
}

// Shutdown flushes the pending metrics and stops serving them.
func (e *MetricsExporter) Shutdown(ctx context.Context) error {
	if e == nil {
		return nil
	}
	var err error
	if e.srv != nil {
		err = multierr.Append(err, e.srv.Shutdown(ctx))
	}
	return multierr.Append(err, e.mp.Shutdown(ctx))
}
