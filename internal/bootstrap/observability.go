package bootstrap

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/target/ticketgate/config"
	"github.com/target/ticketgate/internal/core"
	"github.com/target/ticketgate/internal/observability/metrics"
	"github.com/target/ticketgate/internal/observability/notify/pagerduty"
	"github.com/target/ticketgate/internal/observability/notify/slack"
	"github.com/target/ticketgate/internal/service/failurenotifier"
)

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Registry        *prometheus.Registry
	DispatchMetrics *metrics.DispatchMetrics
	HTTPMetrics     *metrics.HTTPMetrics
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// MetricsHandler returns the Prometheus scrape handler, or nil when metrics are disabled.
func (o ObservabilityContainer) MetricsHandler() http.Handler {
	if o.Registry == nil {
		return nil
	}
	return promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{Registry: o.Registry})
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig, dedup core.CacheRepository) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	out := ObservabilityContainer{
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications, dedup),
		NotifierConfig:  cfg.Notifications,
	}

	if !cfg.Metrics.IsEnabled() {
		return out
	}

	reg := prometheus.NewRegistry()
	if cfg.Metrics.RuntimeCollectors {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	out.Registry = reg
	out.DispatchMetrics = metrics.NewDispatchMetrics(reg)
	out.HTTPMetrics = metrics.NewHTTPMetrics(reg)
	return out
}

func buildFailureNotifier(
	logger *slog.Logger,
	cfg config.ObservabilityNotificationsConfig,
	dedup core.CacheRepository,
) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{
			Logger: baseLogger.With("component", "failure_notifier"),
		})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:      baseLogger.With("component", "failure_notifier"),
		Sinks:       sinks,
		Dedup:       dedup,
		DedupWindow: cfg.DedupWindow,
	})
}
