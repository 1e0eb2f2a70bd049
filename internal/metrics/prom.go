package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors holds the Prometheus instruments for the letter pipeline.
type Collectors struct {
	LettersGenerated *prometheus.CounterVec
	LetterFailures   *prometheus.CounterVec
	DuplicateSkips   prometheus.Counter
	Derivations      prometheus.Counter
	TasksByStatus    *prometheus.GaugeVec
	DatasetLoads     *prometheus.CounterVec
	SignupSends      *prometheus.CounterVec

	registry *prometheus.Registry
}

func NewCollectors(registry *prometheus.Registry) (*Collectors, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := &Collectors{
		registry: registry,
		LettersGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watersafe_letters_generated_total",
			Help: "Letters rendered, by template",
		}, []string{"template"}),
		LetterFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watersafe_letter_failures_total",
			Help: "Letter renders that failed, by template",
		}, []string{"template"}),
		DuplicateSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watersafe_letter_duplicate_skips_total",
			Help: "Generation requests answered with an existing letter",
		}),
		Derivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watersafe_task_derivations_total",
			Help: "Task list derivations",
		}),
		TasksByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "watersafe_tasks",
			Help: "Tasks in the most recent derivation, by system and status",
		}, []string{"pwsid", "status"}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watersafe_dataset_loads_total",
			Help: "Dataset load attempts, by result",
		}, []string{"result"}),
		SignupSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watersafe_signup_emails_total",
			Help: "Alert signup confirmation emails, by result",
		}, []string{"result"}),
	}
	for _, col := range []prometheus.Collector{
		c.LettersGenerated, c.LetterFailures, c.DuplicateSkips, c.Derivations,
		c.TasksByStatus, c.DatasetLoads, c.SignupSends,
	} {
		if err := registry.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
