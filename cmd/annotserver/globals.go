package main

import (
	"github.com/carbocation/exprannot/translator"
	"github.com/prometheus/client_golang/prometheus"
)

type Global struct {
	log logger

	Site       string
	translator *translator.Translator

	// reads is set when lookups read the annotation file lazily and can fail.
	reads readFailures

	registry *prometheus.Registry
	lookups  *prometheus.CounterVec
}

func NewGlobal(t *translator.Translator, log logger) *Global {
	g := &Global{
		log:        log,
		Site:       "annotserver",
		translator: t,
		registry:   prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annotserver_lookups_total",
			Help: "Identifier lookups by field and result (found, absent, unknown_field, read_error).",
		}, []string{"field", "result"}),
	}
	g.registry.MustRegister(g.lookups)

	return g
}

type readFailures interface {
	Failures() uint64
	Err() error
}

type logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}
