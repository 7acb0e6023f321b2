package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/interpose/middleware"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func router(config *Global) http.Handler {
	router := mux.NewRouter()
	GET := router.Methods("GET", "HEAD").Subrouter()

	h := handler{Global: config, router: router}

	GET.HandleFunc("/fields", h.Fields).Name("fields")
	GET.HandleFunc("/version", h.Version)
	GET.HandleFunc("/translate/{id}", h.Translate).Name("translate")
	GET.HandleFunc("/translate/{id}/{field}", h.TranslateField).Name("translate_field")
	GET.Handle("/metrics", promhttp.HandlerFor(config.registry, promhttp.HandlerOpts{}))

	standard := alice.New(
		// Log all requests to STDOUT
		middleware.GorillaLog(),
	)

	return standard.Then(router)
}
