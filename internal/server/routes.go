package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *HttpServer) loadRoutes(mux *http.ServeMux) http.HandlerFunc {
	mux.HandleFunc("POST /notifications", s.createNotification)
	mux.HandleFunc("GET /notifications-summary", s.notificationsSummary)
	mux.HandleFunc("POST /purge-notifications", s.purgeNotifications)
	mux.HandleFunc("GET /orders/{id}/correlation", s.orderCorrelation)
	mux.HandleFunc("GET /healthcheck", s.healthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux.ServeHTTP
}
