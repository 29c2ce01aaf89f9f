package server

import (
	"context"
	"fmt"
	"net/http"
	"notification-service/internal/services"
	"strconv"
	"time"
)

type HttpServer struct {
	ns     services.NotificationsInterface
	port   string
	server *http.Server
}

func NewServer(port string, ns services.NotificationsInterface) *HttpServer {
	return &HttpServer{
		ns:   ns,
		port: port,
	}
}

func (s *HttpServer) ListenAndServe() error {
	portNum, err := strconv.Atoi(s.port)
	if err != nil {
		portNum = 8080
	}

	s.server = s.createHTTPServer(portNum)
	return s.server.ListenAndServe()
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *HttpServer) Handler() http.Handler {
	router := s.loadRoutes(http.NewServeMux())
	middlewareChain := NewChain(
		s.instrument,
		s.recoverPanic,
		s.noCache,
		s.enableCors,
	)
	return middlewareChain(router)
}

func (s *HttpServer) createHTTPServer(port int) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		IdleTimeout:  10 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
