package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/nergy-se/dpils/pkg/price"
	"github.com/nergy-se/dpils/pkg/recorder"
	"github.com/sirupsen/logrus"
)

//go:embed assets
var assetsFS embed.FS

var views = template.Must(template.New("").ParseFS(assetsFS, "assets/*.tmpl"))

// PriceSource provides the currently published prices.
type PriceSource interface {
	Prices(ctx context.Context) ([]price.Point, error)
}

type Server struct {
	source   PriceSource
	recorder recorder.Recorder
	location *time.Location
	now      func() time.Time

	mu       sync.Mutex
	listener net.Listener
}

func New(source PriceSource, rec recorder.Recorder, loc *time.Location) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Server{
		source:   source,
		recorder: rec,
		location: loc,
		now:      time.Now,
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", s.Index).Methods(http.MethodGet)
	router.HandleFunc("/update_table", s.UpdateTable).Methods(http.MethodGet)
	router.HandleFunc("/api/prices", s.APIPrices).Methods(http.MethodGet)
	router.HandleFunc("/api/periods", s.APIPeriods).Methods(http.MethodGet)
	router.HandleFunc("/api/history", s.APIHistory).Methods(http.MethodGet)
	router.HandleFunc("/version", s.Version).Methods(http.MethodGet)
	return router
}

// Start listens on addr and serves until ctx is done.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	logrus.Infof("web server listening on %s", l.Addr())

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("web server error: %s", err)
		}
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		logrus.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("error shutting down web server: %s", err)
		}
	}()
	return nil
}

// Addr returns the address the server listens on, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
