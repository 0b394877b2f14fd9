package server

import (
	"fmt"
	"log"
	"net/http"

	"DPDB/internal/platform/config"
	"DPDB/internal/platform/server/handler/dbentry"
	"DPDB/internal/platform/server/handler/dbinstance"
	"DPDB/internal/platform/server/handler/health"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	httpAddr string
	engine   *chi.Mux
}

func NewServer(cfg config.Config, entries *dbentry.DbEntryHandler, instances *dbinstance.DbInstanceHandler) Server {
	url := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := Server{
		engine:   chi.NewRouter(),
		httpAddr: url,
	}
	srv.engine.Use(middleware.Logger)
	srv.registerRoutes(entries, instances)
	return srv
}

func (s *Server) Run() error {
	log.Println("Server Running on:", s.httpAddr)
	return http.ListenAndServe(s.httpAddr, s.engine)
}

func (s *Server) registerRoutes(entries *dbentry.DbEntryHandler, instances *dbinstance.DbInstanceHandler) {
	s.engine.Get("/health", health.CheckHandler)
	s.engine.Get("/db", entries.ListKeys)
	s.engine.Get("/db/{key}", entries.GetEntry)
	s.engine.Post("/db/{key}", entries.SaveEntry)
	s.engine.Delete("/db/{key}", entries.DeleteEntry)
	// static segments win over {key} in chi, so POST /db/optimize always
	// reaches Optimize; an entry under the key "optimize" cannot be saved
	// through POST /db/{key}
	s.engine.Post("/db/optimize", entries.Optimize)
	s.engine.Put("/instances", instances.UpdateDbInstances)
}
