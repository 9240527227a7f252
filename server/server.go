package server

import (
	"crypto/tls"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/serisow/narrador/category"
	"github.com/serisow/narrador/handlers"
	"github.com/serisow/narrador/pipeline"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"
)

type Config struct {
	Domains      []string
	CertCacheDir string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func SetupRoutes(logger *slog.Logger, runner *pipeline.Runner, categories *category.Store, uploadDir string) *mux.Router {
	r := mux.NewRouter()

	narrationHandler := handlers.NewNarrationHandler(logger, runner, categories, uploadDir)
	r.HandleFunc("/narrations", narrationHandler.Submit).Methods("POST")
	r.HandleFunc("/narrations/{id}", narrationHandler.GetRun).Methods("GET")
	r.HandleFunc("/videos/{file}", narrationHandler.DownloadVideo).Methods("GET")
	r.HandleFunc("/categories", narrationHandler.ListCategories).Methods("GET")
	r.HandleFunc("/voices", narrationHandler.ListVoices).Methods("GET")

	return r
}

// ServeProduction serves n over TLS with certificates from Let's Encrypt.
func ServeProduction(n *negroni.Negroni, cfg Config) {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Port 80 answers ACME http-01 challenges and redirects everything else
	// to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":80",
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	tlsConfig := &tls.Config{
		GetCertificate:   autocertManager.GetCertificate,
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":443",
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	err := srv.ListenAndServeTLS("", "")
	log.Fatal(err)
}

// ServeDevelopment starts the plain HTTP server.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
