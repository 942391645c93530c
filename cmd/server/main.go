package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/jmcalister/ozreturn/internal/service"
	"github.com/jmcalister/ozreturn/internal/store"
	"github.com/jmcalister/ozreturn/internal/taxconfig"
	"github.com/jmcalister/ozreturn/pkg/logging"
)

func main() {
	logging.Setup()

	// NOTE: Default is 8113 to avoid conflicts with other projects (not 8080)
	port := os.Getenv("PORT")
	if port == "" {
		port = "8113"
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	registry, err := taxconfig.Load(configPath)
	if err != nil {
		slog.Error("load tax configuration", "path", configPath, "error", err)
		os.Exit(1)
	}
	slog.Info("loaded tax configuration", "path", configPath, "years", registry.Years())

	ctx := context.Background()

	useMemoryStore := os.Getenv("USE_MEMORY_STORE") == "true" || os.Getenv("ENV") == "local"

	var storeImpl store.Store
	if useMemoryStore {
		slog.Info("using in-memory store for local development")
		storeImpl = store.NewMemoryStore()
	} else {
		projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
		if projectID == "" {
			slog.Error("GOOGLE_CLOUD_PROJECT is required unless USE_MEMORY_STORE=true")
			os.Exit(1)
		}
		firestoreClient, err := firestore.NewClient(ctx, projectID)
		if err != nil {
			slog.Error("create Firestore client", "error", err)
			os.Exit(1)
		}
		defer firestoreClient.Close()
		storeImpl = store.NewFirestoreStore(firestoreClient)
	}

	taxService := service.NewTaxService(storeImpl, registry)

	routes := taxService.Routes()
	mux := http.NewServeMux()
	mux.Handle("/v1/", routes)
	mux.Handle("/healthz", routes)
	mux.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:1234",
			"http://127.0.0.1:1234",
			"https://ozreturn.dev",
			"https://www.ozreturn.dev",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"User-Agent",
		},
		AllowCredentials: true,
	})

	handler := c.Handler(service.WithObservability(mux))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}

	slog.Info("starting server", "port", port)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
