package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexadark/workshop-cityjs/internal/config"
	"github.com/alexadark/workshop-cityjs/internal/db"
	"github.com/alexadark/workshop-cityjs/internal/generate"
	"github.com/alexadark/workshop-cityjs/internal/server"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	database, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Printf("close database: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the blog still serves pages without a generator; generate actions fail
	gen, closeGen, err := generate.New(ctx, cfg.Generation)
	if err != nil {
		log.Printf("generation disabled: %v", err)
	}
	defer closeGen()

	srv, err := server.New(database, gen, cfg.Server.TemplateDir, server.Options{
		Policy:          server.ErrorPolicy(cfg.ErrorPolicy),
		ListingYear:     cfg.ListingYear,
		GenerateTimeout: cfg.Generation.Timeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("listening on :%s (db=%s, generator=%s, errors=%s)",
			cfg.Server.Port, cfg.Database.Driver, cfg.Generation.Provider, cfg.ErrorPolicy)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
