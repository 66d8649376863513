package main

import (
	"context"
	"log"
	"net/http"

	"github.com/tdebasis/rhythmai-task-service/internal/config"
	"github.com/tdebasis/rhythmai-task-service/internal/serverapp"
)

func main() {
	cfg, err := config.Load("rhythmai_config.yml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	handler, err := serverapp.NewHandler(context.Background(), serverapp.Options{
		Config: cfg,
		Logger: log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	log.Printf("listening on %s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, handler))
}
