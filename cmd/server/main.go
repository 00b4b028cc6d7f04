package main

import (
	"context"
	"log"

	"github.com/eventcall-app/eventcall/internal/server"
	"github.com/eventcall-app/eventcall/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
