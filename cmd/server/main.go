package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gophmarket/internal/server"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	app.Run(ctx)

}
