package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophmarket/internal/admin"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if err := admin.Main(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}

}
