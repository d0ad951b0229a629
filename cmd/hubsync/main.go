package main

import (
	"context"
	"log"

	"github.com/dkovalev/hubsync/internal/app"
	"github.com/dkovalev/hubsync/internal/config"
)

func main() {

	cfg := config.LoadConfig()
	a, err := app.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	a.Run(context.Background())

}
