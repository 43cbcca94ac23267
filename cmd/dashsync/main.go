package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/studentorg/dashsync/internal/cli"
	"github.com/studentorg/dashsync/internal/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	if err := cli.New(cfg).Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
