package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrememisaac/communityauth/internal/cli"
	"github.com/mrememisaac/communityauth/internal/server"
	"github.com/mrememisaac/communityauth/internal/server/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	console := cli.NewApp(app.AuthService(), os.Stdin, os.Stdout)
	console.Run(ctx)
}
