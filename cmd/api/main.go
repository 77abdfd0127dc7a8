package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"user-crud-service/cmd/api/app"
	"user-crud-service/cmd/api/server"
)

func main() {
	application, err := app.New(context.Background())
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	ctx, stop := server.WithSignal(context.Background(), application.Logger)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Logger.Fatal("application exited with error", zap.Error(err))
	}
}
