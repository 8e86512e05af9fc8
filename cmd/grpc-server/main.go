package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"moviecatalog/internal/auth"
	"moviecatalog/internal/catalog"
	"moviecatalog/internal/grpcserver"
	"moviecatalog/pkg/utils"
)

// grpc-server runs only the gRPC catalog with its own seeded store.
func main() {
	_ = godotenv.Load()
	cfg := utils.LoadAppConfig()
	utils.SetupLogger(cfg.LogLevel, cfg.IsDevelopment())

	listener, err := net.Listen("tcp", cfg.GrpcAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GrpcAddr).Msg("grpc listen failed")
	}

	store := catalog.NewSeeded(catalog.WithAuthorPolicy(catalog.ParseAuthorPolicy(cfg.ReviewAuthor)))
	gate := auth.NewGate(cfg.AdminUsername, cfg.AdminSecret)
	grpcServer := grpcserver.NewGRPCServer(grpcserver.NewServer(store, gate, nil))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("stopping grpc server")
		grpcServer.GracefulStop()
	}()

	log.Info().Str("addr", cfg.GrpcAddr).Int("movies", store.Len()).Msg("gRPC server listening")
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatal().Err(err).Msg("grpc server stopped")
	}
}
