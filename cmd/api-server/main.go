package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"moviecatalog/internal/auth"
	"moviecatalog/internal/catalog"
	"moviecatalog/internal/feed"
	"moviecatalog/internal/grpcserver"
	"moviecatalog/internal/server"
	"moviecatalog/pkg/utils"
)

func main() {
	_ = godotenv.Load() // best-effort
	cfg := utils.LoadAppConfig()
	utils.SetupLogger(cfg.LogLevel, cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	store := catalog.NewSeeded(catalog.WithAuthorPolicy(catalog.ParseAuthorPolicy(cfg.ReviewAuthor)))
	gate := auth.NewGate(cfg.AdminUsername, cfg.AdminSecret)
	if cfg.AdminSecret == "" {
		log.Warn().Msg("MOVIECAT_ADMIN_SECRET is empty; all write operations will be refused")
	}

	// Start TCP feed first (so binding errors show up early)
	hub := feed.NewHub(cfg.FeedHistory)
	tcpSrv := feed.NewServer(cfg.FeedAddr, hub)
	udpSrv := feed.NewUDPServer(cfg.UDPAddr)

	// subscriber writes run on the forwarder goroutine, never in a handler
	hubFwd := feed.NewForwarder(hub, 256)
	pub := feed.Multi{hubFwd, udpSrv}
	forwarders := openBrokers(cfg.Broker)
	for _, f := range forwarders {
		pub = append(pub, f)
	}

	router := server.NewRouter(server.Deps{Store: store, Gate: gate, Hub: hub, Publisher: pub})
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcLis, err := net.Listen("tcp", cfg.GrpcAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GrpcAddr).Msg("grpc listen failed")
	}
	grpcSrv := grpcserver.NewGRPCServer(grpcserver.NewServer(store, gate, pub))

	errCh := make(chan error, 4)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := udpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", cfg.HTTPAddr).Int("movies", store.Len()).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", cfg.GrpcAddr).Msg("grpc server listening")
		if err := grpcSrv.Serve(grpcLis); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if err := tcpSrv.Close(); err != nil {
		log.Error().Err(err).Msg("tcp shutdown error")
	}
	if err := udpSrv.Close(); err != nil {
		log.Error().Err(err).Msg("udp shutdown error")
	}
	grpcSrv.GracefulStop()

	wg.Wait()
	if err := hubFwd.Close(); err != nil {
		log.Error().Err(err).Msg("feed hub shutdown error")
	}
	for _, f := range forwarders {
		if err := f.Close(); err != nil {
			log.Error().Err(err).Msg("broker shutdown error")
		}
	}
	log.Info().Msg("servers stopped")
}

// openBrokers connects the configured event sinks. A broker that cannot be
// reached is logged and skipped.
func openBrokers(cfg utils.BrokerConfig) []*feed.Forwarder {
	var out []*feed.Forwarder
	if cfg.RedisAddr != "" {
		sink, err := feed.NewRedisSink(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisChannel)
		if err != nil {
			log.Error().Err(err).Msg("redis unavailable, events will not be forwarded")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Str("channel", cfg.RedisChannel).Msg("forwarding events to redis")
			out = append(out, feed.NewForwarder(sink, 0))
		}
	}
	if cfg.AMQPURL != "" {
		sink, err := feed.NewAMQPSink(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Error().Err(err).Msg("rabbitmq unavailable, events will not be forwarded")
		} else {
			log.Info().Str("queue", cfg.AMQPQueue).Msg("forwarding events to rabbitmq")
			out = append(out, feed.NewForwarder(sink, 0))
		}
	}
	return out
}
