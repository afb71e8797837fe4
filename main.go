package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/mpetras/castdraft/internal/auth"
	"github.com/mpetras/castdraft/internal/cache"
	"github.com/mpetras/castdraft/internal/database"
	"github.com/mpetras/castdraft/internal/handlers"
	"github.com/mpetras/castdraft/internal/middleware"
	"github.com/mpetras/castdraft/internal/room"
)

func main() {
	logger := logrus.New()
	if os.Getenv("CASTDRAFT_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// init db connection
	if err := database.ConnectDB(); err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer database.DB.Close()

	// Redis backs the action audit queue; the draft runs fine without it.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, draft actions will not be recorded: %v", err)
	}

	// init session signing keys
	auth.Init()

	repo := database.NewRepo()
	store := room.NewStore(repo)
	engine := room.NewEngine(store, clockwork.NewRealClock(), logger)
	registry := handlers.NewConnRegistry(logger)
	engine.BroadcastFn = registry.Broadcast

	api := handlers.NewAPIServer(repo, store, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", api.PingHandler)
	mux.HandleFunc("/rooms/create", api.CreateRoomHandler)
	mux.Handle("/rooms/ws/", handlers.RoomWSHandler(logger, engine, registry))

	server := &http.Server{
		Handler:     middleware.LogMiddleware(logger)(mux),
		ReadTimeout: time.Second * 10,
		// No WriteTimeout: websocket connections outlive any sane value.
	}

	port := os.Getenv("CASTDRAFT_PORT")
	if port == "" {
		port = "8080"
	}
	l, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}

	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
}
