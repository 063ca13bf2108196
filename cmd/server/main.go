package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/acheron-labs/voidmarket/auth"
	"github.com/acheron-labs/voidmarket/auth/flowrepo"
	"github.com/acheron-labs/voidmarket/auth/sessionrepo"
	"github.com/acheron-labs/voidmarket/cart"
	"github.com/acheron-labs/voidmarket/catalog"
	"github.com/acheron-labs/voidmarket/internal/config"
	"github.com/acheron-labs/voidmarket/internal/storage"
	"github.com/acheron-labs/voidmarket/orders"
	"github.com/acheron-labs/voidmarket/server"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	srv, closeStores, err := buildServer(c)
	if err != nil {
		return err
	}
	defer closeStores()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config) (*server.Server, func(), error) {
	var pendingRepo flowrepo.Repo
	var sessionRepo sessionrepo.Repo
	closeStores := func() {}

	if c.GetRedisAddr() != "" {
		rdb, err := storage.NewRedisClient(c)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		pendingRepo = flowrepo.NewRedisRepo(rdb, c.GetVerifierTTL())
		sessionRepo = sessionrepo.NewRedisRepo(rdb, c.GetTokenTTL())
		closeStores = func() { _ = rdb.Close() }
		log.Info().Str("addr", c.GetRedisAddr()).Msg("session state in redis")
	} else {
		pendingRepo = flowrepo.NewInMemoryRepo()
		sessionRepo = sessionrepo.NewInMemoryRepo()
		log.Info().Msg("session state in memory")
	}

	carts, err := cart.NewSQLiteRepo(c.GetCartDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("cart store: %w", err)
	}
	closeAll := func() {
		_ = carts.Close()
		closeStores()
	}

	flow, err := auth.NewFlow(
		auth.Config{
			AuthServerURL: c.GetAuthServerURL(),
			ClientID:      c.GetClientID(),
			RedirectURI:   c.GetBaseURL() + c.GetCallbackPath(),
			Scopes:        c.GetScopes(),
			VerifierTTL:   c.GetVerifierTTL(),
		},
		auth.Repos{Pending: pendingRepo, Sessions: sessionRepo},
	)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("auth flow: %w", err)
	}

	srv, err := server.New(c, flow,
		carts,
		catalog.NewClient(c.GetAPIBaseURL()),
		orders.NewClient(c.GetAPIBaseURL()),
	)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("server: %w", err)
	}
	return srv, closeAll, nil
}

func configureLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
