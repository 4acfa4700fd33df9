package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/lootwatch/lootwatchd/internal/config"
	"github.com/lootwatch/lootwatchd/internal/httpapi"
	"github.com/lootwatch/lootwatchd/internal/tailer"
	"github.com/lootwatch/lootwatchd/pkg/log"
)

// runServe runs the full daemon: the live Collector pipeline plus the
// HTTP API surface onto it. It blocks until ctx is cancelled (SIGINT
// or SIGTERM) and returns after the listener and pipeline have both
// stopped cleanly.
func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var common commonFlags
	bindCommonFlags(fs, &common)
	var port int
	var noWindow, overlay, overlayOnly bool
	var gameLog string
	fs.IntVar(&port, "port", 0, "Listen on `port` instead of the configured addr's port")
	fs.BoolVar(&noWindow, "no-window", false, "Accepted for the presentation layer; has no effect on the core daemon")
	fs.BoolVar(&overlay, "overlay", false, "Accepted for the presentation layer; has no effect on the core daemon")
	fs.BoolVar(&overlayOnly, "overlay-only", false, "Accepted for the presentation layer; has no effect on the core daemon")
	fs.StringVar(&gameLog, "log", "", "Path to the game's own log file to tail (default: config logPath)")
	fs.Parse(args)

	env, err := openEnvironment(&common)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer env.Close()

	gameLogPath, err := resolveGameLogPath(gameLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	p, err := buildPipeline(env, gameLogPath)
	if err != nil {
		log.Error(err)
		return 1
	}

	cloud := httpapi.NewCloudController(p.cloud)
	icons := httpapi.NewIconHandler(env.store, newHTTPClient())
	api := httpapi.New(env.store, p.valuation, p.collector, cloud, icons, config.Keys.BaseCurrencyType, p.metrics)

	router := mux.NewRouter()
	router.StrictSlash(true)
	api.MountRoutes(router)

	router.Use(handlers.CompressHandler)
	router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	router.Use(handlers.CORS(
		handlers.AllowCredentials(),
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization", "Origin"}),
		handlers.AllowedMethods([]string{"GET", "POST", "HEAD", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"})))

	accessLog := handlers.CustomLoggingHandler(io.Discard, router, func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Debugf("%s %s (%d, %.02fkb, %dms)",
			params.Request.Method, params.URL.RequestURI(),
			params.StatusCode, float32(params.Size)/1024,
			time.Since(params.TimeStamp).Milliseconds())
	})

	addr := config.Keys.Addr
	if port != 0 {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		addr = net.JoinHostPort(host, strconv.Itoa(port))
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      accessLog,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.collector.Run(ctx, p.tailer, func(pos tailer.Position) error {
			return p.persistOffset(pos, env.store)
		}); err != nil {
			log.Errorf("serve: collector pipeline stopped: %v", err)
		}
	}()

	if p.cloud != nil {
		if err := p.cloud.Start(ctx); err != nil {
			log.Errorf("serve: cloud sync worker: %v", err)
		}
	}

	listenErr := make(chan error, 1)
	go func() {
		log.Infof("serve: listening on %s", addr)
		listenErr <- server.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-sigs:
		log.Info("serve: shutting down")
	case err := <-listenErr:
		if err != nil && !strings.Contains(err.Error(), "Server closed") {
			log.Errorf("serve: listener: %v", err)
			exitCode = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	cancel()
	if p.cloud != nil {
		p.cloud.Stop()
	}
	wg.Wait()

	return exitCode
}
