package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eringen/cleanblog"
	"github.com/eringen/cleanblog/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe()
	case "grant-admin", "revoke-admin":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Usage: cleanblog %s <email>\n", cmd)
			os.Exit(1)
		}
		err = runSetAdmin(os.Args[2], cmd == "grant-admin")
	case "version":
		fmt.Printf("cleanblog %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := cleanblog.LoadConfig()
	if err != nil {
		return err
	}
	app, err := cleanblog.New(cfg, views.Funcs())
	if err != nil {
		return err
	}
	defer app.Close()

	errc := make(chan error, 1)
	go func() {
		errc <- app.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
		log.Println("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Println("server gracefully stopped")
	return nil
}

func runSetAdmin(email string, admin bool) error {
	cfg, err := cleanblog.LoadConfig()
	if err != nil {
		return err
	}
	store, err := cleanblog.NewStore(cfg.DatabaseURI)
	if err != nil {
		return err
	}
	defer store.Close()

	email = cleanblog.NormalizeEmail(email)
	if err := store.SetAdmin(context.Background(), email, admin); err != nil {
		if errors.Is(err, cleanblog.ErrNotFound) {
			return fmt.Errorf("no user registered with %s", email)
		}
		return err
	}
	fmt.Printf("%s admin=%t\n", email, admin)
	return nil
}

func printUsage() {
	fmt.Println(`cleanblog - a server-rendered blog built with Go, Echo, and templ

Usage:
  cleanblog [command] [arguments]

Commands:
  serve                 Start the web server (default)
  grant-admin <email>   Allow a user to delete posts
  revoke-admin <email>  Remove post deletion rights
  version               Print the cleanblog version
  help                  Show this help message

Configuration is read from the environment and an optional .env file:
  SECRET_KEY, DB_URI, ADDR, SITE_NAME, SITE_URL, SITE_DESCRIPTION,
  STATIC_DIR, COOKIE_SECURE, REDIS_URL, POST_CACHE_TTL, LOG_LEVEL, APP_ENV`)
}
