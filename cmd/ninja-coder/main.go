// Command ninja-coder is the Coder subsystem's MCP server entrypoint: the
// same process can run as a stdio server (the default, for editors that
// spawn it directly) or as an HTTP/SSE daemon module (spec §4.12), chosen
// by flag the way tools/si dispatches subcommands with flag.NewFlagSet.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/angkira/ninja-cli-mcp/internal/config"
	"github.com/angkira/ninja-cli-mcp/internal/credstore"
	"github.com/angkira/ninja-cli-mcp/internal/daemon"
	"github.com/angkira/ninja-cli-mcp/internal/executor"
	"github.com/angkira/ninja-cli-mcp/internal/logger"
	"github.com/angkira/ninja-cli-mcp/internal/mcpserver"
)

// Exit codes per spec §6: 0 success, 1 user error, 2 environment/dependency
// error, 3 internal failure.
const (
	exitSuccess = 0
	exitUser    = 1
	exitEnv     = 2
	exitInternal = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("ninja-coder", flag.ContinueOnError)
	stdio := fs.Bool("stdio", true, "serve over stdio (default)")
	httpMode := fs.Bool("http", false, "serve over HTTP/SSE instead of stdio")
	port := fs.Int("port", 0, "HTTP port (defaults to the coder module's documented port)")
	host := fs.String("host", "127.0.0.1", "HTTP bind address")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitUser
	}

	logg := log.New(os.Stdout, "ninja-coder ", log.LstdFlags|log.LUTC)

	boot, err := config.LoadBootstrap("coder")
	if err != nil {
		logg.Printf("bootstrap error: %v", err)
		return exitEnv
	}

	store, err := credstore.Open(boot.CredentialsDBPath())
	if err != nil {
		logg.Printf("credential store error: %v", err)
		return exitEnv
	}
	defer store.Close()

	cfgStore, err := config.Load(boot.ConfigFilePath())
	if err != nil {
		logg.Printf("config load error: %v", err)
		return exitEnv
	}
	if err := cfgStore.Watch(); err != nil {
		logg.Printf("config watch error: %v", err)
		return exitEnv
	}
	defer cfgStore.Close()

	structured, err := logger.New("coder", boot.LogsDir())
	if err != nil {
		logg.Printf("logger error: %v", err)
		return exitEnv
	}
	defer structured.Close()

	exec, err := executor.New(boot.SessionsDir())
	if err != nil {
		logg.Printf("executor error: %v", err)
		return exitInternal
	}

	tools := mcpserver.New(exec, cfgStore, structured, nil)

	if *httpMode {
		bindPort := *port
		if bindPort == 0 {
			bindPort = boot.Port
		}
		h := daemon.NewHost("coder", tools, logg)
		ctl := daemon.NewController(boot.CacheDir)
		if err := ctl.RecordStart("coder"); err != nil {
			logg.Printf("pidfile error: %v", err)
			return exitEnv
		}
		if err := h.ListenAndServe(fmt.Sprintf("%s:%d", *host, bindPort)); err != nil {
			logg.Printf("serve error: %v", err)
			return exitInternal
		}
		return exitSuccess
	}

	if !*stdio {
		logg.Printf("no transport selected; defaulting to stdio")
	}
	if err := tools.ServeStdio(context.Background()); err != nil {
		logg.Printf("stdio serve error: %v", err)
		return exitInternal
	}
	return exitSuccess
}
