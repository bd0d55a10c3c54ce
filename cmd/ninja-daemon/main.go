// Command ninja-daemon is the per-host lifecycle controller for every
// module's HTTP/SSE daemon process (spec §4.12): start|stop|status|restart
// [module], dispatched with a plain switch on the positional arguments; no
// flag package parsing is involved.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/fatih/color"

	"github.com/angkira/ninja-cli-mcp/internal/config"
	"github.com/angkira/ninja-cli-mcp/internal/daemon"
)

const (
	exitSuccess  = 0
	exitUser     = 1
	exitEnv      = 2
	exitInternal = 3
)

var modules = []string{"coder", "researcher", "secretary", "resources", "prompts"}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return exitUser
	}

	sub := args[0]
	rest := args[1:]
	module := "coder"
	if len(rest) > 0 {
		module = rest[0]
	}

	boot, err := config.LoadBootstrap(module)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap error: %v\n", err)
		return exitEnv
	}
	ctl := daemon.NewController(boot.CacheDir)

	switch sub {
	case "start":
		return cmdStart(ctl, module)
	case "stop":
		return cmdStop(ctl, module)
	case "status":
		return cmdStatus(ctl, module)
	case "restart":
		return cmdRestart(ctl, module)
	default:
		usage()
		return exitUser
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ninja-daemon [start|stop|status|restart] [module]")
	fmt.Fprintf(os.Stderr, "modules: %v (default coder)\n", modules)
}

func cmdStart(ctl *daemon.Controller, module string) int {
	shouldSpawn, err := ctl.Start(module)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		return exitInternal
	}
	if !shouldSpawn {
		fmt.Printf("%s already running\n", module)
		return exitSuccess
	}

	bin := "ninja-" + module
	if _, err := exec.LookPath(bin); err != nil {
		fmt.Fprintf(os.Stderr, "start: %s not found on PATH: %v\n", bin, err)
		return exitEnv
	}
	cmd := exec.Command(bin, "--http", "--port", fmt.Sprint(daemon.DefaultPort(module)))
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		return exitInternal
	}
	fmt.Printf("started %s (pid %d)\n", module, cmd.Process.Pid)
	return exitSuccess
}

func cmdStop(ctl *daemon.Controller, module string) int {
	if err := ctl.Stop(module, 5*time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "stop: %v\n", err)
		return exitInternal
	}
	fmt.Printf("stopped %s\n", module)
	return exitSuccess
}

func cmdRestart(ctl *daemon.Controller, module string) int {
	if code := cmdStop(ctl, module); code != exitSuccess {
		return code
	}
	return cmdStart(ctl, module)
}

func cmdStatus(ctl *daemon.Controller, module string) int {
	targets := []string{module}
	if module == "all" {
		targets = modules
	}
	for _, m := range targets {
		st, err := ctl.Status(m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "status %s: %v\n", m, err)
			return exitInternal
		}
		printStatus(st)
	}
	return exitSuccess
}

func printStatus(st daemon.Status) {
	state := color.RedString("stopped")
	if st.Running {
		state = color.GreenString("running")
	}
	fmt.Printf("%-10s %s  pid=%-8d port=%-6d url=%-28s log=%s\n", st.Module, state, st.PID, st.Port, st.URL, st.LogFile)
}
