// Command ninja-config manages config.json and the legacy-env migration
// path: get|set|validate|migrate|setup-claude|doctor, dispatched the way
// tools/si dispatches its subcommands with flag.NewFlagSet + a switch.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/fatih/color"

	"github.com/angkira/ninja-cli-mcp/internal/config"
	"github.com/angkira/ninja-cli-mcp/internal/credstore"
	"github.com/angkira/ninja-cli-mcp/internal/logger"
)

const (
	exitSuccess  = 0
	exitUser     = 1
	exitEnv      = 2
	exitInternal = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return exitUser
	}

	boot, err := config.LoadBootstrap("coder")
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap error: %v\n", err)
		return exitEnv
	}

	switch args[0] {
	case "get":
		return cmdGet(boot, args[1:])
	case "set":
		return cmdSet(boot, args[1:])
	case "validate":
		return cmdValidate(boot)
	case "migrate":
		return cmdMigrate(boot, args[1:])
	case "setup-claude":
		return cmdSetupClaude(boot, args[1:])
	case "doctor":
		return cmdDoctor(boot)
	default:
		usage()
		return exitUser
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ninja-config [get|set|validate|migrate|setup-claude|doctor]")
}

func cmdGet(boot config.Bootstrap, args []string) int {
	store, err := config.Load(boot.ConfigFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "get: %v\n", err)
		return exitEnv
	}
	doc := store.Document()

	if len(args) == 0 {
		data, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(data))
		return exitSuccess
	}

	switch args[0] {
	case "coder.operator":
		fmt.Println(doc.Coder.Operator)
	case "coder.models":
		m := doc.Coder.Models
		fmt.Printf("default=%s quick=%s heavy=%s parallel=%s\n", m.Default, m.Quick, m.Heavy, m.Parallel)
	default:
		fmt.Fprintf(os.Stderr, "get: unknown key %q\n", args[0])
		return exitUser
	}
	return exitSuccess
}

func cmdSet(boot config.Bootstrap, args []string) int {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	operator := fs.String("operator", "", "set coder.operator")
	model := fs.String("model", "", "set coder.models.<slot>")
	modelSlot := fs.String("model-slot", "default", "model slot to set: default|quick|heavy|parallel")
	if err := fs.Parse(args); err != nil {
		return exitUser
	}

	store, err := config.Load(boot.ConfigFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "set: %v\n", err)
		return exitEnv
	}
	doc := store.Document()
	if *operator != "" {
		doc.Coder.Operator = *operator
	}
	if *model != "" {
		switch *modelSlot {
		case "default":
			doc.Coder.Models.Default = *model
		case "quick":
			doc.Coder.Models.Quick = *model
		case "heavy":
			doc.Coder.Models.Heavy = *model
		case "parallel":
			doc.Coder.Models.Parallel = *model
		default:
			fmt.Fprintf(os.Stderr, "set: unknown model slot %q\n", *modelSlot)
			return exitUser
		}
	}
	if err := store.Save(doc); err != nil {
		fmt.Fprintf(os.Stderr, "set: %v\n", err)
		return exitUser
	}
	fmt.Println("saved")
	return exitSuccess
}

func cmdValidate(boot config.Bootstrap) int {
	store, err := config.Load(boot.ConfigFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		return exitUser
	}
	if err := store.Document().Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		return exitUser
	}
	fmt.Println("config.json is valid")
	return exitSuccess
}

func cmdMigrate(boot config.Bootstrap, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "migrate: usage: ninja-config migrate <path-to-env-file>")
		return exitUser
	}
	store, err := credstore.Open(boot.CredentialsDBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return exitEnv
	}
	defer store.Close()

	cfgStore, err := config.Load(boot.ConfigFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return exitEnv
	}
	defer cfgStore.Close()

	log, err := logger.New("ninja-config", boot.LogsDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return exitEnv
	}
	defer log.Close()

	result, err := config.MigrateEnvFile(args[0], store, cfgStore, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return exitUser
	}
	fmt.Printf("migrated %d credentials, applied %d config keys, ignored %d plain config keys, backup at %s, log at %s\n",
		len(result.CredentialsMigrated), len(result.ConfigKeysApplied), len(result.ConfigKeysIgnored), result.BackupPath, result.MigrationLogPath)
	return exitSuccess
}

// claudeServerEntry is one MCP server registration block in Claude
// Desktop's config.json "mcpServers" map.
type claudeServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

func cmdSetupClaude(boot config.Bootstrap, args []string) int {
	target := ""
	if len(args) > 0 {
		target = args[0]
	}
	if target == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "setup-claude: %v\n", err)
			return exitEnv
		}
		target = home + "/Library/Application Support/Claude/claude_desktop_config.json"
	}

	doc := map[string]any{}
	if data, err := os.ReadFile(target); err == nil {
		_ = json.Unmarshal(data, &doc)
	}
	servers, _ := doc["mcpServers"].(map[string]any)
	if servers == nil {
		servers = map[string]any{}
	}
	servers["ninja-coder"] = claudeServerEntry{Command: "ninja-coder", Args: []string{"--stdio"}}
	doc["mcpServers"] = servers

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup-claude: %v\n", err)
		return exitInternal
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "setup-claude: %v\n", err)
		return exitUser
	}
	fmt.Printf("registered ninja-coder in %s\n", target)
	return exitSuccess
}

func cmdDoctor(boot config.Bootstrap) int {
	store, err := config.Load(boot.ConfigFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
		return exitEnv
	}
	doc := store.Document()
	ok := true

	if err := doc.Validate(); err != nil {
		fmt.Printf("%s config: %v\n", color.RedString("FAIL"), err)
		ok = false
	} else {
		fmt.Printf("%s config: coder.operator=%s registered\n", color.GreenString("OK"), doc.Coder.Operator)
	}

	if _, err := exec.LookPath(doc.Coder.Operator); err != nil {
		fmt.Printf("%s operator binary %q not found on PATH\n", color.RedString("FAIL"), doc.Coder.Operator)
		ok = false
	} else {
		fmt.Printf("%s operator binary %q is on PATH\n", color.GreenString("OK"), doc.Coder.Operator)
	}

	credStore, err := credstore.Open(boot.CredentialsDBPath())
	if err != nil {
		fmt.Printf("%s credential store: %v\n", color.RedString("FAIL"), err)
		ok = false
	} else {
		defer credStore.Close()
		fmt.Printf("%s credential store opened at %s\n", color.GreenString("OK"), boot.CredentialsDBPath())
	}

	if !ok {
		return exitUser
	}
	return exitSuccess
}
