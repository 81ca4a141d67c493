package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"botpanel/internal/app"
	"botpanel/internal/cli"
	"botpanel/internal/client"
	"botpanel/internal/config"
	"botpanel/internal/output"
)

func main() {
	_ = godotenv.Load()

	var (
		apiBase = flag.String("api-base", "", "Bot backend base URL (env: BP_API_BASE_URL)")
		outFmt  = flag.String("output", "text", "Output format: json|text|markdown|yaml")
		cfgPath = flag.String("config", os.Getenv("BP_CONFIG"), "Config file (env: BP_CONFIG)")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		cli.Usage(os.Stderr)
		os.Exit(2)
	}

	format, err := output.ParseFormat(*outFmt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	// Without a config file everything comes from BP_* variables and defaults.
	cfg, err := config.Load(*cfgPath, strings.TrimSpace(*cfgPath) == "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*apiBase) != "" {
		cfg.API.BaseURL = strings.TrimSpace(*apiBase)
	}

	// No poller and no preference store: each invocation is one action.
	panel, err := app.New(client.New(cfg.API, nil, nil), app.Options{
		UI:        cfg.UI,
		LogsLimit: cfg.API.LogsLimit,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	env := cli.Env{
		App:    panel,
		Output: format,
		Out:    os.Stdout,
		Err:    os.Stderr,
		In:     os.Stdin,
	}
	err = cli.Dispatch(ctx, env, args)
	stop()
	_ = panel.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
