// Package cli implements botctl, a terminal client for the bot backend. Every
// command runs through app.App, the same view-model the web panel uses.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"botpanel/internal/app"
	"botpanel/internal/output"
)

type Env struct {
	// App is built without polling; the caller closes it.
	App    *app.App
	Output output.Format
	Out    io.Writer
	Err    io.Writer
	// In answers confirmation prompts when --yes is not given.
	In io.Reader
}

func Usage(w io.Writer) {
	fmt.Fprint(w, `botctl <command> <subcommand> [flags]

Global Flags:
  --api-base    Bot backend base URL (env: BP_API_BASE_URL)
  --output      json|text|markdown|yaml (default text)
  --config      Config file (env: BP_CONFIG)

Commands:
  stats     dashboard totals
  health    backend health
  bots      list/create/update/delete/toggle/restart
  gateways  list/create/update/delete/test
  logs      list/create/clear
`)
}

func Dispatch(ctx context.Context, env Env, args []string) error {
	if len(args) == 0 {
		Usage(env.Err)
		return errors.New("missing command")
	}
	switch args[0] {
	case "stats":
		if err := env.App.Stats.Refetch(ctx); err != nil {
			return err
		}
		s, _ := env.App.Stats.Snapshot()
		return env.write(statsTable(s))
	case "health":
		h, err := env.App.CheckHealth(ctx)
		if err != nil {
			return err
		}
		return env.write(healthTable(h))
	case "bots":
		return botsCmd(ctx, env, args[1:])
	case "gateways":
		return gatewaysCmd(ctx, env, args[1:])
	case "logs":
		return logsCmd(ctx, env, args[1:])
	case "help", "-h", "--help":
		Usage(env.Out)
		return nil
	default:
		Usage(env.Err)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (e Env) write(v any) error {
	return output.Write(e.Out, e.Output, v)
}

// outcome prints the message the last action reported.
func (e Env) outcome() error {
	act := e.App.Activity()
	if len(act) == 0 {
		return nil
	}
	return e.write(output.Message(act[0].Message))
}

func (e Env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("botctl "+name, flag.ContinueOnError)
	fs.SetOutput(e.Err)
	return fs
}

// confirm asks on Err and reads the answer from In. Anything but y or yes
// declines.
func (e Env) confirm(prompt string) bool {
	if e.In == nil {
		return false
	}
	fmt.Fprintf(e.Err, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(e.In).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// idArg takes the leading positional id and returns the remaining flags.
func idArg(usage string, args []string) (int, []string, error) {
	if len(args) == 0 {
		return 0, nil, errors.New("usage: " + usage)
	}
	id, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || id <= 0 {
		return 0, nil, fmt.Errorf("invalid id: %s", args[0])
	}
	return id, args[1:], nil
}

// visited reports the flags explicitly set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

var errNothingToUpdate = errors.New("nothing to update")
