package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"botpanel/internal/accessor"
	"botpanel/internal/app"
	"botpanel/internal/form"
)

func logsCmd(ctx context.Context, env Env, args []string) error {
	if len(args) == 0 {
		return errors.New("logs subcommand required: list|create|clear")
	}
	a := env.App
	switch args[0] {
	case "list":
		fs := env.flags("logs list")
		limit := fs.Int("limit", accessor.DefaultLogsLimit, "max entries, newest first")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		a.Logs.SetLimit(*limit)
		if err := a.Logs.Refetch(ctx); err != nil {
			return err
		}
		return env.write(logTable(a.Logs.Logs()))

	case "create":
		fs := env.flags("logs create")
		level := fs.String("level", "info", "info|warning|error|success")
		message := fs.String("message", "", "log message")
		bot := fs.Int("bot", 0, "related bot id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		f := form.LogForm{Level: *level, Message: *message}
		if *bot != 0 {
			f.BotID = strconv.Itoa(*bot)
		}
		if _, err := a.CreateLog(ctx, f); err != nil {
			return err
		}
		return env.outcome()

	case "clear":
		fs := env.flags("logs clear")
		yes := fs.Bool("yes", false, "skip confirmation")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		confirmed := *yes || env.confirm(app.ConfirmClearLogs)
		if err := a.ClearLogs(ctx, confirmed); err != nil {
			return err
		}
		return env.outcome()

	default:
		return fmt.Errorf("unknown logs subcommand: %s", args[0])
	}
}
