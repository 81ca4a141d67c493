package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func botsCmd(ctx context.Context, env Env, args []string) error {
	if len(args) == 0 {
		return errors.New("bots subcommand required: list|create|update|delete|toggle|restart")
	}
	a := env.App
	switch args[0] {
	case "list":
		if err := a.Bots.Refetch(ctx); err != nil {
			return err
		}
		return env.write(botTable(a.Bots.Bots()))

	case "create":
		fs := env.flags("bots create")
		bf := newBotFlags(fs, "path to a .py source (default: echo template)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return editBot(ctx, env, 0, fs, bf)

	case "update":
		id, rest, err := idArg("botctl bots update <id> [--name] [--token] [--code-file] [--gateway]", args[1:])
		if err != nil {
			return err
		}
		fs := env.flags("bots update")
		bf := newBotFlags(fs, "path to a .py source")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return editBot(ctx, env, id, fs, bf)

	case "delete":
		id, rest, err := idArg("botctl bots delete <id> [--yes]", args[1:])
		if err != nil {
			return err
		}
		fs := env.flags("bots delete")
		yes := fs.Bool("yes", false, "skip confirmation")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		confirmed := *yes
		if !confirmed {
			if err := a.Bots.Refetch(ctx); err != nil {
				return err
			}
			prompt, err := a.ConfirmBotDelete(id)
			if err != nil {
				return err
			}
			confirmed = env.confirm(prompt)
		}
		if err := a.DeleteBot(ctx, id, confirmed); err != nil {
			return err
		}
		return env.outcome()

	case "toggle":
		id, _, err := idArg("botctl bots toggle <id>", args[1:])
		if err != nil {
			return err
		}
		// Load first so the reported direction matches the bot's state.
		if err := a.Bots.Refetch(ctx); err != nil {
			return err
		}
		if err := a.ToggleBot(ctx, id); err != nil {
			return err
		}
		return env.outcome()

	case "restart":
		id, _, err := idArg("botctl bots restart <id>", args[1:])
		if err != nil {
			return err
		}
		if err := a.RestartBot(ctx, id); err != nil {
			return err
		}
		return env.outcome()

	default:
		return fmt.Errorf("unknown bots subcommand: %s", args[0])
	}
}

type botFlags struct {
	name, token, codeFile, gateway *string
}

func newBotFlags(fs *flag.FlagSet, codeUsage string) botFlags {
	return botFlags{
		name:     fs.String("name", "", "bot name"),
		token:    fs.String("token", "", "Telegram bot token"),
		codeFile: fs.String("code-file", "", codeUsage),
		gateway:  fs.String("gateway", "", "payment gateway id"),
	}
}

// editBot fills the bot editor (id 0 for a new bot), overlays the flags that
// were given and submits it like the panel's Save button.
func editBot(ctx context.Context, env Env, id int, fs *flag.FlagSet, bf botFlags) error {
	a := env.App
	set := visited(fs)
	if id != 0 {
		if len(set) == 0 {
			return errNothingToUpdate
		}
		if err := a.Bots.Refetch(ctx); err != nil {
			return err
		}
	}
	if err := a.OpenBotEditor(id); err != nil {
		return err
	}
	defer a.CloseBotEditor()

	if set["code-file"] {
		content, err := os.ReadFile(*bf.codeFile)
		if err != nil {
			return err
		}
		if err := a.UploadBotCode(filepath.Base(*bf.codeFile), content); err != nil {
			return err
		}
	}
	ed, _ := a.BotEditor()
	f := ed.Form
	if set["name"] {
		f.Name = *bf.name
	}
	if set["token"] {
		f.Token = *bf.token
	}
	if set["gateway"] {
		f.GatewayID = *bf.gateway
	}
	if _, err := a.SubmitBot(ctx, f); err != nil {
		return err
	}
	return env.outcome()
}
