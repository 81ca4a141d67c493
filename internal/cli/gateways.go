package cli

import (
	"context"
	"errors"
	"fmt"
)

func gatewaysCmd(ctx context.Context, env Env, args []string) error {
	if len(args) == 0 {
		return errors.New("gateways subcommand required: list|create|update|delete|test")
	}
	a := env.App
	switch args[0] {
	case "list":
		if err := a.Gateways.Refetch(ctx); err != nil {
			return err
		}
		return env.write(gatewayTable(a.Gateways.Gateways()))

	case "create", "update":
		id := 0
		rest := args[1:]
		if args[0] == "update" {
			var err error
			id, rest, err = idArg("botctl gateways update <id> [--name] [--type] [--url] [--key]", rest)
			if err != nil {
				return err
			}
		}
		fs := env.flags("gateways " + args[0])
		name := fs.String("name", "", "gateway name")
		typ := fs.String("type", "", "gateway type (default BTCPay Server)")
		apiURL := fs.String("url", "", "gateway API URL")
		key := fs.String("key", "", "gateway API key; empty on update keeps the stored one")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		set := visited(fs)
		if id != 0 {
			if len(set) == 0 {
				return errNothingToUpdate
			}
			if err := a.Gateways.Refetch(ctx); err != nil {
				return err
			}
		}
		if err := a.OpenGatewayEditor(id); err != nil {
			return err
		}
		defer a.CloseGatewayEditor()

		ed, _ := a.GatewayEditor()
		f := ed.Form
		if set["name"] {
			f.Name = *name
		}
		if set["type"] {
			f.Type = *typ
		}
		if set["url"] {
			f.APIURL = *apiURL
		}
		if set["key"] {
			f.APIKey = *key
		}
		if _, err := a.SubmitGateway(ctx, f); err != nil {
			return err
		}
		return env.outcome()

	case "delete":
		id, rest, err := idArg("botctl gateways delete <id> [--yes]", args[1:])
		if err != nil {
			return err
		}
		fs := env.flags("gateways delete")
		yes := fs.Bool("yes", false, "skip confirmation")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		confirmed := *yes
		if !confirmed {
			if err := a.Gateways.Refetch(ctx); err != nil {
				return err
			}
			prompt, err := a.ConfirmGatewayDelete(id)
			if err != nil {
				return err
			}
			confirmed = env.confirm(prompt)
		}
		if err := a.DeleteGateway(ctx, id, confirmed); err != nil {
			return err
		}
		return env.outcome()

	case "test":
		id, _, err := idArg("botctl gateways test <id>", args[1:])
		if err != nil {
			return err
		}
		if err := a.TestGateway(ctx, id); err != nil {
			return err
		}
		return env.outcome()

	default:
		return fmt.Errorf("unknown gateways subcommand: %s", args[0])
	}
}
