package accessor

import (
	"context"
	"fmt"

	"botpanel/internal/models"
)

type BotAPI interface {
	ListBots(ctx context.Context) ([]models.Bot, error)
	CreateBot(ctx context.Context, in models.BotInput) (models.Bot, error)
	UpdateBot(ctx context.Context, id int, in models.BotInput) (models.Bot, error)
	DeleteBot(ctx context.Context, id int) (models.ActionResult, error)
	ToggleBot(ctx context.Context, id int) (models.ActionResult, error)
	RestartBot(ctx context.Context, id int) (models.ActionResult, error)
}

type BotAccessor struct {
	api BotAPI
	res *resource[[]models.Bot]
}

func NewBots(api BotAPI, opts Options) *BotAccessor {
	return &BotAccessor{api: api, res: newResource[[]models.Bot]("bots", opts)}
}

func (a *BotAccessor) Refetch(ctx context.Context) error {
	return a.res.refetch(ctx, a.api.ListBots)
}

func (a *BotAccessor) Bots() []models.Bot {
	v, _ := a.res.get()
	return append([]models.Bot(nil), v...)
}

func (a *BotAccessor) Find(id int) (models.Bot, bool) {
	v, _ := a.res.get()
	for _, b := range v {
		if b.ID == id {
			return b, true
		}
	}
	return models.Bot{}, false
}

func (a *BotAccessor) Loading() bool { return a.res.loading() }
func (a *BotAccessor) Err() string   { return a.res.errText() }

func (a *BotAccessor) Create(ctx context.Context, in models.BotInput) (models.Bot, error) {
	b, err := a.api.CreateBot(ctx, in)
	if err != nil {
		return models.Bot{}, fmt.Errorf("failed to create bot: %w", err)
	}
	_ = a.Refetch(ctx)
	return b, nil
}

func (a *BotAccessor) Update(ctx context.Context, id int, in models.BotInput) (models.Bot, error) {
	b, err := a.api.UpdateBot(ctx, id, in)
	if err != nil {
		return models.Bot{}, fmt.Errorf("failed to update bot: %w", err)
	}
	_ = a.Refetch(ctx)
	return b, nil
}

func (a *BotAccessor) Delete(ctx context.Context, id int) error {
	if _, err := a.api.DeleteBot(ctx, id); err != nil {
		return fmt.Errorf("failed to delete bot: %w", err)
	}
	_ = a.Refetch(ctx)
	return nil
}

// Toggle flips the bot's active flag locally before calling the backend and
// restores it if the call fails.
func (a *BotAccessor) Toggle(ctx context.Context, id int) error {
	prev, known := a.setActive(id, nil)
	if _, err := a.api.ToggleBot(ctx, id); err != nil {
		if known {
			a.setActive(id, &prev)
		}
		return fmt.Errorf("failed to toggle bot: %w", err)
	}
	_ = a.Refetch(ctx)
	return nil
}

// Restart returns the backend acknowledgement message.
func (a *BotAccessor) Restart(ctx context.Context, id int) (string, error) {
	res, err := a.api.RestartBot(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to restart bot: %w", err)
	}
	_ = a.Refetch(ctx)
	return res.Message, nil
}

// setActive sets is_active for id, or flips it when to is nil. It returns
// the previous value and whether the bot was present.
func (a *BotAccessor) setActive(id int, to *bool) (prev bool, found bool) {
	a.res.update(func(bots []models.Bot) []models.Bot {
		out := append([]models.Bot(nil), bots...)
		for i := range out {
			if out[i].ID != id {
				continue
			}
			prev, found = out[i].IsActive, true
			if to != nil {
				out[i].IsActive = *to
			} else {
				out[i].IsActive = !out[i].IsActive
			}
		}
		return out
	})
	return prev, found
}
