package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"botpanel/internal/form"
	"botpanel/internal/notify"
)

// ConfirmBotDelete is the prompt shown before a bot is deleted.
func (a *App) ConfirmBotDelete(id int) (string, error) {
	b, ok := a.Bots.Find(id)
	if !ok {
		return "", fmt.Errorf("bot %d: %w", id, ErrNotFound)
	}
	return fmt.Sprintf("Delete bot %q?", b.Name), nil
}

func (a *App) ConfirmGatewayDelete(id int) (string, error) {
	g, ok := a.Gateways.Find(id)
	if !ok {
		return "", fmt.Errorf("gateway %d: %w", id, ErrNotFound)
	}
	return fmt.Sprintf("Delete gateway %q?", g.Name), nil
}

const ConfirmClearLogs = "Clear all logs?"

// OpenBotEditor opens the bot modal on the config tab. id 0 starts a new
// bot from the starter template.
func (a *App) OpenBotEditor(id int) error {
	f := form.NewBotForm()
	if id != 0 {
		b, ok := a.Bots.Find(id)
		if !ok {
			return fmt.Errorf("bot %d: %w", id, ErrNotFound)
		}
		f = form.BotFormFrom(b)
	}
	a.mu.Lock()
	a.botEdit = &BotEditor{Form: f, Tab: TabConfig}
	a.mu.Unlock()
	return nil
}

func (a *App) CloseBotEditor() {
	a.mu.Lock()
	a.botEdit = nil
	a.mu.Unlock()
}

func (a *App) BotEditor() (BotEditor, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.botEdit == nil {
		return BotEditor{}, false
	}
	return *a.botEdit, true
}

func (a *App) SetBotTab(tab BotTab) error {
	if tab != TabConfig && tab != TabCode {
		return fmt.Errorf("unknown tab %q", tab)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.botEdit == nil {
		return ErrNoEditor
	}
	a.botEdit.Tab = tab
	return nil
}

// UpdateBotDraft stores in-progress edits without submitting them.
func (a *App) UpdateBotDraft(f form.BotForm) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.botEdit == nil {
		return ErrNoEditor
	}
	f.ID = a.botEdit.Form.ID
	a.botEdit.Form = f
	return nil
}

// UploadBotCode replaces the editor's code with an uploaded .py file. Any
// other file is rejected and the code is left untouched.
func (a *App) UploadBotCode(filename string, content []byte) error {
	code, err := form.CheckCodeUpload(filename, content)
	if err != nil {
		a.report(notify.Error, err.Error())
		return err
	}
	a.mu.Lock()
	if a.botEdit == nil {
		a.mu.Unlock()
		return ErrNoEditor
	}
	a.botEdit.Form.Code = code
	a.botEdit.Tab = TabCode
	a.mu.Unlock()
	a.report(notify.Success, fmt.Sprintf("loaded %s", filename))
	return nil
}

// SubmitBot validates and then creates or updates the bot. Invalid forms
// never reach the backend.
func (a *App) SubmitBot(ctx context.Context, f form.BotForm) (form.ValidationResult, error) {
	res := f.Validate()
	a.mu.Lock()
	if a.botEdit != nil {
		a.botEdit.Form = f
		a.botEdit.Validation = res
	}
	a.mu.Unlock()
	if !res.OK() {
		a.report(notify.Error, res.Message())
		return res, res.Err()
	}

	var err error
	if f.Editing() {
		_, err = a.Bots.Update(ctx, f.ID, f.Input())
	} else {
		_, err = a.Bots.Create(ctx, f.Input())
	}
	if err != nil {
		a.fail(err)
		return res, err
	}

	if f.Editing() {
		a.report(notify.Success, "Bot updated successfully")
	} else {
		a.report(notify.Success, "Bot created successfully")
	}
	a.CloseBotEditor()
	a.refreshStats(ctx)
	return res, nil
}

func (a *App) DeleteBot(ctx context.Context, id int, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := a.Bots.Delete(ctx, id); err != nil {
		a.fail(err)
		return err
	}
	a.report(notify.Success, "Bot deleted successfully")
	a.refreshStats(ctx)
	return nil
}

func (a *App) ToggleBot(ctx context.Context, id int) error {
	wasActive := false
	if b, ok := a.Bots.Find(id); ok {
		wasActive = b.IsActive
	}
	if err := a.Bots.Toggle(ctx, id); err != nil {
		a.fail(err)
		return err
	}
	if wasActive {
		a.report(notify.Success, "Bot deactivated successfully")
	} else {
		a.report(notify.Success, "Bot activated successfully")
	}
	a.refreshStats(ctx)
	return nil
}

func (a *App) RestartBot(ctx context.Context, id int) error {
	msg, err := a.Bots.Restart(ctx, id)
	if err != nil {
		a.fail(err)
		return err
	}
	if msg == "" {
		msg = "Bot restart initiated"
	}
	a.report(notify.Info, msg)
	return nil
}

func (a *App) OpenGatewayEditor(id int) error {
	f := form.NewGatewayForm()
	if id != 0 {
		g, ok := a.Gateways.Find(id)
		if !ok {
			return fmt.Errorf("gateway %d: %w", id, ErrNotFound)
		}
		f = form.GatewayFormFrom(g)
	}
	a.mu.Lock()
	a.gatewayEdt = &GatewayEditor{Form: f}
	a.mu.Unlock()
	return nil
}

func (a *App) CloseGatewayEditor() {
	a.mu.Lock()
	a.gatewayEdt = nil
	a.mu.Unlock()
}

func (a *App) GatewayEditor() (GatewayEditor, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gatewayEdt == nil {
		return GatewayEditor{}, false
	}
	return *a.gatewayEdt, true
}

func (a *App) SubmitGateway(ctx context.Context, f form.GatewayForm) (form.ValidationResult, error) {
	res := f.Validate()
	a.mu.Lock()
	if a.gatewayEdt != nil {
		kept := f
		kept.APIKey = ""
		a.gatewayEdt.Form = kept
		a.gatewayEdt.Validation = res
	}
	a.mu.Unlock()
	if !res.OK() {
		a.report(notify.Error, res.Message())
		return res, res.Err()
	}

	var err error
	if f.Editing() {
		_, err = a.Gateways.Update(ctx, f.ID, f.Input())
	} else {
		_, err = a.Gateways.Create(ctx, f.Input())
	}
	if err != nil {
		a.fail(err)
		return res, err
	}

	if f.Editing() {
		a.report(notify.Success, "Gateway updated successfully")
	} else {
		a.report(notify.Success, "Gateway created successfully")
	}
	a.CloseGatewayEditor()
	a.refreshStats(ctx)
	return res, nil
}

func (a *App) DeleteGateway(ctx context.Context, id int, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := a.Gateways.Delete(ctx, id); err != nil {
		a.fail(err)
		return err
	}
	a.report(notify.Success, "Gateway deleted successfully")
	a.refreshStats(ctx)
	return nil
}

func (a *App) TestGateway(ctx context.Context, id int) error {
	if err := a.Gateways.Test(ctx, id); err != nil {
		a.fail(err)
		return err
	}
	a.report(notify.Info, "Connection test started")
	return nil
}

func (a *App) ClearLogs(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := a.Logs.Clear(ctx); err != nil {
		a.fail(err)
		return err
	}
	a.report(notify.Success, "Logs cleared successfully")
	return nil
}

// CreateLog validates and writes a log entry to the backend.
func (a *App) CreateLog(ctx context.Context, f form.LogForm) (form.ValidationResult, error) {
	res := f.Validate()
	if !res.OK() {
		a.report(notify.Error, res.Message())
		return res, res.Err()
	}
	if _, err := a.Logs.Create(ctx, f.Input()); err != nil {
		a.fail(err)
		return res, err
	}
	a.report(notify.Success, "Log entry created")
	return res, nil
}

func (a *App) fail(err error) {
	msg := err.Error()
	if msg = strings.TrimSpace(msg); msg == "" {
		msg = "request failed"
	}
	a.logger.Warn("action failed", zap.Error(err))
	a.report(notify.Error, msg)
}

func (a *App) refreshStats(ctx context.Context) {
	if err := a.Stats.Refetch(ctx); err != nil {
		a.logger.Debug("stats refresh failed", zap.Error(err))
	}
}
