package app

import (
	"fmt"

	"botpanel/internal/models"
	"botpanel/internal/notify"
	"botpanel/internal/prefs"
)

// LogRow is a log entry with its bot name resolved for display.
type LogRow struct {
	models.LogEntry
	BotName string `json:"bot_name,omitempty"`
}

type StatsView struct {
	models.Stats
	Loaded  bool   `json:"loaded"`
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

type ListState struct {
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// View is a render-ready snapshot of the whole dashboard.
type View struct {
	Section      Section               `json:"section"`
	Title        string                `json:"title"`
	Sections     []Section             `json:"sections"`
	Theme        prefs.Theme           `json:"theme"`
	Connection   Connection            `json:"connection"`
	Stats        StatsView             `json:"stats"`
	Bots         []models.Bot          `json:"bots"`
	BotsState    ListState             `json:"bots_state"`
	Capacity     string                `json:"capacity"`
	Gateways     []models.Gateway      `json:"gateways"`
	GatewayState ListState             `json:"gateways_state"`
	GatewayTypes []models.GatewayType  `json:"gateway_types"`
	Logs         []LogRow              `json:"logs"`
	LogsState    ListState             `json:"logs_state"`
	RecentLogs   []LogRow              `json:"recent_logs"`
	Activity     []models.LogEntry     `json:"activity"`
	Notices      []notify.Notification `json:"notifications"`
	BotEditor    *BotEditor            `json:"bot_editor,omitempty"`
	GatewayEdit  *GatewayEditor        `json:"gateway_editor,omitempty"`
}

// View snapshots the state. hint is the client's preferred color scheme.
func (a *App) View(hint string) View {
	stats, loaded := a.Stats.Snapshot()
	bots := a.Bots.Bots()
	v := View{
		Section:    a.Section(),
		Sections:   Sections,
		Theme:      a.Theme(hint),
		Connection: a.Connection(),
		Stats: StatsView{
			Stats:   stats,
			Loaded:  loaded,
			Loading: a.Stats.Loading(),
			Err:     a.Stats.Err(),
		},
		Bots:         bots,
		BotsState:    ListState{Loading: a.Bots.Loading(), Err: a.Bots.Err()},
		Capacity:     fmt.Sprintf("%d of %d", len(bots), a.ui.BotCapacity),
		Gateways:     a.Gateways.Gateways(),
		GatewayState: ListState{Loading: a.Gateways.Loading(), Err: a.Gateways.Err()},
		GatewayTypes: models.GatewayTypes,
		LogsState:    ListState{Loading: a.Logs.Loading(), Err: a.Logs.Err()},
		Activity:     a.Activity(),
		Notices:      a.Notify.List(),
	}
	v.Title = v.Section.Title()

	names := make(map[int]string, len(bots))
	for _, b := range bots {
		names[b.ID] = b.Name
	}
	for _, e := range a.Logs.Logs() {
		row := LogRow{LogEntry: e}
		if e.BotID != nil {
			row.BotName = names[*e.BotID]
		}
		v.Logs = append(v.Logs, row)
	}
	v.RecentLogs = v.Logs
	if len(v.RecentLogs) > a.ui.RecentLogs {
		v.RecentLogs = v.RecentLogs[:a.ui.RecentLogs]
	}

	if e, ok := a.BotEditor(); ok {
		v.BotEditor = &e
	}
	if e, ok := a.GatewayEditor(); ok {
		v.GatewayEdit = &e
	}
	return v
}
