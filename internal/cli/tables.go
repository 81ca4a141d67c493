package cli

import (
	"strconv"

	"botpanel/internal/models"
	"botpanel/internal/output"
)

type botTable []models.Bot

func (t botTable) Table() output.Table {
	out := output.Table{Headers: []string{"id", "name", "active", "gateway", "updated"}}
	for _, b := range t {
		gw := "-"
		if b.GatewayID != nil {
			gw = strconv.Itoa(*b.GatewayID)
		}
		out.Rows = append(out.Rows, []string{strconv.Itoa(b.ID), b.Name, strconv.FormatBool(b.IsActive), gw, stamp(b.UpdatedAt)})
	}
	return out
}

type gatewayTable []models.Gateway

func (t gatewayTable) Table() output.Table {
	out := output.Table{Headers: []string{"id", "name", "type", "url", "status"}}
	for _, g := range t {
		out.Rows = append(out.Rows, []string{strconv.Itoa(g.ID), g.Name, string(g.Type), g.APIURL, string(g.Status)})
	}
	return out
}

type logTable []models.LogEntry

func (t logTable) Table() output.Table {
	out := output.Table{Headers: []string{"time", "level", "bot", "message"}}
	for _, e := range t {
		bot := "-"
		if e.BotID != nil {
			bot = strconv.Itoa(*e.BotID)
		}
		out.Rows = append(out.Rows, []string{stamp(e.Timestamp), string(e.Level), bot, e.Message})
	}
	return out
}

type statsTable models.Stats

func (s statsTable) Table() output.Table {
	return output.Table{
		Headers: []string{"metric", "value"},
		Rows: [][]string{
			{"revenue", s.TotalRevenue.StringFixed(2)},
			{"transactions", strconv.Itoa(s.TotalTransactions)},
			{"bots", strconv.Itoa(s.ActiveBots) + " active / " + strconv.Itoa(s.TotalBots)},
			{"gateways", strconv.Itoa(s.ConnectedGateways) + " connected / " + strconv.Itoa(s.TotalGateways)},
		},
	}
}

type healthTable models.Health

func (h healthTable) Table() output.Table {
	return output.Table{
		Headers: []string{"status", "timestamp"},
		Rows:    [][]string{{h.Status, stamp(h.Timestamp)}},
	}
}

func stamp(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02 15:04:05")
}
