package models

import "github.com/shopspring/decimal"

type Stats struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalTransactions int             `json:"total_transactions"`
	ActiveBots        int             `json:"active_bots"`
	TotalBots         int             `json:"total_bots"`
	ConnectedGateways int             `json:"connected_gateways"`
	TotalGateways     int             `json:"total_gateways"`
	SuccessRate       decimal.Decimal `json:"success_rate"`
}

type Health struct {
	Status    string    `json:"status"`
	Timestamp Timestamp `json:"timestamp"`
}
