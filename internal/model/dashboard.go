package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyProfit is one month of the payments-minus-expenses series.
type MonthlyProfit struct {
	Month    string          `json:"month"` // "2006-01"
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

// ProductRanking ranks a product by quantity sold in the period.
type ProductRanking struct {
	ProductName   string          `json:"product_name"`
	Description   string          `json:"description"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// ClientRanking ranks a client by payments received in the period.
type ClientRanking struct {
	ClientName string          `json:"client_name"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
}

// ExecutorWorkload counts orders per executor (falling back to the
// responsible user when no mechanic is set).
type ExecutorWorkload struct {
	ExecutorName string `json:"executor_name"`
	OrderCount   int    `json:"order_count"`
}

// StatusCount is the order count for one lifecycle status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// CriticalStockItem flags a product at or below its minimum stock.
type CriticalStockItem struct {
	Name         string `json:"name"`
	CurrentStock int    `json:"current_stock"`
	MinimumStock int    `json:"minimum_stock"`
}

// DashboardResponse carries every aggregate the dashboard renders.
// Monetary aggregates are zero, never null, when no rows match.
type DashboardResponse struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	MonthlyProfits []MonthlyProfit `json:"monthly_profits"`
	PeriodBalance  decimal.Decimal `json:"period_balance"`
	OverallBalance decimal.Decimal `json:"overall_balance"`

	OpenOrders          int                `json:"open_orders"`
	AwaitingPartsOrders int                `json:"awaiting_parts_orders"`
	StatusCounts        []StatusCount      `json:"status_counts"`
	ExecutorWorkloads   []ExecutorWorkload `json:"executor_workloads"`
	AvgFulfillmentDays  float64            `json:"avg_fulfillment_days"`

	TopProducts   []ProductRanking    `json:"top_products"`
	TopClients    []ClientRanking     `json:"top_clients"`
	CriticalStock []CriticalStockItem `json:"critical_stock"`
}
