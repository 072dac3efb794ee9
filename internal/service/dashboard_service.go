package service

import (
	"context"
	"sort"
	"time"

	"oficina/internal/model"
	"oficina/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DashboardService interface {
	Summary(ctx context.Context, actor *model.User, from, to time.Time) (*model.DashboardResponse, error)
}

type dashboardService struct {
	repo        repository.DashboardRepository
	productRepo repository.ProductRepository
}

func NewDashboardService(repo repository.DashboardRepository, productRepo repository.ProductRepository) DashboardService {
	return &dashboardService{repo: repo, productRepo: productRepo}
}

const rankingSize = 5

// Summary assembles every dashboard aggregate for the period. Employee
// callers see only figures derived from orders they answer for; rankings
// and stock warnings stay manager-wide because employees never receive
// them in the first place (handlers gate those sections by role, the
// service just scopes the rows).
func (s *dashboardService) Summary(ctx context.Context, actor *model.User, from, to time.Time) (*model.DashboardResponse, error) {
	companyID, err := companyOf(actor)
	if err != nil {
		return nil, err
	}

	var visibleTo *uuid.UUID
	if !model.IsManagerUser(actor) {
		id := actor.ID
		visibleTo = &id
	}

	resp := &model.DashboardResponse{
		PeriodStart:       from,
		PeriodEnd:         to,
		MonthlyProfits:    []model.MonthlyProfit{},
		PeriodBalance:     decimal.Zero,
		OverallBalance:    decimal.Zero,
		StatusCounts:      []model.StatusCount{},
		ExecutorWorkloads: []model.ExecutorWorkload{},
		TopProducts:       []model.ProductRanking{},
		TopClients:        []model.ClientRanking{},
		CriticalStock:     []model.CriticalStockItem{},
	}

	payments, err := s.repo.ListPayments(ctx, companyID, &from, &to, visibleTo)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx, companyID, &from, &to)
	if err != nil {
		return nil, err
	}
	resp.MonthlyProfits = mergeMonthly(payments, expenses)
	resp.PeriodBalance = sumPayments(payments).Sub(sumExpenses(expenses))

	allPayments, err := s.repo.ListPayments(ctx, companyID, nil, nil, visibleTo)
	if err != nil {
		return nil, err
	}
	allExpenses, err := s.repo.ListExpenses(ctx, companyID, nil, nil)
	if err != nil {
		return nil, err
	}
	resp.OverallBalance = sumPayments(allPayments).Sub(sumExpenses(allExpenses))

	orders, err := s.repo.ListOrders(ctx, companyID, nil, nil, visibleTo)
	if err != nil {
		return nil, err
	}
	statusCounts := map[string]int{}
	workloads := map[string]int{}
	for i := range orders {
		order := &orders[i]
		statusCounts[order.Status]++
		if model.TerminalStatus(order.Status) {
			continue
		}
		name := ""
		if order.Executor != nil {
			name = order.Executor.Name
		} else if order.Responsible != nil {
			name = order.Responsible.Username
		}
		if name != "" {
			workloads[name]++
		}
	}
	resp.OpenOrders = statusCounts[model.OrderStatusOpen]
	resp.AwaitingPartsOrders = statusCounts[model.OrderStatusAwaitingParts]
	for _, status := range []string{
		model.OrderStatusOpen,
		model.OrderStatusInProgress,
		model.OrderStatusAwaitingParts,
		model.OrderStatusFinalized,
		model.OrderStatusCancelled,
	} {
		resp.StatusCounts = append(resp.StatusCounts, model.StatusCount{Status: status, Count: statusCounts[status]})
	}
	for name, count := range workloads {
		resp.ExecutorWorkloads = append(resp.ExecutorWorkloads, model.ExecutorWorkload{ExecutorName: name, OrderCount: count})
	}
	sort.Slice(resp.ExecutorWorkloads, func(i, j int) bool {
		a, b := resp.ExecutorWorkloads[i], resp.ExecutorWorkloads[j]
		if a.OrderCount != b.OrderCount {
			return a.OrderCount > b.OrderCount
		}
		return a.ExecutorName < b.ExecutorName
	})

	finalized, err := s.repo.ListFinalizedOrders(ctx, companyID, from, to, visibleTo)
	if err != nil {
		return nil, err
	}
	resp.AvgFulfillmentDays = avgFulfillmentDays(finalized)

	items, err := s.repo.ListItems(ctx, companyID, from, to, visibleTo)
	if err != nil {
		return nil, err
	}
	resp.TopProducts = rankProducts(items)
	resp.TopClients = rankClients(payments)

	critical, err := s.productRepo.ListCritical(ctx, companyID, rankingSize)
	if err != nil {
		return nil, err
	}
	for i := range critical {
		product := &critical[i]
		stock := 0
		if product.CurrentStock != nil {
			stock = *product.CurrentStock
		}
		resp.CriticalStock = append(resp.CriticalStock, model.CriticalStockItem{
			Name:         product.Name,
			CurrentStock: stock,
			MinimumStock: product.MinimumStock,
		})
	}

	return resp, nil
}

func sumPayments(rows []repository.PaymentRow) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	return total
}

func sumExpenses(rows []model.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	return total
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// mergeMonthly folds payments and expenses into one income/expense/profit
// series keyed by month, sorted chronologically. Months with activity on
// only one side still appear with the other side at zero.
func mergeMonthly(payments []repository.PaymentRow, expenses []model.Expense) []model.MonthlyProfit {
	byMonth := map[string]*model.MonthlyProfit{}

	ensure := func(key string) *model.MonthlyProfit {
		if entry, ok := byMonth[key]; ok {
			return entry
		}
		entry := &model.MonthlyProfit{
			Month:    key,
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
			Profit:   decimal.Zero,
		}
		byMonth[key] = entry
		return entry
	}

	for _, row := range payments {
		entry := ensure(monthKey(row.PaidOn))
		entry.Income = entry.Income.Add(row.Amount)
	}
	for _, row := range expenses {
		entry := ensure(monthKey(row.Date))
		entry.Expenses = entry.Expenses.Add(row.Amount)
	}

	keys := make([]string, 0, len(byMonth))
	for key := range byMonth {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	series := make([]model.MonthlyProfit, 0, len(keys))
	for _, key := range keys {
		entry := byMonth[key]
		entry.Profit = entry.Income.Sub(entry.Expenses)
		series = append(series, *entry)
	}
	return series
}

func avgFulfillmentDays(orders []model.WorkOrder) float64 {
	if len(orders) == 0 {
		return 0
	}
	var totalDays float64
	var counted int
	for i := range orders {
		order := &orders[i]
		if order.FinalizedAt == nil {
			continue
		}
		days := order.FinalizedAt.Sub(order.EntryDate).Hours() / 24
		if days < 0 {
			days = 0
		}
		totalDays += days
		counted++
	}
	if counted == 0 {
		return 0
	}
	return totalDays / float64(counted)
}

func rankProducts(items []repository.ItemRow) []model.ProductRanking {
	type bucket struct {
		name        string
		description string
		quantity    decimal.Decimal
		value       decimal.Decimal
	}
	byName := map[string]*bucket{}
	for _, row := range items {
		name := row.ProductName
		if name == "" {
			name = row.Description
		}
		if name == "" {
			continue
		}
		entry, ok := byName[name]
		if !ok {
			entry = &bucket{name: name, description: row.Description, quantity: decimal.Zero, value: decimal.Zero}
			byName[name] = entry
		}
		entry.quantity = entry.quantity.Add(row.Quantity)
		entry.value = entry.value.Add(row.Subtotal)
	}

	ranking := make([]model.ProductRanking, 0, len(byName))
	for _, entry := range byName {
		ranking = append(ranking, model.ProductRanking{
			ProductName:   entry.name,
			Description:   entry.description,
			TotalQuantity: entry.quantity,
			TotalValue:    entry.value,
		})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if !ranking[i].TotalQuantity.Equal(ranking[j].TotalQuantity) {
			return ranking[i].TotalQuantity.GreaterThan(ranking[j].TotalQuantity)
		}
		return ranking[i].ProductName < ranking[j].ProductName
	})
	if len(ranking) > rankingSize {
		ranking = ranking[:rankingSize]
	}
	return ranking
}

func rankClients(payments []repository.PaymentRow) []model.ClientRanking {
	byClient := map[string]decimal.Decimal{}
	for _, row := range payments {
		if row.ClientName == "" {
			continue
		}
		byClient[row.ClientName] = byClient[row.ClientName].Add(row.Amount)
	}

	ranking := make([]model.ClientRanking, 0, len(byClient))
	for name, total := range byClient {
		ranking = append(ranking, model.ClientRanking{ClientName: name, TotalPaid: total})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if !ranking[i].TotalPaid.Equal(ranking[j].TotalPaid) {
			return ranking[i].TotalPaid.GreaterThan(ranking[j].TotalPaid)
		}
		return ranking[i].ClientName < ranking[j].ClientName
	})
	if len(ranking) > rankingSize {
		ranking = ranking[:rankingSize]
	}
	return ranking
}
