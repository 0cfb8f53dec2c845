package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

// FinancialSummary sums income and expenses for userID. PlatformID narrows
// income only, Category narrows expenses only.
func (s *Service) FinancialSummary(ctx context.Context, userID string, f FinancialFilters) (res core.FinancialSummary, err error) {
	defer func(start time.Time) { s.observe(ctx, log.OpFinancialSummary, userID, start, err) }(time.Now())

	if err := requireUser(userID); err != nil {
		return core.FinancialSummary{}, err
	}
	incomes, err := s.src.ListIncomes(ctx, f.incomeQuery(userID))
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := s.src.ListExpenses(ctx, f.expenseQuery(userID))
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	return summarize(incomes, expenses), nil
}

func summarize(incomes []core.Income, expenses []core.Expense) core.FinancialSummary {
	res := core.FinancialSummary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		IncomeCount:  len(incomes),
		ExpenseCount: len(expenses),
	}
	for _, in := range incomes {
		res.TotalIncome = res.TotalIncome.Add(in.Amount)
	}
	for _, ex := range expenses {
		res.TotalExpense = res.TotalExpense.Add(ex.Amount)
	}
	res.Profit = res.TotalIncome.Sub(res.TotalExpense)
	return res
}

// MonthlyData buckets income and expenses by calendar month of the record
// date. Only months with activity are returned, oldest first.
func (s *Service) MonthlyData(ctx context.Context, userID string, start, end core.Date) (res []core.MonthlyPoint, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpMonthly, userID, t, err) }(time.Now())

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	f := FinancialFilters{StartDate: start, EndDate: end}
	incomes, err := s.src.ListIncomes(ctx, f.incomeQuery(userID))
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := s.src.ListExpenses(ctx, f.expenseQuery(userID))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return bucketMonths(incomes, expenses), nil
}

func bucketMonths(incomes []core.Income, expenses []core.Expense) []core.MonthlyPoint {
	buckets := make(map[string]*core.MonthlyPoint)
	get := func(key string) *core.MonthlyPoint {
		p, ok := buckets[key]
		if !ok {
			p = &core.MonthlyPoint{Month: key, Income: decimal.Zero, Expenses: decimal.Zero}
			buckets[key] = p
		}
		return p
	}
	for _, in := range incomes {
		p := get(in.Date.MonthKey())
		p.Income = p.Income.Add(in.Amount)
	}
	for _, ex := range expenses {
		p := get(ex.Date.MonthKey())
		p.Expenses = p.Expenses.Add(ex.Amount)
	}

	out := make([]core.MonthlyPoint, 0, len(buckets))
	for _, p := range buckets {
		// Zero-amount rows alone do not make a month active.
		if p.Income.IsZero() && p.Expenses.IsZero() {
			continue
		}
		p.Profit = p.Income.Sub(p.Expenses)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// IncomeByPlatform groups income by platform with each group's share of the
// grand total. Missing or unknown platforms are labelled core.UnspecifiedPlatform.
func (s *Service) IncomeByPlatform(ctx context.Context, userID string, start, end core.Date) (res []core.PlatformBreakdown, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpPlatforms, userID, t, err) }(time.Now())

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	f := FinancialFilters{StartDate: start, EndDate: end}
	incomes, err := s.src.ListIncomes(ctx, f.incomeQuery(userID))
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	platforms, err := s.src.ListPlatforms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	return groupByPlatform(incomes, platforms), nil
}

func groupByPlatform(incomes []core.Income, platforms []core.Platform) []core.PlatformBreakdown {
	names := make(map[string]string, len(platforms))
	for _, p := range platforms {
		names[p.ID] = p.Name
	}

	// "" keys the rows without a platform and those whose platform is gone,
	// so there is at most one unspecified group.
	groups := make(map[string]*core.PlatformBreakdown)
	order := []string{}
	grand := decimal.Zero
	for _, in := range incomes {
		key := ""
		if in.PlatformID != nil {
			if _, found := names[*in.PlatformID]; found {
				key = *in.PlatformID
			}
		}
		g, ok := groups[key]
		if !ok {
			g = &core.PlatformBreakdown{PlatformName: core.UnspecifiedPlatform, Total: decimal.Zero}
			if key != "" {
				id := key
				g.PlatformID = &id
				if name := names[key]; name != "" {
					g.PlatformName = name
				}
			}
			groups[key] = g
			order = append(order, key)
		}
		g.Total = g.Total.Add(in.Amount)
		grand = grand.Add(in.Amount)
	}

	out := make([]core.PlatformBreakdown, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.Percentage = percentage(g.Total, grand)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].PlatformName < out[j].PlatformName
	})
	return out
}

// ExpensesByCategory groups expenses by category with each group's share of
// the grand total.
func (s *Service) ExpensesByCategory(ctx context.Context, userID string, start, end core.Date) (res []core.CategoryBreakdown, err error) {
	defer func(t time.Time) { s.observe(ctx, log.OpCategories, userID, t, err) }(time.Now())

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	f := FinancialFilters{StartDate: start, EndDate: end}
	expenses, err := s.src.ListExpenses(ctx, f.expenseQuery(userID))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return groupByCategory(expenses), nil
}

func groupByCategory(expenses []core.Expense) []core.CategoryBreakdown {
	totals := make(map[core.ExpenseCategory]decimal.Decimal)
	grand := decimal.Zero
	for _, ex := range expenses {
		totals[ex.Category] = totals[ex.Category].Add(ex.Amount)
		grand = grand.Add(ex.Amount)
	}

	out := make([]core.CategoryBreakdown, 0, len(totals))
	for cat, total := range totals {
		out = append(out, core.CategoryBreakdown{
			Category:   cat,
			Total:      total,
			Percentage: percentage(total, grand),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
