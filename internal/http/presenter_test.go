package http

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gigtrack/internal/core"
)

func TestPresenterRoundsShares(t *testing.T) {
	p := presenter{currency: "EUR"}

	cats := p.categories([]core.CategoryBreakdown{
		{Category: core.CategoryFuel, Total: decimal.NewFromInt(2), Percentage: 200.0 / 3},
		{Category: core.CategoryTolls, Total: decimal.NewFromInt(1), Percentage: 100.0 / 3},
	})
	assert.Equal(t, 66.67, cats[0].Percentage)
	assert.Equal(t, 33.33, cats[1].Percentage)

	platforms := p.platforms([]core.PlatformBreakdown{{PlatformName: "Bolt", Total: decimal.NewFromInt(1), Percentage: 100}})
	assert.Equal(t, 100.0, platforms[0].Percentage)

	maint := p.maintenance([]core.MaintenanceBreakdown{{Type: core.MaintenanceBrakes, Total: decimal.Zero, Percentage: 0}})
	assert.Zero(t, maint[0].Percentage)
}
