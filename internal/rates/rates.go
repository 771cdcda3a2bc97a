// Package rates resolves the VESTS to HP conversion rate, cached per
// calendar day for the run.
package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hiveledger-dev/hiveledger/internal/hive"
	"github.com/hiveledger-dev/hiveledger/internal/rpc"
)

// PropsFetcher is the unit-conversion-rate transport.
type PropsFetcher interface {
	DynamicGlobalProperties(ctx context.Context) (hive.GlobalProperties, error)
}

// Cache looks up the staked-to-liquid conversion rate at most once per
// distinct calendar day. Created at run start, discarded at run end.
type Cache struct {
	fetch PropsFetcher
	retry rpc.Policy
	byDay map[string]decimal.Decimal
	log   zerolog.Logger

	fetches int
}

// New creates a Cache.
func New(fetch PropsFetcher, retry rpc.Policy, log zerolog.Logger) *Cache {
	return &Cache{
		fetch: fetch,
		retry: retry,
		byDay: make(map[string]decimal.Decimal),
		log:   log.With().Str("component", "rates").Logger(),
	}
}

// Fetches returns the number of remote lookups issued so far.
func (c *Cache) Fetches() int { return c.fetches }

// HivePerVests returns the HIVE value of one VESTS for the day of at.
func (c *Cache) HivePerVests(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	day := at.UTC().Format("2006-01-02")
	if rate, ok := c.byDay[day]; ok {
		return rate, nil
	}

	var props hive.GlobalProperties
	err := c.retry.Do(ctx, func() error {
		c.fetches++
		fetched, err := c.fetch.DynamicGlobalProperties(ctx)
		if err != nil {
			return err
		}
		props = fetched
		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetching conversion rate: %w", err)
	}

	if props.TotalVestingShares.Amount.IsZero() {
		return decimal.Zero, fmt.Errorf("conversion rate: total vesting shares is zero")
	}
	rate := props.TotalVestingFundHive.Amount.Div(props.TotalVestingShares.Amount)
	c.byDay[day] = rate
	c.log.Debug().Str("day", day).Str("rate", rate.String()).Msg("cached conversion rate")
	return rate, nil
}
