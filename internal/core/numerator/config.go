// Package numerator declares the contract for human-readable sequential numbers
// such as BILL-2026-00001. The PostgreSQL implementation lives in pkg/numerator.
package numerator

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict takes every number from the database; no gaps.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges in memory; restarts leave gaps.
	StrategyCached
)

// Options configures number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the block reserved per round trip by StrategyCached (default 50).
	RangeSize int64
}

// DefaultOptions returns strict numbering.
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Reset periods.
const (
	ResetYearly  = "year"
	ResetMonthly = "month"
	ResetNever   = "never"
)

// Config holds numbering configuration.
type Config struct {
	Prefix      string
	IncludeYear bool
	PadWidth    int
	ResetPeriod string
}

// DefaultConfig returns PREFIX-YYYY-NNNNN numbering reset every year.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYearly,
	}
}
