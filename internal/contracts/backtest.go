package contracts

import "time"

// Trade is an append-only log entry created by the backtest engine.
// Every trade executes at some day's opening price.
type Trade struct {
	Action SignalAction `json:"action"` // BUY or SELL
	Date   time.Time    `json:"date"`
	Price  float64      `json:"price"`
	Shares int64        `json:"shares"`
	Value  float64      `json:"value"`
}

// EquityPoint is one day of simulated portfolio value.
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// BacktestResult holds the full outcome of one walk-forward backtest run.
// Produced once per run, immutable.
type BacktestResult struct {
	RunID           string        `json:"run_id"`
	Symbol          string        `json:"symbol"`
	EquityCurve     []EquityPoint `json:"equity_curve"`
	Trades          []Trade       `json:"trades"`
	TotalReturn     float64       `json:"total_return"`
	BenchmarkReturn float64       `json:"benchmark_return"`
	Alpha           float64       `json:"alpha"`
	Drawdown        float64       `json:"drawdown"`
	SharpeRatio     float64       `json:"sharpe_ratio"`
	WinRate         float64       `json:"win_rate"`
	FinalValue      float64       `json:"final_value"`
	InitialValue    float64       `json:"initial_value"`
}
