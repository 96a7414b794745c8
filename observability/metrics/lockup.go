package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LockupMetrics groups the collectors exported for the lock-staking ledger.
type LockupMetrics struct {
	operations      *prometheus.CounterVec
	operationErrors *prometheus.CounterVec
	rewardsPaid     *prometheus.CounterVec
	revenueStreamed *prometheus.CounterVec
	lockedSupply    prometheus.Gauge
	weightedSupply  prometheus.Gauge
	streamRate      *prometheus.GaugeVec
}

var (
	lockupOnce     sync.Once
	lockupRegistry *LockupMetrics
)

// Lockup returns the process-wide lockup metrics, registering them on first
// use.
func Lockup() *LockupMetrics {
	lockupOnce.Do(func() {
		lockupRegistry = &LockupMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lockup_operations_total",
				Help: "Count of completed ledger operations by kind.",
			}, []string{"op"}),
			operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lockup_operation_errors_total",
				Help: "Count of rejected ledger operations by kind.",
			}, []string{"op"}),
			rewardsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lockup_rewards_paid_total",
				Help: "Whole-unit rewards paid out per token.",
			}, []string{"token"}),
			revenueStreamed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lockup_revenue_streamed_total",
				Help: "Whole-unit revenue folded into streams per token.",
			}, []string{"token"}),
			lockedSupply: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lockup_locked_supply",
				Help: "Sum of all locked amounts.",
			}),
			weightedSupply: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lockup_locked_supply_with_multiplier",
				Help: "Multiplier-weighted locked supply dividing the reward-per-share math.",
			}),
			streamRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lockup_stream_reward_per_second",
				Help: "Current 1e18-scaled reward rate per token.",
			}, []string{"token"}),
		}
		prometheus.MustRegister(
			lockupRegistry.operations,
			lockupRegistry.operationErrors,
			lockupRegistry.rewardsPaid,
			lockupRegistry.revenueStreamed,
			lockupRegistry.lockedSupply,
			lockupRegistry.weightedSupply,
			lockupRegistry.streamRate,
		)
	})
	return lockupRegistry
}

// ObserveOperation counts one completed or rejected operation.
func (m *LockupMetrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if err != nil {
		m.operationErrors.WithLabelValues(op).Inc()
		return
	}
	m.operations.WithLabelValues(op).Inc()
}

// ObserveRewardPaid accumulates a payout for the token.
func (m *LockupMetrics) ObserveRewardPaid(token string, amount *big.Int) {
	if m == nil || amount == nil {
		return
	}
	v, _ := new(big.Float).SetInt(amount).Float64()
	m.rewardsPaid.WithLabelValues(token).Add(v)
}

// ObserveRevenueStreamed accumulates detected revenue for the token.
func (m *LockupMetrics) ObserveRevenueStreamed(token string, amount *big.Int) {
	if m == nil || amount == nil {
		return
	}
	v, _ := new(big.Float).SetInt(amount).Float64()
	m.revenueStreamed.WithLabelValues(token).Add(v)
}

// SetSupply records the current global counters.
func (m *LockupMetrics) SetSupply(locked, weighted *big.Int) {
	if m == nil {
		return
	}
	if locked != nil {
		v, _ := new(big.Float).SetInt(locked).Float64()
		m.lockedSupply.Set(v)
	}
	if weighted != nil {
		v, _ := new(big.Float).SetInt(weighted).Float64()
		m.weightedSupply.Set(v)
	}
}

// SetStreamRate records the current reward rate for the token.
func (m *LockupMetrics) SetStreamRate(token string, rate *big.Int) {
	if m == nil || rate == nil {
		return
	}
	v, _ := new(big.Float).SetInt(rate).Float64()
	m.streamRate.WithLabelValues(token).Set(v)
}
