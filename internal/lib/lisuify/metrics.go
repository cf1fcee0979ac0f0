package lisuify

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promValidatorCount = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "lisuify",
		Name:      "validator_count",
	})
	promTokenSupply = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "lisuify",
		Name:      "token_supply",
		Help:      "liquid token supply, in whole tokens",
	})
	promSuiBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "lisuify",
		Name:      "sui_balance",
		Help:      "current pool balance, in SUI",
	})
	promReserve = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "lisuify",
		Name:      "reserve",
		Help:      "unstaked reserve, in SUI",
	})
	promLastUpdateEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "lisuify",
		Name:      "last_update_epoch",
	})
	promExchangeRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Subsystem: "lisuify",
		Name:      "exchange_ratio",
		Help:      "SUI per liquid token as of the last update",
	})
)

func updateMetrics(pool *StakePool) {
	state := pool.State()
	promValidatorCount.Set(float64(len(state.Validators)))
	promTokenSupply.Set(mistToFloat(state.TokenSupply))
	promSuiBalance.Set(mistToFloat(state.CurrentSuiBalance))
	promReserve.Set(mistToFloat(state.Reserve))
	lastEpoch, _ := new(big.Float).SetInt(state.LastUpdateEpoch).Float64()
	promLastUpdateEpoch.Set(lastEpoch)
	if ratio := pool.ExchangeRatio(); ratio != nil {
		val, _ := ratio.Float64()
		promExchangeRatio.Set(val)
	}
}

func mistToFloat(mist *big.Int) float64 {
	val, _ := new(big.Rat).SetFrac(mist, big.NewInt(1_000_000_000)).Float64()
	return val
}
