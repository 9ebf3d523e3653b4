// Package main implements a synthetic admission and scheduling load
// driver.
package main

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/quorumnet/sched-core/common/logging"
	"github.com/quorumnet/sched-core/common/service"
	"github.com/quorumnet/sched-core/common/version"
	"github.com/quorumnet/sched-core/runtime/scheduling"
	"github.com/quorumnet/sched-core/runtime/scoring"
	"github.com/quorumnet/sched-core/runtime/transaction"
	"github.com/quorumnet/sched-core/runtime/txpool"
	"github.com/quorumnet/sched-core/runtime/txpool/config"
)

const (
	cfgLogLevel  = "log.level"
	cfgLogFormat = "log.format"

	cfgDuration  = "bench.duration"
	cfgRate      = "bench.rate"
	cfgSenders   = "bench.senders"
	cfgPoolSize  = "bench.pool_size"
	cfgGasBudget = "bench.gas_budget"
	cfgSeed      = "bench.seed"

	cfgForceScalar       = "scoring.force_scalar"
	cfgRebalanceInterval = "scoring.rebalance_interval"

	cfgMetricsAddr = "metrics.address"
)

var (
	flags = flag.NewFlagSet("", flag.ContinueOnError)

	rootCmd = &cobra.Command{
		Use:     "sched-bench",
		Short:   "Synthetic transaction admission and scheduling load driver",
		Version: version.SoftwareVersion,
		RunE:    doRun,
	}
)

// benchValidator admits everything with a positive gas limit.
type benchValidator struct{}

func (benchValidator) Validate(tx *transaction.Transaction) error {
	if tx.GasLimit == 0 {
		return fmt.Errorf("zero gas limit")
	}
	return nil
}

// benchState pretends every sender is funded and fresh.
type benchState struct{}

func (benchState) GetBalance(transaction.Address) (*big.Int, error) {
	return new(big.Int).Lsh(big.NewInt(1), 64), nil
}

func (benchState) GetNonce(transaction.Address) (uint64, error) { return 0, nil }

// countingDispatcher swallows batches and keeps totals.
type countingDispatcher struct {
	batches atomic.Uint64
	txs     atomic.Uint64
	gas     atomic.Uint64
}

func (d *countingDispatcher) Dispatch(batch []*transaction.Transaction) error {
	d.batches.Add(1)
	d.txs.Add(uint64(len(batch)))
	for _, tx := range batch {
		d.gas.Add(tx.GasLimit)
	}
	return nil
}

// deferredMetrics lets the controller be constructed before the scheduler
// that feeds it.
type deferredMetrics struct {
	source atomic.Pointer[scheduling.Scheduler]
}

func (d *deferredMetrics) SchedulingMetrics() *scoring.Metrics {
	if s := d.source.Load(); s != nil {
		return s.SchedulingMetrics()
	}
	return nil
}

func initLogging() error {
	var logLevel logging.Level
	if err := logLevel.Set(viper.GetString(cfgLogLevel)); err != nil {
		return err
	}
	var logFmt logging.Format
	if err := logFmt.Set(viper.GetString(cfgLogFormat)); err != nil {
		return err
	}
	return logging.Initialize(os.Stdout, logFmt, logLevel, nil)
}

// genTx produces a transaction with a class-typical selector and a random
// fee and gas limit.
func genTx(rng *rand.Rand, nonces []uint64) *transaction.Transaction {
	senderIdx := rng.Intn(len(nonces))
	var sender transaction.Address
	sender[0] = byte(senderIdx)
	sender[1] = byte(senderIdx >> 8)

	var selector uint32
	switch rng.Intn(10) {
	case 0: // System.
		selector = 0x0000_0001 + rng.Uint32()%0x0FFF_FFFF
	case 1, 2: // Financial.
		selector = 0x1000_0000 + rng.Uint32()%0x5000_0000
	case 3: // Governance.
		selector = 0x6000_0000 + rng.Uint32()%0x2000_0000
	default: // Standard.
		selector = 0x8000_0000 | rng.Uint32()
	}

	callData := make([]byte, 4+rng.Intn(128))
	callData[0] = byte(selector)
	callData[1] = byte(selector >> 8)
	callData[2] = byte(selector >> 16)
	callData[3] = byte(selector >> 24)
	rng.Read(callData[4:])

	nonce := nonces[senderIdx]
	nonces[senderIdx]++

	return &transaction.Transaction{
		Sender:   sender,
		Nonce:    nonce,
		Fee:      uint64(rng.Intn(10 * transaction.FeeScale)),
		GasLimit: 21_000 + uint64(rng.Intn(200_000)),
		CallData: callData,
	}
}

func doRun(*cobra.Command, []string) error {
	if err := initLogging(); err != nil {
		return err
	}
	logger := logging.GetLogger("cmd/sched-bench")

	if addr := viper.GetString(cfgMetricsAddr); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	engine := scoring.NewEngine(&scoring.Config{
		ForceScalar: viper.GetBool(cfgForceScalar),
	})

	deferred := new(deferredMetrics)
	controller := scoring.NewController(viper.GetDuration(cfgRebalanceInterval), deferred)

	poolCfg := config.DefaultConfig()
	poolCfg.MaxPoolSize = viper.GetUint64(cfgPoolSize)
	pool, err := txpool.New(poolCfg, benchValidator{}, benchState{}, engine, controller)
	if err != nil {
		return err
	}

	dispatcher := new(countingDispatcher)
	schedCfg := scheduling.DefaultConfig()
	schedCfg.GasBudget = viper.GetUint64(cfgGasBudget)
	sched := scheduling.NewScheduler(schedCfg, pool, dispatcher)
	deferred.source.Store(sched)

	services := []service.BackgroundService{pool, controller, sched}
	for _, svc := range services {
		if err = svc.Start(); err != nil {
			return fmt.Errorf("failed to start %s: %w", svc.Name(), err)
		}
	}

	duration := viper.GetDuration(cfgDuration)
	rate := viper.GetInt(cfgRate)
	if rate <= 0 {
		return fmt.Errorf("%s must be positive", cfgRate)
	}
	rng := rand.New(rand.NewSource(viper.GetInt64(cfgSeed)))
	nonces := make([]uint64, viper.GetInt(cfgSenders))

	logger.Info("starting load",
		"duration", duration,
		"rate", rate,
		"senders", len(nonces),
		"pool_size", poolCfg.MaxPoolSize,
		"gas_budget", schedCfg.GasBudget,
	)

	var submitted, rejected uint64
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	deadline := time.After(duration)

loop:
	for {
		select {
		case <-deadline:
			break loop
		case <-ticker.C:
		}

		submitted++
		if err = pool.SubmitTxNoWait(context.Background(), genTx(rng, nonces), nil); err != nil {
			rejected++
		}
	}

	// Drain what is left in one final round.
	pool.WakeupScheduler()
	time.Sleep(100 * time.Millisecond)

	for i := len(services) - 1; i >= 0; i-- {
		services[i].Stop()
	}
	for _, svc := range services {
		<-svc.Quit()
	}

	w := controller.Weights()
	logger.Info("load complete",
		"submitted", submitted,
		"rejected_at_submit", rejected,
		"batches", dispatcher.batches.Load(),
		"scheduled_txs", dispatcher.txs.Load(),
		"scheduled_gas", dispatcher.gas.Load(),
		"left_pending", pool.PendingSize(),
		"weight_fee", w.Fee,
		"weight_system", w.System,
		"weight_financial", w.Financial,
		"weight_governance", w.Governance,
		"weight_age", w.Age,
		"weight_version", controller.Version(),
	)

	return nil
}

func init() {
	logFmt := logging.FmtLogfmt
	logLevel := logging.LevelInfo

	flags.Var(&logFmt, cfgLogFormat, "log format")
	flags.Var(&logLevel, cfgLogLevel, "log level")
	flags.Duration(cfgDuration, 10*time.Second, "load duration")
	flags.Int(cfgRate, 1000, "submissions per second")
	flags.Int(cfgSenders, 256, "number of distinct senders")
	flags.Uint64(cfgPoolSize, 50_000, "maximum pool size")
	flags.Uint64(cfgGasBudget, 10_000_000, "per-batch gas budget")
	flags.Int64(cfgSeed, 1, "load generator seed")
	flags.Bool(cfgForceScalar, false, "force the scalar scoring path")
	flags.Duration(cfgRebalanceInterval, 5*time.Second, "weight rebalance interval")
	flags.String(cfgMetricsAddr, "", "prometheus metrics listen address (disabled when empty)")

	_ = viper.BindPFlags(flags)
	rootCmd.Flags().AddFlagSet(flags)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
