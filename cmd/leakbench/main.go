// Command leakbench runs one shaped batch of secrets through a target
// function and prints the emission stream an external observer would see.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/alexshd/leakbench"
)

var (
	flagPolicy    string
	flagTarget    string
	flagSecrets   []int64
	flagPasswords []string
	flagInterval  time.Duration
	flagCapacity  int
	flagWarmup    bool
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "leakbench",
	Short: "Timing side-channel mitigation harness",
	Long: `leakbench feeds a batch of secrets through a secret-dependent target
function and shapes the output rate so an observer timing the emissions
learns as little as possible about the computation times.

The four adaptation policies reproduce distinct mitigation hypotheses,
including the randomized one that is known to fail. Run the same batch
under each policy and compare the emission traces.`,
	SilenceUsage: true,
	Example: `  # Shape a leaky workload with the ping-pong controller
  leakbench --policy=pingpong --target=leaky-constant

  # Small batch, fast ticks, verbose lifecycle logs
  leakbench --secrets=16,64,256 --interval=10ms --log-level=debug

  # The snapshot-diff variant prints the whole board on change
  leakbench --policy=snapshot

  # Negative control: occupancy-blind randomization
  leakbench --policy=random

  # Hash a password batch with the length-dependent fib hash
  leakbench --passwords=hunter2,newpassword,letmein`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagPolicy, "policy", "p", "pingpong",
		"Adaptation policy: oneshot, pingpong, random, snapshot")
	rootCmd.Flags().StringVarP(&flagTarget, "target", "t", "leaky-constant",
		"Target function: constant, leaky, leaky-constant")
	rootCmd.Flags().Int64SliceVar(&flagSecrets, "secrets",
		[]int64{1 << 17, 1 << 18, 1 << 19, 1 << 20, 1 << 21},
		"Secret batch, processed in order")
	rootCmd.Flags().StringSliceVar(&flagPasswords, "passwords", nil,
		"Hash these passwords with the fib hash instead of running --target over --secrets")
	rootCmd.Flags().DurationVar(&flagInterval, "interval", leakbench.DefaultInterval,
		"Initial emission interval q")
	rootCmd.Flags().IntVar(&flagCapacity, "capacity", 0,
		"Pending queue capacity (0 = batch size)")
	rootCmd.Flags().BoolVar(&flagWarmup, "warmup", true,
		"Flush CPU caches before the first measurement")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
}

func run(cmd *cobra.Command, args []string) error {
	level, err := parseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
	}))
	slog.SetDefault(logger)

	target, err := pickTarget(flagTarget)
	if err != nil {
		return err
	}
	policy, err := pickPolicy(flagPolicy)
	if err != nil {
		return err
	}

	secrets := make([]uint64, len(flagSecrets))
	for i, s := range flagSecrets {
		if s < 0 {
			return fmt.Errorf("secret %d is negative", s)
		}
		secrets[i] = uint64(s)
	}
	if len(flagPasswords) > 0 {
		secrets, target = leakbench.PasswordBatch(flagPasswords)
	}

	cfg := leakbench.Config{
		Secrets:  secrets,
		Target:   target,
		Policy:   policy,
		Capacity: flagCapacity,
		Interval: flagInterval,
		Emitter:  &leakbench.LogEmitter{Logger: logger},
		Logger:   logger,
		Warmup:   flagWarmup,
	}

	if flagPolicy == "snapshot" {
		_, err = leakbench.RunSnapshot(cmd.Context(), cfg)
		return err
	}
	_, err = leakbench.Run(cmd.Context(), cfg)
	return err
}

func pickTarget(name string) (leakbench.Target, error) {
	switch name {
	case "constant":
		return leakbench.ConstantTime, nil
	case "leaky":
		return leakbench.LeakyOutput, nil
	case "leaky-constant":
		return leakbench.LeakyConstantOutput, nil
	default:
		return nil, fmt.Errorf("unknown target %q (constant, leaky, leaky-constant)", name)
	}
}

func pickPolicy(name string) (leakbench.Policy, error) {
	switch name {
	case "oneshot":
		return leakbench.NewOneShotDoubling(), nil
	case "pingpong":
		return leakbench.NewPingPong(), nil
	case "random":
		return leakbench.NewRandomized(nil), nil
	case "snapshot":
		return leakbench.NewCappedBackoff(), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (oneshot, pingpong, random, snapshot)", name)
	}
}

func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
