// subnetsim - mature-subnet incentive simulator CLI
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/dtaolabs/subnetsim/amm"
	"github.com/dtaolabs/subnetsim/coinbase"
	"github.com/dtaolabs/subnetsim/draw"
	"github.com/dtaolabs/subnetsim/log"
	"github.com/dtaolabs/subnetsim/store"
	"github.com/dtaolabs/subnetsim/types"
	"github.com/dtaolabs/subnetsim/yuma"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "subnetsim",
		Short: "Mature subnet incentive simulator",
		Long: `subnetsim runs deterministic simulations of a subnet's consensus and
incentive mechanics: stake-weighted clipped consensus, EMA bonds, and
conserved per-epoch emission, over configurable weight-setting strategies.`,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Global flags
	var (
		logLevel     string
		debugModules string
	)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&debugModules, "debug-modules", "", "Comma-separated module tags to enable at debug level (or 'all')")

	initLogging := func() {
		log.InitLogger(logLevel)
		if debugModules != "" {
			log.EnableModules(debugModules)
		}
	}

	// Run command - executes a scenario
	var (
		scenarioPath   string
		preset         string
		dbPath         string
		outPath        string
		withAMM        bool
		deriveEmission bool
		issuanceTao    float64
	)
	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a simulation scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogging()
			cfg, err := resolveScenario(scenarioPath, preset)
			if err != nil {
				return err
			}
			if deriveEmission {
				cfg.EmissionPerEpoch = coinbase.EpochBudgetTao(issuanceTao*1e9, coinbase.DefaultTempoBlocks, coinbase.DefaultOwnerCut)
				fmt.Printf("Derived emission_per_epoch: %.4f TAO (issuance %.0f TAO)\n", cfg.EmissionPerEpoch, issuanceTao)
			}

			sim, err := yuma.NewSimulation(*cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			history, runErr := sim.Run(ctx)
			summary := sim.Summary()

			var prices []float64
			if withAMM && len(history) > 1 {
				prices = simulatePool(cfg, history)
			}

			printSummary(cfg, summary, runErr)

			if dbPath != "" {
				rs, err := store.NewRunStore(dbPath)
				if err != nil {
					return err
				}
				defer rs.Close()
				hash, err := rs.Put(&store.StoredRun{Config: *cfg, History: history, Summary: summary, Prices: prices})
				if err != nil {
					return err
				}
				fmt.Printf("Stored run %s (%d snapshots)\n", hash.Hex(), len(history))
			}
			if outPath != "" {
				if err := exportRun(outPath, cfg, history, summary, prices); err != nil {
					return err
				}
				fmt.Printf("Exported run to %s\n", outPath)
			}
			return runErr
		},
	}
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario JSON file")
	runCmd.Flags().StringVar(&preset, "preset", "tiny", "Scenario preset (tiny|default|adversarial) when no file is given")
	runCmd.Flags().StringVar(&dbPath, "db", "", "Run store path (empty disables persistence)")
	runCmd.Flags().StringVar(&outPath, "out", "", "Export the full run as JSON to this file")
	runCmd.Flags().BoolVar(&withAMM, "with-amm", false, "Simulate the subnet pool alongside for a price trajectory")
	runCmd.Flags().BoolVar(&deriveEmission, "derive-emission", false, "Derive emission_per_epoch from the network schedule")
	runCmd.Flags().Float64Var(&issuanceTao, "issuance-tao", 10_000_000, "Total issuance in TAO used with --derive-emission")

	// Serve command - charts a stored run
	var (
		serveAddr string
		hashHex   string
	)
	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve trajectory charts for a stored run",
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogging()
			if dbPath == "" {
				return fmt.Errorf("serve requires --db")
			}
			rs, err := store.NewRunStore(dbPath)
			if err != nil {
				return err
			}
			defer rs.Close()
			fmt.Printf("Serving charts at http://%s\n", serveAddr)
			return draw.Serve(serveAddr, func() (*components.Page, error) {
				run, err := loadRun(rs, hashHex)
				if err != nil {
					return nil, err
				}
				return draw.RunPage(run.History, run.Summary, run.Prices), nil
			})
		},
	}
	serveCmd.Flags().StringVar(&dbPath, "db", "", "Run store path")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:3030", "Listen address")
	serveCmd.Flags().StringVar(&hashHex, "hash", "", "Scenario hash to serve (defaults to the only/last stored run)")

	// Hash command - prints a scenario's store key
	var hashCmd = &cobra.Command{
		Use:   "hash",
		Short: "Print the scenario hash keying the run store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveScenario(scenarioPath, preset)
			if err != nil {
				return err
			}
			fmt.Println(cfg.Hash().Hex())
			return nil
		},
	}
	hashCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario JSON file")
	hashCmd.Flags().StringVar(&preset, "preset", "tiny", "Scenario preset when no file is given")

	// List command - enumerates stored runs
	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogging()
			if dbPath == "" {
				return fmt.Errorf("list requires --db")
			}
			rs, err := store.NewRunStore(dbPath)
			if err != nil {
				return err
			}
			defer rs.Close()
			hashes, err := rs.List()
			if err != nil {
				return err
			}
			for _, h := range hashes {
				fmt.Println(h.Hex())
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&dbPath, "db", "", "Run store path")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("subnetsim %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(runCmd, serveCmd, hashCmd, listCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func resolveScenario(path, preset string) (*types.ScenarioConfig, error) {
	if path != "" {
		return types.LoadScenario(path)
	}
	var cfg types.ScenarioConfig
	switch preset {
	case "tiny":
		cfg = types.ScenarioTiny()
	case "default":
		cfg = types.ScenarioDefault()
	case "adversarial":
		cfg = types.ScenarioAdversarial()
	default:
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
	return &cfg, nil
}

// simulatePool replays the committed epochs against a constant-product pool
// to produce the price trajectory the dashboard charts next to stakes.
func simulatePool(cfg *types.ScenarioConfig, history []types.EpochState) []float64 {
	pool := amm.NewPool(1_000_000, 100_000, 0)
	prices := make([]float64, 0, len(history))
	prices = append(prices, pool.SpotPrice())
	for e := 1; e < len(history); e++ {
		block := e * coinbase.DefaultTempoBlocks
		pool.UpdateMovingPrice(block)
		epochEmission := history[e].MinerEmission + history[e].ValidatorEmission
		taoInjection := epochEmission * math.Min(pool.SpotPrice(), 1)
		alphaIn, _ := pool.AlphaInjection(taoInjection, epochEmission)
		pool.InjectTao(taoInjection)
		pool.InjectAlpha(alphaIn)
		prices = append(prices, pool.SpotPrice())
	}
	return prices
}

func loadRun(rs *store.RunStore, hashHex string) (*store.StoredRun, error) {
	if hashHex != "" {
		return rs.Get(common.HexToHash(hashHex))
	}
	hashes, err := rs.List()
	if err != nil {
		return nil, err
	}
	if len(hashes) == 0 {
		return nil, fmt.Errorf("run store is empty")
	}
	return rs.Get(hashes[len(hashes)-1])
}

func exportRun(path string, cfg *types.ScenarioConfig, history []types.EpochState, summary *types.Summary, prices []float64) error {
	enc, err := json.MarshalIndent(store.StoredRun{Config: *cfg, History: history, Summary: summary, Prices: prices}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, enc, 0644)
}

func printSummary(cfg *types.ScenarioConfig, summary *types.Summary, runErr error) {
	tree := treeprint.NewWithRoot("run " + summary.ScenarioHash)
	sc := tree.AddBranch("scenario")
	sc.AddNode(fmt.Sprintf("validators: %d", cfg.ValidatorCount))
	sc.AddNode(fmt.Sprintf("miners: %d", cfg.MinerCount))
	sc.AddNode(fmt.Sprintf("epochs: %d", cfg.EpochCount))
	sc.AddNode(fmt.Sprintf("strategy: %s", cfg.WeightStrategy))
	sc.AddNode(fmt.Sprintf("seed: %d", cfg.Seed))
	res := tree.AddBranch("result")
	res.AddNode(fmt.Sprintf("status: %s", summary.Status))
	res.AddNode(fmt.Sprintf("epochs committed: %d", summary.EpochsCommitted))
	res.AddNode(fmt.Sprintf("total emitted: %.4f", summary.TotalEmitted))
	res.AddNode(fmt.Sprintf("herfindahl: %.4f", summary.Herfindahl))
	res.AddNode(fmt.Sprintf("gini: %.4f", summary.Gini))
	if runErr != nil {
		res.AddNode(fmt.Sprintf("error: %v", runErr))
	}
	fmt.Println(tree.String())
}
