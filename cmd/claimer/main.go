package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"daily-claim-backend/internal/common/config"
	"daily-claim-backend/internal/common/logger"
	"daily-claim-backend/internal/features/claim/backend"
	"daily-claim-backend/internal/features/claim/orchestrator"
	"daily-claim-backend/internal/features/claim/store"
	"daily-claim-backend/internal/features/claim/strategy"
	"daily-claim-backend/internal/features/claim/wallet"
	"daily-claim-backend/internal/features/claim/wallet/httpbridge"
	"daily-claim-backend/internal/features/claim/wallet/keybridge"
	"daily-claim-backend/internal/platform/evm"
	"daily-claim-backend/internal/platform/redis"
)

const usage = `Usage: claimer [-address 0x...] [-retry=true] <command>

Commands:
  status             show balance and claim countdown
  follow <platform>  record a followed social channel
  claim              claim the daily tokens
  watch              keep the countdown updated until interrupted
`

func main() {
	address := flag.String("address", "", "user address (defaults to CLAIM_ADDRESS or the bridge account)")
	retry := flag.Bool("retry", true, "retry a failed claim while retries are left")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init("daily-claim-claimer", cfg.Debug)
	log := logger.Component("claimer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	bridge, account, err := openBridge(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open wallet bridge")
	}

	user := *address
	if user == "" {
		user = cfg.Claim.Address
	}
	if user == "" {
		user = account
	}

	checklist := store.NewChecklist(redisClient, cfg.Claim.Platforms)
	o, err := newOrchestrator(cfg, redisClient, bridge, checklist)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build claim orchestrator")
	}
	if err := o.SetAddress(user); err != nil {
		log.Fatal().Err(err).Str("address", user).Msg("No usable user address")
	}

	if err := run(ctx, cfg, o, checklist, flag.Args(), *retry, log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openBridge prefers a local signing key over a remote wallet bridge.
// account is the address the bridge signs for, empty when unknown.
func openBridge(ctx context.Context, cfg *config.Config) (bridge wallet.Bridge, account string, err error) {
	if cfg.Bridge.PrivateKey != "" {
		dialCtx, cancel := context.WithTimeout(ctx, cfg.Chain.CallTimeout)
		defer cancel()
		kb, err := keybridge.Dial(dialCtx, cfg.Chain.Endpoints[0], cfg.Bridge.PrivateKey, logger.Component("keybridge"))
		if err != nil {
			return nil, "", err
		}
		return kb, kb.Address().Hex(), nil
	}
	return httpbridge.New(cfg.Bridge.URL, cfg.Bridge.Timeout, logger.Component("httpbridge")), "", nil
}

func newOrchestrator(cfg *config.Config, kv *redis.Client, bridge wallet.Bridge, checklist *store.Checklist) (*orchestrator.Orchestrator, error) {
	amount, err := decimal.NewFromString(cfg.Claim.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid CLAIM_AMOUNT %q: %w", cfg.Claim.Amount, err)
	}

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	references := store.NewReferences(kv, cfg.Claim.CorrelationTTL)
	executor := strategy.NewExecutor(
		bridge,
		references,
		evm.AirdropABIJSON,
		cfg.Bridge.Timeout,
		logger.Component("strategy"),
	)

	return orchestrator.New(orchestrator.Deps{
		Status:     client,
		Verifier:   client,
		Submitter:  executor,
		Bridge:     bridge,
		Timers:     store.NewTimers(kv),
		Checklist:  checklist,
		References: references,
	}, orchestrator.Config{
		Contract:    common.HexToAddress(cfg.Chain.ContractAddress),
		ClaimAmount: amount,
		Cooldown:    cfg.Claim.Cooldown,
		MaxRetries:  cfg.Claim.MaxRetries,
		RetryDelay:  cfg.Claim.RetryDelay,
		CallTimeout: cfg.Backend.Timeout,
	}, logger.Component("orchestrator")), nil
}

func run(ctx context.Context, cfg *config.Config, o *orchestrator.Orchestrator, checklist *store.Checklist, args []string, retry bool, log zerolog.Logger) error {
	switch args[0] {
	case "status":
		if err := o.Mount(ctx); err != nil {
			return err
		}
		printView(o)
		return printChecklist(ctx, checklist, o.View().Address)

	case "follow":
		if len(args) != 2 {
			return fmt.Errorf("usage: claimer follow <platform>")
		}
		if err := o.MarkFollowed(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Marked %s as followed\n", args[1])
		return nil

	case "claim":
		if err := o.Mount(ctx); err != nil {
			return err
		}
		err := o.Claim(ctx)
		for err != nil && retry && o.CanRetry() {
			fmt.Printf("Claim failed: %s (retries left: %d)\n", o.View().Error, o.View().RetriesLeft)
			err = o.Retry(ctx)
		}
		printView(o)
		return err

	case "watch":
		if err := o.Mount(ctx); err != nil {
			return err
		}
		return watch(ctx, cfg, o, log)

	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func watch(ctx context.Context, cfg *config.Config, o *orchestrator.Orchestrator, log zerolog.Logger) error {
	watcher, err := orchestrator.NewWatcher(o, cfg.Claim.PollInterval, logger.Component("watcher"))
	if err != nil {
		return err
	}
	watcher.Start()
	defer func() {
		if err := watcher.Stop(); err != nil {
			log.Warn().Err(err).Msg("Watcher shutdown failed")
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case now := <-ticker.C:
			if o.View().NextClaimAt.IsZero() {
				fmt.Print("\rReady to claim          ")
				continue
			}
			fmt.Printf("\rNext claim in %s   ", o.Countdown(now))
		}
	}
}

func printView(o *orchestrator.Orchestrator) {
	v := o.View()
	fmt.Printf("Address: %s\n", v.Address)
	fmt.Printf("Balance: %s\n", v.Balance.String())
	fmt.Printf("State:   %s\n", v.State)
	if v.NextClaimAt.IsZero() {
		fmt.Println("Claim:   available")
	} else {
		fmt.Printf("Claim:   next in %s\n", o.Countdown(time.Now()))
	}
	if v.PendingReference != "" {
		fmt.Printf("Reference: %s\n", v.PendingReference)
	}
	if v.Error != "" {
		fmt.Printf("Error:   %s\n", v.Error)
	}
}

func printChecklist(ctx context.Context, checklist *store.Checklist, address string) error {
	followed, err := checklist.Followed(ctx, address)
	if err != nil {
		return err
	}
	fmt.Println("Social channels:")
	for _, platform := range checklist.Platforms() {
		mark := " "
		if followed[platform] {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, platform)
	}
	return nil
}
