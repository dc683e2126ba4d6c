package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/waxio/cloudwallet-go/pkg/config"
	"github.com/waxio/cloudwallet-go/pkg/cosigner/awskms"
	"github.com/waxio/cloudwallet-go/pkg/logger"
	"github.com/waxio/cloudwallet-go/pkg/persistence"
	"github.com/waxio/cloudwallet-go/pkg/persistence/badger"
	"github.com/waxio/cloudwallet-go/pkg/persistence/memory"
	"github.com/waxio/cloudwallet-go/pkg/persistence/redis"
	"github.com/waxio/cloudwallet-go/pkg/types"
	"github.com/waxio/cloudwallet-go/pkg/wallet"
)

func main() {
	app := &cli.App{
		Name:  "cloudwallet",
		Usage: "WAX Cloud Wallet login and signing from the terminal",
		Description: `Drives the wallet's login and signing flows over a terminal bridge:
window traffic is printed to stdout and the wallet's JSON replies are read
back from stdin. Useful for exercising the flows without a browser.`,
		Flags: globalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Establish a wallet session",
				Action: runLogin,
			},
			{
				Name:   "whoami",
				Usage:  "Print the account behind the current credentials",
				Action: runWhoami,
			},
			{
				Name:  "sign",
				Usage: "Sign a serialized transaction",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tx",
						Usage:    "Hex-encoded serialized transaction",
						Required: true,
					},
				},
				Action: runSign,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config file",
			EnvVars: []string{"CLOUDWALLET_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "rpc-url",
			Usage:   "WAX chain RPC endpoint",
			EnvVars: []string{config.EnvWaxRPCURL},
		},
		&cli.StringFlag{
			Name:    "user-account",
			Usage:   "Skip login and use this account directly (requires --pub-keys)",
			EnvVars: []string{config.EnvWaxUserAccount},
		},
		&cli.StringSliceFlag{
			Name:  "pub-keys",
			Usage: "Public keys for --user-account",
		},
		&cli.BoolFlag{
			Name:  "try-auto-login",
			Usage: "Probe the silent login endpoint before opening the login window",
		},
		&cli.StringFlag{
			Name:    "store",
			Value:   "memory",
			Usage:   "Preference store backend: memory, badger or redis",
			EnvVars: []string{"CLOUDWALLET_STORE"},
		},
		&cli.StringFlag{
			Name:  "badger-dir",
			Value: ".cloudwallet",
			Usage: "Data directory for the badger store",
		},
		&cli.StringFlag{
			Name:  "redis-addr",
			Value: "localhost:6379",
			Usage: "Address of the redis store",
		},
		&cli.StringSliceFlag{
			Name:    "kms-key",
			Usage:   "AWS KMS key ID or alias to co-sign with (repeatable; requires --chain-id)",
			EnvVars: []string{"CLOUDWALLET_KMS_KEYS"},
		},
		&cli.StringFlag{
			Name:    "kms-region",
			Usage:   "AWS region override for the KMS co-signer",
			EnvVars: []string{"CLOUDWALLET_KMS_REGION"},
		},
		&cli.StringFlag{
			Name:    "chain-id",
			Usage:   "Hex-encoded chain ID the co-signer signs for",
			EnvVars: []string{"CLOUDWALLET_CHAIN_ID"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{config.EnvWaxVerbose},
		},
	}
}

func loadConfig(cliCtx *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := cliCtx.String("config"); path != "" {
		var err error
		cfg, err = config.LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	if v := cliCtx.String("rpc-url"); v != "" {
		cfg.RPCEndpoint = v
	}
	if v := cliCtx.String("user-account"); v != "" {
		cfg.UserAccount = v
	}
	if v := cliCtx.StringSlice("pub-keys"); len(v) > 0 {
		cfg.PubKeys = v
	}
	// Boolean flags override the config file in both directions, so only
	// apply them when actually set.
	if cliCtx.IsSet("try-auto-login") {
		cfg.TryAutoLogin = cliCtx.Bool("try-auto-login")
	}
	if cliCtx.IsSet("verbose") {
		cfg.Verbose = cliCtx.Bool("verbose")
	}
	return cfg, nil
}

func newStore(cliCtx *cli.Context, l *zap.Logger) (persistence.Store, error) {
	switch backend := cliCtx.String("store"); backend {
	case "memory":
		return memory.NewMemoryStore(), nil
	case "badger":
		return badger.NewBadgerStore(cliCtx.String("badger-dir"), l)
	case "redis":
		return redis.NewRedisStore(&redis.RedisConfig{
			Address: cliCtx.String("redis-addr"),
		}, l)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func newClient(cliCtx *cli.Context) (*wallet.Client, persistence.Store, error) {
	cfg, err := loadConfig(cliCtx)
	if err != nil {
		return nil, nil, err
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return nil, nil, err
	}

	store, err := newStore(cliCtx, l)
	if err != nil {
		return nil, nil, err
	}

	deps := wallet.Deps{
		Bridge:  newConsoleBridge(os.Stdin, os.Stdout),
		Decoder: opaqueDecoder{},
		Store:   store,
		Logger:  l,
	}

	if kmsKeys := cliCtx.StringSlice("kms-key"); len(kmsKeys) > 0 {
		chainID, err := hex.DecodeString(cliCtx.String("chain-id"))
		if err != nil || len(chainID) == 0 {
			_ = store.Close()
			return nil, nil, fmt.Errorf("--kms-key requires a hex --chain-id")
		}
		co, err := awskms.NewSigner(cliCtx.Context, &awskms.SignerConfig{
			KeyIDs: kmsKeys,
			Region: cliCtx.String("kms-region"),
			Logger: l,
		})
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		deps.Cosigner = co
		deps.ChainID = chainID
	}

	client, err := wallet.New(cfg, deps)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return client, store, nil
}

func runLogin(cliCtx *cli.Context) error {
	client, store, err := newClient(cliCtx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	account, err := client.Login(cliCtx.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", account)
	for _, key := range client.AvailableKeys(cliCtx.Context) {
		fmt.Printf("  key: %s\n", key)
	}
	return nil
}

func runWhoami(cliCtx *cli.Context) error {
	client, store, err := newClient(cliCtx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if client.IsLoggedIn() {
		fmt.Println(client.Account())
		return nil
	}
	if client.IsAutoLoginAvailable(cliCtx.Context) {
		fmt.Println(client.Account())
		return nil
	}
	return fmt.Errorf("not logged in")
}

func runSign(cliCtx *cli.Context) error {
	client, store, err := newClient(cliCtx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	serialized, err := hex.DecodeString(strings.TrimPrefix(cliCtx.String("tx"), "0x"))
	if err != nil {
		return fmt.Errorf("invalid --tx hex: %w", err)
	}

	if !client.IsLoggedIn() {
		if _, err := client.Login(cliCtx.Context); err != nil {
			return err
		}
	}

	result, err := client.Transact(cliCtx.Context, types.Transaction{
		Serialized: types.ByteSequence(serialized),
	})
	if err != nil {
		return err
	}

	for _, sig := range result.Signatures {
		fmt.Println(sig)
	}
	return nil
}
