// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package main provides the entrypoint of makerd, the long-lived daemon
// that answers inbound setup requests from takers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	logging "github.com/ipfs/go-log"
	"github.com/libp2p/go-libp2p"
	"github.com/urfave/cli/v2"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/maker"
	"github.com/blocktrade-labs/swap-setup/internal/setupjournal"
	"github.com/blocktrade-labs/swap-setup/rpc"
)

const (
	flagListenAddr   = "listen-addr"
	flagRPCAddr      = "rpc-addr"
	flagDataDir      = "data-dir"
	flagMinAmount    = "min-amount"
	flagMaxAmount    = "max-amount"
	flagNetwork      = "network"
	flagResumeOnly   = "resume-only"
	flagRateXMRPerBTC = "rate-piconero-per-btc"
	flagLogLevel     = "log-level"
)

var log = logging.Logger("makerd")

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "makerd",
		Usage: "BTC/XMR atomic-swap maker daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagListenAddr,
				Value:   "/ip4/0.0.0.0/tcp/9909",
				EnvVars: []string{"MAKERD_LISTEN_ADDR"},
				Usage:   "libp2p multiaddr to listen on",
			},
			&cli.StringFlag{
				Name:    flagRPCAddr,
				Value:   "127.0.0.1:5983",
				EnvVars: []string{"MAKERD_RPC_ADDR"},
				Usage:   "address the personal JSON-RPC server listens on",
			},
			&cli.StringFlag{
				Name:    flagDataDir,
				Value:   "./makerd-data",
				EnvVars: []string{"MAKERD_DATA_DIR"},
				Usage:   "directory the setup journal is stored under",
			},
			&cli.Float64Flag{
				Name:    flagMinAmount,
				Value:   0.001,
				EnvVars: []string{"MAKERD_MIN_AMOUNT"},
				Usage:   "minimum BTC amount this maker will quote",
			},
			&cli.Float64Flag{
				Name:    flagMaxAmount,
				Value:   1.0,
				EnvVars: []string{"MAKERD_MAX_AMOUNT"},
				Usage:   "maximum BTC amount this maker will quote",
			},
			&cli.StringFlag{
				Name:    flagNetwork,
				Value:   "mainnet",
				EnvVars: []string{"MAKERD_NETWORK"},
				Usage:   "one of mainnet, testnet, regtest",
			},
			&cli.BoolFlag{
				Name:    flagResumeOnly,
				EnvVars: []string{"MAKERD_RESUME_ONLY"},
				Usage:   "reject all new setup requests, only resume in-progress swaps",
			},
			&cli.Uint64Flag{
				Name:    flagRateXMRPerBTC,
				Value:   15_000_000_000_000, // 15 XMR/BTC, expressed in piconero
				EnvVars: []string{"MAKERD_RATE_PICONERO_PER_BTC"},
				Usage:   "fixed exchange rate, in piconero per whole bitcoin",
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   "info",
				EnvVars: []string{"MAKERD_LOG_LEVEL"},
				Usage:   "debug, info, warn, or error",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if err := logging.SetLogLevel("*", c.String(flagLogLevel)); err != nil {
		return fmt.Errorf("setting log level: %w", err)
	}

	network, err := networkFromFlag(c.String(flagNetwork))
	if err != nil {
		return err
	}

	min, err := coins.BitcoinAmountFromBTC(c.Float64(flagMinAmount))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", flagMinAmount, err)
	}
	max, err := coins.BitcoinAmountFromBTC(c.Float64(flagMaxAmount))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", flagMaxAmount, err)
	}

	cfg := maker.Config{
		MinBuy:     min,
		MaxBuy:     max,
		Network:    network,
		ResumeOnly: c.Bool(flagResumeOnly),
	}

	journal, err := setupjournal.Open(c.String(flagDataDir))
	if err != nil {
		return fmt.Errorf("opening setup journal: %w", err)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	h, err := libp2p.New(libp2p.ListenAddrStrings(c.String(flagListenAddr)))
	if err != nil {
		return fmt.Errorf("constructing libp2p host: %w", err)
	}
	defer func() { _ = h.Close() }()

	params := btcParamsForNetwork(network.Bitcoin)

	btcWallet := maker.NewStaticBitcoinWallet(
		max,
		coins.NewBitcoinAmount(1_000),
		coins.NewBitcoinAmount(1_000),
		params,
		func() (btcutil.Address, error) {
			return nil, fmt.Errorf("no bitcoin address source configured: wire a real BitcoinWallet for production use")
		},
	)
	xmrWallet := maker.NewStaticMoneroWallet(
		coins.NewMoneroAmount(coins.PiconeroPerXMR*1000),
		coins.NewMoneroAmount(coins.PiconeroPerXMR/1000), // 0.001 XMR lock fee
	)

	rate := maker.NewFixedRate(c.Uint64(flagRateXMRPerBTC))

	behaviour := maker.NewBehaviour(h, cfg, rate, btcWallet, xmrWallet)
	behaviour.Start(ctx)

	personal := rpc.NewPersonalService(ctx, behaviour.Snapshots())

	rpcServer, err := rpc.NewServer(&rpc.Config{
		Ctx:      ctx,
		Address:  c.String(flagRPCAddr),
		Personal: personal,
	})
	if err != nil {
		return fmt.Errorf("constructing rpc server: %w", err)
	}

	log.Infof("makerd listening on %s, peer id %s", h.Addrs(), h.ID())

	go func() {
		_ = rpcServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case ev := <-behaviour.Events():
			recordEvent(journal, ev)
		case <-sigCh:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func recordEvent(j setupjournal.Journal, ev maker.OutEvent) {
	if ev.Initiated {
		log.Debugf("accepted setup stream from %v", ev.Peer)
		return
	}

	if ev.Err != nil {
		log.Warnf("setup with %v failed: %s", ev.Peer, ev.Err)
		return
	}

	entry := &setupjournal.Entry{
		SwapID:  ev.State.SwapID,
		Role:    setupjournal.RoleMaker,
		Peer:    fmt.Sprintf("%v", ev.Peer),
		BTC:     ev.State.BTC,
		XMR:     ev.State.XMR,
		Network: ev.State.Network,
	}
	if err := j.RecordAttempt(entry); err != nil {
		log.Errorf("recording setup journal entry: %s", err)
		return
	}
	if err := j.Complete(ev.State.SwapID, ""); err != nil {
		log.Errorf("completing setup journal entry: %s", err)
	}
}

func networkFromFlag(s string) (coins.BlockchainNetwork, error) {
	switch s {
	case "mainnet":
		return coins.BlockchainNetwork{Bitcoin: coins.BitcoinMainnet, Monero: coins.MoneroMainnet}, nil
	case "testnet":
		return coins.BlockchainNetwork{Bitcoin: coins.BitcoinTestnet, Monero: coins.MoneroStagenet}, nil
	case "regtest":
		return coins.BlockchainNetwork{Bitcoin: coins.BitcoinRegtest, Monero: coins.MoneroRegtest}, nil
	default:
		return coins.BlockchainNetwork{}, fmt.Errorf("unknown network %q", s)
	}
}

func btcParamsForNetwork(n coins.BitcoinNetwork) *chaincfg.Params {
	switch n {
	case coins.BitcoinMainnet:
		return &chaincfg.MainNetParams
	case coins.BitcoinTestnet:
		return &chaincfg.TestNet3Params
	case coins.BitcoinRegtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}
