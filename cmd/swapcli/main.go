// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package main provides the entrypoint of swapcli, an executable for
// driving the taker side of a setup exchange against a known makerd
// instance from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"github.com/urfave/cli/v2"

	"github.com/blocktrade-labs/swap-setup/internal/coins"
	"github.com/blocktrade-labs/swap-setup/internal/taker"
)

const (
	flagPeerID     = "peer-id"
	flagMultiaddr  = "multiaddr"
	flagAmount     = "amount"
	flagNetwork    = "network"
	flagTimeoutSec = "timeout-secs"
	flagLogLevel   = "log-level"
)

var (
	peerIDFlag = &cli.StringFlag{
		Name:     flagPeerID,
		Usage:    "libp2p peer ID of the maker to contact",
		Required: true,
	}
	multiaddrFlag = &cli.StringFlag{
		Name:  flagMultiaddr,
		Usage: "multiaddr to dial the maker on, if not already connected",
	}
	logLevelFlag = &cli.StringFlag{
		Name:    flagLogLevel,
		Value:   "info",
		EnvVars: []string{"SWAPCLI_LOG_LEVEL"},
		Usage:   "debug, info, warn, or error",
	}
)

func main() {
	if err := cliApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliApp() *cli.App {
	return &cli.App{
		Name:                 "swapcli",
		Usage:                "Taker-side client for a BTC/XMR swap-setup negotiation",
		EnableBashCompletion: true,
		Suggest:              true,
		Commands: []*cli.Command{
			{
				Name:    "setup",
				Aliases: []string{"s"},
				Usage:   "Request a quote from a maker and run the full setup exchange",
				Action:  runSetup,
				Flags: []cli.Flag{
					peerIDFlag,
					multiaddrFlag,
					&cli.Float64Flag{
						Name:     flagAmount,
						Usage:    "BTC amount to buy",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagNetwork,
						Value: "mainnet",
						Usage: "one of mainnet, testnet, regtest",
					},
					&cli.Uint64Flag{
						Name:  flagTimeoutSec,
						Value: 60,
						Usage: "seconds to wait for the setup to complete",
					},
					logLevelFlag,
				},
			},
		},
	}
}

func runSetup(c *cli.Context) error {
	if err := logging.SetLogLevel("*", c.String(flagLogLevel)); err != nil {
		return fmt.Errorf("setting log level: %w", err)
	}

	p, err := peer.Decode(c.String(flagPeerID))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", flagPeerID, err)
	}

	var addr multiaddr.Multiaddr
	if s := c.String(flagMultiaddr); s != "" {
		addr, err = multiaddr.NewMultiaddr(s)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", flagMultiaddr, err)
		}
	}

	btc, err := coins.BitcoinAmountFromBTC(c.Float64(flagAmount))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", flagAmount, err)
	}

	network, err := networkFromFlag(c.String(flagNetwork))
	if err != nil {
		return err
	}

	h, err := libp2p.New()
	if err != nil {
		return fmt.Errorf("constructing libp2p host: %w", err)
	}
	defer func() { _ = h.Close() }()

	loop, handle := taker.NewEventLoop(h)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	go loop.Run(ctx)

	setupCtx, setupCancel := context.WithTimeout(ctx, time.Duration(c.Uint64(flagTimeoutSec))*time.Second)
	defer setupCancel()

	state3, err := handle.Setup(setupCtx, p, addr, btc, network)
	if err != nil {
		return fmt.Errorf("setup with %s failed: %w", p, err)
	}

	fmt.Printf("setup complete: swap_id=%s btc=%s xmr=%s\n", state3.SwapID, state3.BTC, state3.XMR)
	return nil
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
