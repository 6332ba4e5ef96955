// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

package taker

import (
	"context"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"

	"github.com/blocktrade-labs/swap-setup/internal/net/swapsetup"
)

// setupTimeout mirrors the maker's per-attempt budget: a setup that hasn't
// reached State3 within this window is abandoned.
const setupTimeout = 60 * time.Second

// EventLoop is the taker-side analogue of the teacher's bob event loop: the
// single goroutine that owns the host and every outbound stream opened
// against it. Every host.Host method call — Connect, NewStream — happens
// synchronously inside Run, one command at a time; nothing outside Run
// ever touches the host directly. Once a substream is open, a small
// per-peer reader goroutine is allowed to call Read on that already-open
// stream (not on the host) so Run is never blocked waiting on the network
// for an inbound message while another peer's command is queued.
type EventLoop struct {
	host host.Host

	dial           chan dialCommand
	addAddress     chan addAddressCommand
	requestAmounts chan requestAmountsCommand
	sendMessage0   chan sendMessage0Command
	sendMessage1   chan sendMessage1Command
	sendMessage2   chan sendMessage2Command

	connEstablished chan connEstablishedEvent
	msg0            chan msg0Event
	msg1            chan msg1Event

	addrs   map[peer.ID]multiaddr.Multiaddr
	streams map[peer.ID]network.Stream
}

// NewEventLoop builds an EventLoop bound to h and returns the Handle
// callers use to submit work to it. Run must be called (typically in its
// own goroutine) before any command on the returned Handle can complete.
func NewEventLoop(h host.Host) (*EventLoop, *Handle) {
	e := &EventLoop{
		host: h,

		dial:           make(chan dialCommand, commandQueueSize),
		addAddress:     make(chan addAddressCommand, commandQueueSize),
		requestAmounts: make(chan requestAmountsCommand, commandQueueSize),
		sendMessage0:   make(chan sendMessage0Command, commandQueueSize),
		sendMessage1:   make(chan sendMessage1Command, commandQueueSize),
		sendMessage2:   make(chan sendMessage2Command, commandQueueSize),

		connEstablished: make(chan connEstablishedEvent, commandQueueSize),
		msg0:            make(chan msg0Event, commandQueueSize),
		msg1:            make(chan msg1Event, commandQueueSize),

		addrs:   make(map[peer.ID]multiaddr.Multiaddr),
		streams: make(map[peer.ID]network.Stream),
	}

	h2 := &Handle{
		dial:           e.dial,
		addAddress:     e.addAddress,
		requestAmounts: e.requestAmounts,
		sendMessage0:   e.sendMessage0,
		sendMessage1:   e.sendMessage1,
		sendMessage2:   e.sendMessage2,

		connEstablished: e.connEstablished,
		msg0:            e.msg0,
		msg1:            e.msg1,
	}
	return e, h2
}

// Run is the event loop's single cooperative select over every command
// channel, exactly one command processed at a time. It must be driven from
// exactly one goroutine for the lifetime of the EventLoop.
func (e *EventLoop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-e.dial:
			e.handleDial(ctx, cmd)
		case cmd := <-e.addAddress:
			e.handleAddAddress(cmd)
		case cmd := <-e.requestAmounts:
			e.handleRequestAmounts(ctx, cmd)
		case cmd := <-e.sendMessage0:
			e.handleSendMessage0(cmd)
		case cmd := <-e.sendMessage1:
			e.handleSendMessage1(cmd)
		case cmd := <-e.sendMessage2:
			e.handleSendMessage2(cmd)
		}
	}
}

// handleDial implements the idempotent-dial fast path: a peer already
// connected emits conn_established immediately, with no swarm dial issued
// and no fixed delay of any kind before the event is published.
func (e *EventLoop) handleDial(ctx context.Context, cmd dialCommand) {
	if e.host.Network().Connectedness(cmd.peer) == network.Connected {
		e.publishConnEstablished(connEstablishedEvent{peer: cmd.peer})
		return
	}

	addr := cmd.addr
	if addr == nil {
		addr = e.addrs[cmd.peer]
	}

	info := peer.AddrInfo{ID: cmd.peer}
	if addr != nil {
		info.Addrs = []multiaddr.Multiaddr{addr}
	}

	err := e.host.Connect(ctx, info)
	if err != nil {
		err = fmt.Errorf("connecting to peer: %w", err)
	}
	e.publishConnEstablished(connEstablishedEvent{peer: cmd.peer, err: err})
}

func (e *EventLoop) handleAddAddress(cmd addAddressCommand) {
	e.addrs[cmd.peer] = cmd.addr
}

// handleRequestAmounts opens a new setup substream (replacing any stream
// previously recorded for the peer once the quote is accepted), submits the
// SpotPriceRequest, and reads back the SpotPriceResponse
// synchronously — matching the spec's "Amounts... informational only"
// note, this result goes straight back to the caller on cmd.reply rather
// than through the msg0/msg1 event channels. Once the substream is open, a
// dedicated reader goroutine is started to decode the two remaining
// maker-originated messages (Message1, Message3) as they arrive and
// publish them as msg0/msg1 events; it only ever calls Read on this
// already-open stream, never a host method.
func (e *EventLoop) handleRequestAmounts(ctx context.Context, cmd requestAmountsCommand) {
	attemptCtx, cancel := context.WithTimeout(ctx, setupTimeout)

	s, err := e.host.NewStream(attemptCtx, cmd.peer, swapsetup.ID)
	if err != nil {
		cancel()
		cmd.reply <- amountsResult{err: fmt.Errorf("opening setup stream: %w", err)}
		return
	}

	if deadline, ok := attemptCtx.Deadline(); ok {
		_ = s.SetDeadline(deadline)
	}

	if err := swapsetup.Write(s, swapsetup.SpotPriceRequest{BTC: cmd.btc, BlockchainNetwork: cmd.network}); err != nil {
		cancel()
		_ = s.Close()
		cmd.reply <- amountsResult{err: fmt.Errorf("writing spot price request: %w", err)}
		return
	}

	priceResp, err := swapsetup.Read[swapsetup.SpotPriceResponse](s)
	if err != nil {
		cancel()
		_ = s.Close()
		cmd.reply <- amountsResult{err: fmt.Errorf("reading spot price response: %w", err)}
		return
	}

	quoted, err := priceResp.AsResult()
	if err != nil {
		cancel()
		_ = s.Close()
		cmd.reply <- amountsResult{err: fmt.Errorf("maker declined quote: %w", err)}
		return
	}

	e.streams[cmd.peer] = s
	go e.readReplies(cancel, cmd.peer, s)

	cmd.reply <- amountsResult{xmr: quoted}
}

// readReplies decodes Message1 then Message3 off an already-open
// substream and publishes them as msg0/msg1 events. It never calls a host
// method, only Read on s. cancel releases the attempt's deadline once both
// messages are in (or a read fails).
func (e *EventLoop) readReplies(cancel context.CancelFunc, p peer.ID, s network.Stream) {
	defer cancel()

	m1, err := swapsetup.Read[swapsetup.Message1](s)
	e.publishMsg0(msg0Event{peer: p, msg: m1, err: wrapReadErr(err, "message1")})
	if err != nil {
		_ = s.Close()
		return
	}

	m3, err := swapsetup.Read[swapsetup.Message3](s)
	e.publishMsg1(msg1Event{peer: p, msg: m3, err: wrapReadErr(err, "message3")})
	if err != nil {
		_ = s.Close()
	}
}

func wrapReadErr(err error, what string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("reading %s: %w", what, err)
}

func (e *EventLoop) handleSendMessage0(cmd sendMessage0Command) {
	cmd.reply <- writeOnStream(e, cmd.peer, cmd.msg)
}

func (e *EventLoop) handleSendMessage1(cmd sendMessage1Command) {
	cmd.reply <- writeOnStream(e, cmd.peer, cmd.msg)
}

func (e *EventLoop) handleSendMessage2(cmd sendMessage2Command) {
	err := writeOnStream(e, cmd.peer, cmd.msg)
	if closer, ok := e.streams[cmd.peer]; ok {
		_ = closer.Close()
		delete(e.streams, cmd.peer)
	}
	cmd.reply <- err
}

// writeOnStream writes msg to peer p's already-open setup substream. It is
// a free function, not a method, because Go methods cannot carry their own
// type parameters.
func writeOnStream[T any](e *EventLoop, p peer.ID, msg T) error {
	s, ok := e.streams[p]
	if !ok {
		return fmt.Errorf("no open setup stream for %s", p)
	}
	if err := swapsetup.Write(s, msg); err != nil {
		return fmt.Errorf("writing to stream: %w", err)
	}
	return nil
}

func (e *EventLoop) publishConnEstablished(ev connEstablishedEvent) {
	select {
	case e.connEstablished <- ev:
	default:
		log.Debugf("dropping conn_established for %s: channel full", ev.peer)
	}
}

func (e *EventLoop) publishMsg0(ev msg0Event) {
	select {
	case e.msg0 <- ev:
	default:
		log.Debugf("dropping msg0 for %s: channel full", ev.peer)
	}
}

func (e *EventLoop) publishMsg1(ev msg1Event) {
	select {
	case e.msg1 <- ev:
	default:
		log.Debugf("dropping msg1 for %s: channel full", ev.peer)
	}
}
