// Copyright 2023 The AthanorLabs/atomic-swap Authors
// SPDX-License-Identifier: LGPL-3.0-only

// Package rpc provides the HTTP server for incoming JSON-RPC requests to
// makerd. Its only namespace is "personal": a single method a wallet
// front-end calls to read a fresh wallet snapshot (balances, lock fee,
// addresses, fee estimates) taken from the maker's own wallets. The method
// does not answer the snapshot requests of in-flight setup handlers; the
// maker core serves those itself.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	gorillarpc "github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	logging "github.com/ipfs/go-log"
)

// PersonalNamespace is the sole registered JSON-RPC service namespace.
const PersonalNamespace = "personal"

var log = logging.Logger("rpc")

// Server represents the JSON-RPC server exposed to a local wallet
// front-end process.
type Server struct {
	ctx        context.Context
	listener   net.Listener
	httpServer *http.Server
}

// Config configures NewServer.
type Config struct {
	Ctx     context.Context
	Address string // "IP:port"

	Personal *PersonalService
}

// NewServer constructs and binds (but does not start) the JSON-RPC server.
func NewServer(cfg *Config) (*Server, error) {
	rpcServer := gorillarpc.NewServer()
	rpcServer.RegisterCodec(json2.NewCodec(), "application/json")

	serverCtx, serverCancel := context.WithCancel(cfg.Ctx)

	if err := rpcServer.RegisterService(cfg.Personal, PersonalNamespace); err != nil {
		serverCancel()
		return nil, fmt.Errorf("registering personal service: %w", err)
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(serverCtx, "tcp", cfg.Address)
	if err != nil {
		serverCancel()
		return nil, err
	}

	r := mux.NewRouter()
	r.Handle("/", rpcServer)

	headersOk := handlers.AllowedHeaders([]string{"content-type"})
	methodsOk := handlers.AllowedMethods([]string{"POST", "OPTIONS"})
	originsOk := handlers.AllowedOrigins([]string{"*"})

	server := &http.Server{
		Addr:              ln.Addr().String(),
		ReadHeaderTimeout: time.Second,
		Handler:           handlers.CORS(headersOk, methodsOk, originsOk)(r),
		BaseContext: func(net.Listener) context.Context {
			return serverCtx
		},
	}

	return &Server{
		ctx:        serverCtx,
		listener:   ln,
		httpServer: server,
	}, nil
}

// HttpURL returns the URL used for HTTP requests.
func (s *Server) HttpURL() string { //nolint:revive
	return fmt.Sprintf("http://%s", s.httpServer.Addr)
}

// Start starts the JSON-RPC server. It blocks until ctx is canceled or the
// server fails.
func (s *Server) Start() error {
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}

	log.Infof("starting RPC server on %s", s.HttpURL())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-s.ctx.Done():
		err := s.httpServer.Shutdown(s.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("http server shutdown errored: %s", err)
		}
		return s.ctx.Err()
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("RPC server failed: %s", err)
		} else {
			log.Info("RPC server shut down")
		}
		return err
	}
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	return s.httpServer.Shutdown(s.ctx)
}
