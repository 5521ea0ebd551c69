// Package service implements the transfer protocol engine: authentication,
// channel discovery, and the application-session lifecycle over one
// connection to the settlement node.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/ports"
	"github.com/layer-3/clearport/wire"
)

const (
	// DefaultTransferTimeout bounds one transfer from connection open to
	// settlement.
	DefaultTransferTimeout = 60 * time.Second

	// DefaultBalanceTTL is how long cached ledger balances stay fresh.
	DefaultBalanceTTL = 30 * time.Second
)

// Config carries the engine's deployment parameters.
type Config struct {
	// NodeURL is the settlement node's websocket endpoint
	NodeURL string

	// AssetToken is the on-chain contract address of the transferable asset
	AssetToken string

	// AppName is the application name the auth policy domain is bound to
	AppName string

	// Application is the application's on-chain address
	Application string

	// Scope is the auth policy scope
	Scope string

	// Timeout overrides DefaultTransferTimeout when positive
	Timeout time.Duration
}

// Engine orchestrates a single transfer: connect, authenticate, locate a
// funded channel, open a session reserving the amount on the sender, close it
// with the amount moved to the receiver.
type Engine struct {
	dialer  ports.Dialer
	cfg     Config
	store   ports.Store
	events  ports.EventPublisher
	log     zerolog.Logger
	timeout time.Duration
}

// NewEngine creates an engine. Store and events may be nil; the engine then
// keeps no history and publishes nothing.
func NewEngine(dialer ports.Dialer, cfg Config, store ports.Store, events ports.EventPublisher, log zerolog.Logger) *Engine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTransferTimeout
	}

	return &Engine{
		dialer:  dialer,
		cfg:     cfg,
		store:   store,
		events:  events,
		log:     log,
		timeout: timeout,
	}
}

// Transfer moves amount from the signer's wallet to receiver by opening and
// immediately closing an application session over an existing funded channel.
// sender, when supplied, must match the signer's address. Each call owns its
// connection; concurrent transfers need separate calls.
func (e *Engine) Transfer(ctx context.Context, signer ports.Signer, amount decimal.Decimal, sender, receiver string) (*core.SettledTransfer, error) {
	wallet := signer.Address().Hex()

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", core.ErrConfiguration, amount)
	}
	if receiver == "" {
		return nil, fmt.Errorf("%w: receiver address is required", core.ErrConfiguration)
	}
	if sender != "" && !strings.EqualFold(sender, wallet) {
		return nil, fmt.Errorf("%w: sender %s does not match signing identity %s", core.ErrConfiguration, sender, wallet)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	record := core.TransferRecord{
		ID:        uuid.New().String(),
		Sender:    wallet,
		Receiver:  receiver,
		Amount:    amount,
		CreatedAt: time.Now(),
	}

	result, err := e.transfer(ctx, signer, amount, wallet, receiver)
	if err != nil {
		record.Status = core.TransferStatusFailed
		record.Error = err.Error()
		e.persist(ctx, record, nil)
		return nil, err
	}

	record.Status = core.TransferStatusSettled
	record.SessionID = result.SessionID
	e.persist(ctx, record, result)

	return result, nil
}

func (e *Engine) transfer(ctx context.Context, signer ports.Signer, amount decimal.Decimal, wallet, receiver string) (*core.SettledTransfer, error) {
	conn, err := e.dialer.Dial(ctx, e.cfg.NodeURL)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}
	defer conn.Close()

	handshake := NewAuthHandshake(e.cfg.AppName, e.cfg.Application, e.cfg.Scope)
	auth, err := handshake.Authenticate(ctx, conn, signer)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}

	channels, err := e.fetchChannels(ctx, conn, signer, wallet)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}

	channel, err := NewChannelLocator(e.cfg.AssetToken).Select(channels)
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("channel", channel.ChannelID).Str("wallet", wallet).Msg("channel selected")

	ledger := NewSessionLedger(conn, signer)
	sessionID, err := ledger.Open(ctx, wallet, receiver, amount)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}

	allocations, err := ledger.Close(ctx, wallet, receiver, amount)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}

	return &core.SettledTransfer{
		SessionID:    sessionID,
		Allocations:  allocations,
		SessionToken: auth.SessionToken,
		SettledAt:    time.Now(),
	}, nil
}

// Balances returns the wallet's ledger balances, served from the cache when
// fresh, else fetched over a new authenticated connection.
func (e *Engine) Balances(ctx context.Context, signer ports.Signer, wallet string) ([]core.Balance, error) {
	if wallet == "" {
		wallet = signer.Address().Hex()
	}

	if e.store != nil {
		if cached, err := e.store.GetBalances(ctx, wallet); err == nil {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	conn, err := e.dialer.Dial(ctx, e.cfg.NodeURL)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}
	defer conn.Close()

	handshake := NewAuthHandshake(e.cfg.AppName, e.cfg.Application, e.cfg.Scope)
	if _, err := handshake.Authenticate(ctx, conn, signer); err != nil {
		return nil, timeoutOr(ctx, err)
	}

	req := wire.NewRequest(wire.MethodGetLedgerBalances, map[string]string{"participant": wallet})
	if err := e.sendSigned(conn, signer, req); err != nil {
		return nil, timeoutOr(ctx, err)
	}

	frame, err := conn.Await(ctx, wire.MethodGetLedgerBalances)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}

	balances, err := wire.ParseBalances(frame.Params)
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		if err := e.store.SetBalances(context.WithoutCancel(ctx), wallet, balances, DefaultBalanceTTL); err != nil {
			e.log.Warn().Err(err).Str("wallet", wallet).Msg("failed to cache balances")
		}
	}

	return balances, nil
}

func (e *Engine) fetchChannels(ctx context.Context, conn ports.Conn, signer ports.Signer, wallet string) ([]core.Channel, error) {
	req := wire.NewRequest(wire.MethodGetChannels, map[string]string{"participant": wallet})
	if err := e.sendSigned(conn, signer, req); err != nil {
		return nil, err
	}

	frame, err := conn.Await(ctx, wire.MethodGetChannels)
	if err != nil {
		var serverErr *wire.ServerError
		if errors.As(err, &serverErr) {
			return nil, fmt.Errorf("%w: %s", core.ErrProtocol, serverErr.Message)
		}
		return nil, err
	}

	return wire.ParseChannels(frame.Params)
}

func (e *Engine) sendSigned(conn ports.Conn, signer ports.Signer, req *wire.Request) error {
	body, err := req.Body()
	if err != nil {
		return err
	}
	sig, err := signer.SignDigest(body)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrConnection, err)
	}
	return conn.Send(req, sig)
}

// persist records the attempt and publishes the settlement event. Neither
// failure aborts an already-settled transfer.
func (e *Engine) persist(ctx context.Context, record core.TransferRecord, result *core.SettledTransfer) {
	ctx = context.WithoutCancel(ctx)

	if e.store != nil {
		if err := e.store.SaveTransfer(ctx, record); err != nil {
			e.log.Warn().Err(err).Str("transfer", record.ID).Msg("failed to save transfer record")
		}
	}

	if e.events != nil && result != nil {
		if err := e.events.PublishSettlement(ctx, record, *result); err != nil {
			e.log.Warn().Err(err).Str("transfer", record.ID).Msg("failed to publish settlement event")
		}
	}
}

// timeoutOr maps any failure that coincides with the expired deadline to the
// timeout error; everything else passes through.
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, core.ErrTimeout) {
		return fmt.Errorf("%w: %v", core.ErrTimeout, err)
	}
	return err
}
