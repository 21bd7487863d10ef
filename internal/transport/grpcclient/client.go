// Package grpcclient provides the gRPC transport used by the replication dispatcher.
package grpcclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/and161185/paintstream/internal/convert"
	"github.com/and161185/paintstream/internal/model"
	"github.com/and161185/paintstream/internal/replication"
	"github.com/and161185/paintstream/internal/wire"
)

// DefaultConnectTimeout bounds the wait for a ready connection in GetClient.
const DefaultConnectTimeout = 5 * time.Second

// Options configure the connection.
type Options struct {
	Addr           string
	CACert         string // PEM file; empty uses the system pool
	SkipVerify     bool   // dev only
	Plaintext      bool   // no TLS
	ConnectTimeout time.Duration
	DialOptions    []grpc.DialOption
}

// Manager lazily owns one client connection and hands out clients bound to it.
type Manager struct {
	opts Options
	lg   *zap.Logger

	mu sync.Mutex
	cc *grpc.ClientConn
}

var _ replication.Transport = (*Manager)(nil)

// New returns a manager; no connection is made until GetClient.
func New(opts Options, lg *zap.Logger) *Manager {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Manager{opts: opts, lg: lg}
}

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

func (m *Manager) dialOptions() ([]grpc.DialOption, error) {
	var creds credentials.TransportCredentials
	if m.opts.Plaintext {
		creds = insecure.NewCredentials()
	} else {
		c, err := loadTLS(m.opts.CACert, m.opts.SkipVerify)
		if err != nil {
			return nil, err
		}
		creds = c
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	return append(opts, m.opts.DialOptions...), nil
}

// GetClient returns a client once the connection is ready.
func (m *Manager) GetClient(ctx context.Context) (replication.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cc == nil {
		opts, err := m.dialOptions()
		if err != nil {
			return nil, fmt.Errorf("credentials: %w", err)
		}
		cc, err := grpc.NewClient(m.opts.Addr, opts...)
		if err != nil {
			return nil, fmt.Errorf("new client %s: %w", m.opts.Addr, err)
		}
		m.cc = cc
	}

	ctx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	defer cancel()
	m.cc.Connect()
	for {
		s := m.cc.GetState()
		if s == connectivity.Ready {
			break
		}
		if s == connectivity.Shutdown {
			return nil, fmt.Errorf("connect %s: connection closed", m.opts.Addr)
		}
		if !m.cc.WaitForStateChange(ctx, s) {
			return nil, fmt.Errorf("connect %s (%s): %w", m.opts.Addr, s, ctx.Err())
		}
	}
	return &client{rpc: wire.NewPaintStreamClient(m.cc), lg: m.lg}, nil
}

// ListRoom fetches the live actions of room over the managed connection.
func (m *Manager) ListRoom(ctx context.Context, room string) ([]model.Action, error) {
	c, err := m.GetClient(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := c.(*client).rpc.ListRoom(ctx, &wire.ListRoomRequest{Room: room})
	if err != nil {
		return nil, fmt.Errorf("list room %s: %w", room, err)
	}
	return convert.FromRoomSnapshot(snap)
}

// Close releases the connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cc == nil {
		return nil
	}
	err := m.cc.Close()
	m.cc = nil
	return err
}

type client struct {
	rpc wire.PaintStreamClient
	lg  *zap.Logger
}

func (c *client) SubmitPaint(ctx context.Context, ev *wire.PaintEvent) error {
	ack, err := c.rpc.WindowPaint(ctx, ev)
	if err != nil {
		return err
	}
	c.lg.Debug("paint ack",
		zap.String("room", ack.Room),
		zap.Int32("accepted", ack.Accepted),
		zap.Int("sent", ev.Count()),
	)
	return nil
}
