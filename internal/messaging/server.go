package messaging

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NatsServer is an in-process NATS server with its own client connection.
type NatsServer struct {
	ns   *server.Server
	conn *nats.Conn
	log  *zap.Logger

	startupTimeout time.Duration
	host           string
	port           int
}

type NatsServerOpt func(*NatsServer)

// WithHost sets the listen host. Default 127.0.0.1.
func WithHost(host string) NatsServerOpt {
	return func(s *NatsServer) { s.host = host }
}

// WithPort sets the listen port. -1 picks a random free port.
func WithPort(port int) NatsServerOpt {
	return func(s *NatsServer) { s.port = port }
}

func WithStartupTimeout(d time.Duration) NatsServerOpt {
	return func(s *NatsServer) { s.startupTimeout = d }
}

func NewNatsServer(log *zap.Logger, opts ...NatsServerOpt) (*NatsServer, error) {
	s := &NatsServer{
		log:            log,
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
	}
	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   s.host,
		Port:   s.port,
		NoSigs: true,
		NoLog:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}
	s.ns = ns
	return s, nil
}

// Start runs the server and connects the internal client. It returns once the
// server accepts connections.
func (n *NatsServer) Start() error {
	n.ns.Start()

	if !n.ns.ReadyForConnections(n.startupTimeout) {
		n.ns.Shutdown()
		return fmt.Errorf("nats server not ready for connections")
	}

	conn, err := nats.Connect(n.ns.ClientURL())
	if err != nil {
		n.ns.Shutdown()
		return fmt.Errorf("creating nats client connection: %w", err)
	}
	n.conn = conn

	n.log.Info("NATS 伺服器已啟動", zap.String("addr", n.ns.ClientURL()))
	return nil
}

// Conn returns the internal client connection, nil before Start.
func (n *NatsServer) Conn() *nats.Conn {
	return n.conn
}

func (n *NatsServer) ClientURL() string {
	return n.ns.ClientURL()
}

func (n *NatsServer) Shutdown() {
	if n.conn != nil {
		n.conn.Close()
	}
	n.ns.Shutdown()
	n.ns.WaitForShutdown()
}
