package grpcpool

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Pool lazily dials and caches one client connection per logical service
// name. It is owned by the harness lifecycle: constructed at suite start,
// closed once at suite end. It is not meant to be shared across parallel
// test workers.
type Pool struct {
	targets map[string]string
	logger  *zap.Logger

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

func New(targets map[string]string, logger *zap.Logger) *Pool {
	return &Pool{
		targets: targets,
		logger:  logger,
		conns:   make(map[string]*grpc.ClientConn),
	}
}

// Get returns the cached connection for the service, dialing on first use.
// An unknown service name is a configuration error and is never retried.
func (p *Pool) Get(service string) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[service]; ok {
		return conn, nil
	}

	target, ok := p.targets[service]
	if !ok {
		return nil, fmt.Errorf("service configuration not found for %q", service)
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s (%s): %w", service, target, err)
	}

	p.logger.Info("grpc client created", zap.String("service", service), zap.String("target", target))
	p.conns[service] = conn
	return conn, nil
}

// CloseAll terminates every cached connection and clears the cache.
// Safe to call more than once.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for service, conn := range p.conns {
		if err := conn.Close(); err != nil {
			p.logger.Warn("closing grpc connection", zap.String("service", service), zap.Error(err))
			continue
		}
		p.logger.Info("closed grpc connection", zap.String("service", service))
	}
	p.conns = make(map[string]*grpc.ClientConn)
}
