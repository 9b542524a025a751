package server

import (
	"context"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/vaultd/vaultd/internal/logger"
	"github.com/vaultd/vaultd/pkg/identity"
	dispatchmetrics "github.com/vaultd/vaultd/pkg/metrics/prometheus"
	"github.com/vaultd/vaultd/pkg/protocol"
	"github.com/vaultd/vaultd/pkg/queue"
)

// handlerPool is a fixed pool of goroutines draining the socket queue
// (spec §4.8). A handler owns a socket for the duration of a session;
// ownership is shared with whichever worker is executing the session's
// current task, but exactly one goroutine ever touches the socket at a
// time: the handler blocks on task.Wait between submit and completion.
type handlerPool struct {
	size    int
	sockets *queue.SocketQueue
	creds   identity.CredentialStore
	submit  protocol.TaskSubmitter

	// active tracks sockets currently owned by a handler (past the socket
	// queue, mid-session) so Server.Stop can force-close them if the
	// graceful shutdown timeout expires.
	active  *sync.Map
	metrics *dispatchmetrics.DispatchMetrics
}

func newHandlerPool(size int, sockets *queue.SocketQueue, creds identity.CredentialStore, submit protocol.TaskSubmitter, active *sync.Map, m *dispatchmetrics.DispatchMetrics) *handlerPool {
	return &handlerPool{size: size, sockets: sockets, creds: creds, submit: submit, active: active, metrics: m}
}

func (p *handlerPool) run(id int) {
	for {
		conn, err := p.sockets.Dequeue()
		if err != nil {
			return
		}
		p.metrics.SetSocketQueueDepth(float64(p.sockets.Len()))
		p.metrics.IncActiveHandlers()
		p.serve(id, conn)
		p.metrics.DecActiveHandlers()
	}
}

func (p *handlerPool) serve(id int, conn net.Conn) {
	p.active.Store(conn, struct{}{})
	defer p.active.Delete(conn)
	defer conn.Close()

	remoteIP := conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(remoteIP); err == nil {
		remoteIP = host
	}
	lc := logger.NewLogContext(uuid.NewString(), remoteIP)
	ctx := logger.WithContext(context.Background(), lc)

	lr := protocol.NewLineReader(conn)
	username, err := protocol.Authenticate(conn, lr, p.creds)
	if err != nil {
		logger.DebugCtx(ctx, "handler: authentication ended without a bound session", logger.KeyHandlerID, id, logger.KeyError, err)
		return
	}

	ctx = logger.WithContext(ctx, lc.WithUsername(username))
	logger.DebugCtx(ctx, "handler: session authenticated", logger.KeyHandlerID, id)

	sess := protocol.NewSession(conn, lr, username, p.submit)
	if err := sess.Run(); err != nil {
		logger.DebugCtx(ctx, "handler: session ended with error", logger.KeyHandlerID, id, logger.KeyError, err)
	}
}
