package messaging

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Handler reacts to an inbound message and optionally returns a reply
// payload (empty string means no reply is written back). A non-nil
// error that implements FutureJob tells the listener to buffer the
// frame and redeliver it once the job it belongs to registers its own
// handler; any other error is logged and the frame is dropped.
type Handler interface {
	OnMessage(localPort int, fromHost string, msgType MessageType, payload string) (reply string, err error)
}

// FutureJob is the error interface a Handler returns to request that a
// frame be requeued rather than dropped: the message belongs to a job
// this host has not yet registered a handler for (e.g. this host's own
// action hasn't reached that job yet, while a peer's already has).
type FutureJob interface {
	error
	FutureJobID() int64
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(localPort int, fromHost string, msgType MessageType, payload string) (string, error)

func (f HandlerFunc) OnMessage(localPort int, fromHost string, msgType MessageType, payload string) (string, error) {
	return f(localPort, fromHost, msgType, payload)
}

// maxPendingPerJob bounds the requeue buffer so a job id that never
// registers a handler can't grow memory unboundedly.
const maxPendingPerJob = 64

type pendingFrame struct {
	fromHost string
	msgType  MessageType
	payload  string
}

// Messenger owns a listening socket and a dispatch table keyed by job
// id, plus a per-destination circuit breaker for outbound sends.
type Messenger struct {
	logger   *zap.Logger
	port     int
	mu       sync.RWMutex
	handlers map[int64]Handler
	breakers sync.Map // map[string]*gobreaker.CircuitBreaker
	dialer   net.Dialer

	listenerMu sync.Mutex
	listener   net.Listener
	wg         sync.WaitGroup

	pendingMu sync.Mutex
	pending   map[int64][]pendingFrame
}

// New builds a Messenger that will listen on port once Listen is called.
func New(port int, logger *zap.Logger) *Messenger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Messenger{
		port:     port,
		logger:   logger,
		handlers: make(map[int64]Handler),
		pending:  make(map[int64][]pendingFrame),
		dialer:   net.Dialer{Timeout: 5 * time.Second},
	}
}

// Register attaches a handler for the given job id's inbound traffic
// and replays any frames that arrived for this job before it existed.
func (m *Messenger) Register(jobID int64, h Handler) {
	m.mu.Lock()
	m.handlers[jobID] = h
	m.mu.Unlock()
	m.replayPending(jobID, h)
}

// Unregister detaches a job id's handler.
func (m *Messenger) Unregister(jobID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, jobID)
}

func (m *Messenger) handlerFor(jobID int64) (Handler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[jobID]
	return h, ok
}

func (m *Messenger) queuePending(jobID int64, f pendingFrame) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	if len(m.pending[jobID]) >= maxPendingPerJob {
		m.logger.Warn("messaging: dropping frame, pending buffer full", zap.Int64("job_id", jobID))
		return
	}
	m.pending[jobID] = append(m.pending[jobID], f)
}

func (m *Messenger) replayPending(jobID int64, h Handler) {
	m.pendingMu.Lock()
	frames := m.pending[jobID]
	delete(m.pending, jobID)
	m.pendingMu.Unlock()
	for _, f := range frames {
		if _, err := h.OnMessage(m.port, f.fromHost, f.msgType, f.payload); err != nil {
			m.logger.Warn("messaging: replayed frame still rejected", zap.Int64("job_id", jobID), zap.Error(err))
		}
	}
}

// Listen opens the listening socket and serves one goroutine per
// accepted connection until stop is closed. It returns ListenFailure if
// the port is already in use.
func (m *Messenger) Listen(stop <-chan struct{}) ListenStatus {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", m.port))
	if err != nil {
		m.logger.Warn("messaging: listen failed", zap.Int("port", m.port), zap.Error(err))
		return ListenFailure
	}
	m.listenerMu.Lock()
	m.listener = ln
	m.listenerMu.Unlock()

	go func() {
		<-stop
		m.closeListener()
	}()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.serve(conn)
			}()
		}
	}()
	return ListenSuccess
}

func (m *Messenger) closeListener() {
	m.listenerMu.Lock()
	ln := m.listener
	m.listenerMu.Unlock()
	if ln != nil {
		ln.Close()
	}
}

// Shutdown closes the listening socket and waits for every in-flight
// connection's serve goroutine to finish, up to ctx's deadline.
func (m *Messenger) Shutdown(ctx context.Context) error {
	m.closeListener()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Messenger) serve(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	raw, err := readFramed(reader, EndOfMessage)
	if err != nil {
		m.logger.Warn("messaging: malformed inbound frame", zap.Error(err))
		return
	}
	jobID, msgType, payload, err := decode(raw)
	if err != nil {
		m.logger.Warn("messaging: malformed message", zap.Error(err))
		return
	}
	fromHost := conn.RemoteAddr().String()

	handler, ok := m.handlerFor(jobID)
	if !ok {
		m.logger.Warn("messaging: no handler registered for job, buffering for requeue", zap.Int64("job_id", jobID))
		m.queuePending(jobID, pendingFrame{fromHost: fromHost, msgType: msgType, payload: payload})
		return
	}

	reply, err := handler.OnMessage(m.port, fromHost, msgType, payload)
	if err != nil {
		if fj, ok := err.(FutureJob); ok {
			m.logger.Warn("messaging: handler reports future job, requeuing", zap.Int64("job_id", fj.FutureJobID()))
			m.queuePending(fj.FutureJobID(), pendingFrame{fromHost: fromHost, msgType: msgType, payload: payload})
			// The job may already be registered, in which case no later
			// Register call would replay the frame: deliver it now.
			if h, registered := m.handlerFor(fj.FutureJobID()); registered {
				m.replayPending(fj.FutureJobID(), h)
			}
		} else {
			m.logger.Warn("messaging: handler rejected message", zap.Error(err))
		}
		return
	}
	if reply != "" {
		conn.Write([]byte(reply + EndOfMessage))
	}
}

// SendMessage fires a message at addr without waiting for a reply. Send
// failures are logged and otherwise swallowed, per the protocol's
// non-fatal send policy.
func (m *Messenger) SendMessage(addr string, jobID int64, msgType MessageType, payload string) {
	go func() {
		correlationID := uuid.NewString()
		if _, _, err := m.send(addr, jobID, msgType, payload, false); err != nil {
			m.logger.Warn("messaging: send failed",
				zap.String("addr", addr), zap.String("correlation_id", correlationID),
				zap.Stringer("type", msgType), zap.Error(err))
		}
	}()
}

// SendMessageForReply sends a message and blocks for the peer's reply.
func (m *Messenger) SendMessageForReply(addr string, jobID int64, msgType MessageType, payload string) (string, error) {
	correlationID := uuid.NewString()
	reply, _, err := m.send(addr, jobID, msgType, payload, true)
	if err != nil {
		m.logger.Warn("messaging: send-for-reply failed",
			zap.String("addr", addr), zap.String("correlation_id", correlationID), zap.Error(err))
		return "", err
	}
	return reply, nil
}

func (m *Messenger) breakerFor(addr string) *gobreaker.CircuitBreaker {
	if v, ok := m.breakers.Load(addr); ok {
		return v.(*gobreaker.CircuitBreaker)
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        addr,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})
	actual, _ := m.breakers.LoadOrStore(addr, cb)
	return actual.(*gobreaker.CircuitBreaker)
}

func (m *Messenger) send(addr string, jobID int64, msgType MessageType, payload string, wantReply bool) (reply string, ok bool, err error) {
	cb := m.breakerFor(addr)
	result, err := cb.Execute(func() (interface{}, error) {
		conn, dialErr := m.dialer.Dial("tcp", addr)
		if dialErr != nil {
			return "", dialErr
		}
		defer conn.Close()

		if _, writeErr := conn.Write([]byte(encode(jobID, msgType, payload) + EndOfMessage)); writeErr != nil {
			return "", writeErr
		}
		if !wantReply {
			return "", nil
		}
		return readFramed(bufio.NewReader(conn), EndOfMessage)
	})
	if err != nil {
		return "", false, err
	}
	return result.(string), true, nil
}

// readFramed reads bytes until the terminator is seen and returns the
// content with the terminator stripped.
func readFramed(r *bufio.Reader, terminator string) (string, error) {
	var sb strings.Builder
	for {
		chunk, err := r.ReadString(terminator[len(terminator)-1])
		sb.WriteString(chunk)
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(sb.String(), terminator) {
			return strings.TrimSuffix(sb.String(), terminator), nil
		}
	}
}

func encode(jobID int64, msgType MessageType, payload string) string {
	return strconv.FormatInt(jobID, 10) + typeTagSeparator + strconv.Itoa(int(msgType)) + typeTagSeparator + payload
}

func decode(raw string) (jobID int64, msgType MessageType, payload string, err error) {
	parts := strings.SplitN(raw, typeTagSeparator, 3)
	if len(parts) != 3 {
		return 0, 0, "", fmt.Errorf("messaging: malformed frame %q", raw)
	}
	jobID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, "", fmt.Errorf("messaging: malformed job id: %w", err)
	}
	typeNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, "", fmt.Errorf("messaging: malformed message type: %w", err)
	}
	return jobID, MessageType(typeNum), parts[2], nil
}
