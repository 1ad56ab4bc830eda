package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/munidigital/document-assistant/internal/infrastructure/resilience"
)

// Messenger is the conversational channel collaborator: inbound user texts
// arrive as JSON events on one subject, outbound replies are published on
// another. Connection upkeep (reconnect, backoff) stays inside the NATS client
// and never leaks into session state.
type Messenger struct {
	conn            *nats.Conn
	inboundSubject  string
	outboundSubject string
	executor        *resilience.Executor
	limiter         *rate.Limiter
	logger          *slog.Logger
}

// event is the wire format for both directions.
type event struct {
	Identity string `json:"identity"`
	Text     string `json:"text"`
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	Executor             *resilience.Executor
	Logger               *slog.Logger

	// SendRate caps outbound publishes so a burst of replies cannot flood the
	// channel. Zero disables the limiter.
	SendRate  float64
	SendBurst int
}

func New(url, inboundSubject, outboundSubject string, options Options) (*Messenger, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("document-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	var limiter *rate.Limiter
	if options.SendRate > 0 {
		burst := options.SendBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(options.SendRate), burst)
	}

	return &Messenger{
		conn:            conn,
		inboundSubject:  inboundSubject,
		outboundSubject: outboundSubject,
		executor:        options.Executor,
		limiter:         limiter,
		logger:          logger,
	}, nil
}

func (m *Messenger) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// Connected reports channel liveness for the readiness probe.
func (m *Messenger) Connected() bool {
	return m.conn != nil && m.conn.IsConnected()
}

// Send publishes one outbound text. The caller logs failures; there is no
// retry beyond the executor policy.
func (m *Messenger) Send(ctx context.Context, identity, text string) error {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("outbound rate limit: %w", err)
		}
	}

	payload, err := json.Marshal(event{Identity: identity, Text: text})
	if err != nil {
		return fmt.Errorf("marshal outbound event: %w", err)
	}

	call := func(_ context.Context) error {
		if err := m.conn.Publish(m.outboundSubject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}
	if m.executor != nil {
		return m.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	}
	return call(ctx)
}

// Subscribe consumes inbound events until ctx is done, dispatching each to
// handler through a per-identity FIFO so one identity's messages are handled
// strictly in arrival order while different identities run concurrently.
func (m *Messenger) Subscribe(ctx context.Context, handler func(context.Context, string, string)) error {
	dispatcher := newSerialDispatcher(ctx, handler)

	sub, err := m.conn.Subscribe(m.inboundSubject, func(msg *nats.Msg) {
		var ev event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			m.logger.Warn("inbound_event_malformed", "error", err)
			return
		}
		if ev.Identity == "" {
			return
		}
		dispatcher.enqueue(ev)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := m.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := m.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	dispatcher.wait()
	return nil
}
