package irc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dalnet/ircc/internal/config"
	"github.com/dalnet/ircc/internal/metrics"
	"github.com/dalnet/ircc/internal/retry"
	"github.com/dalnet/ircc/internal/transport"
	"golang.org/x/time/rate"
)

// ErrAlreadyConnected is returned by Connect while a connection is up or
// being established.
var ErrAlreadyConnected = errors.New("already connected")

// State is the connection lifecycle stage.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	// StateRegistering: transport up, PASS/NICK/USER sent.
	StateRegistering
	// StateRegistered: 001 received.
	StateRegistered
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	default:
		return "disconnected"
	}
}

// Client is one IRC connection: it owns the transport, frames and parses
// what arrives, correlates replies and emits events to callbacks.
type Client struct {
	cfg          *config.Config
	log          *slog.Logger
	newTransport func() transport.Transport
	backoff      *retry.Backoff
	limiter      *rate.Limiter

	callbacks callbacks
	session   *session

	mu            sync.Mutex
	state         State
	conn          *conn
	autoReconnect bool
	nick          string
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}

	// writeMu serializes writes to the transport.
	writeMu sync.Mutex
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the TCP transport factory.
func WithTransport(f func() transport.Transport) Option {
	return func(c *Client) { c.newTransport = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithBackoff sets the reconnect backoff.
func WithBackoff(b *retry.Backoff) Option {
	return func(c *Client) { c.backoff = b }
}

// WithLimiter throttles outbound lines; nil disables throttling.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a new IRC client
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:           cfg,
		log:           slog.Default(),
		session:       newSession(),
		autoReconnect: cfg.Reconnects(),
		nick:          cfg.Nick,
		ctx:           context.Background(),
		cancel:        func() {},
		done:          make(chan struct{}),
	}

	var tlsConfig *tls.Config
	if cfg.TLS {
		tlsConfig = &tls.Config{ServerName: cfg.Server, InsecureSkipVerify: cfg.TLSInsecure}
	}
	c.newTransport = transport.NewTCP(cfg.DialTimeout, tlsConfig)

	c.backoff = &retry.Backoff{
		InitialDelay: cfg.Reconnect.InitialDelay,
		MaxDelay:     cfg.Reconnect.MaxDelay,
		Multiplier:   cfg.Reconnect.Multiplier,
		MaxAttempts:  *cfg.Reconnect.MaxAttempts,
		Jitter:       *cfg.Reconnect.Jitter,
	}

	if cfg.SendRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect opens the first connection. ctx bounds the dial and every
// later reconnect; cancelling it stops reconnection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(ctx)
	select {
	case <-c.done:
		c.done = make(chan struct{})
	default:
	}
	runCtx := c.ctx
	c.mu.Unlock()

	return c.open(runCtx)
}

// Done is closed once the client stops for good: Close was called, the
// connection dropped with auto-reconnect disabled, or reconnecting failed.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Close disables reconnection and tears down the transport without QUIT.
func (c *Client) Close() error {
	c.mu.Lock()
	c.autoReconnect = false
	c.cancel()
	cn := c.conn
	c.mu.Unlock()

	if cn == nil {
		c.finish()
		return nil
	}
	return cn.t.Close()
}

// Disconnect closes the transport. The reconnect policy still applies.
func (c *Client) Disconnect(reason string) error {
	c.mu.Lock()
	cn := c.conn
	c.mu.Unlock()
	if cn == nil {
		return ErrNotConnected
	}
	return c.disconnect(cn, reason, nil)
}

func (c *Client) disconnect(cn *conn, reason string, cause error) error {
	c.log.Info("Disconnecting", "reason", reason, "error", cause)
	c.emit(&DisconnectingEvent{Reason: reason, Err: cause})
	return cn.t.Close()
}

// State returns the current lifecycle stage.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether a transport is up.
func (c *Client) Connected() bool {
	return c.State() >= StateRegistering
}

// CurrentNick is the nick confirmed by 001, or the last one requested.
func (c *Client) CurrentNick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

// SetAutoReconnect turns automatic reconnection on or off.
func (c *Client) SetAutoReconnect(on bool) {
	c.mu.Lock()
	c.autoReconnect = on
	c.mu.Unlock()
}

// AutoReconnect reports whether the client reconnects after a close.
func (c *Client) AutoReconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoReconnect
}

// Send writes tokens joined by spaces as one raw line.
func (c *Client) Send(tokens ...string) error {
	line, err := encodeRaw(tokens...)
	if err != nil {
		return err
	}
	return c.write(line, true)
}

// Join requests channel. The joined event fires on the first topic or
// names reply that mentions it.
func (c *Client) Join(channel string) error {
	line, err := encodeJoin(channel)
	if err != nil {
		return err
	}
	if !c.Connected() {
		return ErrNotConnected
	}
	// Registered before writing so a fast reply cannot beat it.
	c.session.addPendingJoin(channel)
	if err := c.write(line, true); err != nil {
		c.session.cancelJoin(channel)
		return err
	}
	return nil
}

// Part leaves channels.
func (c *Client) Part(channels ...string) error {
	line, err := encodePart(channels)
	if err != nil {
		return err
	}
	if err := c.write(line, true); err != nil {
		return err
	}
	c.emit(&PartingEvent{Channels: channels})
	return nil
}

// Topic asks for the topic of channel, or sets it when topic is not empty.
func (c *Client) Topic(channel, topic string) error {
	line, err := encodeTopic(channel, topic)
	if err != nil {
		return err
	}
	return c.write(line, true)
}

// Names requests the member list of channels, or of every visible channel
// when none are given. Channels whose reply is still arriving are skipped.
func (c *Client) Names(channels ...string) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	if len(channels) > 0 {
		channels = c.session.requestNames(channels)
		if len(channels) == 0 {
			return nil
		}
	}
	line, err := encodeNames(channels)
	if err != nil {
		return err
	}
	return c.write(line, true)
}

// Privmsg sends text to every target.
func (c *Client) Privmsg(targets []string, text string) error {
	line, err := encodePrivmsg(targets, text)
	if err != nil {
		return err
	}
	return c.write(line, true)
}

// Notice sends a notice to every target.
func (c *Client) Notice(targets []string, text string) error {
	line, err := encodeNotice(targets, text)
	if err != nil {
		return err
	}
	return c.write(line, true)
}

// SetNick asks the server for a new nick.
func (c *Client) SetNick(nick string) error {
	line, err := encodeNick(nick)
	if err != nil {
		return err
	}
	if err := c.write(line, true); err != nil {
		return err
	}
	c.mu.Lock()
	c.nick = nick
	c.mu.Unlock()
	return nil
}

// Quit sends QUIT and disables auto-reconnect; the server closes the link.
func (c *Client) Quit(reason string) error {
	line, err := encodeQuit(reason)
	if err != nil {
		return err
	}
	c.SetAutoReconnect(false)
	return c.write(line, false)
}

func (c *Client) pong(token string) error {
	line, err := encodePong(token)
	if err != nil {
		return err
	}
	return c.write(line, false)
}

// write sends one encoded line. PONG, QUIT and registration skip the
// limiter.
func (c *Client) write(line []byte, throttle bool) error {
	c.mu.Lock()
	cn := c.conn
	up := c.state >= StateRegistering
	ctx := c.ctx
	c.mu.Unlock()

	if cn == nil || !up {
		return ErrNotConnected
	}
	return c.writeTo(ctx, cn, line, throttle)
}

func (c *Client) writeTo(ctx context.Context, cn *conn, line []byte, throttle bool) error {
	if throttle && c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("send throttled: %w", err)
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := cn.t.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	metrics.LinesSent.Inc()
	c.log.Debug("->", "line", strings.TrimSuffix(string(line), "\r\n"))
	return nil
}

func (c *Client) open(ctx context.Context) error {
	t := c.newTransport()

	c.mu.Lock()
	cn := &conn{client: c, t: t}
	c.conn = cn
	c.state = StateConnecting
	c.mu.Unlock()

	c.log.Info("Connecting", "addr", c.cfg.Addr())
	if err := t.Open(ctx, c.cfg.Addr(), cn); err != nil {
		c.mu.Lock()
		if c.conn == cn {
			c.conn = nil
			c.state = StateDisconnected
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

// current reports whether cn is still the live connection.
func (c *Client) current(cn *conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == cn
}

func (c *Client) onConnected(cn *conn) {
	c.mu.Lock()
	if c.conn != cn {
		c.mu.Unlock()
		return
	}
	c.state = StateRegistering
	c.nick = c.cfg.Nick
	ctx := c.ctx
	c.mu.Unlock()

	c.session.reset()
	metrics.Connected.Set(1)
	c.log.Info("Connected", "addr", c.cfg.Addr())

	lines, err := registration(c.cfg.ServerPass, c.cfg.Nick, c.cfg.Username, c.cfg.IRCName)
	if err != nil {
		c.log.Error("Failed to build registration", "error", err)
		_ = c.disconnect(cn, "registration", err)
		return
	}
	for _, line := range lines {
		if err := c.writeTo(ctx, cn, line, false); err != nil {
			c.log.Warn("Failed to send registration", "error", err)
			return
		}
	}
	c.emit(&ConnectedEvent{Addr: c.cfg.Addr()})
}

func (c *Client) onClosed(cn *conn, cause error) {
	c.mu.Lock()
	if c.conn != cn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	reconnect := c.autoReconnect
	ctx := c.ctx
	c.mu.Unlock()

	metrics.Connected.Set(0)
	c.log.Info("Disconnected", "addr", c.cfg.Addr(), "error", cause)
	c.emit(&DisconnectedEvent{Err: cause})

	if !reconnect || ctx.Err() != nil {
		c.finish()
		return
	}
	c.reconnect(ctx)
}

// reconnect retries open under the backoff policy. The first attempt is
// immediate; later ones wait with exponential delay up to MaxAttempts.
func (c *Client) reconnect(ctx context.Context) {
	start := time.Now()
	stopped := false
	err := c.backoff.Do(ctx, func(attempt int) error {
		if !c.AutoReconnect() {
			stopped = true
			return nil
		}
		metrics.Reconnects.Inc()
		c.emit(&ReconnectingEvent{Attempt: attempt})
		err := c.open(ctx)
		if err != nil {
			c.log.Warn("Reconnect attempt failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil && ctx.Err() == nil {
		c.log.Error("Giving up reconnecting", "error", err)
		c.emit(&ReconnectFailedEvent{Err: err, Duration: time.Since(start)})
		c.finish()
		return
	}
	if stopped || err != nil {
		c.finish()
	}
}

// finish closes Done unless a connection came back in the meantime.
func (c *Client) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return
	}
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (c *Client) handleLine(line string) {
	msg, err := Parse(line)
	if err != nil {
		metrics.UnknownLines.Inc()
		c.log.Warn("Unknown line", "line", line)
		c.emit(&UnknownLineEvent{Raw: line, Err: err})
		return
	}
	metrics.LinesReceived.WithLabelValues(commandLabel(msg)).Inc()
	c.log.Debug("<-", "line", line)

	if msg.Command == "001" {
		c.mu.Lock()
		if c.state == StateRegistering {
			c.state = StateRegistered
		}
		if t := msg.Target(); t != "" {
			c.nick = t
		}
		c.mu.Unlock()
	}

	c.emit(&LineEvent{Msg: msg})
	c.emit(&CommandEvent{Msg: msg})
	if name, ok := ReplyName(msg.Command); ok {
		c.emit(&ReplyEvent{Reply: name, Msg: msg})
	}

	for _, ev := range c.session.correlate(msg) {
		if p, ok := ev.(*PingedEvent); ok {
			if err := c.pong(p.Token); err != nil {
				c.log.Warn("Failed to answer PING", "error", err)
			}
		}
		c.emit(ev)
	}
}

// knownCommands are the non-numeric commands counted under their own name.
var knownCommands = map[string]struct{}{
	"PING": {}, "PONG": {}, "PRIVMSG": {}, "NOTICE": {}, "JOIN": {}, "PART": {},
	"QUIT": {}, "NICK": {}, "MODE": {}, "TOPIC": {}, "KICK": {}, "INVITE": {},
	"KILL": {}, "ERROR": {}, "WALLOPS": {},
}

// commandLabel bounds the metric label set: cataloged numerics and known
// commands keep their name, everything else counts as "other".
func commandLabel(msg *Message) string {
	if _, ok := ReplyName(msg.Command); ok {
		return msg.Command
	}
	switch msg.Command {
	case "001", "002", "003", "004", "005":
		return msg.Command
	}
	cmd := strings.ToUpper(msg.Command)
	if _, ok := knownCommands[cmd]; ok {
		return cmd
	}
	return "other"
}

// conn is the transport.Sink for one connection attempt. Signals from a
// superseded conn are dropped.
type conn struct {
	client *Client
	t      transport.Transport
	framer Framer
}

func (cn *conn) Connected() {
	cn.client.onConnected(cn)
}

func (cn *conn) Received(p []byte) {
	if !cn.client.current(cn) {
		return
	}
	for _, line := range cn.framer.Feed(p) {
		cn.client.handleLine(line)
	}
}

func (cn *conn) Failed(err error) {
	if !cn.client.current(cn) {
		return
	}
	_ = cn.client.disconnect(cn, "error", err)
}

func (cn *conn) Closed(err error) {
	cn.client.onClosed(cn, err)
}
