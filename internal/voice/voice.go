package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrChannelNotFound = errors.New("voice channel not found")
	ErrConnectTimeout  = errors.New("timed out connecting to voice channel")
)

// Conn is an established voice connection in one guild.
type Conn interface {
	ChannelID() string
	MoveTo(channelID string) error
	Disconnect() error
}

// Gateway is the slice of the Discord session the Connector needs.
type Gateway interface {
	Channel(channelID string) (*discordgo.Channel, error)
	ActiveConn(guildID string) (Conn, bool)
	Join(guildID, channelID string) (Conn, error)
}

// Connector keeps the bot in one fixed voice channel per guild.
type Connector struct {
	gateway   Gateway
	channelID string
	timeout   time.Duration

	mu     sync.Mutex
	leases map[string]int
}

func NewConnector(gateway Gateway, channelID string, timeout time.Duration) *Connector {
	return &Connector{
		gateway:   gateway,
		channelID: channelID,
		timeout:   timeout,
		leases:    make(map[string]int),
	}
}

func isVoiceChannel(ch *discordgo.Channel) bool {
	return ch.Type == discordgo.ChannelTypeGuildVoice || ch.Type == discordgo.ChannelTypeGuildStageVoice
}

// Connect returns a connection to the target channel in guildID, reusing or
// moving an existing connection when there is one.
func (c *Connector) Connect(ctx context.Context, guildID string) (Conn, error) {
	ch, err := c.gateway.Channel(c.channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrChannelNotFound, c.channelID, err)
	}
	if ch == nil || ch.GuildID != guildID || !isVoiceChannel(ch) {
		return nil, fmt.Errorf("%w: %s is not a voice channel in guild %s", ErrChannelNotFound, c.channelID, guildID)
	}

	if conn, ok := c.gateway.ActiveConn(guildID); ok {
		if conn.ChannelID() == c.channelID {
			return conn, nil
		}
		if err := conn.MoveTo(c.channelID); err != nil {
			return nil, fmt.Errorf("unable to move to voice channel %s: %w", c.channelID, err)
		}
		return conn, nil
	}

	return c.join(ctx, guildID)
}

type joinResult struct {
	conn Conn
	err  error
}

func (c *Connector) join(ctx context.Context, guildID string) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := make(chan joinResult, 1)
	go func() {
		conn, err := c.gateway.Join(guildID, c.channelID)
		result <- joinResult{conn: conn, err: err}
	}()

	select {
	case r := <-result:
		if r.err != nil {
			return nil, fmt.Errorf("unable to join the voice channel: %w", r.err)
		}
		return r.conn, nil
	case <-ctx.Done():
		// A join that completes after we gave up would otherwise linger.
		go func() {
			r := <-result
			if r.err == nil && r.conn != nil {
				if err := r.conn.Disconnect(); err != nil {
					slog.Warn("failed to disconnect late voice connection", "guildID", guildID, "error", err)
				}
			}
		}()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrConnectTimeout, c.timeout)
		}
		return nil, ctx.Err()
	}
}

// Acquire connects like Connect and takes a lease on the guild's connection.
// The connection is dropped once every lease has been released.
// The returned release func is safe to call more than once.
func (c *Connector) Acquire(ctx context.Context, guildID string) (func(), error) {
	// The lease is taken before connecting so a concurrent last release
	// cannot disconnect the connection this call is about to reuse.
	c.mu.Lock()
	c.leases[guildID]++
	c.mu.Unlock()

	if _, err := c.Connect(ctx, guildID); err != nil {
		c.release(guildID)
		return nil, err
	}
	return sync.OnceFunc(func() { c.release(guildID) }), nil
}

// release gives back one lease. The last one disconnects while holding the
// lock, so an Acquire either lands before it and keeps the connection or
// after it and joins again.
func (c *Connector) release(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.leases[guildID]--
	if c.leases[guildID] > 0 {
		return
	}
	delete(c.leases, guildID)

	conn, ok := c.gateway.ActiveConn(guildID)
	if !ok {
		return
	}
	if err := conn.Disconnect(); err != nil {
		slog.Error("failed to disconnect", "guildID", guildID, "error", err)
	}
}

// Leases reports how many holders currently keep the guild's connection open.
func (c *Connector) Leases(guildID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leases[guildID]
}
