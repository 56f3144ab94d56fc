package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Request is one parsed text command.
type Request struct {
	Session DiscordSession
	Message *discordgo.MessageCreate
	Prefix  string
	Command *Command
	Args    []string
}

// Reply sends content to the channel the command came from.
func (r *Request) Reply(content string) error {
	_, err := r.Session.ChannelMessageSend(r.Message.ChannelID, content)
	if err != nil {
		return fmt.Errorf("failed to reply in channel %s: %w", r.Message.ChannelID, err)
	}
	return nil
}

type CommandHandler func(ctx context.Context, req *Request) error

type Command struct {
	Name        string
	Usage       string
	Description string
	Handler     CommandHandler
}

// Router dispatches prefixed text commands to their handlers.
type Router struct {
	prefix string

	mu       sync.RWMutex
	commands map[string]*Command
	order    []string
}

func NewRouter(prefix string) *Router {
	return &Router{
		prefix:   prefix,
		commands: make(map[string]*Command),
	}
}

func (r *Router) Prefix() string {
	return r.prefix
}

func (r *Router) Register(cmds ...*Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cmd := range cmds {
		name := strings.ToLower(cmd.Name)
		if _, exists := r.commands[name]; exists {
			panic("command already registered: " + name)
		}
		r.commands[name] = cmd
		r.order = append(r.order, name)
	}
}

// Commands returns the registered commands in registration order.
func (r *Router) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		cmds = append(cmds, r.commands[name])
	}
	return cmds
}

// Parse splits a message into a command name and its arguments. ok is false
// when the message does not start with the prefix.
func (r *Router) Parse(content string) (name string, args []string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(content), r.prefix)
	if !found {
		return "", nil, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Route runs the command in m, if any. A UserError returned by the handler
// is sent back to the channel instead of being returned.
func (r *Router) Route(ctx context.Context, s DiscordSession, m *discordgo.MessageCreate) error {
	if m.Author == nil || m.Author.Bot {
		return nil
	}
	name, args, ok := r.Parse(m.Content)
	if !ok {
		return nil
	}

	r.mu.RLock()
	cmd, exists := r.commands[name]
	r.mu.RUnlock()
	if !exists {
		slog.Debug("Ignoring unknown command", "command", name, "authorID", m.Author.ID)
		return nil
	}

	req := &Request{
		Session: s,
		Message: m,
		Prefix:  r.prefix,
		Command: cmd,
		Args:    args,
	}
	err := cmd.Handler(ctx, req)

	var userErr *UserError
	if errors.As(err, &userErr) {
		return req.Reply(userErr.Message)
	}
	if err != nil {
		return fmt.Errorf("command %s: %w", name, err)
	}
	return nil
}

// Handler adapts the router to a discordgo MessageCreate handler. Commands
// run with ctx, which should live as long as the bot.
func (r *Router) Handler(ctx context.Context) MessageCreateHandler {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if err := r.Route(ctx, s, m); err != nil {
			slog.Error("Failed to handle command", "guildID", m.GuildID, "channelID", m.ChannelID, "error", err)
		}
	}
}
