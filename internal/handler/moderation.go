package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/hush/internal/moderation"
	"github.com/glizzus/hush/internal/presenters"
)

// Connector hands out leases on the guild's voice connection.
type Connector interface {
	Acquire(ctx context.Context, guildID string) (func(), error)
}

// ErrNotAMember is returned by Members when the user is not in the guild.
var ErrNotAMember = errors.New("not a member of the guild")

// Members looks up guild members.
type Members interface {
	Member(guildID, userID string) (*discordgo.Member, error)
}

var participantPattern = regexp.MustCompile(`^(?:<@!?(\d+)>|(\d+))$`)

// DisplayName is the member's server nickname, falling back to their global
// display name and then their username.
func DisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// ParticipantFromArgs resolves the single participant argument of a command,
// given as a mention or a raw user ID, to a member of the message's guild.
func ParticipantFromArgs(req *Request, members Members) (moderation.Participant, error) {
	m := req.Message
	if m.GuildID == "" {
		return moderation.Participant{}, &UserError{Message: presenters.GuildOnly}
	}
	usage := &UserError{Message: presenters.Usage(req.Prefix, req.Command.Usage)}
	if len(req.Args) != 1 {
		return moderation.Participant{}, usage
	}

	match := participantPattern.FindStringSubmatch(req.Args[0])
	if match == nil {
		return moderation.Participant{}, usage
	}
	userID := match[1]
	if userID == "" {
		userID = match[2]
	}

	member, err := members.Member(m.GuildID, userID)
	if errors.Is(err, ErrNotAMember) {
		return moderation.Participant{}, &UserError{Message: presenters.NotAMember(userID)}
	}
	if err != nil {
		return moderation.Participant{}, fmt.Errorf("failed to look up member %s: %w", userID, err)
	}

	name := DisplayName(member)
	if name == "" {
		name = userID
	}
	return moderation.Participant{GuildID: m.GuildID, UserID: userID, Name: name}, nil
}

// ModerationCommands wires the talk-time commands to a moderator.
type ModerationCommands struct {
	moderator *moderation.Moderator
	connector Connector
	members   Members
}

func NewModerationCommands(moderator *moderation.Moderator, connector Connector, members Members) *ModerationCommands {
	return &ModerationCommands{moderator: moderator, connector: connector, members: members}
}

func (mc *ModerationCommands) Commands() []*Command {
	return []*Command{
		{
			Name:        "monitor",
			Usage:       "monitor <@member>",
			Description: "Start limiting a member's talk time.",
			Handler:     mc.monitor,
		},
		{
			Name:        "unmonitor",
			Usage:       "unmonitor <@member>",
			Description: "Stop limiting a member's talk time.",
			Handler:     mc.unmonitor,
		},
		{
			Name:        "unmute",
			Usage:       "unmute <@member>",
			Description: "Unmute a member right away.",
			Handler:     mc.unmute,
		},
		{
			Name:        "extend",
			Usage:       "extend <@member>",
			Description: "Double a member's talk allowance.",
			Handler:     mc.extend,
		},
		{
			Name:        "unextend",
			Usage:       "unextend <@member>",
			Description: "Return a member to the normal talk allowance.",
			Handler:     mc.unextend,
		},
		{
			Name:        "status",
			Usage:       "status",
			Description: "Show who is monitored and who is muted.",
			Handler:     mc.status,
		},
	}
}

func (mc *ModerationCommands) monitor(ctx context.Context, req *Request) error {
	p, err := ParticipantFromArgs(req, mc.members)
	if err != nil {
		return err
	}
	if !mc.moderator.Monitor(ctx, p) {
		return req.Reply(presenters.AlreadyMonitored(p.Name))
	}

	release, err := mc.connector.Acquire(ctx, p.GuildID)
	if err != nil {
		slog.Error("failed to connect to voice channel", "guildID", p.GuildID, "userID", p.UserID, "error", err)
		mc.moderator.Unmonitor(ctx, p.UserID)
		return req.Reply(presenters.FailedToConnect)
	}

	if err := req.Reply(presenters.NowMonitored(p.Name)); err != nil {
		slog.Warn("failed to confirm monitoring", "userID", p.UserID, "error", err)
	}
	if !mc.moderator.Watch(ctx, p, release) {
		release()
	}
	return nil
}

func (mc *ModerationCommands) unmonitor(ctx context.Context, req *Request) error {
	p, err := ParticipantFromArgs(req, mc.members)
	if err != nil {
		return err
	}
	if _, ok := mc.moderator.Unmonitor(ctx, p.UserID); !ok {
		return req.Reply(presenters.NotMonitored(p.Name))
	}
	return req.Reply(presenters.NoLongerMonitored(p.Name))
}

func (mc *ModerationCommands) unmute(ctx context.Context, req *Request) error {
	p, err := ParticipantFromArgs(req, mc.members)
	if err != nil {
		return err
	}
	if err := mc.moderator.ManualUnmute(ctx, p); err != nil {
		slog.Error("failed to unmute", "guildID", p.GuildID, "userID", p.UserID, "error", err)
		return req.Reply(presenters.FailedToUnmute(p.Name))
	}
	return req.Reply(presenters.Unmuted(p.Name))
}

func (mc *ModerationCommands) extend(ctx context.Context, req *Request) error {
	p, err := ParticipantFromArgs(req, mc.members)
	if err != nil {
		return err
	}
	if !mc.moderator.State().SetExtended(p.UserID, true) {
		return req.Reply(presenters.AlreadyExtended(p.Name))
	}
	return req.Reply(presenters.Extended(p.Name, mc.moderator.AllowanceFor(p.UserID)))
}

func (mc *ModerationCommands) unextend(ctx context.Context, req *Request) error {
	p, err := ParticipantFromArgs(req, mc.members)
	if err != nil {
		return err
	}
	if !mc.moderator.State().SetExtended(p.UserID, false) {
		return req.Reply(presenters.NotExtended(p.Name))
	}
	return req.Reply(presenters.ExtensionRemoved(p.Name, mc.moderator.AllowanceFor(p.UserID)))
}

func (mc *ModerationCommands) status(ctx context.Context, req *Request) error {
	state := mc.moderator.State()
	monitored := state.Monitored()

	extended := make(map[string]bool, len(monitored))
	for _, p := range monitored {
		extended[p.UserID] = state.IsExtended(p.UserID)
	}

	msg := presenters.BuildStatusMessage(presenters.StatusView{
		Monitored: monitored,
		Extended:  extended,
		Muted:     state.Muted(),
		Allowance: mc.moderator.Allowance(),
		Now:       mc.moderator.Now(),
	})
	if _, err := req.Session.ChannelMessageSendComplex(req.Message.ChannelID, msg); err != nil {
		return fmt.Errorf("failed to send status: %w", err)
	}
	return nil
}
