package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// DiscordSession is the part of *discordgo.Session the command handlers use
// to answer. Tests substitute a fake.
type DiscordSession interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ DiscordSession = (*discordgo.Session)(nil)

// SessionMembers resolves members from the state cache, asking the API on a
// miss.
type SessionMembers struct {
	session *discordgo.Session
}

func NewSessionMembers(s *discordgo.Session) *SessionMembers {
	return &SessionMembers{session: s}
}

func (m *SessionMembers) Member(guildID, userID string) (*discordgo.Member, error) {
	if member, err := m.session.State.Member(guildID, userID); err == nil {
		return member, nil
	}

	member, err := m.session.GuildMember(guildID, userID)
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotAMember, userID)
	}
	return member, err
}

var _ Members = (*SessionMembers)(nil)
