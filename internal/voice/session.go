package voice

import (
	"github.com/bwmarrin/discordgo"
)

// SessionGateway adapts a discordgo session to Gateway.
type SessionGateway struct {
	session *discordgo.Session
}

func NewSessionGateway(s *discordgo.Session) *SessionGateway {
	return &SessionGateway{session: s}
}

func (g *SessionGateway) Channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := g.session.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return g.session.Channel(channelID)
}

func (g *SessionGateway) ActiveConn(guildID string) (Conn, bool) {
	g.session.RLock()
	vc, ok := g.session.VoiceConnections[guildID]
	g.session.RUnlock()
	if !ok || vc == nil {
		return nil, false
	}

	vc.RLock()
	ready := vc.Ready
	vc.RUnlock()
	if !ready {
		return nil, false
	}
	return &sessionConn{vc: vc}, true
}

func (g *SessionGateway) Join(guildID, channelID string) (Conn, error) {
	vc, err := g.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, err
	}
	return &sessionConn{vc: vc}, nil
}

var _ Gateway = (*SessionGateway)(nil)

type sessionConn struct {
	vc *discordgo.VoiceConnection
}

func (c *sessionConn) ChannelID() string {
	c.vc.RLock()
	defer c.vc.RUnlock()
	return c.vc.ChannelID
}

func (c *sessionConn) MoveTo(channelID string) error {
	return c.vc.ChangeChannel(channelID, false, true)
}

func (c *sessionConn) Disconnect() error {
	return c.vc.Disconnect()
}
