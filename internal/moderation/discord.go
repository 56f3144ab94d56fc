package moderation

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// DiscordMuter mutes members through the Discord API, pacing requests so a
// burst of unmutes on shutdown does not trip the member-edit rate limit.
type DiscordMuter struct {
	session *discordgo.Session
	limiter *rate.Limiter
}

func NewDiscordMuter(s *discordgo.Session, perSecond float64) *DiscordMuter {
	burst := max(1, int(perSecond))
	return &DiscordMuter{
		session: s,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (m *DiscordMuter) SetMute(ctx context.Context, guildID, userID string, mute bool) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return m.session.GuildMemberMute(guildID, userID, mute, discordgo.WithContext(ctx))
}

var _ Muter = (*DiscordMuter)(nil)

// StatePresence answers presence questions from the session's voice state cache.
type StatePresence struct {
	state *discordgo.State
}

func NewStatePresence(state *discordgo.State) *StatePresence {
	return &StatePresence{state: state}
}

func (p *StatePresence) InVoice(guildID, userID string) bool {
	vs, err := p.state.VoiceState(guildID, userID)
	return err == nil && vs != nil && vs.ChannelID != ""
}

var _ Presence = (*StatePresence)(nil)
