package handler

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/hush/internal/moderation"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type MessageCreateHandler = func(*discordgo.Session, *discordgo.MessageCreate)
type VoiceStateUpdateHandler = func(*discordgo.Session, *discordgo.VoiceStateUpdate)

var ReadyLog = func(s *discordgo.Session, r *discordgo.Ready) {
	username := r.User.Username
	userID := r.User.ID
	slog.Info("Bot is ready", "username", username, "userID", userID)
}

// VoiceStateWatcher starts talk-time monitoring when a monitored member
// shows up in voice.
type VoiceStateWatcher struct {
	moderator *moderation.Moderator
	connector Connector
}

func NewVoiceStateWatcher(moderator *moderation.Moderator, connector Connector) *VoiceStateWatcher {
	return &VoiceStateWatcher{moderator: moderator, connector: connector}
}

// HandleVoiceState reacts to the new voice state of a member. It reports
// whether a monitor loop was started.
func (w *VoiceStateWatcher) HandleVoiceState(ctx context.Context, vs *discordgo.VoiceState) bool {
	if vs == nil || vs.ChannelID == "" || vs.SelfMute {
		return false
	}
	p, ok := w.moderator.State().Participant(vs.UserID)
	if !ok || w.moderator.Watching(vs.UserID) {
		return false
	}
	p.GuildID = vs.GuildID

	release, err := w.connector.Acquire(ctx, vs.GuildID)
	if err != nil {
		slog.Error("failed to connect to voice channel", "guildID", vs.GuildID, "userID", vs.UserID, "error", err)
		return false
	}
	if !w.moderator.Watch(ctx, p, release) {
		release()
		return false
	}
	return true
}

func (w *VoiceStateWatcher) Handler(ctx context.Context) VoiceStateUpdateHandler {
	return func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		w.HandleVoiceState(ctx, v.VoiceState)
	}
}

type Handlers struct {
	Ready            ReadyHandler
	MessageCreate    MessageCreateHandler
	VoiceStateUpdate VoiceStateUpdateHandler
}

// Intents are the gateway intents the handlers depend on. Message content is
// privileged and must be enabled for the application.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildVoiceStates

// AddTo registers the non-nil handlers on s.
func (h Handlers) AddTo(s *discordgo.Session) {
	if h.Ready != nil {
		s.AddHandler(h.Ready)
	}
	if h.MessageCreate != nil {
		s.AddHandler(h.MessageCreate)
	}
	if h.VoiceStateUpdate != nil {
		s.AddHandler(h.VoiceStateUpdate)
	}
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = Intents
	handlers.AddTo(s)

	return s, nil
}
