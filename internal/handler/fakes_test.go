package handler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/hush/internal/events"
	"github.com/glizzus/hush/internal/handler"
	"github.com/glizzus/hush/internal/moderation"
	"github.com/glizzus/hush/internal/schedule/scheduletest"
)

const (
	guildID   = "517907971481534467"
	channelID = "600000000000000001"
)

type mockSession struct {
	mu      sync.Mutex
	Sent    []string
	Complex []*discordgo.MessageSend
}

func (m *mockSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Complex = append(m.Complex, data)
	return &discordgo.Message{ChannelID: channelID}, nil
}

var _ handler.DiscordSession = (*mockSession)(nil)

type nopMuter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *nopMuter) SetMute(ctx context.Context, guildID, userID string, mute bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

type alwaysPresent struct{}

func (alwaysPresent) InVoice(guildID, userID string) bool { return true }

type fakeConnector struct {
	mu       sync.Mutex
	err      error
	acquired int
	released int
}

func (c *fakeConnector) Acquire(ctx context.Context, guildID string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.acquired++
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.released++
	}, nil
}

func (c *fakeConnector) counts() (acquired, released int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired, c.released
}

type fakeMembers struct {
	members map[string]*discordgo.Member
	err     error
}

func (f *fakeMembers) Member(guildID, userID string) (*discordgo.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	member, ok := f.members[userID]
	if !ok {
		return nil, handler.ErrNotAMember
	}
	return member, nil
}

var errConnect = errors.New("timed out connecting to voice channel")

type fixture struct {
	session   *mockSession
	muter     *nopMuter
	connector *fakeConnector
	members   *fakeMembers
	moderator *moderation.Moderator
	router    *handler.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		session:   &mockSession{},
		muter:     &nopMuter{},
		connector: &fakeConnector{},
		members: &fakeMembers{members: map[string]*discordgo.Member{
			loudmouth.ID: {User: loudmouth},
			nicknamed.ID: {User: nicknamed, Nick: "Quiet Carl"},
		}},
	}
	f.moderator = moderation.New(moderation.NewState(), f.muter, alwaysPresent{}, moderation.Options{
		Allowance:    time.Minute,
		PollInterval: time.Second,
		Escalator:    moderation.Escalator{Base: 30 * time.Second, Threshold: time.Minute},
		Clock:        scheduletest.NewFakeClock(time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)),
		Publisher:    events.NewMemoryPublisher(),
	})
	f.router = handler.NewCommandRouter("!", handler.NewModerationCommands(f.moderator, f.connector, f.members))
	t.Cleanup(f.moderator.StopAll)
	return f
}

func (f *fixture) send(t *testing.T, content string, mentions ...*discordgo.User) {
	t.Helper()
	m := &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ChannelID: channelID,
			GuildID:   guildID,
			Content:   content,
			Author:    &discordgo.User{ID: "1", Username: "moderator"},
			Mentions:  mentions,
		},
	}
	if err := f.router.Route(t.Context(), f.session, m); err != nil {
		t.Fatalf("Route(%q) returned error: %v", content, err)
	}
}

func (f *fixture) replies() []string {
	f.session.mu.Lock()
	defer f.session.mu.Unlock()
	return append([]string(nil), f.session.Sent...)
}

var (
	loudmouth = &discordgo.User{ID: "80351110224678912", Username: "loudmouth"}
	nicknamed = &discordgo.User{ID: "80351110224678913", Username: "carl", GlobalName: "Carl"}
)
