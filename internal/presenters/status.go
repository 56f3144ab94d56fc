package presenters

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/hush/internal/moderation"
)

// StatusView is everything the status message shows.
type StatusView struct {
	Monitored []moderation.Participant
	Extended  map[string]bool
	Muted     []moderation.MutedEntry
	Allowance time.Duration
	Now       time.Time
}

const (
	statusTitle = "Talk time moderation"
	statusColor = 0x5865F2
	nobody      = "_nobody_"
)

func monitoredField(view StatusView) *discordgo.MessageEmbedField {
	if len(view.Monitored) == 0 {
		return &discordgo.MessageEmbedField{Name: "Monitored", Value: nobody}
	}

	var b strings.Builder
	for _, p := range view.Monitored {
		allowance := view.Allowance
		suffix := ""
		if view.Extended[p.UserID] {
			allowance *= 2
			suffix = " (extended)"
		}
		fmt.Fprintf(&b, "<@%s>: %s%s\n", p.UserID, FormatDuration(allowance), suffix)
	}
	return &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("Monitored (%d)", len(view.Monitored)),
		Value: strings.TrimSuffix(b.String(), "\n"),
	}
}

func mutedField(view StatusView) *discordgo.MessageEmbedField {
	if len(view.Muted) == 0 {
		return &discordgo.MessageEmbedField{Name: "Muted", Value: nobody}
	}

	var b strings.Builder
	for _, e := range view.Muted {
		fmt.Fprintf(&b, "<@%s>: %s left of %s\n", e.UserID, FormatDuration(e.Until().Sub(view.Now)), FormatDuration(e.Duration))
	}
	return &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("Muted (%d)", len(view.Muted)),
		Value: strings.TrimSuffix(b.String(), "\n"),
	}
}

func BuildStatusMessage(view StatusView) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title: statusTitle,
				Color: statusColor,
				Fields: []*discordgo.MessageEmbedField{
					monitoredField(view),
					mutedField(view),
				},
			},
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
}
