// Package moderation limits how long a participant may hold the floor in a
// voice channel.
//
// A Moderator watches each monitored participant with a polling loop. Once a
// participant has been present longer than their allowance they are
// server-muted, and an unmute is scheduled after a cooldown. The cooldown
// doubles when the participant is muted again shortly after the previous
// mute ended, and falls back to the base duration otherwise.
//
// All state is in memory and owned by a State value.
package moderation
