package presenters

import (
	"fmt"
	"time"
)

const (
	Pong            = "Pong!"
	FailedToConnect = "Failed to connect to the voice channel."
	GuildOnly       = "This command can only be used in a server."
)

func NowMonitored(name string) string {
	return fmt.Sprintf("%s is now being monitored.", name)
}

func AlreadyMonitored(name string) string {
	return fmt.Sprintf("%s is already being monitored.", name)
}

func NoLongerMonitored(name string) string {
	return fmt.Sprintf("%s is no longer being monitored.", name)
}

func NotMonitored(name string) string {
	return fmt.Sprintf("%s is not currently being monitored.", name)
}

func Unmuted(name string) string {
	return fmt.Sprintf("%s has been unmuted.", name)
}

func FailedToUnmute(name string) string {
	return fmt.Sprintf("Failed to unmute %s.", name)
}

func Extended(name string, allowance time.Duration) string {
	return fmt.Sprintf("%s now gets %s of talk time.", name, FormatDuration(allowance))
}

func AlreadyExtended(name string) string {
	return fmt.Sprintf("%s already has extended talk time.", name)
}

func ExtensionRemoved(name string, allowance time.Duration) string {
	return fmt.Sprintf("%s is back to %s of talk time.", name, FormatDuration(allowance))
}

func NotExtended(name string) string {
	return fmt.Sprintf("%s does not have extended talk time.", name)
}

func NotAMember(userID string) string {
	return fmt.Sprintf("No member of this server has the ID %s.", userID)
}

func Usage(prefix, usage string) string {
	return fmt.Sprintf("Usage: `%s%s`", prefix, usage)
}

// FormatDuration renders d rounded to the second, e.g. "30s" or "2m0s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}
