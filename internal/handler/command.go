package handler

import (
	"context"
	"fmt"
	"strings"
)

// HelpCommand lists the commands registered on router.
func HelpCommand(router *Router) *Command {
	return &Command{
		Name:        "help",
		Usage:       "help",
		Description: "List the available commands.",
		Handler: func(ctx context.Context, req *Request) error {
			var b strings.Builder
			b.WriteString("**Commands**\n")
			for _, cmd := range router.Commands() {
				fmt.Fprintf(&b, "`%s%s` %s\n", router.Prefix(), cmd.Usage, cmd.Description)
			}
			return req.Reply(strings.TrimSuffix(b.String(), "\n"))
		},
	}
}

// NewCommandRouter builds the router with every command the bot answers.
func NewCommandRouter(prefix string, mc *ModerationCommands) *Router {
	router := NewRouter(prefix)
	router.Register(PingCommand)
	router.Register(mc.Commands()...)
	router.Register(HelpCommand(router))
	return router
}
