package handler

import (
	"context"

	"github.com/glizzus/hush/internal/presenters"
)

var PingCommand = &Command{
	Name:        "ping",
	Usage:       "ping",
	Description: "Check that the bot is alive.",
	Handler: func(ctx context.Context, req *Request) error {
		return req.Reply(presenters.Pong)
	},
}
