package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/glizzus/hush/internal/config"
	"github.com/glizzus/hush/internal/events"
	"github.com/glizzus/hush/internal/moderation"
	"github.com/glizzus/hush/internal/presenters"
	"github.com/glizzus/hush/internal/schedule"
)

// simulateMutes returns the duration of each mute in a run of offences,
// where gaps[i] is the time between the end of mute i and the start of
// mute i+1.
func simulateMutes(e moderation.Escalator, gaps []time.Duration) []time.Duration {
	now := time.Unix(0, 0).UTC()
	var (
		record  moderation.MuteRecord
		hasPrev bool
	)

	durations := make([]time.Duration, 0, len(gaps)+1)
	for i := 0; i <= len(gaps); i++ {
		if i > 0 {
			now = now.Add(gaps[i-1])
		}
		d := e.Next(record, hasPrev, now)
		durations = append(durations, d)

		now = now.Add(d)
		record = moderation.MuteRecord{Duration: d, LastMute: now}
		hasPrev = true
	}
	return durations
}

func main() {
	if err := config.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	app := &cli.App{
		Name:        "hush-cli",
		Description: "A development CLI tool for inspecting hush without Discord",
		Commands: []*cli.Command{
			{
				Name:      "escalate",
				Usage:     "Print the mute durations for a run of offences",
				ArgsUsage: "[gap between unmute and next mute]...",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "base",
						Usage: "Duration of a first mute",
						Value: 30 * time.Second,
					},
					&cli.DurationFlag{
						Name:  "threshold",
						Usage: "Window after an unmute in which the next mute doubles",
						Value: time.Minute,
					},
				},
				Action: func(c *cli.Context) error {
					gaps := make([]time.Duration, 0, c.NArg())
					for _, arg := range c.Args().Slice() {
						gap, err := time.ParseDuration(arg)
						if err != nil {
							return cli.Exit("Invalid gap: "+err.Error(), 1)
						}
						gaps = append(gaps, gap)
					}

					e := moderation.Escalator{Base: c.Duration("base"), Threshold: c.Duration("threshold")}
					for i, d := range simulateMutes(e, gaps) {
						if i == 0 {
							fmt.Printf("mute %d: %s\n", i+1, presenters.FormatDuration(d))
							continue
						}
						fmt.Printf("mute %d (after %s): %s\n", i+1, gaps[i-1], presenters.FormatDuration(d))
					}
					return nil
				},
			},
			{
				Name:  "events",
				Usage: "List the newest moderation events from the Redis stream",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "count",
						Usage: "Number of events to show",
						Value: 20,
					},
				},
				Action: func(c *cli.Context) error {
					redisConfig, err := config.NewRedisConfigFromEnv()
					if err != nil {
						return cli.Exit("Failed to load redis config: "+err.Error(), 1)
					}
					if !redisConfig.Enabled() {
						return cli.Exit("REDIS_ADDR is not set", 1)
					}

					rdb := redis.NewClient(&redis.Options{
						Addr:     redisConfig.Addr,
						Password: redisConfig.Password,
					})
					defer rdb.Close()

					recent, err := events.ReadRecent(c.Context, rdb, redisConfig.Stream, c.Int64("count"))
					if err != nil {
						return cli.Exit("Failed to read events: "+err.Error(), 1)
					}
					if len(recent) == 0 {
						log.Println("No moderation events found.")
						return nil
					}
					for _, e := range recent {
						fmt.Printf("%s  %-15s %s (%s) %s %s\n",
							e.At.Format(time.RFC3339), e.Kind, e.Name, e.UserID,
							presenters.FormatDuration(e.Duration), e.Reason)
					}
					return nil
				},
			},
			{
				Name:  "schedule",
				Usage: "Print the next run times of the record pruning job",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "cron",
						Usage:   "Cron expression to evaluate",
						Value:   "*/10 * * * *",
						EnvVars: []string{"PRUNE_SCHEDULE"},
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of run times to show",
						Value: 5,
					},
				},
				Action: func(c *cli.Context) error {
					times, err := schedule.NextRunTimes(c.String("cron"), c.Int("count"))
					if err != nil {
						return cli.Exit("Invalid schedule: "+err.Error(), 1)
					}
					for _, t := range times {
						fmt.Println(t.Format(time.RFC3339))
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
