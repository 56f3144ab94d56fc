// Package schedule provides time-based building blocks for the moderator.
//
// Clock abstracts the wall clock so tests can drive time by hand.
// Timers keeps cancellable one-shot timers keyed by an id.
// Cron functions validate cron expressions, compute upcoming run times and
// run periodic jobs.
package schedule
