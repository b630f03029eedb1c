package service

import (
	"math"
	"time"
)

// GateConfig controls synchronization admission for one deployment.
// Values are injected at construction — components never read ambient
// configuration mid-call.
type GateConfig struct {
	Cooldown   time.Duration // minimum gap between two runs of one profile
	MaxPerHour int           // runs allowed in any trailing one-hour window
}

// DefaultGateConfig allows a sync every 5 minutes, at most 6 per hour.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Cooldown:   5 * time.Minute,
		MaxPerHour: 6,
	}
}

// GateDecision is the outcome of an admission check. RetryAfter is the
// suggested wait in whole seconds, set only on denial, never below 1.
type GateDecision struct {
	Allowed    bool
	RetryAfter int
}

// Gatekeeper decides whether a profile may start a new synchronization run,
// given its run history. It is a pure decision rule: it holds no state of
// its own and provides no mutual exclusion — two requests racing past the
// check may both proceed, which is why the day-replace step is transactional.
type Gatekeeper struct {
	cfg GateConfig
}

func NewGatekeeper(cfg GateConfig) *Gatekeeper {
	return &Gatekeeper{cfg: cfg}
}

// Check evaluates the admission rules in order:
//
//  1. Cooldown: if the most recent run (any status) started less than
//     Cooldown ago, deny with the remaining wait.
//  2. Hourly quota: if the trailing one-hour window already holds
//     MaxPerHour runs, deny until the oldest windowed run ages out.
//
// lastRun is the profile's most recent run start (nil = never synced);
// runsInLastHour counts runs started in the trailing hour, and
// oldestInWindow is the earliest of them (nil if no record is available,
// in which case the quota denial falls back to a full-hour wait).
// All timestamps are normalized to UTC before comparison.
func (g *Gatekeeper) Check(now time.Time, lastRun *time.Time, runsInLastHour int, oldestInWindow *time.Time) GateDecision {
	now = now.UTC()

	if g.cfg.Cooldown > 0 && lastRun != nil {
		elapsed := now.Sub(lastRun.UTC())
		if elapsed < g.cfg.Cooldown {
			return deny(g.cfg.Cooldown - elapsed)
		}
	}

	if g.cfg.MaxPerHour > 0 && runsInLastHour >= g.cfg.MaxPerHour {
		if oldestInWindow == nil {
			return GateDecision{RetryAfter: 3600}
		}
		age := now.Sub(oldestInWindow.UTC())
		return deny(time.Hour - age)
	}

	return GateDecision{Allowed: true}
}

func deny(wait time.Duration) GateDecision {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return GateDecision{RetryAfter: seconds}
}
