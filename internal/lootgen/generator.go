// Package lootgen decides how many new loot items a session should
// materialize each tick, given how many already lie on the ground and how
// many dogs are out there to find them.
package lootgen

import "math"

// Config is the period/probability pair loaded from lootGeneratorConfig.
type Config struct {
	// Period is how often (in seconds) the probability "resets" to a full
	// period's worth of accumulation.
	Period float64
	// Probability is the per-period chance of generating a loot item per
	// unit of deficit (looters - existing loot).
	Probability float64
}

// Generator tracks elapsed time against the period; only time beyond a
// full period is carried over from one call to the next.
type Generator struct {
	period          float64
	probability     float64
	timeAccumulator float64
}

// New constructs a generator from its config.
func New(cfg Config) *Generator {
	return &Generator{period: cfg.Period, probability: cfg.Probability}
}

// Generate accumulates deltaSeconds of elapsed time and returns how many new
// loot items the caller should materialize this tick, given the current
// loot count and how many dogs ("looters") are in the session.
//
// The accumulator is reduced by the part of the period consumed (ratio *
// period): a call whose accumulated time is under one period consumes all
// of it, and a call past a full period leaves the excess for the next call.
// Each call rounds its count down on its own, so several short ticks can
// yield fewer items than one tick of the same total duration.
func (g *Generator) Generate(deltaSeconds float64, lootCount, looterCount int) int {
	g.timeAccumulator += deltaSeconds

	ratio := g.timeAccumulator / g.period
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}

	probabilityNow := 1 - math.Pow(1-g.probability, ratio)

	deficit := looterCount - lootCount
	generated := 0
	if deficit > 0 {
		generated = int(math.Floor(float64(deficit) * probabilityNow))
		if generated < 0 {
			generated = 0
		}
	}

	g.timeAccumulator -= ratio * g.period

	return generated
}
