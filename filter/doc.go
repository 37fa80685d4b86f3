// Package filter compiles expr-lang expressions into predicates over osu!
// scores and feed events.
//
//	c := filter.NewCompiler(filter.WithCache(100))
//	f, err := c.Compile(`PP > 300 and hasMod("HD") and Rank in ["S", "SH", "X", "XH"]`)
//	top, err := filter.Select(f, "", scores, filter.ScoreEnv)
package filter
