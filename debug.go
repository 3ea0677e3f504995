package nodegl

import "time"

// FrameStats holds per-frame timings. Only populated in debug mode.
type FrameStats struct {
	CheckTime  time.Duration
	UpdateTime time.Duration
	DrawTime   time.Duration
	Nodes      int
}

// Stats returns the timings of the last frame drawn in debug mode.
func (c *Context) Stats() FrameStats { return c.stats }

// debugLog logs timing stats at INFO so they show with the default level.
func (c *Context) debugLog(stats FrameStats) {
	total := stats.CheckTime + stats.UpdateTime + stats.DrawTime
	c.logf(LogInfo, "frame %d: check: %v | update: %v | draw: %v | total: %v | nodes: %d",
		c.frame, stats.CheckTime, stats.UpdateTime, stats.DrawTime, total, stats.Nodes)
}

// debugCheckGraphDepth warns if the attach walk goes deeper than the
// threshold.
const debugMaxGraphDepth = 32

func debugCheckGraphDepth(c *Context, n *Node, depth int) {
	if depth == debugMaxGraphDepth+1 {
		c.logf(LogWarning, "graph depth %d exceeds %d (node %s)", depth, debugMaxGraphDepth, n.name)
	}
}

// debugCheckListLen warns if a node list grows past the threshold.
const debugMaxListLen = 1000

func debugCheckListLen(n *Node, par *Param) {
	if par.Type != ParamNodeList {
		return
	}
	if l := len(*par.field(n.priv).(*[]*Node)); l > debugMaxListLen {
		n.logf(LogWarning, "%q has %d nodes (threshold %d)", par.Key, l, debugMaxListLen)
	}
}
