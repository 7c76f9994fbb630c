package fixpoint

import (
	"errors"

	"github.com/cs-au-dk/gaia/analysis/cfg"
	L "github.com/cs-au-dk/gaia/analysis/lattice"
)

var (
	errUnknownStrategy  = errors.New("unknown iteration strategy")
	errUnknownComponent = errors.New("unknown component type")
)

// Analysis supplies the semantic content of a fixpoint computation. The
// iterator owns ordering and stabilization, the analysis owns transfer
// functions and whatever bookkeeping it wants to attach to the traversal.
type Analysis interface {
	// AnalyzeNode transforms the state at the entry of a node into the
	// state at its exit.
	AnalyzeNode(n cfg.Node, pre L.Element) L.Element
	// AnalyzeEdge transforms the state flowing along the edge from src to
	// dst, e.g. by filtering against the branch condition.
	AnalyzeEdge(src, dst cfg.Node, post L.Element) L.Element
	// ProcessPost is invoked every time the post state of a node has been
	// (re)computed.
	ProcessPost(n cfg.Node, post L.Element)
	// EnterCycle and LeaveCycle bracket the stabilization of the cycle
	// headed by the given node. CycleIteration is invoked at the start of
	// every increasing or decreasing pass over the cycle.
	EnterCycle(head cfg.Node)
	CycleIteration(head cfg.Node, iteration uint, kind IterationKind)
	LeaveCycle(head cfg.Node)
	// Threshold provides the extrapolation threshold for the cycle headed
	// by the given node, if one is known.
	Threshold(head cfg.Node) (L.FiniteBound, bool)
}

// Iterator computes a fixpoint of an analysis over one function body,
// visiting nodes in weak topological order and interleaving an increasing
// phase with a decreasing phase at every cycle head.
type Iterator struct {
	body *cfg.Body
	wto  WTO
	an   Analysis
	opts Options
	bot  L.Element

	pre  map[cfg.Node]L.Element
	post map[cfg.Node]L.Element
}

// NewIterator prepares a fixpoint iterator for the given body. The bot
// element seeds the joins over incoming edges and doubles as the state of
// nodes the analysis never reached.
func NewIterator(body *cfg.Body, an Analysis, opts Options, bot L.Element) *Iterator {
	return &Iterator{
		body: body,
		wto:  Build(body),
		an:   an,
		opts: opts,
		bot:  bot,
		pre:  make(map[cfg.Node]L.Element),
		post: make(map[cfg.Node]L.Element),
	}
}

func (it *Iterator) Body() *cfg.Body {
	return it.body
}

func (it *Iterator) WTO() WTO {
	return it.wto
}

// Pre returns the state at the entry of n, or bottom if n was never reached.
func (it *Iterator) Pre(n cfg.Node) L.Element {
	if state, found := it.pre[n]; found {
		return state
	}
	return it.bot
}

// Post returns the state at the exit of n, or bottom if n was never reached.
func (it *Iterator) Post(n cfg.Node) L.Element {
	if state, found := it.post[n]; found {
		return state
	}
	return it.bot
}

// ClearPre releases the entry states.
func (it *Iterator) ClearPre() {
	it.pre = make(map[cfg.Node]L.Element)
}

// ClearPost releases the exit states.
func (it *Iterator) ClearPost() {
	it.post = make(map[cfg.Node]L.Element)
}

// Run computes the fixpoint from the given state at the body entry.
func (it *Iterator) Run(init L.Element) {
	it.pre[it.body.Entry()] = init
	for _, comp := range it.wto.Components() {
		it.analyzeComponent(comp)
	}
}

func (it *Iterator) analyzeComponent(comp Component) {
	switch c := comp.(type) {
	case Vertex:
		it.analyzeVertex(c.Node)
	case *Cycle:
		it.analyzeCycle(c)
	default:
		panic(errUnknownComponent)
	}
}

// boundary joins the states flowing into n over every incoming edge
// accepted by the filter. A nil filter accepts all edges.
func (it *Iterator) boundary(n cfg.Node, filter func(cfg.Node) bool) L.Element {
	state := it.bot
	for _, pred := range n.Predecessors() {
		if filter != nil && !filter(pred) {
			continue
		}
		state = state.Join(it.an.AnalyzeEdge(pred, n, it.Post(pred)))
	}
	return state
}

func (it *Iterator) analyzeVertex(n cfg.Node) {
	var pre L.Element
	if n == it.body.Entry() {
		pre = it.Pre(n)
	} else {
		pre = it.boundary(n, nil)
		it.pre[n] = pre
	}

	post := it.an.AnalyzeNode(n, pre)
	it.post[n] = post
	it.an.ProcessPost(n, post)
}

func (it *Iterator) analyzeCycle(c *Cycle) {
	head := c.Head()

	// The cycle is entered with the state flowing in from outside it.
	pre := it.boundary(head, func(pred cfg.Node) bool {
		return !c.Contains(pred)
	})

	it.an.EnterCycle(head)

	for iteration := uint(1); ; iteration++ {
		it.an.CycleIteration(head, iteration, Increasing)
		it.stabilizePass(head, c, pre)

		newPre := it.boundary(head, nil)
		if newPre.Leq(pre) {
			// Increasing phase reached a post fixpoint.
			pre = newPre
			break
		}
		pre = it.extrapolate(head, iteration, pre, newPre)
	}

	for iteration := uint(1); ; iteration++ {
		it.an.CycleIteration(head, iteration, Decreasing)
		it.stabilizePass(head, c, pre)

		newPre := it.boundary(head, nil)
		if it.isDecreasingFixpoint(iteration, pre, newPre) {
			break
		}
		pre = it.refine(head, iteration, pre, newPre)
	}

	it.an.LeaveCycle(head)
}

// stabilizePass propagates the candidate head state through the entire
// cycle once.
func (it *Iterator) stabilizePass(head cfg.Node, c *Cycle, pre L.Element) {
	it.pre[head] = pre
	post := it.an.AnalyzeNode(head, pre)
	it.post[head] = post
	it.an.ProcessPost(head, post)

	for _, comp := range c.Components() {
		it.analyzeComponent(comp)
	}
}

// extrapolate computes the next candidate state of a cycle head during the
// increasing phase: an exact iteration join for the first LoopIterations
// passes, and the widening strategy afterwards. A known threshold is
// applied on the first extrapolation step only.
func (it *Iterator) extrapolate(head cfg.Node, iteration uint, before, after L.Element) L.Element {
	if iteration <= it.opts.LoopIterations {
		return before.JoinIter(after)
	}

	switch it.opts.Widening {
	case WideningWiden:
		if iteration == it.opts.LoopIterations+1 {
			if tau, found := it.an.Threshold(head); found {
				return before.WidenThreshold(after, tau)
			}
		}
		return before.Widen(after)
	case WideningJoin:
		return before.JoinIter(after)
	default:
		panic(errUnknownStrategy)
	}
}

// refine computes the next candidate state of a cycle head during the
// decreasing phase. A known threshold is applied on the first refinement
// step only.
func (it *Iterator) refine(head cfg.Node, iteration uint, before, after L.Element) L.Element {
	switch it.opts.Narrowing {
	case NarrowingNarrow:
		if iteration == 1 {
			if tau, found := it.an.Threshold(head); found {
				return before.NarrowThreshold(after, tau)
			}
		}
		return before.Narrow(after)
	case NarrowingMeet:
		return before.Meet(after)
	default:
		panic(errUnknownStrategy)
	}
}

// isDecreasingFixpoint decides termination of the decreasing phase: either
// the configured iteration budget is exhausted, or refinement can make no
// further progress.
func (it *Iterator) isDecreasingFixpoint(iteration uint, before, after L.Element) bool {
	if limit := it.opts.NarrowingIterations; limit != nil && iteration >= *limit {
		return true
	}
	return before.Leq(after)
}
