package decoder

import "sort"

// rootSymbol marks the trie root, which emits no symbol.
const rootSymbol = -1

// pathTrie is one node of the prefix trie. A node represents the decoded
// text formed by the symbols on its root path; many CTC alignments share one
// node. Ownership flows strictly parent->children through the children map;
// the parent field is a non-owning back-reference used for path
// reconstruction and pruning bookkeeping only.
type pathTrie struct {
	symbol   int
	timestep int
	parent   *pathTrie
	children map[int]*pathTrie

	// alive marks the node as an extendable hypothesis. Pruned nodes with
	// surviving descendants stay in the trie with alive=false until their
	// last descendant is released.
	alive bool

	// Alignment mass split by how the alignment ends at this node: via a
	// blank, or via a non-blank emission of the node's own symbol. The
	// *Prev pair is the state entering the current timestep, the *Cur pair
	// accumulates during it.
	logProbB     float64
	logProbNB    float64
	logProbBCur  float64
	logProbNBCur float64

	// score is logSumExp(logProbB, logProbNB); language-model contributions
	// are already folded into the non-blank mass when extensions are scored.
	score float64
}

// newPathTrieRoot returns a root representing the empty prefix with
// probability one.
func newPathTrieRoot() *pathTrie {
	return &pathTrie{
		symbol:       rootSymbol,
		timestep:     0,
		children:     make(map[int]*pathTrie),
		alive:        true,
		logProbB:     0,
		logProbNB:    logZero,
		logProbBCur:  logZero,
		logProbNBCur: logZero,
		score:        0,
	}
}

// getChild returns the child representing this prefix extended by symbol,
// creating or reviving it as needed. Two alignments that collapse to the
// same text always land on the same node, which is what merges them.
func (p *pathTrie) getChild(symbol, timestep int) *pathTrie {
	if child, ok := p.children[symbol]; ok {
		if !child.alive {
			// revived after an earlier prune; starts with no mass
			child.alive = true
			child.timestep = timestep
			child.logProbB = logZero
			child.logProbNB = logZero
			child.logProbBCur = logZero
			child.logProbNBCur = logZero
			child.score = logZero
		}
		return child
	}
	child := &pathTrie{
		symbol:       symbol,
		timestep:     timestep,
		parent:       p,
		children:     make(map[int]*pathTrie),
		alive:        true,
		logProbB:     logZero,
		logProbNB:    logZero,
		logProbBCur:  logZero,
		logProbNBCur: logZero,
		score:        logZero,
	}
	p.children[symbol] = child
	return child
}

// promote folds the current-timestep accumulators into the entering state
// and appends every alive node to out. Called once per timestep after all
// expansions. Children are visited in symbol order so collection order, and
// with it tie-breaking in the beam sort, is deterministic.
func (p *pathTrie) promote(out *[]*pathTrie) {
	if p.alive {
		p.logProbB = p.logProbBCur
		p.logProbNB = p.logProbNBCur
		p.logProbBCur = logZero
		p.logProbNBCur = logZero
		p.score = logSumExp(p.logProbB, p.logProbNB)
		*out = append(*out, p)
	}
	if len(p.children) == 0 {
		return
	}
	symbols := make([]int, 0, len(p.children))
	for sym := range p.children {
		symbols = append(symbols, sym)
	}
	sort.Ints(symbols)
	for _, sym := range symbols {
		p.children[sym].promote(out)
	}
}

// release removes the node from the beam. Nodes without live descendants
// are unlinked from their parent, and the unlink cascades up through dead
// ancestors, bounding trie memory to the union of alive paths.
func (p *pathTrie) release() {
	p.alive = false
	node := p
	for !node.alive && len(node.children) == 0 && node.parent != nil {
		parent := node.parent
		delete(parent.children, node.symbol)
		node.parent = nil
		node = parent
	}
}

// pathVec reconstructs the symbol sequence and per-symbol timesteps on the
// path from the root to p, in emission order.
func (p *pathTrie) pathVec() (symbols, timesteps []int) {
	n := 0
	for node := p; node.symbol != rootSymbol; node = node.parent {
		n++
	}
	symbols = make([]int, n)
	timesteps = make([]int, n)
	for node := p; node.symbol != rootSymbol; node = node.parent {
		n--
		symbols[n] = node.symbol
		timesteps[n] = node.timestep
	}
	return symbols, timesteps
}

// liveDescendants counts alive nodes in the subtree rooted at p, excluding
// p itself. Used by tests to check the pruning invariant.
func (p *pathTrie) liveDescendants() int {
	n := 0
	for _, child := range p.children {
		if child.alive {
			n++
		}
		n += child.liveDescendants()
	}
	return n
}
