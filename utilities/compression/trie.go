package compression

// MaxCode is the largest value a 16-bit dictionary code can take. Dictionary
// codecs never hand it out as an entry; instead it's emitted on its own to mark
// that the dictionary was reset.
const MaxCode = 0x7FFF

// Trie maps byte sequences to integer codes. Nodes are stored in a flat arena
// and addressed by index; index 0 is the root, which matches the empty
// sequence. Resetting drops the whole arena at once.
type Trie struct {
	symbols  []byte
	codes    []int
	children map[int]int
}

// NodeID identifies a node in a [Trie].
type NodeID = int

// Root is the [NodeID] of the root of every [Trie].
const Root NodeID = 0

// NewTrie creates a trie containing only the root, whose code is 0.
func NewTrie() *Trie {
	trie := &Trie{}
	trie.Reset()
	return trie
}

// NewByteTrie creates a trie whose root has one child for every possible byte,
// each child's code being the byte value itself.
func NewByteTrie() *Trie {
	trie := NewTrie()
	trie.ResetToBytes()
	return trie
}

// Reset discards every node except the root.
func (trie *Trie) Reset() {
	trie.symbols = []byte{0}
	trie.codes = []int{0}
	trie.children = make(map[int]int)
}

// ResetToBytes discards every node and then adds the 256 single-byte children
// of the root.
func (trie *Trie) ResetToBytes() {
	trie.Reset()
	for i := 0; i < 256; i++ {
		trie.AddChild(Root, byte(i), i)
	}
}

// Child returns the child of `node` reached with `symbol`, if there is one.
func (trie *Trie) Child(node NodeID, symbol byte) (NodeID, bool) {
	child, ok := trie.children[edgeKey(node, symbol)]
	return child, ok
}

// AddChild creates a child of `node` for `symbol` with the given code and
// returns it. The caller must ensure the child doesn't already exist.
func (trie *Trie) AddChild(node NodeID, symbol byte, code int) NodeID {
	child := len(trie.codes)
	trie.symbols = append(trie.symbols, symbol)
	trie.codes = append(trie.codes, code)
	trie.children[edgeKey(node, symbol)] = child
	return child
}

// Code returns the code associated with `node`.
func (trie *Trie) Code(node NodeID) int {
	return trie.codes[node]
}

// Symbol returns the byte on the edge leading to `node`. It's 0 for the root.
func (trie *Trie) Symbol(node NodeID) byte {
	return trie.symbols[node]
}

// Len returns the number of nodes in the trie, including the root.
func (trie *Trie) Len() int {
	return len(trie.codes)
}

func edgeKey(node NodeID, symbol byte) int {
	return node<<8 | int(symbol)
}
