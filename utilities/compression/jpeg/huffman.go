package jpeg

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/icza/bitio"
)

// dictionaryEntry is one symbol and its Huffman code, written as a string of
// '0' and '1' characters.
type dictionaryEntry struct {
	symbol pair
	code   string
}

type huffmanNode struct {
	frequency int
	// sequence breaks frequency ties so that tree construction doesn't depend
	// on map iteration order.
	sequence int
	symbol   pair
	left     *huffmanNode
	right    *huffmanNode
}

func (node *huffmanNode) isLeaf() bool {
	return node.left == nil && node.right == nil
}

type nodeQueue []*huffmanNode

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].frequency != q[j].frequency {
		return q[i].frequency < q[j].frequency
	}
	return q[i].sequence < q[j].sequence
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*huffmanNode)) }

func (q *nodeQueue) Pop() any {
	old := *q
	last := old[len(old)-1]
	*q = old[:len(old)-1]
	return last
}

func lessSymbol(a, b pair) bool {
	if a.run != b.run {
		return a.run < b.run
	}
	return a.value < b.value
}

// buildDictionary creates the Huffman code of every symbol in `frequencies`.
// The two least frequent nodes are merged repeatedly, the first one taken
// becoming the right child. A lone symbol gets the one-bit code "0".
//
// The result is sorted by code length and then by code.
func buildDictionary(frequencies map[pair]int) []dictionaryEntry {
	symbols := make([]pair, 0, len(frequencies))
	for symbol := range frequencies {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool { return lessSymbol(symbols[i], symbols[j]) })

	if len(symbols) == 0 {
		return nil
	}
	if len(symbols) == 1 {
		return []dictionaryEntry{{symbol: symbols[0], code: "0"}}
	}

	queue := make(nodeQueue, 0, len(symbols))
	for i, symbol := range symbols {
		queue = append(queue, &huffmanNode{
			frequency: frequencies[symbol],
			sequence:  i,
			symbol:    symbol,
		})
	}
	heap.Init(&queue)

	sequence := len(symbols)
	for queue.Len() > 1 {
		right := heap.Pop(&queue).(*huffmanNode)
		left := heap.Pop(&queue).(*huffmanNode)
		heap.Push(&queue, &huffmanNode{
			frequency: left.frequency + right.frequency,
			sequence:  sequence,
			left:      left,
			right:     right,
		})
		sequence++
	}

	entries := make([]dictionaryEntry, 0, len(symbols))
	var walk func(node *huffmanNode, prefix string)
	walk = func(node *huffmanNode, prefix string) {
		if node.isLeaf() {
			entries = append(entries, dictionaryEntry{symbol: node.symbol, code: prefix})
			return
		}
		walk(node.left, prefix+"0")
		walk(node.right, prefix+"1")
	}
	walk(heap.Pop(&queue).(*huffmanNode), "")

	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].code) != len(entries[j].code) {
			return len(entries[i].code) < len(entries[j].code)
		}
		return entries[i].code < entries[j].code
	})
	return entries
}

// writeCode appends the bits of `code` to the stream.
func writeCode(writer *bitio.Writer, code string) error {
	for i := 0; i < len(code); i++ {
		if err := writer.WriteBool(code[i] == '1'); err != nil {
			return err
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////

// decodingTree is a Huffman tree rebuilt purely from a dictionary. Node 0 is
// the root, and a child index of 0 means the child is absent.
type decodingTree struct {
	nodes []decodingNode
}

type decodingNode struct {
	children [2]int
	symbol   pair
	leaf     bool
}

// newDecodingTree follows every code from the root, creating nodes as needed,
// and places the symbol at the node where the code ends.
func newDecodingTree(entries []dictionaryEntry) (*decodingTree, error) {
	tree := &decodingTree{nodes: []decodingNode{{}}}

	for _, entry := range entries {
		if entry.code == "" {
			return nil, fmt.Errorf("symbol (%d, %d) has an empty code", entry.symbol.run, entry.symbol.value)
		}

		current := 0
		for i := 0; i < len(entry.code); i++ {
			if tree.nodes[current].leaf {
				return nil, fmt.Errorf("code %q extends the code of another symbol", entry.code)
			}

			bit := int(entry.code[i] - '0')
			next := tree.nodes[current].children[bit]
			if next == 0 {
				next = len(tree.nodes)
				tree.nodes = append(tree.nodes, decodingNode{})
				tree.nodes[current].children[bit] = next
			}
			current = next
		}

		node := &tree.nodes[current]
		if node.leaf || node.children != [2]int{} {
			return nil, fmt.Errorf("code %q is a prefix of or equal to another code", entry.code)
		}
		node.leaf = true
		node.symbol = entry.symbol
	}
	return tree, nil
}

// decode reads bits until it reaches a symbol. `bitsRead` is incremented for
// every bit consumed.
func (tree *decodingTree) decode(reader *bitio.Reader, bitsRead *int) (pair, error) {
	current := 0
	for {
		bit, err := reader.ReadBool()
		if err != nil {
			return pair{}, fmt.Errorf("bitstream ended in the middle of a code: %w", err)
		}
		*bitsRead++

		index := 0
		if bit {
			index = 1
		}
		current = tree.nodes[current].children[index]
		if current == 0 {
			return pair{}, fmt.Errorf("bit sequence has no code after %d bits", *bitsRead)
		}
		if tree.nodes[current].leaf {
			return tree.nodes[current].symbol, nil
		}
	}
}
