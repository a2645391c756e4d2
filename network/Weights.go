package network

import (
	"encoding/gob"
	"fmt"
	"io"

	G "gorgonia.org/gorgonia"
)

// nodeState is the serialized form of a single learnable node
type nodeState struct {
	Name  string
	Shape []int
	Data  []float64
}

// Set sets the weights of dest to be equal to the weights of source.
// The two networks must have the same architecture, but may have
// different batch sizes. Weights are copied in place so that any VM
// compiled from dest remains valid.
func Set(dest, source NeuralNet) error {
	if err := CopyNodes(dest.Learnables(), source.Learnables()); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return nil
}

// CopyNodes copies the values of the source nodes into the values of
// the dest nodes in place. Nodes are matched by position. Every pair of
// nodes is checked before any value is copied.
func CopyNodes(dest, source G.Nodes) error {
	if len(dest) != len(source) {
		return fmt.Errorf("copyNodes: cannot copy %d nodes into %d nodes",
			len(source), len(dest))
	}

	destData := make([][]float64, len(dest))
	sourceData := make([][]float64, len(source))
	for i := range dest {
		var err error
		if destData[i], err = nodeData(dest[i]); err != nil {
			return err
		}
		if sourceData[i], err = nodeData(source[i]); err != nil {
			return err
		}

		if len(destData[i]) != len(sourceData[i]) {
			return fmt.Errorf("copyNodes: node %v has %d values, cannot "+
				"copy %d values from node %v", dest[i].Name(),
				len(destData[i]), len(sourceData[i]), source[i].Name())
		}
	}

	for i := range destData {
		copy(destData[i], sourceData[i])
	}
	return nil
}

// Save writes the values of nodes to w
func Save(w io.Writer, nodes G.Nodes) error {
	states := make([]nodeState, len(nodes))
	for i, node := range nodes {
		data, err := nodeData(node)
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}
		states[i] = nodeState{
			Name:  node.Name(),
			Shape: append([]int(nil), node.Shape()...),
			Data:  data,
		}
	}

	if err := gob.NewEncoder(w).Encode(states); err != nil {
		return fmt.Errorf("save: could not encode weights: %w", err)
	}
	return nil
}

// Snapshot holds weights read by Decode which have been checked
// against the nodes they will be restored into
type Snapshot struct {
	dest   [][]float64
	states []nodeState
}

// Decode reads values written by Save from r and checks them against
// nodes without modifying the nodes. The number of nodes and the shape
// of each node must match what was saved.
func Decode(r io.Reader, nodes G.Nodes) (*Snapshot, error) {
	var states []nodeState
	if err := gob.NewDecoder(r).Decode(&states); err != nil {
		return nil, fmt.Errorf("decode: could not decode weights: %w", err)
	}

	if len(states) != len(nodes) {
		return nil, fmt.Errorf("decode: illegal number of saved nodes"+
			"\n\twant(%d)\n\thave(%d)", len(nodes), len(states))
	}

	dest := make([][]float64, len(nodes))
	for i, node := range nodes {
		if !sameShape(node.Shape(), states[i].Shape) {
			return nil, fmt.Errorf("decode: illegal shape for node %v"+
				"\n\twant(%v)\n\thave(%v)", node.Name(), node.Shape(),
				states[i].Shape)
		}

		data, err := nodeData(node)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		if len(data) != len(states[i].Data) {
			return nil, fmt.Errorf("decode: node %v has %d values, %d "+
				"were saved", node.Name(), len(data), len(states[i].Data))
		}
		dest[i] = data
	}

	return &Snapshot{dest: dest, states: states}, nil
}

// Restore copies the decoded weights into the nodes given to Decode
func (s *Snapshot) Restore() {
	for i := range s.dest {
		copy(s.dest[i], s.states[i].Data)
	}
}

// Load reads values written by Save from r and copies them into nodes
// in place. If any saved node does not match, the nodes are left
// unchanged.
func Load(r io.Reader, nodes G.Nodes) error {
	snapshot, err := Decode(r, nodes)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	snapshot.Restore()
	return nil
}

// nodeData returns the backing float64 data of the value bound to a
// node
func nodeData(n *G.Node) ([]float64, error) {
	if n.Value() == nil {
		return nil, fmt.Errorf("node %v has no value", n.Name())
	}

	data, ok := n.Value().Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("node %v does not hold float64 tensor data",
			n.Name())
	}
	return data, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
