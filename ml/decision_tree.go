package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted binary tree stored as a flat node array with the
// root at index 0.
type DecisionTree struct {
	nodes []TreeNode
}

type TreeNode struct {
	FeatureIdx int        `json:"feature_idx"`
	Threshold  float64    `json:"threshold"`
	LeftChild  int        `json:"left_child"`
	RightChild int        `json:"right_child"`
	IsLeaf     bool       `json:"is_leaf"`
	Value      [2]float64 `json:"value"`
}

// NewDecisionTree validates the node layout and normalises leaf values
// (class counts or probabilities) into probabilities.
func NewDecisionTree(nodes []TreeNode) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	normalized := make([]TreeNode, len(nodes))
	for i, node := range nodes {
		if node.IsLeaf {
			total := node.Value[0] + node.Value[1]
			if node.Value[0] < 0 || node.Value[1] < 0 || total <= 0 {
				return nil, fmt.Errorf("leaf %d has invalid class values %v", i, node.Value)
			}
			node.Value = [2]float64{node.Value[0] / total, node.Value[1] / total}
			normalized[i] = node
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= RecordWidth {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		// children always come after their parent, which also rules out cycles
		if node.LeftChild <= i || node.LeftChild >= len(nodes) ||
			node.RightChild <= i || node.RightChild >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid children %d/%d", i, node.LeftChild, node.RightChild)
		}
		normalized[i] = node
	}
	return &DecisionTree{nodes: normalized}, nil
}

func (dt *DecisionTree) PredictProba(features [RecordWidth]float64) ([2]float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return [2]float64{}, err
	}
	return leaf.Value, nil
}

func (dt *DecisionTree) Predict(features [RecordWidth]float64) (int, error) {
	proba, err := dt.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return labelFromProba(proba), nil
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (dt *DecisionTree) Depth() int {
	var walk func(idx int) int
	walk = func(idx int) int {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return 0
		}
		return 1 + max(walk(node.LeftChild), walk(node.RightChild))
	}
	return walk(0)
}

func (dt *DecisionTree) leaf(features [RecordWidth]float64) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not loaded")
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
}
