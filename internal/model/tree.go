package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// treeNode is one node of a CART regression tree. Leaves carry the mean
// target of their samples.
type treeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Value     float64   `json:"value"`
	Leaf      bool      `json:"leaf"`
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// regressionTree grows a variance-minimizing binary tree.
type regressionTree struct {
	Root            *treeNode `json:"root"`
	MaxDepth        int       `json:"maxDepth"`
	MinSamplesSplit int       `json:"minSamplesSplit"`
}

func (t *regressionTree) fit(X *mat.Dense, y []float64, sampleIdx []int) {
	t.Root = t.grow(X, y, sampleIdx, 0)
}

func (t *regressionTree) grow(X *mat.Dense, y []float64, idx []int, depth int) *treeNode {
	node := &treeNode{Value: meanAt(y, idx), Leaf: true}
	if depth >= t.MaxDepth || len(idx) < t.MinSamplesSplit || pureAt(y, idx) {
		return node
	}

	bestFeature, bestThreshold, found := t.bestSplit(X, y, idx)
	if !found {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X.At(i, bestFeature) <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	node.Leaf = false
	node.Feature = bestFeature
	node.Threshold = bestThreshold
	node.Left = t.grow(X, y, left, depth+1)
	node.Right = t.grow(X, y, right, depth+1)
	return node
}

// bestSplit scans every feature for the threshold that minimizes the weighted
// sum of child variances, using running sums over the sorted column.
func (t *regressionTree) bestSplit(X *mat.Dense, y []float64, idx []int) (int, float64, bool) {
	_, cols := X.Dims()
	n := float64(len(idx))

	var totalSum, totalSqSum float64
	for _, i := range idx {
		totalSum += y[i]
		totalSqSum += y[i] * y[i]
	}

	bestScore := totalSqSum - totalSum*totalSum/n // parent SSE
	var bestFeature int
	var bestThreshold float64
	found := false

	order := make([]int, len(idx))
	for f := 0; f < cols; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return X.At(order[a], f) < X.At(order[b], f)
		})

		var leftSum, leftSqSum float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			leftSum += y[i]
			leftSqSum += y[i] * y[i]

			cur, next := X.At(i, f), X.At(order[k+1], f)
			if cur == next {
				continue
			}

			nl := float64(k + 1)
			nr := n - nl
			rightSum := totalSum - leftSum
			rightSqSum := totalSqSum - leftSqSum

			score := (leftSqSum - leftSum*leftSum/nl) + (rightSqSum - rightSum*rightSum/nr)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func pureAt(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}
