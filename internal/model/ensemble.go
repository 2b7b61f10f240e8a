package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Node is one node of a regression tree. Leaves have Feature < 0.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Ensemble is a gradient-boosted tree regressor:
// prediction = Init + LearningRate * sum(tree outputs).
type Ensemble struct {
	FeatureNames []string `json:"feature_names"`
	Init         float64  `json:"init"`
	LearningRate float64  `json:"learning_rate"`
	Trees        []Tree   `json:"trees"`
}

// LoadEnsemble reads and validates a JSON artifact.
func LoadEnsemble(path string) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	var e Ensemble
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Validate checks every node reference and feature index.
func (e *Ensemble) Validate() error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrInvalidModel)
	}
	for ti, t := range e.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModel, ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature < 0 {
				continue
			}
			if len(e.FeatureNames) > 0 && n.Feature >= len(e.FeatureNames) {
				return fmt.Errorf("%w: tree %d node %d uses feature %d", ErrInvalidModel, ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("%w: tree %d node %d has bad children", ErrInvalidModel, ti, ni)
			}
		}
	}
	return nil
}

// Predict evaluates the ensemble.
func (e *Ensemble) Predict(_ context.Context, x []float64) (float64, error) {
	if len(e.FeatureNames) > 0 && len(x) != len(e.FeatureNames) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), len(e.FeatureNames))
	}
	sum := 0.0
	for ti, t := range e.Trees {
		v, err := t.eval(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", ti, err)
		}
		sum += v
	}
	out := e.Init + e.LearningRate*sum
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("model produced non-finite output")
	}
	return out, nil
}

func (t Tree) eval(x []float64) (float64, error) {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if n.Feature >= len(x) {
			return 0, fmt.Errorf("%w: feature %d of %d", ErrDimension, n.Feature, len(x))
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
