// Package loss implements loss criteria as operations on Gorgonia
// graph nodes, so that learners can compile them into their training
// graphs.
package loss

import (
	G "gorgonia.org/gorgonia"
)

// Criterion adds the computation of a scalar loss between a
// prediction-like node and a target-like node to their computational
// graph.
type Criterion func(prediction, target *G.Node) (*G.Node, error)

// MSE returns the mean squared error between prediction and target.
func MSE(prediction, target *G.Node) (*G.Node, error) {
	diff, err := G.Sub(prediction, target)
	if err != nil {
		return nil, err
	}
	squared, err := G.Square(diff)
	if err != nil {
		return nil, err
	}
	return G.Mean(squared)
}

// REINFORCE returns the policy-gradient objective
// -sum(logProb * return), where prediction holds the log
// probabilities of the taken actions and target the discounted
// returns. Gradient descent on this loss is gradient ascent on the
// expected return.
func REINFORCE(prediction, target *G.Node) (*G.Node, error) {
	weighted, err := G.HadamardProd(prediction, target)
	if err != nil {
		return nil, err
	}
	sum, err := G.Sum(weighted)
	if err != nil {
		return nil, err
	}
	return G.Neg(sum)
}
