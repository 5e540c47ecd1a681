package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raharth/gomatch/environment"
	"github.com/raharth/gomatch/environment/cartpole"
	"github.com/raharth/gomatch/learner"
	"github.com/raharth/gomatch/policy"
)

var (
	alpha        float64
	tau          float64
	epsilon      float64
	temperature  float64
	selectorName string
)

func qlearnCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qlearn",
		Short: "Train a Q-learner on cartpole",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := cartpole.New(maxSteps, uint64(seed))

			selector, err := newQSelector(env)
			if err != nil {
				return err
			}

			sizes, biases, activations := architecture()
			init, err := newInit()
			if err != nil {
				return err
			}
			sol, err := newSolver()
			if err != nil {
				return err
			}

			q, err := learner.NewQLearner(env, learner.QLearnerConfig{
				HiddenSizes: sizes,
				Biases:      biases,
				Activations: activations,
				InitWFn:     init,
				Solver:      sol,
				Capacity:    capacity,
				NSamples:    nSamples,
				BatchSize:   batchSize,
				Gamma:       gamma,
				Alpha:       alpha,
				Tau:         tau,
				Selector:    selector,
			}, seed)
			if err != nil {
				return err
			}
			return train(q)
		},
	}

	cmd.Flags().Float64Var(&alpha, "alpha", 0.1,
		"Step size of the soft TD target update")
	cmd.Flags().Float64Var(&tau, "tau", 1.0,
		"Value network tracking rate, 1 copies weights")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 0.9,
		"Probability of the greedy action for the egreedy selector")
	cmd.Flags().Float64Var(&temperature, "temperature", 1.0,
		"Temperature of the softmax selector")
	cmd.Flags().StringVar(&selectorName, "selector", "egreedy",
		"Action selector: egreedy, softmax or greedy")

	return cmd
}

func newQSelector(env environment.Environment) (policy.Selector, error) {
	switch selectorName {
	case "egreedy":
		return policy.NewEGreedy(environment.Actions(env), epsilon, seed)
	case "softmax":
		return policy.NewSoftmaxQ(temperature, seed)
	case "greedy":
		return policy.NewGreedy(), nil
	}
	return nil, fmt.Errorf("no such selector %q", selectorName)
}
