package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raharth/gomatch/environment/cartpole"
	"github.com/raharth/gomatch/learner"
	"github.com/raharth/gomatch/policy"
)

var ensembleSize int

func pgCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pg",
		Short: "Train a REINFORCE policy-gradient learner on cartpole",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := cartpole.New(maxSteps, uint64(seed))

			sizes, biases, activations := architecture()
			init, err := newInit()
			if err != nil {
				return err
			}
			sol, err := newSolver()
			if err != nil {
				return err
			}

			var selector policy.Selector
			if ensembleSize > 1 {
				selector, err = policy.NewEnsemble(ensembleSize, seed)
				if err != nil {
					return fmt.Errorf("could not create ensemble "+
						"selector: %v", err)
				}
			}

			pg, err := learner.NewPolicyGradient(env,
				learner.PolicyGradientConfig{
					HiddenSizes: sizes,
					Biases:      biases,
					Activations: activations,
					InitWFn:     init,
					Solver:      sol,
					Capacity:    capacity,
					NSamples:    nSamples,
					BatchSize:   batchSize,
					Gamma:       gamma,
					Selector:    selector,
				}, seed)
			if err != nil {
				return err
			}
			return train(pg)
		},
	}

	cmd.Flags().IntVar(&ensembleSize, "ensemble", 1,
		"Forward passes per action selection, 1 samples directly")

	return cmd
}
