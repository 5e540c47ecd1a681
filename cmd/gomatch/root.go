package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raharth/gomatch/environment/cartpole"
	"github.com/raharth/gomatch/experiment"
	"github.com/raharth/gomatch/initwfn"
	"github.com/raharth/gomatch/learner"
	"github.com/raharth/gomatch/network"
	"github.com/raharth/gomatch/solver"
)

var (
	epochs       int
	episodes     int
	maxSteps     int
	gamma        float64
	stepSize     float64
	clip         float64
	capacity     int
	nSamples     int
	batchSize    int
	hiddenSizes  []int
	seed         int64
	outDir       string
	evalInterval int
	evalEpisodes int
	checkpoint   int
	plotWindow   int
)

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gomatch",
		Short: "Train reinforcement learning agents on cartpole",
	}
	addFlags(cmd)

	cmd.AddCommand(
		pgCommand(),
		qlearnCommand(),
	)

	return cmd
}

func addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().IntVar(&epochs, "epochs", 100, "Number of fitting epochs")
	cmd.PersistentFlags().IntVar(&episodes, "episodes", 10, "Episodes played per epoch")
	cmd.PersistentFlags().IntVar(&maxSteps, "max-steps", cartpole.DefaultMaxEpisodeLength, "Step cap per episode")
	cmd.PersistentFlags().Float64Var(&gamma, "gamma", 0.99, "Discount factor")
	cmd.PersistentFlags().Float64Var(&stepSize, "step-size", 0.001, "Solver step size")
	cmd.PersistentFlags().Float64Var(&clip, "clip", 0, "Gradient clip, 0 disables clipping")
	cmd.PersistentFlags().IntVar(&capacity, "capacity", 10000, "Replay memory capacity")
	cmd.PersistentFlags().IntVar(&nSamples, "n-samples", 1024, "Records sampled per epoch")
	cmd.PersistentFlags().IntVar(&batchSize, "batch-size", 64, "Rows per training batch")
	cmd.PersistentFlags().IntSliceVar(&hiddenSizes, "hidden", []int{64, 64}, "Hidden layer sizes")
	cmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.PersistentFlags().StringVar(&outDir, "out", "out", "Output directory for checkpoints and plots")
	cmd.PersistentFlags().IntVar(&evalInterval, "eval-interval", 10, "Epochs between greedy evaluations, 0 disables")
	cmd.PersistentFlags().IntVar(&evalEpisodes, "eval-episodes", 5, "Greedy episodes per evaluation")
	cmd.PersistentFlags().IntVar(&checkpoint, "checkpoint-interval", 25, "Epochs between history checkpoints, 0 disables")
	cmd.PersistentFlags().IntVar(&plotWindow, "plot-window", 100, "Smoothing window of the learning curve")
}

// architecture builds the hidden layer configuration shared by both
// learners: ReLU layers with bias units.
func architecture() ([]int, []bool, []*network.Activation) {
	biases := make([]bool, len(hiddenSizes))
	activations := make([]*network.Activation, len(hiddenSizes))
	for i := range hiddenSizes {
		biases[i] = true
		activations[i] = network.ReLU()
	}
	return hiddenSizes, biases, activations
}

func newInit() (*initwfn.InitWFn, error) {
	return initwfn.NewGlorotU(1.0)
}

func newSolver() (*solver.Solver, error) {
	return solver.NewAdam(stepSize, 1e-8, 0.9, 0.999, batchSize, clip)
}

// train wires the callbacks and runs the experiment for a learner.
func train(l learner.Learner) error {
	defer l.Close()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %v", err)
	}

	var callbacks []experiment.Callback
	if checkpoint > 0 {
		check, err := experiment.NewCheckpointer(checkpoint,
			filepath.Join(outDir, "history"))
		if err != nil {
			return err
		}
		callbacks = append(callbacks, check)
	}
	plotter, err := experiment.NewMetricPlotter(1, plotWindow,
		filepath.Join(outDir, "learning.png"))
	if err != nil {
		return err
	}
	callbacks = append(callbacks, plotter)
	if evalInterval > 0 {
		eval, err := experiment.NewEvaluator(evalInterval, evalEpisodes,
			true)
		if err != nil {
			return err
		}
		callbacks = append(callbacks, eval)
	}

	exp, err := experiment.New(l, learner.MemoryUpdater{Episodes: episodes},
		epochs, callbacks)
	if err != nil {
		return err
	}
	return exp.Run()
}
