package learner

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/raharth/gomatch/environment"
	"github.com/raharth/gomatch/initwfn"
	"github.com/raharth/gomatch/loss"
	"github.com/raharth/gomatch/memory"
	"github.com/raharth/gomatch/network"
	"github.com/raharth/gomatch/policy"
	"github.com/raharth/gomatch/solver"
)

// PolicyGradientConfig configures a PolicyGradient learner.
type PolicyGradientConfig struct {
	// Architecture of the policy network. The network maps
	// observations to one logit per action.
	HiddenSizes []int
	Biases      []bool
	Activations []*network.Activation
	InitWFn     *initwfn.InitWFn

	Solver *solver.Solver

	// Replay memory settings
	Capacity  int // records held by the persistent memory
	NSamples  int // records sampled per fitting epoch
	BatchSize int // rows per training batch
	Gamma     float64

	// Criterion is the training loss. When nil, the REINFORCE
	// objective is used.
	Criterion loss.Criterion

	// Selector chooses actions from the softmax of the network's
	// logits during episodes. When nil, categorical sampling is used.
	Selector policy.Selector
}

// Validate ensures the configuration describes a usable learner.
func (c PolicyGradientConfig) Validate() error {
	if len(c.HiddenSizes) != len(c.Biases) ||
		len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("hidden layer configuration is inconsistent: "+
			"%v sizes, %v biases, %v activations", len(c.HiddenSizes),
			len(c.Biases), len(c.Activations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("no weight initializer given")
	}
	if c.Solver == nil {
		return fmt.Errorf("no solver given")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be > 0, got %v", c.BatchSize)
	}
	if c.NSamples < c.BatchSize {
		return fmt.Errorf("cannot sample %v records with batches of %v",
			c.NSamples, c.BatchSize)
	}
	if c.Capacity < 1 {
		return fmt.Errorf("memory capacity must be > 0, got %v", c.Capacity)
	}
	if c.Gamma <= 0 || c.Gamma > 1 {
		return fmt.Errorf("discount factor must be in (0, 1], got %v",
			c.Gamma)
	}
	return nil
}

// PolicyGradient is a REINFORCE learner. Episodes are played with a
// stochastic selector over the softmax of the policy network's
// logits; at fitting time the log probabilities of the taken actions
// are recomputed on a batched training graph and weighted by the
// episodes' discounted returns.
type PolicyGradient struct {
	core

	behaviourNet network.NeuralNet
	forwarder    *network.Forwarder

	trainNet      network.NeuralNet
	trainVM       G.VM
	solver        *solver.Solver
	actionIndices *G.Node // one-hot taken actions, input to the graph
	returns       *G.Node // discounted returns, input to the graph
	lossVal       G.Value

	batchSize  int
	numActions int
	obsSize    int
}

// NewPolicyGradient returns a PolicyGradient learner acting in env.
func NewPolicyGradient(env environment.Environment,
	config PolicyGradientConfig, seed int64) (*PolicyGradient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newpolicygradient: %v", err)
	}

	numActions := env.NumActions()
	obsSize := env.ObsSize()
	batchSize := config.BatchSize

	// Behaviour network for selecting actions one observation at a
	// time
	g := G.NewGraph()
	behaviourNet, err := network.NewMLP(obsSize, 1, numActions, g,
		config.HiddenSizes, config.Biases, config.Activations,
		config.InitWFn.InitWFn())
	if err != nil {
		return nil, fmt.Errorf("newpolicygradient: could not create "+
			"behaviour network: %v", err)
	}
	forwarder, err := network.NewForwarder(behaviourNet)
	if err != nil {
		return nil, fmt.Errorf("newpolicygradient: %v", err)
	}

	// Training network which learns the weights on batches
	trainNet, err := behaviourNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newpolicygradient: could not create "+
			"training network: %v", err)
	}
	gTrain := trainNet.Graph()

	// Log probability of the taken actions: select each row's taken
	// logit with a one-hot product and normalize with log-sum-exp
	logits := trainNet.Prediction()
	actionIndices := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("actionIndices"))
	takenLogits := G.Must(G.HadamardProd(actionIndices, logits))
	takenLogits = G.Must(G.Sum(takenLogits, 1))
	logProbs := G.Must(G.Sub(takenLogits, logSumExp(logits, 1)))

	returns := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("returns"))

	criterion := config.Criterion
	if criterion == nil {
		criterion = loss.REINFORCE
	}
	cost, err := criterion(logProbs, returns)
	if err != nil {
		return nil, fmt.Errorf("newpolicygradient: could not compute "+
			"loss: %v", err)
	}

	pg := &PolicyGradient{
		behaviourNet:  behaviourNet,
		forwarder:     forwarder,
		trainNet:      trainNet,
		solver:        config.Solver,
		actionIndices: actionIndices,
		returns:       returns,
		batchSize:     batchSize,
		numActions:    numActions,
		obsSize:       obsSize,
	}
	G.Read(cost, &pg.lossVal)

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("newpolicygradient: could not compute "+
			"gradient: %v", err)
	}
	pg.trainVM = G.NewTapeMachine(gTrain,
		G.BindDualValues(trainNet.Learnables()...))

	fields := []memory.Field{
		{Name: memory.FieldState, Size: obsSize},
		{Name: memory.FieldAction, Size: 1},
		{Name: memory.FieldReward, Size: 1},
		{Name: memory.FieldLogProb, Size: 1},
	}
	mem, err := memory.New(fields, config.Capacity, config.Gamma,
		config.NSamples, batchSize, seed)
	if err != nil {
		return nil, fmt.Errorf("newpolicygradient: could not create "+
			"memory: %v", err)
	}

	selector := config.Selector
	if selector == nil {
		selector = policy.NewCategorical(seed)
	}

	pg.core = core{
		env:      env,
		selector: selector,
		model:    probModel{model: forwarder},
		mem:      mem,
		history:  NewHistory(),
	}
	return pg, nil
}

// PlayEpisode plays one episode, memorizing every transition. The
// episode's rewards are replaced with their discounted returns before
// the merge into the persistent memory.
func (pg *PolicyGradient) PlayEpisode(render bool) (float64, error) {
	record := func(ep *memory.Episode, state []float64,
		action policy.Action, reward float64, _ []float64) error {
		return ep.Memorize([][]float64{
			state,
			{float64(action.Value)},
			{reward},
			{action.LogProb},
		}, []string{memory.FieldState, memory.FieldAction,
			memory.FieldReward, memory.FieldLogProb})
	}
	return pg.playEpisode(render, record, true)
}

// EvalEpisode plays one episode greedily without memorizing.
func (pg *PolicyGradient) EvalEpisode() (float64, error) {
	return pg.evalEpisode()
}

// FitEpoch samples the memory once and performs one gradient step per
// batch, then synchronizes the behaviour network with the newly
// learned weights.
func (pg *PolicyGradient) FitEpoch() (EpochResult, error) {
	batches, err := pg.mem.Batches()
	if err != nil {
		return EpochResult{}, fmt.Errorf("fitepoch: %v", err)
	}

	totalLoss := 0.0
	for _, batch := range batches {
		n := batch.Len()
		states := padded(batch.Field(memory.FieldState), pg.obsSize, n,
			pg.batchSize)
		actions := padded(batch.Field(memory.FieldAction), 1, n,
			pg.batchSize)
		returns := padded(batch.Field(memory.FieldReward), 1, n,
			pg.batchSize)

		if err := pg.trainNet.SetInput(states); err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: could not set "+
				"states: %v", err)
		}
		err = G.Let(pg.actionIndices, tensor.New(
			tensor.WithShape(pg.batchSize, pg.numActions),
			tensor.WithBacking(oneHot(actions, pg.numActions)),
		))
		if err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: could not set "+
				"actions: %v", err)
		}
		err = G.Let(pg.returns, tensor.New(
			tensor.WithShape(pg.batchSize),
			tensor.WithBacking(returns),
		))
		if err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: could not set "+
				"returns: %v", err)
		}

		if err := pg.trainVM.RunAll(); err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: could not run "+
				"training step: %v", err)
		}
		totalLoss += pg.lossVal.Data().(float64)
		if err := pg.solver.Step(pg.trainNet.Model()); err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: could not step "+
				"solver: %v", err)
		}
		pg.trainVM.Reset()
	}

	if err := pg.behaviourNet.Set(pg.trainNet); err != nil {
		return EpochResult{}, fmt.Errorf("fitepoch: could not update "+
			"behaviour network: %v", err)
	}

	result := EpochResult{
		Epoch:      len(pg.history.Epochs),
		Loss:       totalLoss / float64(len(batches)),
		Batches:    len(batches),
		MeanReward: pg.history.MeanReward(rewardWindow),
		BestReward: pg.history.BestReward(),
	}
	pg.history.recordEpoch(result)
	return result, nil
}

// History returns the learner's training history.
func (pg *PolicyGradient) History() *History {
	return pg.history
}

// Memory returns the learner's persistent replay memory.
func (pg *PolicyGradient) Memory() *memory.Memory {
	return pg.mem
}

// Close releases the learner's virtual machines.
func (pg *PolicyGradient) Close() error {
	if err := pg.forwarder.Close(); err != nil {
		return err
	}
	return pg.trainVM.Close()
}

// logSumExp computes log(sum(exp(logits))) along an axis, shifted by
// the row maximum for numerical stability.
func logSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}
