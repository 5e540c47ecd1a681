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
	"github.com/raharth/gomatch/utils/floatutils"
)

// QLearnerConfig configures a QLearner.
type QLearnerConfig struct {
	// Architecture of the action-value network. The network maps
	// observations to one Q-value per action.
	HiddenSizes []int
	Biases      []bool
	Activations []*network.Activation
	InitWFn     *initwfn.InitWFn

	Solver *solver.Solver

	// Replay memory settings
	Capacity  int
	NSamples  int
	BatchSize int

	Gamma float64 // discount applied in the TD target
	Alpha float64 // step size of the soft target update

	// Tau controls how the value network tracks the training network
	// after each epoch: 1 copies the weights, values in (0, 1) use
	// Polyak averaging.
	Tau float64

	// Criterion is the training loss between predicted and target
	// action values. When nil, mean squared error is used.
	Criterion loss.Criterion

	// Selector chooses actions from the network's raw Q-values
	// during episodes. When nil, actions are chosen greedily.
	Selector policy.Selector
}

// Validate ensures the configuration describes a usable learner.
func (c QLearnerConfig) Validate() error {
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
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("step size must be in (0, 1], got %v", c.Alpha)
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("tau must be in (0, 1], got %v", c.Tau)
	}
	return nil
}

// QLearner learns action values off-policy. Transitions are stored
// raw; at fitting time the taken action's predicted value is nudged
// toward r + γ·max_a' Q(s', a') with step size α and the network is
// regressed onto the adjusted values.
type QLearner struct {
	core

	behaviourNet network.NeuralNet
	forwarder    *network.Forwarder

	// valueNet predicts Q-values for whole batches without gradients,
	// for both the sampled states and their successor states
	valueNet   network.NeuralNet
	valueVM    G.VM
	trainNet   network.NeuralNet
	trainVM    G.VM
	solver     *solver.Solver
	targetVals *G.Node // adjusted action values, input to the graph
	lossVal    G.Value

	gamma float64
	alpha float64
	tau   float64

	batchSize  int
	numActions int
	obsSize    int
}

// NewQLearner returns a QLearner acting in env.
func NewQLearner(env environment.Environment, config QLearnerConfig,
	seed int64) (*QLearner, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newqlearner: %v", err)
	}

	numActions := env.NumActions()
	obsSize := env.ObsSize()
	batchSize := config.BatchSize

	g := G.NewGraph()
	behaviourNet, err := network.NewMLP(obsSize, 1, numActions, g,
		config.HiddenSizes, config.Biases, config.Activations,
		config.InitWFn.InitWFn())
	if err != nil {
		return nil, fmt.Errorf("newqlearner: could not create behaviour "+
			"network: %v", err)
	}
	forwarder, err := network.NewForwarder(behaviourNet)
	if err != nil {
		return nil, fmt.Errorf("newqlearner: %v", err)
	}

	valueNet, err := behaviourNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newqlearner: could not create value "+
			"network: %v", err)
	}
	valueVM := G.NewTapeMachine(valueNet.Graph())

	trainNet, err := behaviourNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newqlearner: could not create training "+
			"network: %v", err)
	}
	gTrain := trainNet.Graph()

	targetVals := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))

	criterion := config.Criterion
	if criterion == nil {
		criterion = loss.MSE
	}
	cost, err := criterion(trainNet.Prediction(), targetVals)
	if err != nil {
		return nil, fmt.Errorf("newqlearner: could not compute loss: %v",
			err)
	}

	q := &QLearner{
		behaviourNet: behaviourNet,
		forwarder:    forwarder,
		valueNet:     valueNet,
		valueVM:      valueVM,
		trainNet:     trainNet,
		solver:       config.Solver,
		targetVals:   targetVals,
		gamma:        config.Gamma,
		alpha:        config.Alpha,
		tau:          config.Tau,
		batchSize:    batchSize,
		numActions:   numActions,
		obsSize:      obsSize,
	}
	G.Read(cost, &q.lossVal)

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("newqlearner: could not compute "+
			"gradient: %v", err)
	}
	q.trainVM = G.NewTapeMachine(gTrain,
		G.BindDualValues(trainNet.Learnables()...))

	fields := []memory.Field{
		{Name: memory.FieldAction, Size: 1},
		{Name: memory.FieldState, Size: obsSize},
		{Name: memory.FieldReward, Size: 1},
		{Name: memory.FieldNewState, Size: obsSize},
	}
	mem, err := memory.New(fields, config.Capacity, config.Gamma,
		config.NSamples, batchSize, seed)
	if err != nil {
		return nil, fmt.Errorf("newqlearner: could not create memory: %v",
			err)
	}

	selector := config.Selector
	if selector == nil {
		selector = policy.NewGreedy()
	}

	q.core = core{
		env:      env,
		selector: selector,
		model:    forwarder,
		mem:      mem,
		history:  NewHistory(),
	}
	return q, nil
}

// PlayEpisode plays one episode, memorizing every transition raw. The
// discount is applied at fitting time through the TD target, so the
// rewards are left untouched.
func (q *QLearner) PlayEpisode(render bool) (float64, error) {
	record := func(ep *memory.Episode, state []float64,
		action policy.Action, reward float64, nextState []float64) error {
		return ep.Memorize([][]float64{
			{float64(action.Value)},
			state,
			{reward},
			nextState,
		}, []string{memory.FieldAction, memory.FieldState,
			memory.FieldReward, memory.FieldNewState})
	}
	return q.playEpisode(render, record, false)
}

// EvalEpisode plays one episode greedily without memorizing.
func (q *QLearner) EvalEpisode() (float64, error) {
	return q.evalEpisode()
}

// FitEpoch samples the memory once and performs one gradient step per
// batch. Each step regresses the training network onto soft TD
// targets computed from the value network, which tracks the training
// network across epochs.
func (q *QLearner) FitEpoch() (EpochResult, error) {
	batches, err := q.mem.Batches()
	if err != nil {
		return EpochResult{}, fmt.Errorf("fitepoch: %v", err)
	}

	totalLoss := 0.0
	for _, batch := range batches {
		n := batch.Len()
		states := padded(batch.Field(memory.FieldState), q.obsSize, n,
			q.batchSize)
		nextStates := padded(batch.Field(memory.FieldNewState), q.obsSize,
			n, q.batchSize)
		actions := padded(batch.Field(memory.FieldAction), 1, n,
			q.batchSize)
		rewards := padded(batch.Field(memory.FieldReward), 1, n,
			q.batchSize)

		preds, err := q.batchValues(states)
		if err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: %v", err)
		}
		nextVals, err := q.batchValues(nextStates)
		if err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: %v", err)
		}

		targets := tdTargets(preds, nextVals, actions, rewards,
			q.numActions, q.gamma, q.alpha)

		if err := q.trainNet.SetInput(states); err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: could not set "+
				"states: %v", err)
		}
		err = G.Let(q.targetVals, tensor.New(
			tensor.WithShape(q.batchSize, q.numActions),
			tensor.WithBacking(targets),
		))
		if err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: could not set "+
				"targets: %v", err)
		}

		if err := q.trainVM.RunAll(); err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: could not run "+
				"training step: %v", err)
		}
		totalLoss += q.lossVal.Data().(float64)
		if err := q.solver.Step(q.trainNet.Model()); err != nil {
			return EpochResult{}, fmt.Errorf("fitepoch: could not step "+
				"solver: %v", err)
		}
		q.trainVM.Reset()
	}

	// The value network tracks the training network across epochs
	if q.tau == 1.0 {
		err = q.valueNet.Set(q.trainNet)
	} else {
		err = q.valueNet.Polyak(q.trainNet, q.tau)
	}
	if err != nil {
		return EpochResult{}, fmt.Errorf("fitepoch: could not update "+
			"value network: %v", err)
	}
	if err := q.behaviourNet.Set(q.trainNet); err != nil {
		return EpochResult{}, fmt.Errorf("fitepoch: could not update "+
			"behaviour network: %v", err)
	}

	result := EpochResult{
		Epoch:      len(q.history.Epochs),
		Loss:       totalLoss / float64(len(batches)),
		Batches:    len(batches),
		MeanReward: q.history.MeanReward(rewardWindow),
		BestReward: q.history.BestReward(),
	}
	q.history.recordEpoch(result)
	return result, nil
}

// batchValues runs one forward pass of the value network and returns
// a copy of the predicted action values.
func (q *QLearner) batchValues(states []float64) ([]float64, error) {
	if err := q.valueNet.SetInput(states); err != nil {
		return nil, fmt.Errorf("batchvalues: could not set input: %v", err)
	}
	if err := q.valueVM.RunAll(); err != nil {
		return nil, fmt.Errorf("batchvalues: could not run forward "+
			"pass: %v", err)
	}
	output := q.valueNet.Output().Data().([]float64)
	values := make([]float64, len(output))
	copy(values, output)
	q.valueVM.Reset()
	return values, nil
}

// History returns the learner's training history.
func (q *QLearner) History() *History {
	return q.history
}

// Memory returns the learner's persistent replay memory.
func (q *QLearner) Memory() *memory.Memory {
	return q.mem
}

// Close releases the learner's virtual machines.
func (q *QLearner) Close() error {
	if err := q.forwarder.Close(); err != nil {
		return err
	}
	if err := q.valueVM.Close(); err != nil {
		return err
	}
	return q.trainVM.Close()
}

// tdTargets builds the regression targets for one batch of
// transitions. The targets start as a copy of the predicted action
// values; only the taken action's entry moves, by
// α·(r + γ·max_a' Q(s', a') - Q(s, a)).
func tdTargets(preds, nextVals, actions, rewards []float64,
	numActions int, gamma, alpha float64) []float64 {
	targets := make([]float64, len(preds))
	copy(targets, preds)

	for i := range actions {
		row := i * numActions
		a := int(actions[i])
		maxNext := floatutils.Max(nextVals[row : row+numActions]...)
		targets[row+a] += alpha *
			(rewards[i] + gamma*maxNext - preds[row+a])
	}
	return targets
}
