package ppo

import (
	"fmt"

	"github.com/samuelfneumann/goppo/agent"
	"github.com/spf13/viper"
)

// Config holds the hyperparameters of a PPO agent. A Config is copied
// into the agent on construction and never changes afterwards.
type Config struct {
	// Policy determines the policy distribution and therefore the kind
	// of action space, either agent.Categorical (discrete actions) or
	// agent.Gaussian (continuous actions)
	Policy agent.PolicyType

	Features   int // Length of a single observation
	NumActions int // Number of actions or action dimensions

	// BatchSize is the number of transitions N in each rollout batch.
	// Training graphs are compiled for this batch size.
	BatchSize int

	// Hidden layer sizes of the policy and value networks. Every hidden
	// layer has a bias unit and uses Activation.
	PolicyLayers []int
	ValueLayers  []int
	Activation   string

	// InitWFn names the weight initializer (see initwfn.New) and
	// InitGain is its parameter
	InitWFn  string
	InitGain float64

	// Solver names the optimizer used for both networks (see
	// solver.New); each network gets its own instance
	Solver   string
	PolicyLR float64
	ValueLR  float64

	TrainPiIters int     // Maximum policy gradient steps per update
	TrainVIters  int     // Value function gradient steps per update
	ClipRatio    float64 // ε of the clipped surrogate objective
	TargetKL     float64 // Early stop once approximate KL > 1.5 * TargetKL
	EntCoef      float64 // Entropy bonus coefficient

	// InitLogStd is the initial log standard deviation of a Gaussian
	// policy for every action dimension
	InitLogStd float64

	// CheckpointDir is the directory holding the pi and v checkpoints
	CheckpointDir string

	// Seed seeds action sampling
	Seed uint64
}

// DefaultConfig returns the default hyperparameters for a policy of
// type policy acting on observations of length features with
// numActions actions (or action dimensions), updated on batches of
// batchSize transitions.
func DefaultConfig(policy agent.PolicyType, features, numActions,
	batchSize int) Config {
	return Config{
		Policy:     policy,
		Features:   features,
		NumActions: numActions,
		BatchSize:  batchSize,

		PolicyLayers: []int{64, 64},
		ValueLayers:  []int{64, 64},
		Activation:   "tanh",

		InitWFn:  "GlorotU",
		InitGain: 1.0,

		Solver:   "Adam",
		PolicyLR: 1e-3,
		ValueLR:  1e-3,

		TrainPiIters: 80,
		TrainVIters:  80,
		ClipRatio:    0.2,
		TargetKL:     0.01,
		EntCoef:      0.0,
		InitLogStd:   -0.5,

		CheckpointDir: "./tmp/ckpts",
	}
}

// Validate returns an error describing the first invalid
// hyperparameter of the Config, or nil if the Config is valid.
func (c Config) Validate() error {
	if c.Policy != agent.Categorical && c.Policy != agent.Gaussian {
		return fmt.Errorf("validate: unknown policy type %q", c.Policy)
	}
	if c.Features < 1 {
		return fmt.Errorf("validate: features must be positive, have(%d)",
			c.Features)
	}
	if c.NumActions < 1 {
		return fmt.Errorf("validate: number of actions must be positive, "+
			"have(%d)", c.NumActions)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive, have(%d)",
			c.BatchSize)
	}

	for i, size := range c.PolicyLayers {
		if size < 1 {
			return fmt.Errorf("validate: policy layer %d has illegal size %d",
				i, size)
		}
	}
	for i, size := range c.ValueLayers {
		if size < 1 {
			return fmt.Errorf("validate: value layer %d has illegal size %d",
				i, size)
		}
	}

	if c.PolicyLR < 0 || c.ValueLR < 0 {
		return fmt.Errorf("validate: learning rates must be non-negative, "+
			"have policy(%v) value(%v)", c.PolicyLR, c.ValueLR)
	}
	if c.TrainPiIters < 1 || c.TrainVIters < 1 {
		return fmt.Errorf("validate: iterations must be positive, have "+
			"policy(%d) value(%d)", c.TrainPiIters, c.TrainVIters)
	}
	if c.ClipRatio <= 0 || c.ClipRatio >= 1 {
		return fmt.Errorf("validate: clip ratio must be in (0, 1), have(%v)",
			c.ClipRatio)
	}
	if c.TargetKL <= 0 {
		return fmt.Errorf("validate: target KL must be positive, have(%v)",
			c.TargetKL)
	}
	if c.EntCoef < 0 {
		return fmt.Errorf("validate: entropy coefficient must be "+
			"non-negative, have(%v)", c.EntCoef)
	}
	if c.CheckpointDir == "" {
		return fmt.Errorf("validate: checkpoint directory must be set")
	}

	return nil
}

// ConfigFromFile reads a Config from a YAML, JSON, or TOML file, chosen
// by the file's extension. Hyperparameters missing from the file keep
// the values of DefaultConfig. The returned Config is validated.
func ConfigFromFile(path string) (Config, error) {
	vp := viper.New()
	def := DefaultConfig("", 0, 0, 0)
	defaults := map[string]interface{}{
		"PolicyLayers":  def.PolicyLayers,
		"ValueLayers":   def.ValueLayers,
		"Activation":    def.Activation,
		"InitWFn":       def.InitWFn,
		"InitGain":      def.InitGain,
		"Solver":        def.Solver,
		"PolicyLR":      def.PolicyLR,
		"ValueLR":       def.ValueLR,
		"TrainPiIters":  def.TrainPiIters,
		"TrainVIters":   def.TrainVIters,
		"ClipRatio":     def.ClipRatio,
		"TargetKL":      def.TargetKL,
		"EntCoef":       def.EntCoef,
		"InitLogStd":    def.InitLogStd,
		"CheckpointDir": def.CheckpointDir,
	}
	for key, value := range defaults {
		vp.SetDefault(key, value)
	}

	vp.SetConfigFile(path)
	if err := vp.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("configFromFile: could not read %v: %w",
			path, err)
	}

	var c Config
	if err := vp.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("configFromFile: could not decode %v: %w",
			path, err)
	}

	policy, err := agent.ParsePolicyType(string(c.Policy))
	if err != nil {
		return Config{}, fmt.Errorf("configFromFile: %w", err)
	}
	c.Policy = policy

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("configFromFile: %w", err)
	}
	return c, nil
}
