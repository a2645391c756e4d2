package ppo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/goppo/network"
	G "gorgonia.org/gorgonia"
)

// Checkpoint file names within Config.CheckpointDir
const (
	policyCheckpoint = "pi"
	valueCheckpoint  = "v"
)

// Save saves the policy weights, including the log standard deviation
// of a Gaussian policy, and the value function weights to the
// checkpoint directory, creating it if needed.
func (p *PPO) Save() error {
	if err := os.MkdirAll(p.config.CheckpointDir, 0o755); err != nil {
		return fmt.Errorf("save: could not create checkpoint directory: %w",
			err)
	}

	piPath := filepath.Join(p.config.CheckpointDir, policyCheckpoint)
	if err := saveNodes(piPath, p.policy.learnables()); err != nil {
		return fmt.Errorf("save: could not save policy: %w", err)
	}
	vPath := filepath.Join(p.config.CheckpointDir, valueCheckpoint)
	if err := saveNodes(vPath, p.vTrainValueFn.Learnables()); err != nil {
		return fmt.Errorf("save: could not save value function: %w", err)
	}

	p.logger.Info("saved checkpoint", "policy", piPath, "value", vPath)
	return nil
}

// Load restores the weights written by Save. Both checkpoint files are
// read and checked before any weight is changed, so on error the
// weights are left unchanged. If no checkpoint exists, the returned
// error wraps os.ErrNotExist.
func (p *PPO) Load() error {
	piPath := filepath.Join(p.config.CheckpointDir, policyCheckpoint)
	vPath := filepath.Join(p.config.CheckpointDir, valueCheckpoint)
	for _, path := range []string{piPath, vPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("load: no checkpoint at %v: %w", path, err)
		}
	}

	pi, err := decodeNodes(piPath, p.policy.learnables())
	if err != nil {
		return fmt.Errorf("load: could not load policy: %w", err)
	}
	v, err := decodeNodes(vPath, p.vTrainValueFn.Learnables())
	if err != nil {
		return fmt.Errorf("load: could not load value function: %w", err)
	}
	pi.Restore()
	v.Restore()
	if err := p.sync(); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	p.logger.Info("loaded checkpoint", "policy", piPath, "value", vPath)
	return nil
}

func saveNodes(path string, nodes G.Nodes) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := network.Save(f, nodes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func decodeNodes(path string, nodes G.Nodes) (*network.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return network.Decode(f, nodes)
}
