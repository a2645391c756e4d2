package agent

import (
	"fmt"
	"strings"
)

// PolicyType represents the type of distribution that a policy is,
// which in turn determines the kind of action space it acts in.
type PolicyType string

const (
	// Gaussian policies act in continuous action spaces
	Gaussian PolicyType = "Gaussian"

	// Categorical policies act in discrete action spaces
	Categorical PolicyType = "Softmax"
)

// ParsePolicyType returns the PolicyType with the given name. Both
// "Softmax" and "Categorical" name the Categorical type, and names are
// case insensitive.
func ParsePolicyType(name string) (PolicyType, error) {
	switch {
	case strings.EqualFold(name, string(Gaussian)),
		strings.EqualFold(name, "continuous"):
		return Gaussian, nil
	case strings.EqualFold(name, string(Categorical)),
		strings.EqualFold(name, "categorical"),
		strings.EqualFold(name, "discrete"):
		return Categorical, nil
	default:
		return "", fmt.Errorf("parsePolicyType: unknown policy type %q", name)
	}
}

// Discrete returns whether the policy acts in a discrete action space
func (p PolicyType) Discrete() bool {
	return p == Categorical
}
