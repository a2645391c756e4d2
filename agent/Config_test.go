package agent

import "testing"

func TestParsePolicyType(t *testing.T) {
	tests := map[string]PolicyType{
		"gaussian":    Gaussian,
		"Continuous":  Gaussian,
		"Softmax":     Categorical,
		"categorical": Categorical,
		"DISCRETE":    Categorical,
	}
	for name, want := range tests {
		have, err := ParsePolicyType(name)
		if err != nil {
			t.Errorf("%v: %v", name, err)
		} else if have != want {
			t.Errorf("%v\n\twant(%v)\n\thave(%v)", name, want, have)
		}
	}

	if _, err := ParsePolicyType("beta"); err == nil {
		t.Error("expected error for unknown policy type")
	}
	if Gaussian.Discrete() || !Categorical.Discrete() {
		t.Error("discrete: wrong action space kind")
	}
}
