package rollout

import "testing"

func validBatch() Batch {
	return Batch{
		Obs:     []float64{0, 1, 2, 3, 4, 5, 6, 7},
		Act:     []float64{0, 1, 0, 1},
		Adv:     []float64{1, -1, 1, -1},
		Ret:     []float64{1, 2, 3, 4},
		LogProb: []float64{-0.7, -0.7, -0.7, -0.7},
	}
}

func TestValidate(t *testing.T) {
	if err := validBatch().Validate(2, 1, 2); err != nil {
		t.Errorf("valid batch: %v", err)
	}

	// The same batch read as one-dimensional continuous actions
	if err := validBatch().Validate(2, 1, 0); err != nil {
		t.Errorf("valid continuous batch: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := map[string]func(b *Batch){
		"empty": func(b *Batch) {
			*b = Batch{}
		},
		"short returns": func(b *Batch) {
			b.Ret = b.Ret[:3]
		},
		"long log probabilities": func(b *Batch) {
			b.LogProb = append(b.LogProb, 0)
		},
		"short observations": func(b *Batch) {
			b.Obs = b.Obs[:7]
		},
		"short actions": func(b *Batch) {
			b.Act = b.Act[:3]
		},
		"action out of range": func(b *Batch) {
			b.Act[2] = 2
		},
		"negative action": func(b *Batch) {
			b.Act[0] = -1
		},
		"fractional action": func(b *Batch) {
			b.Act[1] = 0.5
		},
	}

	for name, corrupt := range tests {
		b := validBatch()
		corrupt(&b)
		if err := b.Validate(2, 1, 2); err == nil {
			t.Errorf("%v: expected error", name)
		}
	}
}
