package ppo

// trainPolicy takes up to iters policy gradient steps with step. After
// each step, if the approximate KL divergence between the old policy
// and the policy before the step exceeds maxKL, no further steps are
// taken. It returns the statistics of the last step taken, the number
// of steps taken, and whether training stopped early.
//
// A NaN divergence never triggers the early stop.
func trainPolicy(iters int, maxKL float64,
	step func() (policyStats, error)) (policyStats, int, bool, error) {
	var last policyStats
	for i := 0; i < iters; i++ {
		stats, err := step()
		if err != nil {
			return last, i, false, err
		}
		last = stats

		if last.approxKL > maxKL {
			return last, i + 1, true, nil
		}
	}
	return last, iters, false, nil
}

// trainValue takes iters value function gradient steps with step and
// returns the loss of the last step, computed before that step was
// taken.
func trainValue(iters int, step func() (float64, error)) (float64, error) {
	var loss float64
	for i := 0; i < iters; i++ {
		l, err := step()
		if err != nil {
			return loss, err
		}
		loss = l
	}
	return loss, nil
}
