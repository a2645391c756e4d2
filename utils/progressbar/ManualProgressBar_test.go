package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 10, 4, false)

	if f := p.Fraction(); f != 0 {
		t.Errorf("initial fraction\n\twant(0)\n\thave(%v)", f)
	}

	p.Increment()
	p.Increment()
	bar := p.String()
	if n := strings.Count(bar, "█"); n != 5 {
		t.Errorf("filled blocks\n\twant(5)\n\thave(%v)", n)
	}
	if !strings.Contains(bar, "50.00%") {
		t.Errorf("expected 50.00%% in %q", bar)
	}

	// Progress saturates at the maximum
	for i := 0; i < 10; i++ {
		p.Increment()
	}
	if f := p.Fraction(); f != 1 {
		t.Errorf("final fraction\n\twant(1)\n\thave(%v)", f)
	}

	p.Display()
	if !strings.Contains(out.String(), "100.00%") {
		t.Errorf("display did not write the bar: %q", out.String())
	}
}
