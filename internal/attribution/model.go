// Package attribution implements the credit-distribution models applied to a
// lead's touch-point sequence when a conversion is recorded.
package attribution

import (
	"fmt"

	"github.com/leadtrack/attribution/internal/models"
)

// Model assigns a per-touch-point weight to an ordered journey of n touch
// points. Weights sum to 1.0 for every model except positionBased with
// exactly two touch points, which keeps its historical 0.4/0.4 split.
type Model interface {
	Name() string
	Weights(n int) []float64
}

// Default is the model used when the caller does not pick one.
var Default Model = positionBased{}

// Parse maps a model name to its implementation. Empty input selects the
// default model.
func Parse(name string) (Model, error) {
	switch name {
	case "":
		return Default, nil
	case "first_touch":
		return firstTouch{}, nil
	case "last_touch":
		return lastTouch{}, nil
	case "linear":
		return linear{}, nil
	case "time_decay":
		return timeDecay{}, nil
	case "position_based":
		return positionBased{}, nil
	}
	return nil, fmt.Errorf("unknown attribution model %q", name)
}

type firstTouch struct{}

func (firstTouch) Name() string { return "first_touch" }

func (firstTouch) Weights(n int) []float64 {
	w := make([]float64, n)
	if n > 0 {
		w[0] = 1.0
	}
	return w
}

type lastTouch struct{}

func (lastTouch) Name() string { return "last_touch" }

func (lastTouch) Weights(n int) []float64 {
	w := make([]float64, n)
	if n > 0 {
		w[n-1] = 1.0
	}
	return w
}

type linear struct{}

func (linear) Name() string { return "linear" }

func (linear) Weights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

type timeDecay struct{}

func (timeDecay) Name() string { return "time_decay" }

// Weights doubles the weight at each step toward the conversion:
// weight(i) = 2^i / (2^n - 1).
func (timeDecay) Weights(n int) []float64 {
	w := make([]float64, n)
	var total float64
	pow := 1.0
	for i := 0; i < n; i++ {
		w[i] = pow
		total += pow
		pow *= 2
	}
	for i := range w {
		w[i] /= total
	}
	return w
}

type positionBased struct{}

func (positionBased) Name() string { return "position_based" }

// Weights gives 40% to the first touch, 40% to the last and splits the
// remaining 20% across the middle. With n=2 both endpoint weights fire
// independently and the total is 0.8, not 1.0; historical reports were built
// on that behavior, so it is kept as is.
func (positionBased) Weights(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1.0
		return w
	}
	middle := 0.2 / float64(max1(n-2))
	for i := range w {
		switch i {
		case 0, n - 1:
			w[i] = 0.4
		default:
			w[i] = middle
		}
	}
	return w
}

// Credits holds the projection of touch-point weights onto the three
// marketing dimensions. Channel and source credits each sum to 1.0 for every
// model that does; campaign credits sum to at most that, since touch points
// without a campaign carry no campaign credit.
type Credits struct {
	Channel  map[string]float64
	Source   map[string]float64
	Campaign map[string]float64
}

// Distribute applies the model to the touch-point sequence and accumulates
// the resulting weights per channel, source and campaign. A dimension value
// appearing at several positions collects the weight of each.
func Distribute(tps []models.TouchPoint, m Model) Credits {
	c := Credits{
		Channel:  make(map[string]float64),
		Source:   make(map[string]float64),
		Campaign: make(map[string]float64),
	}
	if len(tps) == 0 {
		return c
	}
	weights := m.Weights(len(tps))
	for i, tp := range tps {
		c.Channel[tp.Channel] += weights[i]
		c.Source[tp.Source] += weights[i]
		if tp.Campaign != "" {
			c.Campaign[tp.Campaign] += weights[i]
		}
	}
	return c
}

func max1(i int) int {
	if i < 1 {
		return 1
	}
	return i
}
