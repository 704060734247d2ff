package model

import "math"

// Learner is the minimal contract the estimators need from an online
// regression or classification implementation: refit on a sample window,
// evaluate on one feature vector. Implementations are free to be linear,
// quantile, or logistic models.
type Learner interface {
	Fit(samples []Sample)
	PredictOne(features []float64) float64
}

// scaler standardizes features to zero mean and unit variance using the
// statistics of the most recent Fit. Keeps gradient steps well conditioned
// when features span very different magnitudes (prices vs. fractions).
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(samples []Sample, dim int) scaler {
	sc := scaler{mean: make([]float64, dim), std: make([]float64, dim)}
	n := float64(len(samples))
	for _, s := range samples {
		for j, f := range s.Features {
			sc.mean[j] += f
		}
	}
	for j := range sc.mean {
		sc.mean[j] /= n
	}
	for _, s := range samples {
		for j, f := range s.Features {
			d := f - sc.mean[j]
			sc.std[j] += d * d
		}
	}
	for j := range sc.std {
		sc.std[j] = math.Sqrt(sc.std[j] / n)
		if sc.std[j] < 1e-12 {
			sc.std[j] = 1
		}
	}
	return sc
}

func (sc scaler) apply(features []float64) []float64 {
	out := make([]float64, len(features))
	for j, f := range features {
		out[j] = (f - sc.mean[j]) / sc.std[j]
	}
	return out
}

// QuantileRegressor fits a linear model under the pinball loss. With the
// default tau of 0.5 it estimates the conditional median; the L1 penalty
// shrinks uninformative weights toward zero.
type QuantileRegressor struct {
	Tau       float64 // target quantile, (0, 1)
	Lambda    float64 // L1 penalty strength
	Epochs    int
	LearnRate float64

	weights []float64
	bias    float64
	scale   scaler
	fitted  bool
}

// NewQuantileRegressor creates a median regressor with a light L1 penalty.
func NewQuantileRegressor() *QuantileRegressor {
	return &QuantileRegressor{
		Tau:       0.5,
		Lambda:    1e-4,
		Epochs:    40,
		LearnRate: 0.05,
	}
}

// Fit refits the model from scratch on the full window using subgradient
// descent on the pinball loss. Refitting from zero keeps the estimate a pure
// function of the current window, so evicted samples stop influencing it.
func (q *QuantileRegressor) Fit(samples []Sample) {
	if len(samples) == 0 {
		return
	}
	dim := len(samples[0].Features)
	q.scale = fitScaler(samples, dim)
	q.weights = make([]float64, dim)
	q.bias = 0

	for epoch := 0; epoch < q.Epochs; epoch++ {
		lr := q.LearnRate / (1 + 0.1*float64(epoch))
		for _, s := range samples {
			x := q.scale.apply(s.Features)
			pred := q.bias + dot(q.weights, x)

			// Pinball subgradient: -tau below the prediction,
			// (1-tau) above it.
			var g float64
			if s.Label >= pred {
				g = -q.Tau
			} else {
				g = 1 - q.Tau
			}

			q.bias -= lr * g
			for j := range q.weights {
				q.weights[j] -= lr * (g*x[j] + q.Lambda*sign(q.weights[j]))
			}
		}
	}
	q.fitted = true
}

// PredictOne evaluates the fitted model. It returns 0 before the first Fit.
func (q *QuantileRegressor) PredictOne(features []float64) float64 {
	if !q.fitted {
		return 0
	}
	return q.bias + dot(q.weights, q.scale.apply(features))
}

// LogisticClassifier fits a binary logistic model by gradient descent and
// reports the positive-class probability.
type LogisticClassifier struct {
	Lambda    float64 // L2 penalty strength
	Epochs    int
	LearnRate float64

	weights []float64
	bias    float64
	scale   scaler
	fitted  bool
}

// NewLogisticClassifier creates a classifier with a light L2 penalty.
func NewLogisticClassifier() *LogisticClassifier {
	return &LogisticClassifier{
		Lambda:    1e-4,
		Epochs:    40,
		LearnRate: 0.1,
	}
}

// Fit refits the classifier from scratch on the given samples. Labels are
// interpreted as 0/1.
func (l *LogisticClassifier) Fit(samples []Sample) {
	if len(samples) == 0 {
		return
	}
	dim := len(samples[0].Features)
	l.scale = fitScaler(samples, dim)
	l.weights = make([]float64, dim)
	l.bias = 0

	for epoch := 0; epoch < l.Epochs; epoch++ {
		lr := l.LearnRate / (1 + 0.1*float64(epoch))
		for _, s := range samples {
			x := l.scale.apply(s.Features)
			p := sigmoid(l.bias + dot(l.weights, x))
			g := p - s.Label

			l.bias -= lr * g
			for j := range l.weights {
				l.weights[j] -= lr * (g*x[j] + l.Lambda*l.weights[j])
			}
		}
	}
	l.fitted = true
}

// PredictOne returns the positive-class probability in [0, 1]. It returns 0.5
// before the first Fit.
func (l *LogisticClassifier) PredictOne(features []float64) float64 {
	if !l.fitted {
		return 0.5
	}
	return sigmoid(l.bias + dot(l.weights, l.scale.apply(features)))
}

func dot(w, x []float64) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
