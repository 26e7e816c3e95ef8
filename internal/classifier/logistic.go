package classifier

import (
	"context"
	"math"
)

// TrainOptions tunes the logistic regression fit.
type TrainOptions struct {
	// OnEpoch, if set, is called after every completed epoch.
	OnEpoch      func(epoch int)
	Epochs       int
	LearningRate float64
	// C is the inverse regularization strength, as in scikit-learn.
	C         float64
	Tolerance float64
}

// DefaultTrainOptions returns the defaults used by the provider.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:       500,
		LearningRate: 1.0,
		C:            100,
		Tolerance:    1e-6,
	}
}

func (o TrainOptions) withDefaults() TrainOptions {
	def := DefaultTrainOptions()
	if o.Epochs <= 0 {
		o.Epochs = def.Epochs
	}
	if o.LearningRate <= 0 {
		o.LearningRate = def.LearningRate
	}
	if o.C <= 0 {
		o.C = def.C
	}
	if o.Tolerance <= 0 {
		o.Tolerance = def.Tolerance
	}
	return o
}

// logisticRegression is a multinomial (softmax) linear model.
type logisticRegression struct {
	Weights [][]float64 `json:"weights"` // [class][feature]
	Bias    []float64   `json:"bias"`
}

func newLogisticRegression(classes, features int) *logisticRegression {
	w := make([][]float64, classes)
	for k := range w {
		w[k] = make([]float64, features)
	}
	return &logisticRegression{Weights: w, Bias: make([]float64, classes)}
}

// probabilities returns the softmax distribution for x.
func (lr *logisticRegression) probabilities(x sparseVector) []float64 {
	logits := make([]float64, len(lr.Bias))
	maxLogit := math.Inf(-1)
	for k := range logits {
		z := lr.Bias[k]
		for idx, val := range x {
			z += lr.Weights[k][idx] * val
		}
		logits[k] = z
		if z > maxLogit {
			maxLogit = z
		}
	}

	var sum float64
	for k, z := range logits {
		e := math.Exp(z - maxLogit)
		logits[k] = e
		sum += e
	}
	for k := range logits {
		logits[k] /= sum
	}
	return logits
}

// fit runs full-batch gradient descent on mean cross-entropy with an L2
// penalty of 1/(2*C*n) on the weights. Intercepts are not penalized.
func (lr *logisticRegression) fit(ctx context.Context, xs []sparseVector, ys []int, opts TrainOptions) error {
	n := len(xs)
	if n == 0 {
		return nil
	}
	classes := len(lr.Bias)
	features := 0
	if classes > 0 {
		features = len(lr.Weights[0])
	}
	lambda := 1 / (opts.C * float64(n))

	gradW := make([][]float64, classes)
	for k := range gradW {
		gradW[k] = make([]float64, features)
	}
	gradB := make([]float64, classes)

	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		for k := range gradW {
			for j := range gradW[k] {
				gradW[k][j] = lr.Weights[k][j] * lambda
			}
			gradB[k] = 0
		}

		for i, x := range xs {
			probs := lr.probabilities(x)
			for k := range probs {
				diff := probs[k]
				if k == ys[i] {
					diff--
				}
				diff /= float64(n)
				gradB[k] += diff
				for idx, val := range x {
					gradW[k][idx] += diff * val
				}
			}
		}

		var gradNorm float64
		for k := range gradW {
			for j, g := range gradW[k] {
				lr.Weights[k][j] -= opts.LearningRate * g
				gradNorm += g * g
			}
			lr.Bias[k] -= opts.LearningRate * gradB[k]
			gradNorm += gradB[k] * gradB[k]
		}

		if opts.OnEpoch != nil {
			opts.OnEpoch(epoch)
		}
		if math.Sqrt(gradNorm) < opts.Tolerance {
			break
		}
	}
	return nil
}
