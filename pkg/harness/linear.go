package harness

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// logisticRegression is a one-vs-rest logistic classifier trained with
// full-batch gradient descent on the cross-entropy loss. Weights start at
// zero, so training is deterministic.
type logisticRegression struct {
	epochs  int
	lr      float64
	classes []float64
	weights [][]float64 // per class: feature weights followed by the bias
}

func newLogisticRegression() *logisticRegression {
	return &logisticRegression{epochs: 200, lr: 0.1}
}

func (m *logisticRegression) fit(features [][]float64, target []float64) error {
	if len(features) == 0 {
		return errors.New("logistic regression: no training rows")
	}
	m.classes = sortedDistinct(target)
	m.weights = make([][]float64, len(m.classes))
	binary := make([]float64, len(target))
	for c, class := range m.classes {
		for i, v := range target {
			if v == class {
				binary[i] = 1
			} else {
				binary[i] = 0
			}
		}
		m.weights[c] = trainSigmoid(features, binary, m.lr, m.epochs)
	}
	return nil
}

func (m *logisticRegression) predict(features [][]float64) []float64 {
	out := make([]float64, len(features))
	for i, row := range features {
		out[i] = m.classes[argmaxScore(m.weights, row)]
	}
	return out
}

func trainSigmoid(features [][]float64, target []float64, lr float64, epochs int) []float64 {
	cols := len(features[0])
	w := make([]float64, cols+1)
	grad := make([]float64, cols+1)
	n := float64(len(features))
	for e := 0; e < epochs; e++ {
		for j := range grad {
			grad[j] = 0
		}
		for i, row := range features {
			d := sigmoid(dotBias(w, row)) - target[i]
			for j, x := range row {
				grad[j] += d * x
			}
			grad[cols] += d
		}
		for j := range w {
			w[j] -= lr * grad[j] / n
		}
	}
	return w
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// linearRegression fits ordinary least squares with an intercept via a
// QR solve. Constant feature columns are excluded from the design matrix and
// given zero coefficients.
type linearRegression struct {
	coefficients []float64
	intercept    float64
}

func (m *linearRegression) fit(features [][]float64, target []float64) error {
	if len(features) == 0 {
		return errors.New("linear regression: no training rows")
	}
	active := varyingColumns(features)
	rows := len(features)
	a := mat.NewDense(rows, len(active)+1, nil)
	for i, row := range features {
		a.Set(i, 0, 1)
		for j, col := range active {
			a.Set(i, j+1, row[col])
		}
	}
	b := mat.NewVecDense(rows, append([]float64(nil), target...))

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("linear regression solve: %w", err)
		}
	}
	m.intercept = beta.AtVec(0)
	m.coefficients = make([]float64, len(features[0]))
	for j, col := range active {
		m.coefficients[col] = beta.AtVec(j + 1)
	}
	return nil
}

func (m *linearRegression) predict(features [][]float64) []float64 {
	out := make([]float64, len(features))
	for i, row := range features {
		sum := m.intercept
		for j, v := range row {
			sum += m.coefficients[j] * v
		}
		out[i] = sum
	}
	return out
}

func varyingColumns(features [][]float64) []int {
	if len(features) == 0 {
		return nil
	}
	var active []int
	for j := range features[0] {
		first := features[0][j]
		for i := 1; i < len(features); i++ {
			if features[i][j] != first {
				active = append(active, j)
				break
			}
		}
	}
	return active
}

// linearSVC is a linear-kernel support-vector classifier trained one-vs-rest
// with a full-batch subgradient of the L2-regularized hinge loss.
type linearSVC struct {
	epochs  int
	lr      float64
	lambda  float64
	classes []float64
	weights [][]float64
}

func newLinearSVC() *linearSVC {
	return &linearSVC{epochs: 300, lr: 0.05, lambda: 1e-4}
}

func (m *linearSVC) fit(features [][]float64, target []float64) error {
	if len(features) == 0 {
		return errors.New("svc: no training rows")
	}
	m.classes = sortedDistinct(target)
	m.weights = make([][]float64, len(m.classes))
	signed := make([]float64, len(target))
	for c, class := range m.classes {
		for i, v := range target {
			if v == class {
				signed[i] = 1
			} else {
				signed[i] = -1
			}
		}
		m.weights[c] = trainHinge(features, signed, m.lr, m.lambda, m.epochs)
	}
	return nil
}

func (m *linearSVC) predict(features [][]float64) []float64 {
	out := make([]float64, len(features))
	for i, row := range features {
		out[i] = m.classes[argmaxScore(m.weights, row)]
	}
	return out
}

func trainHinge(features [][]float64, signed []float64, lr, lambda float64, epochs int) []float64 {
	cols := len(features[0])
	w := make([]float64, cols+1)
	grad := make([]float64, cols+1)
	n := float64(len(features))
	for e := 0; e < epochs; e++ {
		for j := range grad {
			grad[j] = 0
		}
		for i, row := range features {
			if signed[i]*dotBias(w, row) >= 1 {
				continue
			}
			for j, x := range row {
				grad[j] -= signed[i] * x
			}
			grad[cols] -= signed[i]
		}
		for j := 0; j < cols; j++ {
			w[j] -= lr * (grad[j]/n + lambda*w[j])
		}
		w[cols] -= lr * grad[cols] / n
	}
	return w
}

// linearSVR is a linear support-vector regressor with an epsilon-insensitive
// loss. Features and target are standardized internally before the descent
// and predictions are mapped back to the target scale.
type linearSVR struct {
	epochs  int
	lr      float64
	lambda  float64
	epsilon float64

	scaler *standardScaler
	yMean  float64
	yScale float64
	w      []float64
}

func newLinearSVR() *linearSVR {
	return &linearSVR{epochs: 300, lr: 0.05, lambda: 1e-4, epsilon: 0.1}
}

func (m *linearSVR) fit(features [][]float64, target []float64) error {
	if len(features) == 0 {
		return errors.New("svr: no training rows")
	}
	m.scaler = fitScaler(features)
	scaled := m.scaler.transform(features)

	m.yMean = stat.Mean(target, nil)
	m.yScale = stat.PopStdDev(target, nil)
	if m.yScale == 0 {
		m.yScale = 1
	}
	ys := make([]float64, len(target))
	for i, v := range target {
		ys[i] = (v - m.yMean) / m.yScale
	}

	cols := len(scaled[0])
	w := make([]float64, cols+1)
	grad := make([]float64, cols+1)
	n := float64(len(scaled))
	for e := 0; e < m.epochs; e++ {
		for j := range grad {
			grad[j] = 0
		}
		for i, row := range scaled {
			resid := dotBias(w, row) - ys[i]
			if math.Abs(resid) <= m.epsilon {
				continue
			}
			s := 1.0
			if resid < 0 {
				s = -1
			}
			for j, x := range row {
				grad[j] += s * x
			}
			grad[cols] += s
		}
		for j := 0; j < cols; j++ {
			w[j] -= m.lr * (grad[j]/n + m.lambda*w[j])
		}
		w[cols] -= m.lr * grad[cols] / n
	}
	m.w = w
	return nil
}

func (m *linearSVR) predict(features [][]float64) []float64 {
	scaled := m.scaler.transform(features)
	out := make([]float64, len(scaled))
	for i, row := range scaled {
		out[i] = dotBias(m.w, row)*m.yScale + m.yMean
	}
	return out
}

func dotBias(w []float64, row []float64) float64 {
	sum := w[len(w)-1]
	for j, x := range row {
		sum += w[j] * x
	}
	return sum
}

func argmaxScore(weights [][]float64, row []float64) int {
	best, bestScore := 0, math.Inf(-1)
	for c := range weights {
		if score := dotBias(weights[c], row); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func sortedDistinct(values []float64) []float64 {
	seen := make(map[float64]struct{}, len(values))
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
