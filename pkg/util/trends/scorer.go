package trends

import (
	"math"
	"sync"

	"github.com/richard-senior/footytrends/internal/logger"
)

// NumFeatures is the length of a scorer feature vector:
// home position, home goals for, home goals against, then the same for away
const NumFeatures = 6

// TrainingRow is a feature vector followed by the result label
// (1 home win, 0 draw, -1 away win)
type TrainingRow [NumFeatures + 1]float64

// sampleMatches is the embedded demo data the shared scorer is fit on.
// It is a placeholder, not a tuned data set
var sampleMatches = []TrainingRow{
	{1, 50, 25, 3, 40, 30, 1},
	{2, 48, 28, 4, 42, 35, 1},
	{3, 55, 30, 1, 50, 25, -1},
	{5, 38, 40, 6, 35, 42, 0},
	{7, 32, 45, 8, 30, 48, -1},
	{9, 46, 32, 10, 28, 50, 1},
}

// Fitting parameters
const (
	learningRate   = 0.05
	iterations     = 3000
	regularisation = 1.0 // inverse strength C, L2 on the weights only
)

// Scorer is a multinomial logistic regression over standardised features.
// It is immutable once built
type Scorer struct {
	mean    [NumFeatures]float64
	scale   [NumFeatures]float64
	weights [3][NumFeatures]float64
	bias    [3]float64
}

var (
	sharedScorer *Scorer
	sharedOnce   sync.Once
)

// SharedScorer returns the process wide scorer, fitting it on first use
func SharedScorer() *Scorer {
	sharedOnce.Do(func() {
		sharedScorer = NewScorer(sampleMatches)
		logger.Debug("Fitted matchup scorer on sample matches", len(sampleMatches))
	})
	return sharedScorer
}

// NewScorer fits a scorer on rows with full batch gradient descent on the
// L2 regularised cross entropy
func NewScorer(rows []TrainingRow) *Scorer {
	s := &Scorer{}
	n := float64(len(rows))

	for j := 0; j < NumFeatures; j++ {
		for _, r := range rows {
			s.mean[j] += r[j]
		}
		s.mean[j] /= n
		variance := 0.0
		for _, r := range rows {
			d := r[j] - s.mean[j]
			variance += d * d
		}
		s.scale[j] = math.Sqrt(variance / n)
		if s.scale[j] == 0 {
			s.scale[j] = 1
		}
	}

	xs := make([][NumFeatures]float64, len(rows))
	ys := make([]int, len(rows))
	for i, r := range rows {
		for j := 0; j < NumFeatures; j++ {
			xs[i][j] = (r[j] - s.mean[j]) / s.scale[j]
		}
		ys[i] = labelIndex(r[NumFeatures])
	}

	for it := 0; it < iterations; it++ {
		var gw [3][NumFeatures]float64
		var gb [3]float64
		for i, x := range xs {
			p := s.softmax(x)
			for k := 0; k < 3; k++ {
				diff := p[k]
				if k == ys[i] {
					diff -= 1
				}
				gb[k] += diff
				for j := 0; j < NumFeatures; j++ {
					gw[k][j] += diff * x[j]
				}
			}
		}
		for k := 0; k < 3; k++ {
			s.bias[k] -= learningRate * gb[k]
			for j := 0; j < NumFeatures; j++ {
				s.weights[k][j] -= learningRate * (gw[k][j] + s.weights[k][j]/regularisation)
			}
		}
	}
	return s
}

// labelIndex maps -1/0/1 onto AwayWin/Draw/HomeWin
func labelIndex(label float64) int {
	switch {
	case label > 0:
		return int(HomeWin)
	case label < 0:
		return int(AwayWin)
	default:
		return int(Draw)
	}
}

// softmax over standardised features x
func (s *Scorer) softmax(x [NumFeatures]float64) [3]float64 {
	var logits [3]float64
	for k := 0; k < 3; k++ {
		logits[k] = s.bias[k]
		for j := 0; j < NumFeatures; j++ {
			logits[k] += s.weights[k][j] * x[j]
		}
	}
	top := math.Max(logits[0], math.Max(logits[1], logits[2]))
	var p [3]float64
	sum := 0.0
	for k := range logits {
		p[k] = math.Exp(logits[k] - top)
		sum += p[k]
	}
	for k := range p {
		p[k] /= sum
	}
	return p
}

// Predict returns the outcome distribution for a raw feature vector and the
// most likely outcome. Ties go to the lowest outcome index
func (s *Scorer) Predict(features [NumFeatures]float64) Prediction {
	var x [NumFeatures]float64
	for j := range features {
		x[j] = (features[j] - s.mean[j]) / s.scale[j]
	}
	p := s.softmax(x)
	best := 0
	for k := 1; k < 3; k++ {
		if p[k] > p[best] {
			best = k
		}
	}
	return Prediction{Label: Outcome(best), Probabilities: p}
}

// Features builds the scorer input for a home/away pairing
func Features(home, away TeamStats) [NumFeatures]float64 {
	return [NumFeatures]float64{
		float64(home.LeaguePosition), float64(home.GoalsFor), float64(home.GoalsAgainst),
		float64(away.LeaguePosition), float64(away.GoalsFor), float64(away.GoalsAgainst),
	}
}
