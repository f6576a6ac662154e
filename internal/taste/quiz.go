package taste

import "math"

// Quiz shape: 21 Likert questions on a 1..5 scale, three consecutive
// questions per axis in AxisNames order.
const (
	NumQuestions     = 21
	QuestionsPerAxis = 3

	neutralAnswer = 3
)

// FoldAnswers folds quiz answers (question id 1..21 -> answer 1..5) into a
// preference vector: each axis is the mean of its three answers shifted to
// -2..2, rounded to the nearest integer and clamped to the axis bounds.
// Missing or zero answers count as neutral. Pure and deterministic.
func FoldAnswers(answers map[int]int) Vector {
	var sums [NumAxes]float64
	for q := 1; q <= NumQuestions; q++ {
		raw := answers[q]
		if raw == 0 {
			raw = neutralAnswer
		}
		axis := (q - 1) / QuestionsPerAxis
		sums[axis] += float64(raw - neutralAnswer)
	}

	var v Vector
	for i := range v {
		rounded := int(math.Round(sums[i] / QuestionsPerAxis))
		if rounded < AxisMin {
			rounded = AxisMin
		}
		if rounded > AxisMax {
			rounded = AxisMax
		}
		v[i] = rounded
	}
	return v
}

// QuizResult is the outcome of scoring a completed quiz: the folded vector,
// its cluster assignment, and cluster display metadata when available.
type QuizResult struct {
	Vector    Vector
	ClusterID int
	Cluster   *ClusterMetadata
}

// ScoreQuiz folds the answers and resolves the cluster assignment through
// the match table. A nil table assigns the fallback cluster.
func ScoreQuiz(answers map[int]int, table *ClusterTable) QuizResult {
	v := FoldAnswers(answers)
	clusterID := table.Lookup(v)

	result := QuizResult{Vector: v, ClusterID: clusterID}
	if meta, ok := table.Metadata(clusterID); ok {
		result.Cluster = &meta
	}
	return result
}
