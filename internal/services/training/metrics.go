package training

import (
	"slices"
	"strconv"

	"TrendPredictor/internal/domain/models"
)

// Report keys for the averaged rows.
const (
	MacroAvg    = "macro avg"
	WeightedAvg = "weighted avg"
)

// Evaluate returns accuracy and a per-class precision/recall/F1 report keyed
// by class label ("0", "1") plus macro and support-weighted averages. Only
// classes present in yTrue or yPred are reported. Undefined ratios are 0.
func Evaluate(yTrue, yPred []int) (float64, map[string]models.ClassReport) {
	report := make(map[string]models.ClassReport)
	if len(yTrue) == 0 {
		return 0, report
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	var classes []int
	for _, v := range append(append([]int(nil), yTrue...), yPred...) {
		if !slices.Contains(classes, v) {
			classes = append(classes, v)
		}
	}
	slices.Sort(classes)

	var macro, weighted models.ClassReport
	total := 0
	for _, c := range classes {
		var tp, fp, fn, support int
		for i := range yTrue {
			switch {
			case yTrue[i] == c && yPred[i] == c:
				tp++
			case yTrue[i] != c && yPred[i] == c:
				fp++
			case yTrue[i] == c && yPred[i] != c:
				fn++
			}
			if yTrue[i] == c {
				support++
			}
		}
		r := models.ClassReport{
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			Support:   support,
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		report[strconv.Itoa(c)] = r

		macro.Precision += r.Precision
		macro.Recall += r.Recall
		macro.F1 += r.F1
		w := float64(support)
		weighted.Precision += r.Precision * w
		weighted.Recall += r.Recall * w
		weighted.F1 += r.F1 * w
		total += support
	}

	k := float64(len(classes))
	macro.Precision /= k
	macro.Recall /= k
	macro.F1 /= k
	macro.Support = total
	if total > 0 {
		weighted.Precision /= float64(total)
		weighted.Recall /= float64(total)
		weighted.F1 /= float64(total)
	}
	weighted.Support = total

	report[MacroAvg] = macro
	report[WeightedAvg] = weighted
	return float64(correct) / float64(len(yTrue)), report
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
