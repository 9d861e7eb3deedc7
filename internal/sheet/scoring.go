// Package sheet builds the spreadsheet artifacts of the review cycle:
// the formal per-employee workbook, the condensed informal results and
// the review log.
package sheet

import (
	"sort"
	"strings"

	"github.com/fairview/review-cycle-service/internal/domain"
)

// Score maps a high/medium/low answer onto its numeric value. The second
// return is false for free-text answers, which carry no score.
func Score(answer string) (int, bool) {
	switch strings.ToUpper(strings.TrimSpace(answer)) {
	case "H", "HIGH":
		return 3, true
	case "M", "MEDIUM":
		return 2, true
	case "L", "LOW":
		return 1, true
	default:
		return 0, false
	}
}

type scoreAcc struct {
	sum   int
	count int
}

func (a *scoreAcc) add(v int) {
	a.sum += v
	a.count++
}

func (a *scoreAcc) average() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.sum) / float64(a.count)
}

// Pivot is the scored summary of a set of internal reviews: per question,
// the average score per reviewer kind and overall.
type Pivot struct {
	Questions []string
	Kinds     []domain.ReviewKind
	ByKind    map[string]map[domain.ReviewKind]float64
	Overall   map[string]float64
}

// BuildPivot aggregates the scorable answers of the given submissions.
// Questions keep first-seen order; free-text answers are ignored.
func BuildPivot(reviews []domain.SubmittedReview) *Pivot {
	type key struct {
		question string
		kind     domain.ReviewKind
	}

	perKind := make(map[key]*scoreAcc)
	perQuestion := make(map[string]*scoreAcc)
	kindSet := make(map[domain.ReviewKind]struct{})

	var questions []string
	seen := make(map[string]struct{})

	for _, r := range reviews {
		for question, answer := range r.Form {
			v, ok := Score(answer)
			if !ok {
				continue
			}

			if _, dup := seen[question]; !dup {
				seen[question] = struct{}{}
				questions = append(questions, question)
			}

			kindSet[r.Kind] = struct{}{}

			k := key{question: question, kind: r.Kind}
			if perKind[k] == nil {
				perKind[k] = &scoreAcc{}
			}
			perKind[k].add(v)

			if perQuestion[question] == nil {
				perQuestion[question] = &scoreAcc{}
			}
			perQuestion[question].add(v)
		}
	}

	sort.Strings(questions)

	kinds := make([]domain.ReviewKind, 0, len(kindSet))
	for _, k := range []domain.ReviewKind{domain.ReviewStaff, domain.ReviewManager, domain.ReviewPartner} {
		if _, ok := kindSet[k]; ok {
			kinds = append(kinds, k)
		}
	}

	p := &Pivot{
		Questions: questions,
		Kinds:     kinds,
		ByKind:    make(map[string]map[domain.ReviewKind]float64, len(questions)),
		Overall:   make(map[string]float64, len(questions)),
	}

	for _, q := range questions {
		p.ByKind[q] = make(map[domain.ReviewKind]float64, len(kinds))

		for _, k := range kinds {
			if acc, ok := perKind[key{question: q, kind: k}]; ok {
				p.ByKind[q][k] = acc.average()
			}
		}

		p.Overall[q] = perQuestion[q].average()
	}

	return p
}

// TotalScore sums the overall question averages of a pivot.
func (p *Pivot) TotalScore() float64 {
	var total float64
	for _, q := range p.Questions {
		total += p.Overall[q]
	}
	return total
}
