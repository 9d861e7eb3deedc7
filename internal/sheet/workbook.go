package sheet

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/kms"
)

const anonymousPartner = "Partner"

// FormalData is everything that goes into the formal review workbook of
// one employee.
type FormalData struct {
	EmployeeName  string
	PeriodLabel   string
	Internal      []domain.SubmittedReview
	External      []domain.SubmittedReview
	Self          []domain.SubmittedReview
	WrittenBy     []domain.NeededReview
	ReceivedFor   []domain.NeededReview
	Training      []domain.TrainingRecord
	ProjectCounts []kms.ProjectCount
}

// InformalData is the input of the condensed scored results sheet.
type InformalData struct {
	EmployeeName string
	PeriodLabel  string
	Internal     []domain.SubmittedReview
}

func writeCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Font:      &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return err
	}

	first, err := excelize.CoordinatesToCellName(1, 1)
	if err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 25); err != nil {
		return err
	}

	for idx, value := range headers {
		if err := writeCell(f, sheet, idx+1, 1, value); err != nil {
			return err
		}
	}

	return nil
}

func addSheet(f *excelize.File, name string, headers []string) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeHeader(f, name, headers)
}

func sortedQuestions(reviews []domain.SubmittedReview) []string {
	seen := make(map[string]struct{})
	var questions []string

	for _, r := range reviews {
		for q := range r.Form {
			if _, ok := seen[q]; !ok {
				seen[q] = struct{}{}
				questions = append(questions, q)
			}
		}
	}

	sort.Strings(questions)

	return questions
}

// writeReviewSheet lists submissions row by row, one column per question.
// Partner reviewers are anonymized when anonymizePartners is set.
func writeReviewSheet(f *excelize.File, sheet string, reviews []domain.SubmittedReview, anonymizePartners bool) error {
	questions := sortedQuestions(reviews)

	headers := append([]string{"Reviewer", "Role", "Project"}, questions...)
	if err := addSheet(f, sheet, headers); err != nil {
		return err
	}

	for i, r := range reviews {
		row := i + 2

		reviewer := r.ReviewerName
		if anonymizePartners && r.Kind == domain.ReviewPartner {
			reviewer = anonymousPartner
		}

		if err := writeCell(f, sheet, 1, row, reviewer); err != nil {
			return err
		}
		if err := writeCell(f, sheet, 2, row, string(r.Kind)); err != nil {
			return err
		}
		if err := writeCell(f, sheet, 3, row, r.ProjectName); err != nil {
			return err
		}

		for qi, q := range questions {
			if answer, ok := r.Form[q]; ok {
				if err := writeCell(f, sheet, 4+qi, row, answer); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func writeSummarySheet(f *excelize.File, reviews []domain.SubmittedReview) error {
	pivot := BuildPivot(reviews)

	headers := []string{"Question"}
	for _, k := range pivot.Kinds {
		headers = append(headers, k.Title())
	}
	headers = append(headers, "Overall")

	if err := addSheet(f, "Summary", headers); err != nil {
		return err
	}

	for i, q := range pivot.Questions {
		row := i + 2

		if err := writeCell(f, "Summary", 1, row, q); err != nil {
			return err
		}

		for ki, k := range pivot.Kinds {
			if avg, ok := pivot.ByKind[q][k]; ok {
				if err := writeCell(f, "Summary", 2+ki, row, avg); err != nil {
					return err
				}
			}
		}

		if err := writeCell(f, "Summary", 2+len(pivot.Kinds), row, pivot.Overall[q]); err != nil {
			return err
		}
	}

	return nil
}

func writeNeededSheet(f *excelize.File, sheet string, entries []domain.NeededReview) error {
	if err := addSheet(f, sheet, []string{"Review", "Reviewer", "For", "Project", "Due", "Status"}); err != nil {
		return err
	}

	for i, nr := range entries {
		row := i + 2
		values := []interface{}{
			nr.Kind.Title(), nr.ReviewerName, nr.EmployeeName,
			nr.ProjectName, nr.DueDate.Format("2006-01-02"), string(nr.Status),
		}

		for col, v := range values {
			if err := writeCell(f, sheet, col+1, row, v); err != nil {
				return err
			}
		}
	}

	return nil
}

// FormalWorkbook builds the multi-tab workbook filed in the employee's
// period folder for a formal cycle.
func FormalWorkbook(data FormalData) ([]byte, error) {
	const op = "internal.sheet.FormalWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	if err := writeReviewSheet(f, "Internal Reviews", data.Internal, true); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := writeSummarySheet(f, data.Internal); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := writeReviewSheet(f, "External Reviews", data.External, false); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := writeReviewSheet(f, "Self Appraisal", data.Self, false); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := writeNeededSheet(f, "Reviews Written", data.WrittenBy); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := writeNeededSheet(f, "Reviews Received", data.ReceivedFor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := addSheet(f, "Training", []string{"Course", "Start", "End", "Completed", "Rescheduled", "Online"}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i, tr := range data.Training {
		row := i + 2
		values := []interface{}{
			tr.Course, tr.StartDate.Format("2006-01-02"), tr.EndDate.Format("2006-01-02"),
			tr.Completed, tr.Rescheduled, tr.Online,
		}

		for col, v := range values {
			if err := writeCell(f, "Training", col+1, row, v); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := addSheet(f, "Project Counts", []string{"Project", "Deliverables"}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i, pc := range data.ProjectCounts {
		row := i + 2
		if err := writeCell(f, "Project Counts", 1, row, pc.ProjectName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := writeCell(f, "Project Counts", 2, row, pc.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}

	return buf.Bytes(), nil
}

// InformalResults builds the condensed scored results mailed to the
// employee in an informal cycle.
func InformalResults(data InformalData) ([]byte, error) {
	const op = "internal.sheet.InformalResults"

	f := excelize.NewFile()
	defer f.Close()

	pivot := BuildPivot(data.Internal)

	if err := addSheet(f, "Results", []string{"Question", "Average Score"}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	row := 1
	for _, q := range pivot.Questions {
		row++
		if err := writeCell(f, "Results", 1, row, q); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := writeCell(f, "Results", 2, row, pivot.Overall[q]); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	row += 2
	if err := writeCell(f, "Results", 1, row, "Total"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := writeCell(f, "Results", 2, row, pivot.TotalScore()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}

	return buf.Bytes(), nil
}

// ReviewLog builds the ledger overview workbook.
func ReviewLog(entries []domain.NeededReview) ([]byte, error) {
	const op = "internal.sheet.ReviewLog"

	f := excelize.NewFile()
	defer f.Close()

	if err := addSheet(f, "Review Log", []string{"Form", "Project", "Reviewer", "Reviewee", "First Mailed", "Status"}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i, nr := range entries {
		row := i + 2
		values := []interface{}{
			nr.ID, nr.ProjectName, nr.ReviewerName, nr.EmployeeName,
			nr.CreatedAt.Format("2006-01-02"), string(nr.Status),
		}

		for col, v := range values {
			if err := writeCell(f, "Review Log", col+1, row, v); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}

	return buf.Bytes(), nil
}
