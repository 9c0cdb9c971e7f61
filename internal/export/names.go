package export

import (
	"fmt"
	"strings"
	"time"
)

// ComparisonFileName is the name of the delivered scoring report
const ComparisonFileName = "ai_answers_comparison.csv"

// FileName builds <exam>_<wrong|all>_<YYYY-MM-DD>.<ext>
func FileName(exam string, onlyWrong bool, ext string, date time.Time) string {
	exam = strings.TrimSpace(exam)
	if exam == "" {
		exam = "exam"
	}
	scope := "all"
	if onlyWrong {
		scope = "wrong"
	}
	return SanitizeFilename(fmt.Sprintf("%s_%s_%s.%s", exam, scope, date.Format("2006-01-02"), strings.TrimPrefix(ext, ".")))
}
