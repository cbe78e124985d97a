package cells

import (
	"regexp"
	"strings"
)

var (
	planHeaders = regexp.MustCompile(`(?i)plano de análise \(lista\):|exemplo de resposta:|plano de análise:|analysis plan:`)
	stepStart   = regexp.MustCompile(`\d+\.\s`)
	stepPrefix  = regexp.MustCompile(`^\d+\.\s`)
)

// SplitPlan cuts a numbered plan into its steps. Text that is not part of a numbered step is dropped.
func SplitPlan(plan string) []string {
	plan = planHeaders.ReplaceAllString(plan, "")
	locs := stepStart.FindAllStringIndex(plan, -1)
	var steps []string
	for i, loc := range locs {
		end := len(plan)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		step := strings.TrimSpace(plan[loc[0]:end])
		if stepPrefix.MatchString(step) {
			steps = append(steps, step)
		}
	}
	return steps
}
