package codes

import (
	"fmt"
	"strings"

	"github.com/reusee/taicell/kbs"
)

const dialect = `
The code runs in a Starlark interpreter, not CPython.
- The dataset is the table ` + "`df`" + `, already loaded. Never recreate it and never build mock data.
- Assign the transformed table back to ` + "`df`" + ` when the step changes the data.
- Table methods: head, tail, filter(fn), query(expr), select, drop, dropna, fillna, sort(by, reverse=False), rename, with_column(name, values), map, rows, column, unique, count, sum, mean, min, max, std, group(by, column, agg="sum"), value_counts, describe, append. ` + "`df[\"col\"]`" + ` reads a column as a list, ` + "`df[\"col\"] = values`" + ` replaces it. Attributes: columns, shape.
- Use ` + "`display(value)`" + ` to show tables and values. Use print only for short notes.
- Charts: ` + "`fig = plot.bar(df, x, y)`" + `, plot.line, plot.scatter, ` + "`plot.hist(df, column, bins=10)`" + `.
- Available modules: math, json, time, plot, frames, struct, kb. Python style imports are accepted.
- No classes, no try/except, no with, no f-strings. Use "%s" % value or str.format.
`

const systemPrompt = `You write data analysis code for one step of an exploratory analysis at a time.` + dialect

func planPrompt(objective, metadata string) string {
	return fmt.Sprintf(`Act as a data architect.
Objective: %s
Dataset metadata:
%s

Write an exploratory data analysis plan.
No introduction. Only a numbered list, one step per line, in the form "1. ...".
`, objective, metadata)
}

func selectPrompt(step string, summaries []kbs.Summary) string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "Step: %q\n", step)
	b.WriteString("Knowledge base functions:\n")
	for _, summary := range summaries {
		fmt.Fprintf(b, "- %s: %s\n", summary.Title, summary.Description)
	}
	b.WriteString(`
Choose the functions that help implement the step. Choose none if nothing fits.
Answer only JSON: {"functions": ["Title1"]}
`)
	return b.String()
}

func generatePrompt(req Request) string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "Objective: %s\n", req.Objective)
	fmt.Fprintf(b, "Step: %s\n", req.Step)
	fmt.Fprintf(b, "Dataset metadata:\n%s\n", req.Metadata)
	if req.Hints != "" {
		fmt.Fprintf(b, "\nKnowledge base functions, loadable with `load(\"kb\", ...)`:\n```python\n%s\n```\n", req.Hints)
	}
	b.WriteString("\nReply with the code only, in one ```python block.\n")
	return b.String()
}

func fixPrompt(req Request) string {
	b := new(strings.Builder)
	b.WriteString("Fix the code.\n")
	fmt.Fprintf(b, "Objective: %s\n", req.Objective)
	fmt.Fprintf(b, "Step: %s\n", req.Step)
	fmt.Fprintf(b, "Dataset metadata:\n%s\n", req.Metadata)
	fmt.Fprintf(b, "Error:\n%s\n", req.Error)
	fmt.Fprintf(b, "Code:\n```python\n%s\n```\n", req.Code)
	if req.Hints != "" {
		fmt.Fprintf(b, "\nKnowledge base functions:\n```python\n%s\n```\n", req.Hints)
	}
	b.WriteString("\nReply with the whole corrected code only, in one ```python block.\n")
	return b.String()
}
