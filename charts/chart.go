package charts

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
	KindHist    Kind = "hist"
)

type Chart struct {
	Kind   Kind     `json:"kind"`
	Title  string   `json:"title,omitempty"`
	XLabel string   `json:"x_label,omitempty"`
	YLabel string   `json:"y_label,omitempty"`
	Series []Series `json:"series"`
}

// Series holds parallel X and Y points. X values are table cells rendered as strings.
type Series struct {
	Name string    `json:"name"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

func (c *Chart) String() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "%s chart", c.Kind)
	if c.Title != "" {
		fmt.Fprintf(b, " %q", c.Title)
	}
	for _, s := range c.Series {
		fmt.Fprintf(b, "\n  %s: %d points", s.Name, len(s.Y))
	}
	return b.String()
}
