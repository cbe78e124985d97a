package frames

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type Type string

const (
	TypeNull   Type = "null"
	TypeBool   Type = "bool"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeString Type = "string"
	TypeMixed  Type = "mixed"
)

func columnType(values []any) Type {
	var seen Type
	for _, v := range values {
		var t Type
		switch v.(type) {
		case nil:
			continue
		case bool:
			t = TypeBool
		case int64:
			t = TypeInt
		case float64:
			t = TypeFloat
		case string:
			t = TypeString
		}
		switch {
		case seen == "":
			seen = t
		case seen == t:
		case seen == TypeInt && t == TypeFloat, seen == TypeFloat && t == TypeInt:
			seen = TypeFloat
		default:
			return TypeMixed
		}
	}
	if seen == "" {
		return TypeNull
	}
	return seen
}

type ColumnInfo struct {
	Name        string  `json:"name"`
	Type        Type    `json:"type"`
	NonNull     int     `json:"non_null"`
	Nulls       int     `json:"nulls"`
	NullPercent float64 `json:"null_percent"`
	Distinct    int     `json:"distinct"`
}

type Metadata struct {
	Rows        int          `json:"rows"`
	Cols        int          `json:"cols"`
	Numeric     []string     `json:"numeric"`
	Categorical []string     `json:"categorical"`
	Columns     []ColumnInfo `json:"columns"`
	// Missing lists columns with nulls, highest null percentage first.
	Missing []ColumnInfo `json:"missing"`
}

func Describe(f *Frame) Metadata {
	ret := Metadata{
		Rows: f.Len(),
		Cols: f.Width(),
	}
	for _, name := range f.columns {
		values, _ := f.Column(name)
		info := ColumnInfo{
			Name: name,
			Type: columnType(values),
		}
		distinct := make(map[any]bool)
		for _, v := range values {
			if isMissing(v) {
				info.Nulls++
				continue
			}
			info.NonNull++
			distinct[v] = true
		}
		info.Distinct = len(distinct)
		if len(values) > 0 {
			info.NullPercent = float64(info.Nulls) * 100 / float64(len(values))
		}
		switch info.Type {
		case TypeInt, TypeFloat:
			ret.Numeric = append(ret.Numeric, name)
		case TypeString, TypeBool, TypeMixed:
			ret.Categorical = append(ret.Categorical, name)
		}
		ret.Columns = append(ret.Columns, info)
		if info.Nulls > 0 {
			ret.Missing = append(ret.Missing, info)
		}
	}
	slices.SortStableFunc(ret.Missing, func(a, b ColumnInfo) int {
		return cmp.Compare(b.NullPercent, a.NullPercent)
	})
	return ret
}

func (m Metadata) String() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "shape: %d rows x %d columns\n", m.Rows, m.Cols)
	fmt.Fprintf(b, "numeric columns: %s\n", strings.Join(m.Numeric, ", "))
	fmt.Fprintf(b, "categorical columns: %s\n", strings.Join(m.Categorical, ", "))
	b.WriteString("columns:\n")
	for _, c := range m.Columns {
		fmt.Fprintf(b, "  %s: %s, %d non-null, %d distinct\n", c.Name, c.Type, c.NonNull, c.Distinct)
	}
	if len(m.Missing) == 0 {
		b.WriteString("missing values: none\n")
	} else {
		b.WriteString("missing values:\n")
		for _, c := range m.Missing {
			fmt.Fprintf(b, "  %s: %d (%.2f%%)\n", c.Name, c.Nulls, c.NullPercent)
		}
	}
	return b.String()
}
