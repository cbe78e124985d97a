package codes

import (
	"regexp"
	"strings"
)

var (
	tagFencePattern  = regexp.MustCompile("(?s)```(?:python|py|starlark|star)[ \t]*\\n?(.*?)```")
	bareFencePattern = regexp.MustCompile("(?s)```[A-Za-z]*[ \t]*\\n?(.*?)```")
)

// ExtractCode returns the first fenced block of the reply, preferring python or starlark fences. A reply without fences is taken whole.
func ExtractCode(text string) string {
	if match := tagFencePattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	if match := bareFencePattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(text)
}

var jsonFencePattern = regexp.MustCompile("(?s)```(?:json)?[ \t]*\\n?(.*?)```")

func extractJSON(text string) string {
	if match := jsonFencePattern.FindStringSubmatch(text); match != nil {
		text = match[1]
	}
	text = strings.TrimSpace(text)
	// tolerate prose around the object
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}
	return text
}
