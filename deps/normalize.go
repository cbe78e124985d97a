package deps

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	importPattern     = regexp.MustCompile(`^import\s+(.+?)\s*(#.*)?$`)
	fromImportPattern = regexp.MustCompile(`^from\s+([\w.]+)\s+import\s+(.+?)\s*(#.*)?$`)
	dottedName        = regexp.MustCompile(`^[A-Za-z_][\w]*(\.[A-Za-z_][\w]*)*$`)
	identifier        = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	openFromImport    = regexp.MustCompile(`^from\s+[\w.]+\s+import\s*\(`)
)

// Normalize rewrites top-level Python style import lines into load statements.
// Lines that do not match the accepted forms are left as they are.
func Normalize(code string) string {
	lines := strings.Split(code, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		end := i
		if openFromImport.MatchString(line) && !strings.Contains(line, ")") {
			line, end = joinParenthesized(lines, i)
		}
		rewritten, ok := rewriteImport(line)
		if !ok {
			continue
		}
		lines[i] = rewritten
		// keep line numbers of the following code
		for j := i + 1; j <= end; j++ {
			lines[j] = ""
		}
		i = end
	}
	return strings.Join(lines, "\n")
}

// joinParenthesized joins a from-import whose name list spans lines, up to the closing parenthesis.
func joinParenthesized(lines []string, start int) (string, int) {
	parts := []string{stripComment(lines[start])}
	for j := start + 1; j < len(lines); j++ {
		part := stripComment(lines[j])
		parts = append(parts, part)
		if strings.Contains(part, ")") {
			return strings.Join(parts, " "), j
		}
	}
	return lines[start], start
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func rewriteImport(line string) (string, bool) {

	if m := fromImportPattern.FindStringSubmatch(line); m != nil {
		module := m[1]
		names := strings.Trim(strings.TrimSpace(m[2]), "()")
		if names == "*" {
			return fmt.Sprintf("load(%q, %q)", module, lastSegment(module)), true
		}
		var args []string
		for part := range strings.SplitSeq(names, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, alias, hasAlias := cutAlias(part)
			if !identifier.MatchString(name) || hasAlias && !identifier.MatchString(alias) {
				return "", false
			}
			if hasAlias {
				args = append(args, fmt.Sprintf("%s = %q", alias, name))
			} else {
				args = append(args, fmt.Sprintf("%q", name))
			}
		}
		if len(args) == 0 {
			return "", false
		}
		return fmt.Sprintf("load(%q, %s)", module, strings.Join(args, ", ")), true
	}

	if m := importPattern.FindStringSubmatch(line); m != nil {
		var loads []string
		for part := range strings.SplitSeq(m[1], ",") {
			part = strings.TrimSpace(part)
			module, alias, hasAlias := cutAlias(part)
			if !dottedName.MatchString(module) || hasAlias && !identifier.MatchString(alias) {
				return "", false
			}
			switch {
			case hasAlias:
				loads = append(loads, fmt.Sprintf("load(%q, %s = %q)", module, alias, lastSegment(module)))
			default:
				// import a.b binds a
				root := strings.Split(module, ".")[0]
				loads = append(loads, fmt.Sprintf("load(%q, %q)", root, root))
			}
		}
		return strings.Join(loads, "; "), true
	}

	return "", false
}

func cutAlias(part string) (name, alias string, ok bool) {
	fields := strings.Fields(part)
	if len(fields) == 3 && fields[1] == "as" {
		return fields[0], fields[2], true
	}
	if len(fields) == 1 {
		return fields[0], "", false
	}
	return part, "", false
}

func lastSegment(module string) string {
	if i := strings.LastIndex(module, "."); i >= 0 {
		return module[i+1:]
	}
	return module
}
