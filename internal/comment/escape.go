package comment

import "strings"

// TabEscape is the two-character sequence standing in for a real tab in
// export files, where a tab is the tsv field separator.
const TabEscape = `\t`

// EscapeTabs replaces every tab with TabEscape and doubles every backslash,
// so that UnescapeTabs(EscapeTabs(s)) == s for any s.
func EscapeTabs(s string) string {
	if !strings.ContainsAny(s, "\t\\") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\t':
			sb.WriteString(TabEscape)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// UnescapeTabs reverses EscapeTabs in a single left-to-right pass. A
// backslash followed by anything other than `t` or `\`, and a trailing
// backslash, are kept as they are.
func UnescapeTabs(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 't':
				sb.WriteByte('\t')
				i++
				continue
			case '\\':
				sb.WriteByte('\\')
				i++
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
