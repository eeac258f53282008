package httpd

import "strings"

// Expand substitutes %KEY% placeholders in page with values from vars in a
// single left-to-right pass. Replacement text is never rescanned. %% yields
// a literal percent sign; a %KEY% whose key is not in vars stays verbatim.
// Keys are upper-case letters, digits, and underscores.
func Expand(page string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(page))

	for i := 0; i < len(page); {
		c := page[i]
		if c != '%' {
			b.WriteByte(c)
			i++
			continue
		}

		// %% escape.
		if i+1 < len(page) && page[i+1] == '%' {
			b.WriteByte('%')
			i += 2
			continue
		}

		// Scan a candidate key up to the closing %.
		j := i + 1
		for j < len(page) && isKeyByte(page[j]) {
			j++
		}
		if j > i+1 && j < len(page) && page[j] == '%' {
			if val, ok := vars[page[i+1:j]]; ok {
				b.WriteString(val)
				i = j + 1
				continue
			}
		}

		// Not a known placeholder; the percent passes through and scanning
		// resumes at the next byte.
		b.WriteByte('%')
		i++
	}
	return b.String()
}

func isKeyByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
