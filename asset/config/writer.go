package config

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Write renders doc back to the INI-like text format, grouping keys under
// their section header in first-seen order; keys without a section are
// written first, before any header. Parsing Write's output reproduces an
// equivalent Document, except that the format has no escape syntax: a
// string containing a line break, or an array item containing a comma,
// does not survive the round trip.
func Write(w io.Writer, doc *Document) error {
	keys := doc.Keys()
	// Once a header is written, the parser files every later key under it.
	sort.SliceStable(keys, func(i, j int) bool {
		return !strings.Contains(keys[i], ".") && strings.Contains(keys[j], ".")
	})
	currentSection := ""
	first := true
	for _, key := range keys {
		value, _ := doc.Get(key)
		section, leaf := splitSection(key)

		if section != currentSection || first {
			if !first {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if section != "" {
				if _, err := fmt.Fprintf(w, "[%s]\n", section); err != nil {
					return err
				}
			}
			currentSection = section
			first = false
		}

		if _, err := fmt.Fprintf(w, "%s = %s\n", leaf, formatValue(value)); err != nil {
			return err
		}
	}
	return nil
}

// splitSection splits a full dotted key into its section prefix (possibly
// empty) and leaf key name.
func splitSection(key string) (section, leaf string) {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}

func formatValue(v Value) string {
	switch v.Kind {
	case KindString:
		return `"` + v.Str + `"`
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0" // keep an integral float from re-parsing as an Int
		}
		return s
	case KindStringArray:
		quoted := make([]string, len(v.Array))
		for i, s := range v.Array {
			quoted[i] = `"` + s + `"`
		}
		return "[ " + strings.Join(quoted, ", ") + " ]"
	default:
		return ""
	}
}
