package langparser

import (
	"strconv"
	"strings"

	"github.com/kbhookd/kbhookd/internal/langerr"
	"github.com/kbhookd/kbhookd/internal/token"
)

// parseMacroTemplate splits a macro body into literal and `{{k}}`
// placeholder parts, tracking the highest placeholder index referenced
// (spec.md §4.B rule 3). A template that itself contains another macro
// invocation ("@name" or "@name(...)") is rejected outright — spec.md
// §9 resolves the open question of nested macro invocation this way,
// since the grammar never specifies an expansion order for it.
func parseMacroTemplate(t token.Token, file string) ([]macroPart, int, error) {
	raw := t.Lexeme
	if findMacroInvocation(raw) >= 0 {
		return nil, 0, langerr.NewWithLexeme(langerr.NestedMacroInvocation, file, t.Line, t.Col,
			"macro definitions may not invoke another macro", raw)
	}

	var parts []macroPart
	maxIdx := 0
	var lit strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '{' && i+1 < len(raw) && raw[i+1] == '{' {
			end := strings.Index(raw[i+2:], "}}")
			if end < 0 {
				lit.WriteByte(raw[i])
				i++
				continue
			}
			numStr := strings.TrimSpace(raw[i+2 : i+2+end])
			n, err := strconv.Atoi(numStr)
			if err != nil || n < 1 {
				return nil, 0, langerr.NewWithLexeme(langerr.UnexpectedToken, file, t.Line, t.Col,
					"invalid macro placeholder", raw)
			}
			if lit.Len() > 0 {
				parts = append(parts, macroPart{literal: lit.String()})
				lit.Reset()
			}
			parts = append(parts, macroPart{isPlaceholder: true, index: n})
			if n > maxIdx {
				maxIdx = n
			}
			i += 2 + end + 2
			continue
		}
		lit.WriteByte(raw[i])
		i++
	}
	if lit.Len() > 0 {
		parts = append(parts, macroPart{literal: lit.String()})
	}
	return parts, maxIdx, nil
}

// findMacroInvocation returns the byte index of an "@identifier"
// occurrence in s, or -1 if none is present.
func findMacroInvocation(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '@' {
			continue
		}
		if i+1 < len(s) && isIdentByte(s[i+1], true) {
			return i
		}
	}
	return -1
}

func isIdentByte(b byte, start bool) bool {
	if b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') {
		return true
	}
	return !start && b >= '0' && b <= '9'
}

// expandMacroIfInvocation checks whether raw is, in its entirety, a
// macro invocation ("@name" or "@name(\"arg\", ...)") and if so expands
// it using macros. Text that is not a whole-string invocation (e.g. a
// shell command that merely mentions "@" somewhere) is returned
// unchanged — only an exact match against the invocation syntax
// triggers expansion.
func expandMacroIfInvocation(raw string, t token.Token, file string, macros map[string]*macroDef) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed[0] != '@' {
		return raw, nil
	}

	name, argsText, hasArgs, ok := splitInvocation(trimmed)
	if !ok {
		return raw, nil
	}

	def, ok := macros[name]
	if !ok {
		return "", langerr.NewWithLexeme(langerr.UnknownMacro, file, t.Line, t.Col,
			"no macro defined with this name", name)
	}

	var args []string
	if hasArgs {
		var err error
		args, err = splitQuotedArgs(argsText)
		if err != nil {
			return "", langerr.NewWithLexeme(langerr.UnexpectedToken, file, t.Line, t.Col, err.Error(), argsText)
		}
	}
	if def.maxPlaceholder > len(args) {
		return "", langerr.NewWithLexeme(langerr.MacroPlaceholderOutOfRange, file, t.Line, t.Col,
			"macro references a placeholder beyond the supplied argument count", name)
	}

	var sb strings.Builder
	for _, part := range def.parts {
		if part.isPlaceholder {
			sb.WriteString(args[part.index-1])
		} else {
			sb.WriteString(part.literal)
		}
	}
	return sb.String(), nil
}

// splitInvocation parses "@name" or "@name(args)", where args is the
// raw text between the parens. ok is false if trimmed is not entirely
// one of these two forms.
func splitInvocation(trimmed string) (name, argsText string, hasArgs, ok bool) {
	i := 1
	for i < len(trimmed) && isIdentByte(trimmed[i], i == 1) {
		i++
	}
	name = trimmed[1:i]
	if name == "" {
		return "", "", false, false
	}
	if i == len(trimmed) {
		return name, "", false, true
	}
	if trimmed[i] != '(' || trimmed[len(trimmed)-1] != ')' {
		return "", "", false, false
	}
	return name, trimmed[i+1 : len(trimmed)-1], true, true
}

// splitQuotedArgs splits a comma-separated list of double-quoted
// arguments, matching the config language's String token syntax (no
// escape processing).
func splitQuotedArgs(s string) ([]string, error) {
	var args []string
	i, n := 0, len(s)
	for i < n {
		for i < n && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}
		if s[i] != '"' {
			return nil, errMalformedMacroArgs
		}
		i++
		start := i
		for i < n && s[i] != '"' {
			i++
		}
		if i >= n {
			return nil, errMalformedMacroArgs
		}
		args = append(args, s[start:i])
		i++
		for i < n && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i < n {
			if s[i] != ',' {
				return nil, errMalformedMacroArgs
			}
			i++
		}
	}
	return args, nil
}

type malformedMacroArgsError struct{}

func (malformedMacroArgsError) Error() string { return "malformed macro argument list" }

var errMalformedMacroArgs = malformedMacroArgsError{}
