package token

// modifierNames is the closed set of modifier keywords recognized by the
// tokenizer (spec.md §6). "hyper" and "meh" are aliases expanded later by
// the parser, not here — the tokenizer only needs to know they are
// Modifier-class identifiers.
var modifierNames = map[string]bool{
	"alt": true, "lalt": true, "ralt": true,
	"shift": true, "lshift": true, "rshift": true,
	"cmd": true, "lcmd": true, "rcmd": true,
	"ctrl": true, "lctrl": true, "rctrl": true,
	"fn":    true,
	"hyper": true,
	"meh":   true,
}

// literalNames is the closed set of reserved key names (spec.md §6).
var literalNames = map[string]bool{
	"return": true, "tab": true, "space": true, "backspace": true,
	"escape": true, "delete": true, "home": true, "end": true,
	"pageup": true, "pagedown": true, "insert": true,
	"left": true, "right": true, "up": true, "down": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true,
	"f6": true, "f7": true, "f8": true, "f9": true, "f10": true,
	"f11": true, "f12": true, "f13": true, "f14": true, "f15": true,
	"f16": true, "f17": true, "f18": true, "f19": true, "f20": true,
	"sound_up": true, "sound_down": true, "mute": true,
	"play": true, "previous": true, "next": true, "rewind": true, "fast": true,
	"brightness_up": true, "brightness_down": true,
	"illumination_up": true, "illumination_down": true,
}

// classifyIdentifier decides whether a scanned bare-word lexeme is a
// Modifier keyword, a reserved-key Literal, or a plain Identifier. Matching
// is case-sensitive: the config language's reserved words are lowercase.
func classifyIdentifier(lexeme string) Kind {
	if modifierNames[lexeme] {
		return Modifier
	}
	if literalNames[lexeme] {
		return Literal
	}
	return Identifier
}

// IsModifierName reports whether name is a recognized modifier keyword.
// Exported so the parser can re-validate names coming from other sources
// (e.g. macro-expanded text is never re-tokenized, but group members are
// validated directly as strings).
func IsModifierName(name string) bool { return modifierNames[name] }

// IsLiteralName reports whether name is a reserved key literal.
func IsLiteralName(name string) bool { return literalNames[name] }
