package langparser

import (
	"github.com/kbhookd/kbhookd/internal/langerr"
	"github.com/kbhookd/kbhookd/internal/token"
)

// parseModeDecl parses `"::" Identifier [ "@" ] [ ":" command ]`
// (spec.md §4.B). The "@" marks the mode as capture-mode; the trailing
// command is the mode's on-entry command.
func (p *Parser) parseModeDecl() error {
	p.advance() // Decl

	name, err := p.expect(token.Identifier, "a mode name after '::'")
	if err != nil {
		return err
	}
	if p.declaredModes[name.Lexeme] {
		return p.errAt(name, langerr.DuplicateMode, "mode already declared")
	}
	p.declaredModes[name.Lexeme] = true
	mode := p.table.GetOrCreateMode(name.Lexeme)

	if p.peek().Kind == token.Capture {
		p.advance()
		mode.Capture = true
	}
	if p.peek().Kind == token.Command {
		cmd := p.advance()
		expanded, err := expandMacroIfInvocation(cmd.Lexeme, cmd, p.file, p.macros)
		if err != nil {
			return err
		}
		mode.OnEntry = expanded
		mode.HasOnEntry = true
	}
	return nil
}
