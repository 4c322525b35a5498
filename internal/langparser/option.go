package langparser

import (
	"strings"

	"github.com/kbhookd/kbhookd/internal/langerr"
	"github.com/kbhookd/kbhookd/internal/token"
)

// parseOption parses one of the four `.xxx` directives (spec.md §4.B,
// §6): .shell, .blacklist, .load, .define.
func (p *Parser) parseOption() error {
	opt := p.advance() // Option token; Lexeme is the option name
	switch opt.Lexeme {
	case "shell":
		return p.parseShellOption()
	case "blacklist":
		return p.parseBlacklistOption()
	case "load":
		return p.parseLoadOption()
	case "define":
		return p.parseDefineOption()
	default:
		return p.errAt(opt, langerr.UnknownOption, "unrecognized option")
	}
}

func (p *Parser) parseShellOption() error {
	t, err := p.expect(token.String, "a quoted shell path after .shell")
	if err != nil {
		return err
	}
	p.table.Shell = t.Lexeme
	return nil
}

func (p *Parser) parseBlacklistOption() error {
	if _, err := p.expect(token.BeginList, "'[' after .blacklist"); err != nil {
		return err
	}
	openTok := p.toks[p.pos-1]
	count := 0
	for p.peek().Kind == token.String {
		s := p.advance()
		p.table.Blacklist[strings.ToLower(s.Lexeme)] = true
		count++
	}
	if count == 0 {
		return p.errAt(openTok, langerr.EmptyProcessList, ".blacklist must name at least one process")
	}
	if _, err := p.expect(token.EndList, "']' to close .blacklist"); err != nil {
		return err
	}
	return nil
}

func (p *Parser) parseLoadOption() error {
	t, err := p.expect(token.String, "a quoted path after .load")
	if err != nil {
		return err
	}
	p.pendingLoads = append(p.pendingLoads, pendingLoad{fromFile: p.file, rawPath: t.Lexeme})
	return nil
}

// parseDefineOption parses either a macro definition (name followed by
// a Command-form template) or a named process group (name followed by
// a bracketed string list).
func (p *Parser) parseDefineOption() error {
	name, err := p.expect(token.Identifier, "a name after .define")
	if err != nil {
		return err
	}
	switch p.peek().Kind {
	case token.Command:
		tmpl := p.advance()
		parts, maxPH, perr := parseMacroTemplate(tmpl, p.file)
		if perr != nil {
			return perr
		}
		p.macros[name.Lexeme] = &macroDef{name: name.Lexeme, parts: parts, maxPlaceholder: maxPH}
		return nil
	case token.BeginList:
		p.advance()
		openTok := p.toks[p.pos-1]
		var members []string
		for p.peek().Kind == token.String {
			members = append(members, p.advance().Lexeme)
		}
		if len(members) == 0 {
			return p.errAt(openTok, langerr.EmptyProcessList, "process group must name at least one process")
		}
		if _, err := p.expect(token.EndList, "']' to close process group"); err != nil {
			return err
		}
		p.groups[name.Lexeme] = &groupDef{name: name.Lexeme, members: members}
		return nil
	default:
		return p.errAt(p.peek(), langerr.UnexpectedToken, "expected ':' command or '[' process list after .define name")
	}
}
