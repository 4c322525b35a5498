package langparser

import (
	"errors"

	"github.com/kbhookd/kbhookd/internal/keymap"
	"github.com/kbhookd/kbhookd/internal/langerr"
	"github.com/kbhookd/kbhookd/internal/ruletable"
	"github.com/kbhookd/kbhookd/internal/token"
)

// parseBinding parses one `binding` production (spec.md §4.B):
//
//	binding := [ Identifier ("," Identifier)* "<" ] modifiers? key
//	           ( ";" Identifier [":" command]
//	           | "->" action
//	           | action
//	           | "[" proc_clause+ "]" )
func (p *Parser) parseBinding() error {
	var modes []*ruletable.Mode
	// A leading Identifier is a mode-list prefix only when immediately
	// followed by ',' or '<' — a single-character Identifier token can
	// otherwise be the trigger's own key (see parseTrigger), since the
	// tokenizer has no way to tell a one-letter key apart from a bare
	// name at the lexical level.
	if p.peek().Kind == token.Identifier &&
		(p.peekAt(1).Kind == token.Comma || p.peekAt(1).Kind == token.Insert) {
		m, err := p.resolveDeclaredMode(p.advance())
		if err != nil {
			return err
		}
		modes = append(modes, m)
		for p.peek().Kind == token.Comma {
			p.advance()
			idTok, err := p.expect(token.Identifier, "a mode name")
			if err != nil {
				return err
			}
			m, err := p.resolveDeclaredMode(idTok)
			if err != nil {
				return err
			}
			modes = append(modes, m)
		}
		if _, err := p.expect(token.Insert, "'<' after mode list"); err != nil {
			return err
		}
	}
	if len(modes) == 0 {
		modes = []*ruletable.Mode{p.table.GetOrCreateMode(ruletable.DefaultModeName)}
	}

	trigger, err := p.parseTrigger()
	if err != nil {
		return err
	}

	switch p.peek().Kind {
	case token.Activate:
		return p.parseActivationBinding(modes, trigger)
	case token.Arrow:
		p.advance()
		trigger.Mods |= ruletable.ModPassthrough
		action, err := p.parseAction()
		if err != nil {
			return err
		}
		return p.applyWildcard(modes, trigger, action)
	case token.BeginList:
		return p.parseProcessClauseList(modes, trigger)
	default:
		action, err := p.parseAction()
		if err != nil {
			return err
		}
		return p.applyWildcard(modes, trigger, action)
	}
}

// resolveDeclaredMode looks up a mode referenced by name on a binding.
// spec.md §4.B rule 1: "Mode references on a binding must already be
// declared" — "default" is the sole exception, created lazily.
func (p *Parser) resolveDeclaredMode(tok token.Token) (*ruletable.Mode, error) {
	if tok.Lexeme == ruletable.DefaultModeName {
		return p.table.GetOrCreateMode(tok.Lexeme), nil
	}
	if !p.declaredModes[tok.Lexeme] {
		return nil, p.errAt(tok, langerr.UnknownMode, "mode is referenced before being declared with '::'")
	}
	return p.table.GetOrCreateMode(tok.Lexeme), nil
}

// parseTrigger parses `modifiers? key`, resolving the key through the
// KeyTable and OR-ing in any implicit fn/nx modifier (spec.md §4.B
// rule 8). An optional '-' between the modifier chain and the key is
// accepted but not required, matching the token stream's whitespace-
// delimited tokens.
func (p *Parser) parseTrigger() (ruletable.KeyPress, error) {
	p.lastTriggerPos = p.peek()

	var mods ruletable.Modifiers
	for p.peek().Kind == token.Modifier {
		t := p.advance()
		bits, ok := keymap.ModifierBits(t.Lexeme)
		if !ok {
			return ruletable.KeyPress{}, p.errAt(t, langerr.UnknownModifier, "unrecognized modifier")
		}
		mods |= bits
		if p.peek().Kind == token.Plus {
			p.advance()
			continue
		}
		break
	}
	if p.peek().Kind == token.Dash {
		p.advance()
	}

	keyTok := p.advance()
	var keycode uint32
	switch keyTok.Kind {
	case token.Key:
		r := []rune(keyTok.Lexeme)[0]
		kc, ok := p.keys.ResolveRune(r)
		if !ok {
			return ruletable.KeyPress{}, p.errAt(keyTok, langerr.UnknownKey, "key not reachable under the current keyboard layout")
		}
		keycode = kc
	case token.Identifier:
		// A single-letter/digit key (e.g. "a") is lexed as a bare
		// Identifier, not Key — the tokenizer cannot distinguish a
		// one-character name from a one-character key without grammar
		// context. Anything longer here is a genuine syntax error.
		runes := []rune(keyTok.Lexeme)
		if len(runes) != 1 {
			return ruletable.KeyPress{}, p.errAt(keyTok, langerr.UnexpectedToken, "expected a single-character key")
		}
		kc, ok := p.keys.ResolveRune(runes[0])
		if !ok {
			return ruletable.KeyPress{}, p.errAt(keyTok, langerr.UnknownKey, "key not reachable under the current keyboard layout")
		}
		keycode = kc
	case token.KeyHex:
		kc, err := keymap.ResolveHex(keyTok.Lexeme)
		if err != nil {
			return ruletable.KeyPress{}, p.errAt(keyTok, langerr.UnknownKey, "invalid hex keycode")
		}
		keycode = kc
	case token.Literal:
		kc, implicit, ok := p.keys.ResolveLiteral(keyTok.Lexeme)
		if !ok {
			return ruletable.KeyPress{}, p.errAt(keyTok, langerr.UnknownKey, "unrecognized reserved key")
		}
		keycode = kc
		mods |= ruletable.Modifiers(implicit)
	default:
		return ruletable.KeyPress{}, p.errAt(keyTok, langerr.UnexpectedToken, "expected a key after modifiers")
	}
	return ruletable.KeyPress{Mods: mods, Keycode: keycode}, nil
}

// parseAction parses `action := ":" command | "|" key_press | "~"`. The
// ":" itself was already consumed by the tokenizer, which folds it into
// the Command token (spec.md §4.A).
func (p *Parser) parseAction() (ruletable.ProcessAction, error) {
	switch p.peek().Kind {
	case token.Command:
		cmdTok := p.advance()
		expanded, err := expandMacroIfInvocation(cmdTok.Lexeme, cmdTok, p.file, p.macros)
		if err != nil {
			return ruletable.ProcessAction{}, err
		}
		return ruletable.ProcessAction{Kind: ruletable.ActionCommand, Command: expanded}, nil
	case token.Forward:
		p.advance()
		kp, err := p.parseTrigger()
		if err != nil {
			return ruletable.ProcessAction{}, err
		}
		return ruletable.ProcessAction{Kind: ruletable.ActionForward, Forward: kp}, nil
	case token.Unbound:
		p.advance()
		return ruletable.UnboundAction, nil
	default:
		return ruletable.ProcessAction{}, p.errAt(p.peek(), langerr.UnexpectedToken,
			"expected ':' command, '|' forward target, or '~'")
	}
}

// parseActivationBinding parses the `";" Identifier [":" command]`
// binding alternative (spec.md §4.B). The target mode, like any mode
// reference on a binding, must already be declared.
func (p *Parser) parseActivationBinding(modes []*ruletable.Mode, trigger ruletable.KeyPress) error {
	act := p.advance() // Activate token; Lexeme is the target mode name
	target := token.Token{Kind: token.Identifier, Lexeme: act.Lexeme, Line: act.Line, Col: act.Col}
	if _, err := p.resolveDeclaredMode(target); err != nil {
		return err
	}

	action := ruletable.ProcessAction{Kind: ruletable.ActionActivation, ModeName: act.Lexeme}
	if p.peek().Kind == token.Command {
		cmdTok := p.advance()
		expanded, err := expandMacroIfInvocation(cmdTok.Lexeme, cmdTok, p.file, p.macros)
		if err != nil {
			return err
		}
		action.ActivationCommand = expanded
		action.HasActivationCmd = true
	}
	return p.applyWildcard(modes, trigger, action)
}

// parseProcessClauseList parses `"[" proc_clause+ "]"`.
func (p *Parser) parseProcessClauseList(modes []*ruletable.Mode, trigger ruletable.KeyPress) error {
	p.advance() // BeginList
	openTok := p.toks[p.pos-1]
	count := 0
	for p.peek().Kind != token.EndList {
		if p.atEOF() {
			return p.errAt(p.peek(), langerr.UnexpectedToken, "unterminated process clause list")
		}
		if err := p.parseOneProcessClause(modes, trigger); err != nil {
			return err
		}
		count++
	}
	p.advance() // EndList
	if count == 0 {
		return p.errAt(openTok, langerr.EmptyProcessList, "process clause list must name at least one process")
	}
	return nil
}

// parseOneProcessClause parses one `proc_clause := (String | "@"
// Identifier | "*") action`.
func (p *Parser) parseOneProcessClause(modes []*ruletable.Mode, trigger ruletable.KeyPress) error {
	switch p.peek().Kind {
	case token.String:
		name := p.advance().Lexeme
		action, err := p.parseAction()
		if err != nil {
			return err
		}
		return p.applyProcess(modes, trigger, name, action)
	case token.Wildcard:
		p.advance()
		action, err := p.parseAction()
		if err != nil {
			return err
		}
		return p.applyWildcard(modes, trigger, action)
	case token.Capture:
		p.advance()
		groupTok, err := p.expect(token.Identifier, "a group name after '@'")
		if err != nil {
			return err
		}
		group, ok := p.groups[groupTok.Lexeme]
		if !ok {
			return p.errAt(groupTok, langerr.UnknownGroup, "no process group defined with this name")
		}
		action, err := p.parseAction()
		if err != nil {
			return err
		}
		for _, member := range group.members {
			if err := p.applyProcess(modes, trigger, member, action); err != nil {
				return err
			}
		}
		return nil
	default:
		return p.errAt(p.peek(), langerr.UnexpectedToken, "expected a process name, '@group', or '*' in process clause")
	}
}

func (p *Parser) applyWildcard(modes []*ruletable.Mode, trigger ruletable.KeyPress, action ruletable.ProcessAction) error {
	for _, m := range modes {
		entry := m.GetOrCreateRule(trigger)
		entry.ContainingModes[m.Name] = true
		if err := entry.SetWildcard(action); err != nil {
			return p.wrapDuplicateErr(err)
		}
	}
	return nil
}

func (p *Parser) applyProcess(modes []*ruletable.Mode, trigger ruletable.KeyPress, name string, action ruletable.ProcessAction) error {
	for _, m := range modes {
		entry := m.GetOrCreateRule(trigger)
		entry.ContainingModes[m.Name] = true
		if err := entry.SetProcessAction(name, action); err != nil {
			return p.wrapDuplicateErr(err)
		}
	}
	return nil
}

// wrapDuplicateErr re-raises a *ruletable.DuplicateActionError (which
// carries no source position) as a positioned *langerr.Error, attributed
// to the trigger that was being parsed when the conflict was found.
func (p *Parser) wrapDuplicateErr(err error) error {
	var dup *ruletable.DuplicateActionError
	if errors.As(err, &dup) {
		kind := langerr.ProcessCommandAlreadyExists
		if dup.Wildcard {
			kind = langerr.WildcardCommandAlreadyExists
		}
		return langerr.New(kind, p.file, p.lastTriggerPos.Line, p.lastTriggerPos.Col, err.Error())
	}
	return err
}
