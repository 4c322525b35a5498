// Package langparser implements the recursive-descent parser for the
// kbhookd configuration language (spec.md §4.B): it consumes the token
// stream produced by internal/token and builds an internal/ruletable
// Rule Table, resolving macros, process groups, and included files.
package langparser

import (
	"fmt"
	"path/filepath"

	"github.com/kbhookd/kbhookd/internal/keymap"
	"github.com/kbhookd/kbhookd/internal/langerr"
	"github.com/kbhookd/kbhookd/internal/ruletable"
	"github.com/kbhookd/kbhookd/internal/token"
)

// FileReader abstracts reading a configuration file's contents, letting
// tests substitute an in-memory filesystem without touching disk.
type FileReader func(path string) (string, error)

// macroDef is a parsed ".define name : template" macro (spec.md §3,
// §4.B rule 3). Process groups use groupDef instead; the two are kept
// in separate namespaces since the grammar disambiguates them by which
// bracket form follows the name.
type macroDef struct {
	name           string
	parts          []macroPart
	maxPlaceholder int
}

type macroPart struct {
	literal       string
	isPlaceholder bool
	index         int // 1-based
}

// groupDef is a parsed ".define name [ "a" "b" ... ]" named process
// group (spec.md §3). Groups exist only during parsing and are expanded
// into per-process entries; they are never retained at runtime.
type groupDef struct {
	name    string
	members []string
}

// Parser holds all state needed to parse one configuration file and its
// transitive .load graph into a single ruletable.RuleTable.
type Parser struct {
	readFile FileReader
	keys     *keymap.KeyTable

	table         *ruletable.RuleTable
	macros        map[string]*macroDef
	groups        map[string]*groupDef
	declaredModes map[string]bool

	// per-file state, reset by parseFile for each file in the load graph
	file    string
	baseDir string
	toks    []token.Token
	pos     int

	// lastTriggerPos is the position of the most recently parsed binding
	// trigger, used to attribute a *ruletable.DuplicateActionError (which
	// carries no position of its own) to source coordinates.
	lastTriggerPos token.Token

	pendingLoads []pendingLoad
}

type pendingLoad struct {
	fromFile string
	rawPath  string
}

// New builds a Parser. keys resolves single-character and hex key
// tokens to keycodes using the live keyboard layout (spec.md §4.D);
// readFile is used for the main file and every ".load" target.
func New(keys *keymap.KeyTable, readFile FileReader) *Parser {
	return &Parser{
		readFile:      readFile,
		keys:          keys,
		table:         ruletable.New(),
		macros:        make(map[string]*macroDef),
		groups:        make(map[string]*groupDef),
		declaredModes: make(map[string]bool),
	}
}

// Parse reads and parses mainPath and its full .load graph, returning
// the completed Rule Table. On any configuration error, parsing aborts
// immediately and the error is returned (spec.md §4.B "Errors").
func Parse(keys *keymap.KeyTable, readFile FileReader, mainPath string) (*ruletable.RuleTable, error) {
	p := New(keys, readFile)
	abs, err := filepath.Abs(mainPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	if err := p.parseFile(abs); err != nil {
		return nil, err
	}
	if err := p.drainLoadQueue(); err != nil {
		return nil, err
	}
	p.table.GetOrCreateMode(ruletable.DefaultModeName) // rule 1: default always exists
	return p.table, nil
}

// parseFile tokenizes and parses a single file's top-level entries,
// appending any ".load" directives it contains to the pending queue
// rather than recursing immediately (spec.md §4.B rule 5: loaded files
// are processed "after the initial parse completes").
func (p *Parser) parseFile(absPath string) error {
	src, err := p.readFile(absPath)
	if err != nil {
		return langerr.New(langerr.UnexpectedToken, absPath, 1, 1, fmt.Sprintf("reading config file: %v", err))
	}

	lex, lerr := token.New(absPath, src)
	if lerr != nil {
		return lerr
	}
	var toks []token.Token
	for {
		t, err := lex.Next()
		if err != nil {
			return err
		}
		toks = append(toks, t)
		if t.Kind == token.EndOfStream {
			break
		}
	}

	p.file = absPath
	p.baseDir = filepath.Dir(absPath)
	p.toks = toks
	p.pos = 0
	p.table.AddLoadedFile(absPath)

	for !p.atEOF() {
		if err := p.parseEntry(); err != nil {
			return err
		}
	}
	return nil
}

// drainLoadQueue processes pendingLoads breadth-first, resolving each
// path (relative to the file that issued the .load) to an absolute
// path, silently skipping ones already visited (spec.md §4.B rule 5,
// §8 invariant 4: include-cycle termination).
func (p *Parser) drainLoadQueue() error {
	for len(p.pendingLoads) > 0 {
		pl := p.pendingLoads[0]
		p.pendingLoads = p.pendingLoads[1:]

		resolved := pl.rawPath
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(filepath.Dir(pl.fromFile), resolved)
		}
		abs, err := filepath.Abs(resolved)
		if err != nil {
			return langerr.New(langerr.UnexpectedToken, pl.fromFile, 1, 1, fmt.Sprintf("resolving .load path %q: %v", pl.rawPath, err))
		}
		if p.table.HasLoadedFile(abs) {
			continue
		}
		if err := p.parseFile(abs); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) atEOF() bool {
	return p.pos >= len(p.toks) || p.toks[p.pos].Kind == token.EndOfStream
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EndOfStream}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return token.Token{Kind: token.EndOfStream}
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) errAt(t token.Token, kind langerr.Kind, msg string) error {
	return langerr.NewWithLexeme(kind, p.file, t.Line, t.Col, msg, t.Lexeme)
}

func (p *Parser) expect(kind token.Kind, what string) (token.Token, error) {
	t := p.peek()
	if t.Kind != kind {
		return t, p.errAt(t, langerr.UnexpectedToken, "expected "+what)
	}
	return p.advance(), nil
}

// parseEntry parses one top-level `entry := option | mode_decl |
// binding` per spec.md §4.B (".load" is handled as one of the option
// forms, see option.go).
func (p *Parser) parseEntry() error {
	t := p.peek()
	switch t.Kind {
	case token.Option:
		return p.parseOption()
	case token.Decl:
		return p.parseModeDecl()
	default:
		return p.parseBinding()
	}
}
