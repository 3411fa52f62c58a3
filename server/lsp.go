package server

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/treelox/compiler"
	"github.com/chazu/treelox/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "treelox"

// LspServer provides editor features for lox documents. Documents are
// compiled on every change and never executed.
type LspServer struct {
	worker  *Worker
	natives map[string]int // name → arity

	handler protocol.Handler
	server  *glspserver.Server
	version string
	log     commonlog.Logger
}

// Option configures an LspServer.
type Option func(*LspServer)

// WithVersion sets the version reported to the client.
func WithVersion(v string) Option {
	return func(s *LspServer) { s.version = v }
}

// NewLSP creates a new LSP server.
func NewLSP(opts ...Option) *LspServer {
	s := &LspServer{
		worker:  NewWorker(),
		natives: nativeArities(),
		version: "0.1.0",
		log:     commonlog.GetLogger("treelox.server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// nativeArities reads the native table from a fresh interpreter.
func nativeArities() map[string]int {
	in := vm.New(vm.WithStdin(strings.NewReader("")))
	out := make(map[string]int, len(vm.NativeNames))
	for _, name := range vm.NativeNames {
		if v, ok := in.Globals().Lookup(name); ok {
			if fn, ok := v.(vm.Callable); ok {
				out[name] = fn.Arity()
			}
		}
	}
	return out
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Info("language server initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.update(ctx, params.TextDocument.URI, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	_, _ = s.worker.Do(func(ws *Workspace) any {
		ws.Remove(string(uri))
		return nil
	})

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// update re-analyzes a document and publishes its diagnostics.
func (s *LspServer) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	result, err := s.worker.Do(func(ws *Workspace) any {
		return ws.Update(string(uri), text)
	})
	if err != nil {
		s.log.Errorf("analysis of %s failed: %s", uri, err)
		return
	}
	a := result.(*Analysis)
	s.log.Debugf("analyzed %s: %d diagnostics, %d symbols", uri, len(a.Diagnostics), len(a.Symbols))

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics(a),
	})
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := string(params.TextDocument.URI)
	pos := params.Position

	return s.worker.Do(func(ws *Workspace) any {
		a := ws.Get(uri)
		if a == nil {
			return nil
		}
		prefix := extractPrefix(a.Text, pos)
		if prefix == "" {
			return nil
		}
		return s.complete(a, prefix)
	})
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := string(params.TextDocument.URI)
	pos := params.Position

	result, err := s.worker.Do(func(ws *Workspace) any {
		a := ws.Get(uri)
		if a == nil {
			return nil
		}
		return s.hover(a, extractWord(a.Text, pos))
	})
	if err != nil {
		return nil, nil
	}
	hover, _ := result.(*protocol.Hover)
	return hover, nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	result, err := s.worker.Do(func(ws *Workspace) any {
		a := ws.Get(string(uri))
		if a == nil {
			return nil
		}
		return definition(uri, a, extractWord(a.Text, pos))
	})
	if err != nil {
		return nil, nil
	}
	loc, _ := result.(*protocol.Location)
	if loc == nil {
		return nil, nil
	}
	return *loc, nil
}

// --- Analysis-backed logic (called on worker goroutine) ---

func (s *LspServer) complete(a *Analysis, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	add := func(label, detail string, kind protocol.CompletionItemKind) {
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &label,
		})
	}

	for _, kw := range compiler.Keywords() {
		if strings.HasPrefix(kw, prefix) {
			add(kw, "keyword", protocol.CompletionItemKindKeyword)
		}
	}

	natives := make([]string, 0, len(s.natives))
	for name := range s.natives {
		if strings.HasPrefix(name, prefix) {
			natives = append(natives, name)
		}
	}
	sort.Strings(natives)
	for _, name := range natives {
		add(name, "native fn", protocol.CompletionItemKindFunction)
	}

	for _, sym := range a.SymbolsWithPrefix(prefix) {
		if _, isNative := s.natives[sym.Name]; isNative {
			continue
		}
		kind := protocol.CompletionItemKindVariable
		switch sym.Kind {
		case SymbolFunction:
			kind = protocol.CompletionItemKindFunction
		case SymbolClass:
			kind = protocol.CompletionItemKindClass
		}
		add(sym.Name, sym.Kind.String()+" "+sym.Signature, kind)
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

func (s *LspServer) hover(a *Analysis, word string) *protocol.Hover {
	if word == "" {
		return nil
	}

	var b strings.Builder
	if sym, ok := a.Symbols[word]; ok {
		fmt.Fprintf(&b, "**%s** `%s`", sym.Kind, sym.Signature)
		if len(sym.Methods) > 0 {
			b.WriteString("\n\nMethods:\n")
			for _, m := range sym.Methods {
				fmt.Fprintf(&b, "- `%s`\n", m)
			}
		}
		fmt.Fprintf(&b, "\n\nDeclared on line %d", sym.Line)
	} else if arity, ok := s.natives[word]; ok {
		fmt.Fprintf(&b, "**%s** `%s`\n\n%s", SymbolNative, word, plural(arity, "argument"))
	} else {
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

func definition(uri protocol.DocumentUri, a *Analysis, word string) *protocol.Location {
	sym, ok := a.Symbols[word]
	if !ok {
		return nil
	}
	line := protocol.UInteger(max(sym.Line-1, 0))
	col := protocol.UInteger(sym.Column)
	return &protocol.Location{
		URI: uri,
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + protocol.UInteger(len(sym.Name))},
		},
	}
}

// --- Diagnostics ---

// diagnostics converts static errors to LSP diagnostics on 0-based lines.
// Token-anchored errors cover the token when it can be found on its line.
func diagnostics(a *Analysis) []protocol.Diagnostic {
	lines := strings.Split(a.Text, "\n")
	out := make([]protocol.Diagnostic, 0, len(a.Diagnostics))
	for _, d := range a.Diagnostics {
		line := max(d.Line-1, 0)
		text := ""
		if line < len(lines) {
			text = lines[line]
		}

		start, end := 0, len(text)
		if lexeme, ok := strings.CutPrefix(d.Where, " at '"); ok {
			lexeme = strings.TrimSuffix(lexeme, "'")
			if i := strings.Index(text, lexeme); i >= 0 && lexeme != "" {
				start, end = i, i+len(lexeme)
			}
		}

		severity := protocol.DiagnosticSeverityError
		source := lspName
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(start)},
				End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(end)},
			},
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

// --- Text extraction helpers ---

func isIdentRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// lineAt returns the text of the 0-based line and the cursor column
// clamped to it.
func lineAt(text string, pos protocol.Position) (string, int, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return "", 0, false
	}
	line := lines[pos.Line]
	return line, min(int(pos.Character), len(line)), true
}

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return ""
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isIdentRune(rune(line[start-1])) {
		start--
	}
	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return ""
	}

	start := col
	for start > 0 && isIdentRune(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isIdentRune(rune(line[end])) {
		end++
	}
	return line[start:end]
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func boolPtr(b bool) *bool {
	return &b
}
