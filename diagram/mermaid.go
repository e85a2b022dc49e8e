// Package diagram renders the dependency edges discovered while scopes install.
//
// Every type here is a nest.Observer: it only records what it is told and
// never influences resolution.
package diagram

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/xraph/go-utils/log"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"

	"github.com/xraph/nest"
)

const (
	mermaidCDN  = "https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"
	indexFile   = "index.html"
	pageStyle   = "div.mermaid { margin: auto; border: 2px solid #73AD21; }"
	mermaidInit = "mermaid.initialize({startOnLoad:true});"
)

var _ nest.Observer = (*Mermaid)(nil)

// Mermaid collects a flowchart per scope and per constructed type and renders
// them as HTML pages: index.html with one diagram per scope, plus one page per
// type showing its transitive dependencies.
type Mermaid struct {
	title     string
	outputDir string
	logger    log.Logger

	scopes  []*scopeDiagram
	byScope map[string]*scopeDiagram
	types   map[string]*typeDiagram
	files   map[string]string // page file -> type name
	pending map[string]*pendingScope
	err     error
	mu      sync.Mutex
}

type scopeDiagram struct {
	id    string
	lines []string
	types []string
}

// pendingScope holds what a scope constructed until it finishes installing.
// A failed install never commits it.
type pendingScope struct {
	diagram *scopeDiagram
	types   map[string]*typeDiagram
}

type typeDiagram struct {
	name  string
	lines []string
}

// MermaidOption configures a Mermaid writer.
type MermaidOption func(*Mermaid)

// WithOutputDir makes the writer write its pages into dir every time a scope
// finishes installing.
func WithOutputDir(dir string) MermaidOption {
	return func(m *Mermaid) {
		m.outputDir = dir
	}
}

// WithLogger sets the logger used to report write failures.
func WithLogger(logger log.Logger) MermaidOption {
	return func(m *Mermaid) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMermaid creates a Mermaid writer.
func NewMermaid(title string, opts ...MermaidOption) *Mermaid {
	m := &Mermaid{
		title:   title,
		logger:  log.NewNoopLogger(),
		byScope: make(map[string]*scopeDiagram),
		types:   make(map[string]*typeDiagram),
		files:   make(map[string]string),
		pending: make(map[string]*pendingScope),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ScopeStarted implements nest.Observer.
func (m *Mermaid) ScopeStarted(scopeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending[scopeID] = newPendingScope(scopeID)
}

// Constructed implements nest.Observer.
func (m *Mermaid) Constructed(scopeID string, typ reflect.Type, deps []reflect.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.pending[scopeID]
	if !ok {
		ps = newPendingScope(scopeID)
		m.pending[scopeID] = ps
	}

	name := typ.String()
	td := &typeDiagram{name: name}

	for _, dep := range deps {
		line := edge(name, dep.String())
		td.lines = append(td.lines, line)
		ps.diagram.lines = append(ps.diagram.lines, line)

		if depDiagram, ok := ps.types[dep.String()]; ok {
			td.lines = append(td.lines, depDiagram.edges()...)
		} else if depDiagram, ok := m.types[dep.String()]; ok {
			td.lines = append(td.lines, depDiagram.edges()...)
		}
	}

	td.lines = append(td.lines, click(name))

	ps.types[name] = td
	ps.diagram.types = append(ps.diagram.types, name)
}

// ScopeInstalled implements nest.Observer. It publishes the scope's diagrams
// and, with an output directory configured, rewrites the pages; failures are
// logged and kept for Err.
func (m *Mermaid) ScopeInstalled(scopeID string) {
	m.commit(scopeID)

	if m.outputDir == "" {
		return
	}

	if err := m.WriteFiles(); err != nil {
		m.mu.Lock()
		m.err = err
		m.mu.Unlock()

		m.logger.Warn("writing dependency diagrams failed",
			log.String("scope", scopeID),
			log.Error(err),
		)
	}
}

// commit moves a scope's pending diagrams into the rendered set. A reinstalled
// scope keeps its place in the index.
func (m *Mermaid) commit(scopeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.pending[scopeID]
	if !ok {
		ps = newPendingScope(scopeID)
	}

	delete(m.pending, scopeID)

	if existing, ok := m.byScope[scopeID]; ok {
		*existing = *ps.diagram
	} else {
		m.scopes = append(m.scopes, ps.diagram)
		m.byScope[scopeID] = ps.diagram
	}

	for name, td := range ps.types {
		m.types[name] = td
		m.files[pageFile(name)] = name
	}
}

func newPendingScope(scopeID string) *pendingScope {
	return &pendingScope{
		diagram: &scopeDiagram{id: scopeID},
		types:   make(map[string]*typeDiagram),
	}
}

// Err returns the last write error.
func (m *Mermaid) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.err
}

// Types returns the names of the types with a page.
func (m *Mermaid) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for _, sd := range m.scopes {
		names = append(names, sd.types...)
	}

	return names
}

// RenderIndex writes the page with one diagram per scope.
func (m *Mermaid) RenderIndex(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sections := make([]g.Node, 0, len(m.scopes))
	for _, sd := range m.scopes {
		lines := append([]string{}, sd.lines...)
		for _, name := range sd.types {
			lines = append(lines, click(name))
		}

		sections = append(sections, section(sd.id, lines))
	}

	return page(m.title, sections...).Render(w)
}

// RenderType writes the page of one type.
func (m *Mermaid) RenderType(w io.Writer, typeName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	td, ok := m.types[typeName]
	if !ok {
		return fmt.Errorf("no diagram for type %s", typeName)
	}

	return page(m.title, section(td.name, td.lines)).Render(w)
}

// WriteFiles writes index.html and every type page into the output directory.
func (m *Mermaid) WriteFiles() error {
	if m.outputDir == "" {
		return fmt.Errorf("no output directory configured")
	}

	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := m.writeFile(indexFile, m.RenderIndex); err != nil {
		return err
	}

	m.mu.Lock()
	files := make(map[string]string, len(m.files))
	for file, name := range m.files {
		files[file] = name
	}
	m.mu.Unlock()

	for file, name := range files {
		err := m.writeFile(file, func(w io.Writer) error {
			return m.RenderType(w, name)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// typeForFile maps a page file name back to its type name.
func (m *Mermaid) typeForFile(file string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name, ok := m.files[file]

	return name, ok
}

func (m *Mermaid) writeFile(name string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	if err := os.WriteFile(filepath.Join(m.outputDir, name), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// edges returns the dependency lines of a type without its click line.
func (td *typeDiagram) edges() []string {
	out := make([]string, 0, len(td.lines))
	for _, line := range td.lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "click ") {
			out = append(out, line)
		}
	}

	return out
}

func page(title string, body ...g.Node) g.Node {
	return html.Doctype(
		html.HTML(
			html.Head(
				html.TitleEl(g.Text(title)),
				html.Script(html.Src(mermaidCDN)),
				html.Script(g.Raw(mermaidInit)),
				html.StyleEl(g.Raw(pageStyle)),
			),
			html.Body(
				html.H1(g.Text(title)),
				html.A(html.Href(indexFile), g.Text("main")),
				g.Group(body),
			),
		),
	)
}

func section(subtitle string, lines []string) g.Node {
	return g.Group([]g.Node{
		html.H2(g.Text(subtitle)),
		html.Div(
			html.Class("mermaid"),
			g.Raw("\nflowchart LR\n"+strings.Join(lines, "\n")+"\n"),
		),
	})
}

func edge(from, to string) string {
	return fmt.Sprintf("    %s[\"%s\"] --> %s[\"%s\"]", nodeID(from), label(from), nodeID(to), label(to))
}

func click(name string) string {
	return fmt.Sprintf("    click %s \"%s\" \"click\"", nodeID(name), pageFile(name))
}

func pageFile(name string) string {
	return nodeID(name) + ".html"
}

// nodeID turns a Go type name into a Mermaid-safe identifier.
func nodeID(name string) string {
	var b strings.Builder

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '*':
			b.WriteString("ptr_")
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}

var labelReplacer = strings.NewReplacer(`"`, "'", "<", "&lt;", ">", "&gt;", "&", "&amp;")

func label(name string) string {
	return labelReplacer.Replace(name)
}
