package diagram

import (
	"io"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/xraph/nest"
)

var _ nest.Observer = (*Console)(nil)

// Console prints a colored trace of scope installation, one line per event.
type Console struct {
	w     io.Writer
	scope *color.Color
	typ   *color.Color
	dep   *color.Color
	done  *color.Color
	mu    sync.Mutex
}

// NewConsole creates a console trace writing to w, or stderr when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stderr
	}

	return &Console{
		w:     w,
		scope: color.New(color.FgCyan, color.Bold),
		typ:   color.New(color.FgYellow),
		dep:   color.New(color.FgHiBlack),
		done:  color.New(color.FgGreen, color.Bold),
	}
}

// ScopeStarted implements nest.Observer.
func (c *Console) ScopeStarted(scopeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scope.Fprintf(c.w, "[nest] scope %s: installing\n", scopeID)
}

// Constructed implements nest.Observer.
func (c *Console) Constructed(scopeID string, typ reflect.Type, deps []reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.typ.Fprintf(c.w, "[nest]   %s", typ)

	if len(deps) > 0 {
		names := make([]string, len(deps))
		for i, dep := range deps {
			names[i] = dep.String()
		}

		c.dep.Fprintf(c.w, " <- %s", strings.Join(names, ", "))
	}

	io.WriteString(c.w, "\n")
}

// ScopeInstalled implements nest.Observer.
func (c *Console) ScopeInstalled(scopeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done.Fprintf(c.w, "[nest] scope %s: installed\n", scopeID)
}
