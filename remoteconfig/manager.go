// Package remoteconfig holds externally supplied configuration documents and
// applies them onto settings objects before a scope installs.
//
// Example:
//
//	m := remoteconfig.New()
//	if err := m.LoadDir("config"); err != nil { ... }
//
//	holder := &GameSettings{Audio: &AudioSettings{Volume: 1}}
//	if err := m.ApplyFields(holder); err != nil { ... }
//
//	settings, err := nest.SettingsFrom(holder)
package remoteconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/xraph/go-utils/errs"
	"github.com/xraph/go-utils/log"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// CodeConfigNotFound indicates no document is registered under an id.
const CodeConfigNotFound = "CONFIG_NOT_FOUND"

// ErrConfigNotFound is a sentinel for errors.Is checks on missing documents.
var ErrConfigNotFound = errs.NewError(CodeConfigNotFound, "config not found", nil)

// NewConfigNotFoundError creates an error for a missing document id.
func NewConfigNotFoundError(id string) *errs.Error {
	return errs.NewError(
		CodeConfigNotFound,
		fmt.Sprintf("no configuration document with id '%s'", id),
		nil,
	).WithContext("id", id).(*errs.Error)
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type document struct {
	format Format
	data   []byte
}

// Manager is a registry of configuration documents keyed by id.
type Manager struct {
	docs   map[string]document
	env    map[string]string
	logger log.Logger
	mu     sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger log.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates an empty manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		docs:   make(map[string]document),
		env:    make(map[string]string),
		logger: log.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// LoadEnv reads env files whose variables are used for ${VAR} expansion in
// documents added afterwards. Variables not found there fall back to the
// process environment.
func (m *Manager) LoadEnv(files ...string) error {
	values, err := godotenv.Read(files...)
	if err != nil {
		return fmt.Errorf("failed to read env files: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.env[k] = v
	}

	return nil
}

// Add registers a document. Adding an id twice is an error.
func (m *Manager) Add(id string, format Format, data []byte) error {
	if id == "" {
		return fmt.Errorf("config id cannot be empty")
	}

	if format != FormatYAML && format != FormatJSON {
		return fmt.Errorf("unsupported config format %q", format)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[id]; exists {
		return fmt.Errorf("config '%s' already added", id)
	}

	m.docs[id] = document{format: format, data: []byte(m.expand(string(data)))}

	m.logger.Debug("add configuration",
		log.String("id", id),
		log.String("format", string(format)),
	)

	return nil
}

// LoadFile adds a file; its id is the file name without extension and its
// format follows the extension.
func (m *Manager) LoadFile(path string) error {
	format, ok := formatOf(path)
	if !ok {
		return fmt.Errorf("unsupported config file %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	base := filepath.Base(path)

	return m.Add(strings.TrimSuffix(base, filepath.Ext(base)), format, data)
}

// LoadDir adds every .yaml, .yml and .json file in dir, in name order.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read config directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if _, ok := formatOf(entry.Name()); !ok {
			continue
		}

		if err := m.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// Has reports whether a document is registered under id.
func (m *Manager) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.docs[id]

	return ok
}

// IDs returns the registered ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Apply populates target, a non-nil pointer, from the document. Fields the
// document does not mention keep their values.
func (m *Manager) Apply(id string, target any) error {
	m.mu.RLock()
	doc, ok := m.docs[id]
	m.mu.RUnlock()

	if !ok {
		return NewConfigNotFoundError(id)
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("config target for '%s' must be a non-nil pointer, got %T", id, target)
	}

	var err error

	switch doc.format {
	case FormatJSON:
		err = json.Unmarshal(doc.data, target)
	default:
		err = yaml.Unmarshal(doc.data, target)
	}

	if err != nil {
		return fmt.Errorf("failed to apply config '%s': %w", id, err)
	}

	m.logger.Debug("apply configuration",
		log.String("id", id),
		log.String("target", v.Type().String()),
	)

	return nil
}

// Decode creates a new value of typ from the document. For a pointer type the
// result is a pointer to a fresh value.
func (m *Manager) Decode(id string, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, fmt.Errorf("config type cannot be nil")
	}

	if typ.Kind() == reflect.Ptr {
		target := reflect.New(typ.Elem())
		if err := m.Apply(id, target.Interface()); err != nil {
			return nil, err
		}

		return target.Interface(), nil
	}

	target := reflect.New(typ)
	if err := m.Apply(id, target.Interface()); err != nil {
		return nil, err
	}

	return target.Elem().Interface(), nil
}

// ApplyFields applies documents to the exported fields of a holder struct.
// A field matches the document whose id is its `config` tag, or its name when
// untagged; a tag of "-" skips the field. Nil pointer fields with a matching
// document are allocated.
func (m *Manager) ApplyFields(holder any) error {
	v := reflect.ValueOf(holder)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config holder must be a non-nil pointer to a struct, got %T", holder)
	}

	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		id := field.Name
		if tag, ok := field.Tag.Lookup("config"); ok {
			if tag == "-" {
				continue
			}

			id = tag
		}

		if !m.Has(id) {
			continue
		}

		fv := v.Field(i)

		var target any

		switch {
		case fv.Kind() == reflect.Ptr:
			if fv.IsNil() {
				fv.Set(reflect.New(field.Type.Elem()))
			}

			target = fv.Interface()
		default:
			target = fv.Addr().Interface()
		}

		if err := m.Apply(id, target); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expand replaces ${VAR} references with values from the env files or the
// process environment. Bare $ text and unknown variables are left as written.
// Callers hold m.mu.
func (m *Manager) expand(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		key := ref[2 : len(ref)-1]

		if v, ok := m.env[key]; ok {
			return v
		}

		if v, ok := os.LookupEnv(key); ok {
			return v
		}

		return ref
	})
}

func formatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}
