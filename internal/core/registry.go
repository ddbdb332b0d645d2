package core

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/csvkit/internal/tabular"
)

// Input is what a format converter receives. Binary formats read Data;
// text formats read Text, already decoded to UTF-8.
type Input struct {
	Name string
	Data []byte
	Text string

	// Delimiter is honored by the text format; zero means detect.
	Delimiter tabular.Delimiter
}

// ConvertFunc turns one input into a tabular result. It reports problems
// through the Result, never by panicking.
type ConvertFunc func(ctx context.Context, in Input) tabular.Result

// FormatDefinition describes one convertible input format.
type FormatDefinition struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Extensions []string `json:"extensions"`

	// Binary formats skip text decoding and receive the raw bytes.
	Binary bool `json:"binary"`

	Convert ConvertFunc `json:"-"`
}

// FormatRegistry holds format definitions by key and by file extension.
// It is safe for concurrent use.
type FormatRegistry struct {
	mu      sync.RWMutex
	formats map[string]FormatDefinition
	byExt   map[string]string
}

// NewFormatRegistry returns a registry holding defs.
func NewFormatRegistry(defs ...FormatDefinition) *FormatRegistry {
	r := &FormatRegistry{
		formats: make(map[string]FormatDefinition),
		byExt:   make(map[string]string),
	}
	for _, def := range defs {
		r.Register(def)
	}
	return r
}

// Register adds a format definition.
// Panics if the key or one of its extensions is already registered.
func (r *FormatRegistry) Register(def FormatDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(def.Key)
	if _, exists := r.formats[key]; exists {
		panic(fmt.Sprintf("format already registered: %s", key))
	}
	if def.Convert == nil {
		panic(fmt.Sprintf("format %s has no converter", key))
	}

	exts := make([]string, 0, len(def.Extensions))
	for _, ext := range def.Extensions {
		ext = normalizeExt(ext)
		if owner, exists := r.byExt[ext]; exists {
			panic(fmt.Sprintf("extension %s already registered by %s", ext, owner))
		}
		exts = append(exts, ext)
	}
	for _, ext := range exts {
		r.byExt[ext] = key
	}

	def.Key = key
	def.Extensions = exts
	r.formats[key] = def
}

// Get returns a format definition by key, case-insensitively.
func (r *FormatRegistry) Get(key string) (FormatDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.formats[strings.ToLower(key)]
	return def, ok
}

// ForFile returns the format registered for the file name's extension.
func (r *FormatRegistry) ForFile(name string) (FormatDefinition, bool) {
	ext := normalizeExt(path.Ext(strings.ReplaceAll(name, `\`, "/")))
	if ext == "." {
		return FormatDefinition{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.byExt[ext]
	if !ok {
		return FormatDefinition{}, false
	}
	return r.formats[key], true
}

// All returns every registered format sorted by key.
func (r *FormatRegistry) All() []FormatDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]FormatDefinition, 0, len(r.formats))
	for _, def := range r.formats {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Count returns the number of registered formats.
func (r *FormatRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.formats)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
