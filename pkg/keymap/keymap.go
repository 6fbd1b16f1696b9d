// Package keymap maps key names to composer actions.
//
// Key names follow the browser's KeyboardEvent.key and bubbletea's
// KeyMsg.String(); both spellings of the special keys are accepted.
package keymap

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/antibyte/retrocalc/pkg/composer"
	"gopkg.in/yaml.v3"
)

var aliases = map[string]string{
	"return": "enter",
	"esc":    "escape",
	"del":    "delete",
}

// Keymap is a set of key bindings. It is not safe for concurrent mutation.
type Keymap struct {
	bindings map[string]composer.Action
}

type fileDocument struct {
	Bindings map[string]string `yaml:"bindings"`
}

// Default returns the standard calculator bindings.
func Default() *Keymap {
	k := &Keymap{bindings: make(map[string]composer.Action)}
	for ch := byte('0'); ch <= '9'; ch++ {
		k.bindings[string(ch)] = composer.Digit(ch)
	}
	k.bindings["."] = composer.Digit('.')
	k.bindings[","] = composer.Digit('.')
	for _, op := range []byte("+-*/%") {
		k.bindings[string(op)] = composer.Operator(op)
	}
	k.bindings["("] = composer.Paren()
	k.bindings[")"] = composer.Paren()
	k.bindings["enter"] = composer.Equals()
	k.bindings["="] = composer.Equals()
	k.bindings["backspace"] = composer.Delete()
	k.bindings["delete"] = composer.Delete()
	k.bindings["escape"] = composer.ClearAll()
	return k
}

// Load reads YAML overrides from path on top of the defaults:
//
//	bindings:
//	  x: "operator:*"
//	  c: clear
//	  ",": none
//
// "none" removes a binding.
func Load(path string) (*Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	k := Default()
	for key, spec := range doc.Bindings {
		action, err := ParseAction(key, spec)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", key, err)
		}
		k.Bind(key, action)
	}
	return k, nil
}

// LoadOrDefault is Load, falling back to the defaults when path is empty
// or does not exist.
func LoadOrDefault(path string) (*Keymap, error) {
	if path == "" {
		return Default(), nil
	}
	k, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return k, err
}

// ParseAction parses "kind" or "kind:char". For digit and operator without
// an explicit char the key itself is used.
func ParseAction(key, spec string) (composer.Action, error) {
	name, char, hasChar := strings.Cut(strings.TrimSpace(spec), ":")
	kind, ok := composer.ParseActionKind(strings.ToLower(name))
	if !ok {
		return composer.Action{}, fmt.Errorf("unknown action %q", name)
	}

	switch kind {
	case composer.ActionDigit, composer.ActionOperator:
		if !hasChar {
			char = key
		}
		if len(char) != 1 {
			return composer.Action{}, fmt.Errorf("%s needs a single character, got %q", kind, char)
		}
		return composer.Action{Kind: kind, Char: char[0]}, nil
	}
	if hasChar {
		return composer.Action{}, fmt.Errorf("%s takes no character", kind)
	}
	return composer.Action{Kind: kind}, nil
}

// Normalize lower-cases special key names and resolves aliases.
// Single characters are left alone.
func Normalize(key string) string {
	if len(key) <= 1 {
		return key
	}
	key = strings.ToLower(key)
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// Bind sets or, for ActionNone, removes a binding.
func (k *Keymap) Bind(key string, a composer.Action) {
	key = Normalize(key)
	if a.Kind == composer.ActionNone {
		delete(k.bindings, key)
		return
	}
	k.bindings[key] = a
}

// Lookup returns the action bound to key.
func (k *Keymap) Lookup(key string) (composer.Action, bool) {
	a, ok := k.bindings[Normalize(key)]
	return a, ok
}

// Keys returns the bound keys in sorted order.
func (k *Keymap) Keys() []string {
	keys := make([]string, 0, len(k.bindings))
	for key := range k.bindings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// KeysFor returns the keys bound to actions of the given kind.
func (k *Keymap) KeysFor(kind composer.ActionKind) []string {
	var keys []string
	for _, key := range k.Keys() {
		if k.bindings[key].Kind == kind {
			keys = append(keys, key)
		}
	}
	return keys
}
