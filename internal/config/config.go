// Package config resolves where zzz keeps its configuration and history and
// loads the capture policy.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/labi-le/zzz/internal/pref"
)

const (
	TreeFile       = "zzzclip"
	PrecedenceFile = "zzz_mimes"
	HistoryDir     = "zzz_clip"
)

var (
	// ErrNoHome means neither the XDG variable nor $HOME is set.
	ErrNoHome = errors.New("config: $HOME is not set")
	// ErrMalformed wraps a configuration file that exists but does not parse.
	ErrMalformed = errors.New("config: malformed file")
)

// Paths are the resolved locations of the files zzz reads and writes.
type Paths struct {
	Tree       string
	Precedence string
	History    string
}

// Resolve derives Paths from $XDG_CONFIG_HOME and $XDG_STATE_HOME, falling
// back to $HOME/.config and $HOME/.local/state.
func Resolve() (Paths, error) {
	configHome, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return Paths{}, err
	}
	stateHome, err := xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
	if err != nil {
		return Paths{}, err
	}

	return Paths{
		Tree:       filepath.Join(configHome, TreeFile),
		Precedence: filepath.Join(configHome, PrecedenceFile),
		History:    filepath.Join(stateHome, HistoryDir),
	}, nil
}

// ResolveHistory resolves only the history directory, for the replay tool.
func ResolveHistory() (string, error) {
	stateHome, err := xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
	if err != nil {
		return "", err
	}
	return filepath.Join(stateHome, HistoryDir), nil
}

func xdgDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return dir, nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		return "", fmt.Errorf("%w and neither is $%s", ErrNoHome, env)
	}
	return filepath.Join(home, fallback), nil
}

// LoadTree reads the preference tree at path. A missing file yields the
// default tree.
func LoadTree(path string) (pref.Node, bool, error) {
	text, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return pref.Default(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	tree, err := pref.Parse(string(text))
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}
	return tree, true, nil
}

// LoadPrecedence reads the single-capture ranking at path. A missing file
// yields pref.DefaultPrecedence.
func LoadPrecedence(path string) (pref.Precedence, bool, error) {
	text, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return pref.DefaultPrecedence(), false, nil
	}
	if err != nil {
		return pref.Precedence{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	p, err := pref.ParsePrecedence(string(text))
	if err != nil {
		return pref.Precedence{}, true, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}
	return p, true, nil
}
