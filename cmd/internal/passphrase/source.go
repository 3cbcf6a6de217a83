package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrMismatch is returned when a confirmed prompt receives two different
// entries.
var ErrMismatch = errors.New("keystore passphrases do not match")

// Option customises a Source.
type Option func(*Source)

// WithPrompt replaces the text shown before reading from the terminal.
func WithPrompt(prompt string) Option {
	return func(s *Source) { s.prompt = prompt }
}

// WithConfirmation asks for the passphrase twice when prompting. Used when a
// new keystore is written.
func WithConfirmation() Option {
	return func(s *Source) { s.confirm = true }
}

// Source resolves a keystore passphrase once, from an environment variable or
// the terminal, and caches the outcome.
type Source struct {
	envVar  string
	prompt  string
	confirm bool

	isTerminal func() bool
	read       func() ([]byte, error)
	stderr     io.Writer

	once  sync.Once
	value string
	err   error
}

// NewSource builds a Source that checks envVar before prompting.
func NewSource(envVar string, opts ...Option) *Source {
	fd := int(os.Stdin.Fd())
	s := &Source{
		envVar:     strings.TrimSpace(envVar),
		prompt:     "Enter keystore passphrase: ",
		isTerminal: func() bool { return term.IsTerminal(fd) },
		read:       func() ([]byte, error) { return term.ReadPassword(fd) },
		stderr:     os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the passphrase. An environment value is used verbatim; a
// whitespace-only value is rejected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		s.value, s.err = s.resolve()
	})
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s is set but empty", s.envVar)
			}
			return value, nil
		}
	}
	if !s.isTerminal() {
		if s.envVar != "" {
			return "", fmt.Errorf("keystore passphrase required; set %s or run interactively", s.envVar)
		}
		return "", errors.New("keystore passphrase required and no terminal available")
	}

	first, err := s.ask(s.prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(first) == "" {
		return "", errors.New("keystore passphrase cannot be empty")
	}
	if s.confirm {
		second, err := s.ask("Repeat keystore passphrase: ")
		if err != nil {
			return "", err
		}
		if second != first {
			return "", ErrMismatch
		}
	}
	return first, nil
}

func (s *Source) ask(prompt string) (string, error) {
	fmt.Fprint(s.stderr, prompt)
	raw, err := s.read()
	fmt.Fprintln(s.stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(raw), nil
}
