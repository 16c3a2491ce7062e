package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"webcat-submit/internal/components/assert"
	"webcat-submit/internal/scrapers/webcat"
)

// ErrCanceled is returned when a prompt is dismissed without an answer.
var ErrCanceled = errors.New("operation canceled")

// Store remembers answers between runs.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

type Question struct {
	Label string
	// Default is used when the answer is left empty.
	Default string
	Secret  bool
}

// Prompter asks the user a question. It returns ErrCanceled when the
// question is dismissed or left empty without a default.
type Prompter interface {
	Ask(ctx context.Context, q Question) (string, error)
}

type Variable struct {
	Label  string
	Secret bool
}

// Variables are the transport param values that are asked for instead of
// being sent as is.
var Variables = map[string]Variable{
	"${user}":     {Label: "Web-CAT Username"},
	"${pw}":       {Label: "Web-CAT Password", Secret: true},
	"${partners}": {Label: "Partners"},
}

// Session holds the answers given during a single submission, each variable
// is only asked for once per session.
type Session struct {
	prompter Prompter
	store    Store
	answers  map[string]string
	order    []string
}

func NewSession(prompter Prompter, store Store) *Session {
	assert.NotNil(prompter)
	assert.NotNil(store)
	return &Session{
		prompter: prompter,
		store:    store,
		answers:  map[string]string{},
	}
}

func (s *Session) answer(ctx context.Context, name string, v Variable) error {
	if _, ok := s.answers[name]; ok {
		return nil
	}

	remembered, _, err := s.store.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("prompt: remembered %s: %w", name, err)
	}
	value, err := s.prompter.Ask(ctx, Question{
		Label:   v.Label,
		Default: remembered,
		Secret:  v.Secret,
	})
	if err != nil {
		return err
	}
	if value == "" {
		return ErrCanceled
	}

	err = s.store.Set(ctx, name, value)
	if err != nil {
		return fmt.Errorf("prompt: remember %s: %w", name, err)
	}
	s.answers[name] = value
	s.order = append(s.order, name)
	return nil
}

// Fields asks for every variable used as a param value and returns the
// formatted form fields.
func (s *Session) Fields(ctx context.Context, params []webcat.TransportParam) (map[string]string, error) {
	fields := make(map[string]string, len(params))
	for _, param := range params {
		if v, ok := Variables[param.Value]; ok {
			err := s.answer(ctx, param.Value, v)
			if err != nil {
				return nil, err
			}
		}
		fields[param.Name] = s.Format(param.Value)
	}
	return fields, nil
}

// Format replaces the first occurrence of every answered variable in value.
func (s *Session) Format(value string) string {
	for _, name := range s.order {
		value = strings.Replace(value, name, s.answers[name], 1)
	}
	return value
}
