package theory

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// Kind is the persisted rule type.
type Kind string

const (
	KindPredicate Kind = "method"
	KindRegex     Kind = "regex"
)

var (
	ErrRuleNotFound     = errors.New("rule not found")
	ErrDuplicateRule    = errors.New("rule already exists")
	ErrInvalidRule      = errors.New("invalid rule")
	ErrUnknownPredicate = errors.New("unknown predicate")
)

// RuleDefinition is one entry of the persisted rule config. A regex rule with
// Pattern set fails when the expression matches; one with Regex set fails when
// it does not.
type RuleDefinition struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"type"`
	Active  bool   `json:"active"`
	Pattern string `json:"pattern,omitempty"`
	Regex   string `json:"regex,omitempty"`
	Message string `json:"message,omitempty"`
	Desc    string `json:"desc,omitempty"`
}

// UnmarshalJSON defaults Active to true when the field is absent.
func (d *RuleDefinition) UnmarshalJSON(data []byte) error {
	type plain RuleDefinition
	def := plain{Active: true}
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*d = RuleDefinition(def)
	return nil
}

// Config maps a scope ("general" or a style name) to its ordered rules.
type Config map[string][]RuleDefinition

// ParseConfig decodes a rule config document.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rule config: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("failed to parse rule config: empty document")
	}
	return cfg, nil
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for scope, defs := range c {
		out[scope] = append([]RuleDefinition(nil), defs...)
	}
	return out
}

// Rule is a compiled, executable rule.
type Rule interface {
	ID() string
	// Check returns false and a message when pattern violates the rule.
	Check(pattern string) (bool, string)
}

type predicateRule struct {
	id    string
	check Predicate
}

func (r predicateRule) ID() string { return r.id }

func (r predicateRule) Check(pattern string) (bool, string) {
	return r.check(pattern)
}

type regexRule struct {
	id        string
	re        *regexp.Regexp
	forbidden bool
	message   string
}

func (r regexRule) ID() string { return r.id }

func (r regexRule) Check(pattern string) (bool, string) {
	if r.re.MatchString(pattern) != r.forbidden {
		return true, ""
	}
	return false, r.message
}

// Compile turns a definition into an executable rule.
func Compile(def RuleDefinition) (Rule, error) {
	switch def.Kind {
	case KindPredicate:
		id, err := ParsePredicateID(def.ID)
		if err != nil {
			return nil, err
		}
		return predicateRule{id: def.ID, check: predicates[id]}, nil

	case KindRegex:
		expr, forbidden := def.Regex, false
		if expr == "" {
			expr, forbidden = def.Pattern, true
		}
		if expr == "" {
			return nil, fmt.Errorf("%w: regex rule %s has no expression", ErrInvalidRule, def.ID)
		}
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, def.ID, err)
		}
		msg := def.Message
		if msg == "" {
			msg = "Regex violation"
		}
		return regexRule{id: def.ID, re: re, forbidden: forbidden, message: msg}, nil

	default:
		return nil, fmt.Errorf("%w: %s has unknown type %q", ErrInvalidRule, def.ID, def.Kind)
	}
}
