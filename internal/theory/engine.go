// Package theory validates patterns against a persisted, editable registry of
// general and per-style music rules.
package theory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
	"github.com/Conceptual-Machines/tidal-companion/internal/models"
)

// GeneralScope holds the rules every pattern must satisfy.
const GeneralScope = "general"

const cacheSize = 1024

type compiledRule struct {
	def  RuleDefinition
	rule Rule
}

// Engine runs the rule registry. Reads are concurrent; toggling or adding a
// rule persists the new config before it becomes visible.
type Engine struct {
	mu       sync.RWMutex
	store    Store
	defaults Config
	config   Config
	compiled map[string][]compiledRule
	cache    *lru.Cache[string, models.ValidationResult]
}

// NewEngine loads the config from store. A missing or unreadable document is
// replaced by defaults; general rules present in defaults but missing from the
// stored document are appended. Either repair is persisted immediately.
func NewEngine(store Store, defaults Config) (*Engine, error) {
	cache, err := lru.New[string, models.ValidationResult](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation cache: %w", err)
	}

	e := &Engine{
		store:    store,
		defaults: defaults.Clone(),
		cache:    cache,
	}

	cfg, dirty, err := e.load()
	if err != nil {
		return nil, err
	}
	if dirty {
		if err := e.persist(cfg); err != nil {
			return nil, err
		}
	}
	e.apply(cfg)
	return e, nil
}

func (e *Engine) load() (Config, bool, error) {
	data, err := e.store.Load()
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("Rule config not found, writing defaults", nil)
		return e.defaults.Clone(), true, nil
	}
	if err != nil {
		return nil, false, err
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		logger.Warn("Rule config is corrupt, falling back to defaults", logger.Fields{"error": err.Error()})
		return e.defaults.Clone(), true, nil
	}
	return cfg, e.migrate(cfg), nil
}

// migrate appends mandatory general rules missing from cfg.
func (e *Engine) migrate(cfg Config) bool {
	existing := map[string]bool{}
	for _, def := range cfg[GeneralScope] {
		existing[def.ID] = true
	}
	changed := false
	for _, def := range e.defaults[GeneralScope] {
		if existing[def.ID] {
			continue
		}
		cfg[GeneralScope] = append(cfg[GeneralScope], def)
		changed = true
		logger.Info("Migrated missing general rule", logger.Fields{"rule_id": def.ID})
	}
	return changed
}

func (e *Engine) persist(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rule config: %w", err)
	}
	if err := e.store.Save(data); err != nil {
		return fmt.Errorf("failed to persist rule config: %w", err)
	}
	return nil
}

// apply compiles cfg and publishes it. Callers hold the write lock or own e.
func (e *Engine) apply(cfg Config) {
	compiled := make(map[string][]compiledRule, len(cfg))
	for scope, defs := range cfg {
		for _, def := range defs {
			rule, err := Compile(def)
			if err != nil {
				logger.Warn("Skipping invalid rule", logger.Fields{
					"scope":   scope,
					"rule_id": def.ID,
					"error":   err.Error(),
				})
				continue
			}
			compiled[scope] = append(compiled[scope], compiledRule{def: def, rule: rule})
		}
	}
	e.config = cfg
	e.compiled = compiled
	e.cache.Purge()
}

// Validate runs the active general rules, then the active rules of style
// when it names a known scope. Unknown styles get general rules only.
func (e *Engine) Validate(pattern, style string) models.ValidationResult {
	style = normalizeStyle(style)
	key := style + "\x00" + pattern
	if cached, ok := e.cache.Get(key); ok {
		return copyResult(cached)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	issues := check(e.compiled[GeneralScope], pattern, "GENERAL")
	if style != "" && style != GeneralScope {
		issues = append(issues, check(e.compiled[style], pattern, strings.ToUpper(style))...)
	}

	// Cached under the read lock so apply cannot purge between check and Add.
	res := models.ValidationResult{Valid: len(issues) == 0, Issues: issues}
	e.cache.Add(key, res)
	return copyResult(res)
}

func check(rules []compiledRule, pattern, label string) []string {
	issues := []string{}
	for _, r := range rules {
		if !r.def.Active {
			continue
		}
		if ok, msg := r.rule.Check(pattern); !ok {
			issues = append(issues, fmt.Sprintf("[%s] %s", label, msg))
		}
	}
	return issues
}

func copyResult(r models.ValidationResult) models.ValidationResult {
	return models.ValidationResult{Valid: r.Valid, Issues: append([]string{}, r.Issues...)}
}

func normalizeStyle(style string) string {
	return strings.ToLower(strings.TrimSpace(style))
}

// ToggleRule activates or deactivates a rule and persists the change.
func (e *Engine) ToggleRule(scope, id string, active bool) error {
	scope = normalizeStyle(scope)

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.config.Clone()
	defs, ok := next[scope]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrRuleNotFound, scope, id)
	}
	found := false
	for i := range defs {
		if defs[i].ID == id {
			defs[i].Active = active
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s/%s", ErrRuleNotFound, scope, id)
	}

	if err := e.persist(next); err != nil {
		return err
	}
	e.apply(next)
	return nil
}

// AddRegexRule adds a rule that requires pattern to match regex, creating
// the scope if needed.
func (e *Engine) AddRegexRule(scope, id, regex, message string) error {
	scope = normalizeStyle(scope)
	if scope == "" || id == "" {
		return fmt.Errorf("%w: scope and id are required", ErrInvalidRule)
	}
	if _, err := regexp.Compile("(?i)" + regex); err != nil || regex == "" {
		return fmt.Errorf("%w: bad regex %q", ErrInvalidRule, regex)
	}
	def := RuleDefinition{
		ID:      id,
		Kind:    KindRegex,
		Active:  true,
		Regex:   regex,
		Message: message,
		Desc:    "Custom: " + id,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, existing := range e.config[scope] {
		if existing.ID == id {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateRule, scope, id)
		}
	}
	next := e.config.Clone()
	next[scope] = append(next[scope], def)

	if err := e.persist(next); err != nil {
		return err
	}
	e.apply(next)
	return nil
}

// Rules returns a copy of the current config.
func (e *Engine) Rules() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config.Clone()
}

// Styles lists the style scopes, sorted.
func (e *Engine) Styles() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	styles := make([]string, 0, len(e.config))
	for scope := range e.config {
		if scope != GeneralScope {
			styles = append(styles, scope)
		}
	}
	sort.Strings(styles)
	return styles
}

// Sanitize is the package-level Sanitize, exposed on the engine for callers
// that only hold an *Engine.
func (e *Engine) Sanitize(pattern string) string {
	return Sanitize(pattern)
}
