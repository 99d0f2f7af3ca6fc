package registry

import (
	"fmt"
	"sort"

	"github.com/XavierBriggs/Nike/pkg/contracts"
)

// SportRegistry holds the registered sport modules.
// It is fully built by NewSportRegistry and read-only afterwards, so lookups
// need no locking and readers never observe a partial registration.
type SportRegistry struct {
	sports map[string]*entry
	keys   []string
}

// entry caches a module's rule sets, captured once at registration
type entry struct {
	module contracts.SportModule
	live   []contracts.LiveRule
	post   []contracts.PostMatchRule
}

// NewSportRegistry creates a registry from the given sport modules
func NewSportRegistry(modules ...contracts.SportModule) (*SportRegistry, error) {
	r := &SportRegistry{
		sports: make(map[string]*entry, len(modules)),
		keys:   make([]string, 0, len(modules)),
	}

	for _, sport := range modules {
		sportKey := sport.GetSportKey()
		if sportKey == "" {
			return nil, fmt.Errorf("sport module %T has an empty sport key", sport)
		}
		if _, exists := r.sports[sportKey]; exists {
			return nil, fmt.Errorf("sport %s is already registered", sportKey)
		}

		live := sport.LiveRules()
		post := sport.PostMatchRules()
		if err := validateRules(sportKey, live, post); err != nil {
			return nil, err
		}

		r.sports[sportKey] = &entry{
			module: sport,
			live:   append([]contracts.LiveRule(nil), live...),
			post:   append([]contracts.PostMatchRule(nil), post...),
		}
		r.keys = append(r.keys, sportKey)
	}

	sort.Strings(r.keys)
	return r, nil
}

// validateRules rejects rule sets that could never evaluate
func validateRules(sportKey string, live []contracts.LiveRule, post []contracts.PostMatchRule) error {
	seen := make(map[string]bool)
	for _, rule := range live {
		if rule.Name == "" || rule.Predicate == nil {
			return fmt.Errorf("sport %s: live rule %q is missing a name or predicate", sportKey, rule.Name)
		}
		if seen[rule.Name] {
			return fmt.Errorf("sport %s: duplicate live rule %s", sportKey, rule.Name)
		}
		seen[rule.Name] = true
	}

	seen = make(map[string]bool)
	for _, rule := range post {
		if rule.Name == "" || rule.Predicate == nil || rule.Calculate == nil {
			return fmt.Errorf("sport %s: post-match rule %q is incomplete", sportKey, rule.Name)
		}
		if seen[rule.Name] {
			return fmt.Errorf("sport %s: duplicate post-match rule %s", sportKey, rule.Name)
		}
		seen[rule.Name] = true
	}

	return nil
}

// Get retrieves a sport module by key
func (r *SportRegistry) Get(sportKey string) (contracts.SportModule, bool) {
	e, exists := r.sports[sportKey]
	if !exists {
		return nil, false
	}
	return e.module, true
}

// GetRules returns copies of a sport's live and post-match rules
func (r *SportRegistry) GetRules(sportKey string) ([]contracts.LiveRule, []contracts.PostMatchRule, error) {
	e, exists := r.sports[sportKey]
	if !exists {
		return nil, nil, &contracts.UnknownSportError{SportKey: sportKey}
	}

	live := append([]contracts.LiveRule(nil), e.live...)
	post := append([]contracts.PostMatchRule(nil), e.post...)
	return live, post, nil
}

// LiveRules returns the live rules without copying; callers must not modify them.
// Used on the hot path of the live applier.
func (r *SportRegistry) LiveRules(sportKey string) ([]contracts.LiveRule, error) {
	e, exists := r.sports[sportKey]
	if !exists {
		return nil, &contracts.UnknownSportError{SportKey: sportKey}
	}
	return e.live, nil
}

// GetAll returns all registered sports ordered by key
func (r *SportRegistry) GetAll() []contracts.SportModule {
	sports := make([]contracts.SportModule, 0, len(r.keys))
	for _, key := range r.keys {
		sports = append(sports, r.sports[key].module)
	}
	return sports
}

// Keys returns the registered sport keys in order
func (r *SportRegistry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Count returns the number of registered sports
func (r *SportRegistry) Count() int {
	return len(r.keys)
}
