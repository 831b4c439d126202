package metrics

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Health is the outcome class of a return.
type Health string

const (
	Healthy  Health = "saudavel"
	Critical Health = "critica"
	Neutral  Health = "neutra"
)

// Label returns the display name of the class.
func (h Health) Label() string {
	switch h {
	case Healthy:
		return "Saudável"
	case Critical:
		return "Crítica"
	default:
		return "Neutra"
	}
}

// Rule assigns a class to labels containing Phrase.
type Rule struct {
	Phrase string
	Health Health
}

// DefaultRules covers the marketplace's Portuguese outcome phrasing and the
// English equivalents used by translated exports.
func DefaultRules() []Rule {
	return []Rule{
		{Phrase: "te demos o dinheiro", Health: Healthy},
		{Phrase: "liberamos o dinheiro", Health: Healthy},
		{Phrase: "we gave you the money", Health: Healthy},
		{Phrase: "we released the money", Health: Healthy},

		{Phrase: "reembolso para o comprador", Health: Critical},
		{Phrase: "cancelada pelo comprador", Health: Critical},
		{Phrase: "mediação finalizada com reembolso", Health: Critical},
		{Phrase: "refund to the buyer", Health: Critical},
		{Phrase: "cancelled by the buyer", Health: Critical},
		{Phrase: "mediation finalized with refund", Health: Critical},
	}
}

// Classifier matches every rule phrase against a label in a single pass
// using an Aho-Corasick automaton. Healthy wins over Critical when a label
// contains phrases of both classes; no match is Neutral.
type Classifier struct {
	matcher *ahocorasick.Matcher
	health  []Health // class of each pattern, same order as the matcher
	mu      sync.Mutex
}

// NewClassifier builds a classifier. Phrases are lowercased; empty ones are skipped.
func NewClassifier(rules []Rule) *Classifier {
	c := &Classifier{}
	c.Build(rules)
	return c
}

// Build replaces the rule set.
func (c *Classifier) Build(rules []Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	patterns := make([]string, 0, len(rules))
	health := make([]Health, 0, len(rules))
	for _, r := range rules {
		p := strings.ToLower(strings.TrimSpace(r.Phrase))
		if p == "" {
			continue
		}
		patterns = append(patterns, p)
		health = append(health, r.Health)
	}

	c.health = health
	if len(patterns) == 0 {
		c.matcher = nil
		return
	}
	c.matcher = ahocorasick.NewStringMatcher(patterns)
}

// Classify returns the class of a free-text state label.
func (c *Classifier) Classify(label string) Health {
	if strings.TrimSpace(label) == "" {
		return Neutral
	}

	// Matcher.Match mutates internal counters, so calls are serialized.
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.matcher == nil {
		return Neutral
	}

	result := Neutral
	for _, idx := range c.matcher.Match([]byte(strings.ToLower(label))) {
		switch c.health[idx] {
		case Healthy:
			return Healthy
		case Critical:
			result = Critical
		}
	}
	return result
}

var defaultClassifier = NewClassifier(DefaultRules())

// Classify uses the default rule set.
func Classify(label string) Health {
	return defaultClassifier.Classify(label)
}
