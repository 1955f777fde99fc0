// Package lexicon holds the assistant's trigger tables and the matchers
// that read them. A Lexicon is immutable once loaded.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/textnorm"
)

//go:embed lexicon.yaml
var defaultYAML []byte

const (
	DomainKPIs     = "kpis"
	DomainClients  = "clients"
	DomainProducts = "products"
	DomainStock    = "stock"
	DomainOrders   = "orders"

	EntityClient  = "client"
	EntityProduct = "product"
)

var requiredDomains = []string{DomainKPIs, DomainClients, DomainProducts, DomainStock, DomainOrders}

type Domain struct {
	Name     string   `yaml:"name"`
	Priority int      `yaml:"priority"`
	Triggers []string `yaml:"triggers"`
}

type StatusSet struct {
	Status   string   `yaml:"status"`
	Triggers []string `yaml:"triggers"`
}

type document struct {
	Version        int                 `yaml:"version"`
	Domains        []Domain            `yaml:"domains"`
	ListTriggers   []string            `yaml:"list_triggers"`
	RecentTriggers []string            `yaml:"recent_triggers"`
	Statuses       []StatusSet         `yaml:"statuses"`
	StockPatterns  []string            `yaml:"stock_limit_patterns"`
	Entities       map[string][]string `yaml:"entities"`
	StopWords      []string            `yaml:"stop_words"`
}

type statusRule struct {
	status   salestypes.Status
	triggers []string
}

type Lexicon struct {
	domains   []Domain
	byName    map[string]Domain
	list      []string
	recent    []string
	statuses  []statusRule
	stock     []*regexp.Regexp
	anchors   map[string][]*regexp.Regexp
	stopWords map[string]struct{}
	// single-word triggers; a captured name may not start with one
	vocab map[string]struct{}
}

var loadDefault = sync.OnceValues(func() (*Lexicon, error) {
	return Parse(defaultYAML)
})

// Default returns the embedded lexicon, parsed once per process.
func Default() (*Lexicon, error) {
	return loadDefault()
}

// Load reads path when set and falls back to the embedded lexicon otherwise.
func Load(path string) (*Lexicon, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Lexicon, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("lexicon: parse: %w", err)
	}
	if doc.Version != 1 {
		return nil, fmt.Errorf("lexicon: unsupported version %d", doc.Version)
	}

	lx := &Lexicon{
		byName:    make(map[string]Domain, len(doc.Domains)),
		list:      normalizeAll(doc.ListTriggers),
		recent:    normalizeAll(doc.RecentTriggers),
		anchors:   make(map[string][]*regexp.Regexp, len(doc.Entities)),
		stopWords: make(map[string]struct{}, len(doc.StopWords)),
		vocab:     map[string]struct{}{},
	}

	for _, d := range doc.Domains {
		d.Name = strings.TrimSpace(d.Name)
		d.Triggers = normalizeAll(d.Triggers)
		if d.Name == "" || len(d.Triggers) == 0 {
			return nil, errors.New("lexicon: domain needs a name and triggers")
		}
		if _, dup := lx.byName[d.Name]; dup {
			return nil, fmt.Errorf("lexicon: duplicate domain %q", d.Name)
		}
		lx.byName[d.Name] = d
		lx.domains = append(lx.domains, d)
	}
	for _, name := range requiredDomains {
		if _, ok := lx.byName[name]; !ok {
			return nil, fmt.Errorf("lexicon: missing domain %q", name)
		}
	}
	slices.SortStableFunc(lx.domains, func(a, b Domain) int { return a.Priority - b.Priority })

	seen := map[salestypes.Status]bool{}
	for _, set := range doc.Statuses {
		st, ok := salestypes.ParseStatus(set.Status)
		if !ok {
			return nil, fmt.Errorf("lexicon: unknown status %q", set.Status)
		}
		if seen[st] {
			return nil, fmt.Errorf("lexicon: status %s listed twice", st)
		}
		seen[st] = true
		lx.statuses = append(lx.statuses, statusRule{status: st, triggers: normalizeAll(set.Triggers)})
	}

	for i, raw := range doc.StockPatterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("lexicon: stock pattern %d: %w", i, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("lexicon: stock pattern %d has no capture group", i)
		}
		lx.stock = append(lx.stock, re)
	}

	for kind, words := range doc.Entities {
		for _, w := range normalizeAll(words) {
			re := regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(w) + `\s+([\p{L}\p{N}\s\-_.]{2,})`)
			lx.anchors[kind] = append(lx.anchors[kind], re)
		}
	}

	for _, w := range normalizeAll(doc.StopWords) {
		lx.stopWords[w] = struct{}{}
	}

	lx.addVocab(lx.list)
	lx.addVocab(lx.recent)
	for _, d := range lx.domains {
		lx.addVocab(d.Triggers)
	}
	for _, rule := range lx.statuses {
		lx.addVocab(rule.triggers)
	}
	return lx, nil
}

func (lx *Lexicon) addVocab(words []string) {
	for _, w := range words {
		if !strings.Contains(w, " ") {
			lx.vocab[w] = struct{}{}
		}
	}
}

// Wants reports whether q mentions any trigger of domain.
func (lx *Lexicon) Wants(q, domain string) bool {
	d, ok := lx.byName[domain]
	return ok && containsAny(q, d.Triggers)
}

// Matched returns the names of the domains q mentions, by priority.
func (lx *Lexicon) Matched(q string) []string {
	var out []string
	for _, d := range lx.domains {
		if containsAny(q, d.Triggers) {
			out = append(out, d.Name)
		}
	}
	return out
}

func (lx *Lexicon) WantsList(q string) bool   { return containsAny(q, lx.list) }
func (lx *Lexicon) WantsRecent(q string) bool { return containsAny(q, lx.recent) }

// Status returns the first status set with a hit, or "". Multi-word
// triggers only need a boundary before them, so "nao concluido" also
// covers "nao concluidos".
func (lx *Lexicon) Status(q string) salestypes.Status {
	for _, rule := range lx.statuses {
		for _, p := range rule.triggers {
			if matchPhrase(q, p, !strings.Contains(p, " ")) {
				return rule.status
			}
		}
	}
	return ""
}

// StockLimit tries each pattern in order and returns the first threshold found.
func (lx *Lexicon) StockLimit(q string) (int, bool) {
	for _, re := range lx.stock {
		m := re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// Entity returns the name following the first anchor of kind found in q,
// cut at the first stop-word. Names shorter than two characters are dropped.
func (lx *Lexicon) Entity(q, kind string) string {
	for _, re := range lx.anchors[kind] {
		m := re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		if name := lx.trimName(m[1]); name != "" {
			return name
		}
	}
	return ""
}

func (lx *Lexicon) trimName(raw string) string {
	toks := strings.Fields(raw)
	if len(toks) > 0 {
		if _, trigger := lx.vocab[toks[0]]; trigger {
			return ""
		}
	}
	var kept []string
	for _, tok := range toks {
		if _, stop := lx.stopWords[tok]; stop {
			break
		}
		kept = append(kept, tok)
	}
	name := strings.TrimRight(strings.Join(kept, " "), ".-_")
	if utf8.RuneCountInString(name) < 2 {
		return ""
	}
	return name
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := textnorm.Normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func containsAny(q string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(q, p) {
			return true
		}
	}
	return false
}

// containsPhrase reports whether phrase occurs in q with a letter or digit
// on neither side.
func containsPhrase(q, phrase string) bool {
	return matchPhrase(q, phrase, true)
}

func matchPhrase(q, phrase string, trailing bool) bool {
	if phrase == "" {
		return false
	}
	for from := 0; from <= len(q)-len(phrase); {
		i := strings.Index(q[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		if boundaryBefore(q, start) && (!trailing || boundaryAfter(q, end)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(q[start:])
		from = start + size
	}
	return false
}

func boundaryBefore(q string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(q[:i])
	return !isWordRune(r)
}

func boundaryAfter(q string, i int) bool {
	if i >= len(q) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(q[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
