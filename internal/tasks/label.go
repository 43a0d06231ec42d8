package tasks

import (
	"fmt"
	"strings"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const genreSlot = "{genre}"

var titleCaser = cases.Title(language.English)

// NormalizeLabel produces the canonical form of a genre label: trimmed and case-folded.
// Target playlist lookup, ignore-list matching, and override lookup all key on this form.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NameTemplate renders genre labels into playlist names and extracts labels
// back out of playlist names. The template holds exactly one {genre} slot.
type NameTemplate struct {
	prefix string
	suffix string
}

// ParseNameTemplate validates and compiles a playlist name template.
func ParseNameTemplate(tmpl string) (*NameTemplate, error) {
	if strings.Count(tmpl, genreSlot) != 1 {
		return nil, fmt.Errorf("%w: %q must contain exactly one %s placeholder", shared.ErrInvalidTemplate, tmpl, genreSlot)
	}

	prefix, suffix, _ := strings.Cut(tmpl, genreSlot)
	return &NameTemplate{prefix: prefix, suffix: suffix}, nil
}

// Render produces the playlist name for a genre label, title-casing the label.
func (t *NameTemplate) Render(label string) string {
	return t.prefix + titleCaser.String(NormalizeLabel(label)) + t.suffix
}

// Extract recovers the normalized genre label from a playlist name.
// Returns false when the name does not match the template or the slot is empty.
func (t *NameTemplate) Extract(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, t.prefix)
	if !ok {
		return "", false
	}

	rest, ok = strings.CutSuffix(rest, t.suffix)
	if !ok {
		return "", false
	}

	label := NormalizeLabel(rest)
	if label == "" {
		return "", false
	}

	return label, true
}

// TargetNaming resolves the name, description, and visibility for a genre's
// target playlist from the configured templates and per-genre overrides.
type TargetNaming struct {
	template      *NameTemplate
	descTemplate  string
	defaultPublic bool
	names         map[string]string
	descriptions  map[string]string
	visibility    map[string]bool
}

// NewTargetNaming compiles the playlist naming configuration.
// Override maps are re-keyed by normalized label so lookups match classifier output.
func NewTargetNaming(cfg shared.PlaylistsConfig) (*TargetNaming, error) {
	template, err := ParseNameTemplate(cfg.NameTemplate)
	if err != nil {
		return nil, err
	}

	n := &TargetNaming{
		template:      template,
		descTemplate:  cfg.DescriptionTemplate,
		defaultPublic: cfg.Public,
		names:         make(map[string]string, len(cfg.Names)),
		descriptions:  make(map[string]string, len(cfg.Descriptions)),
		visibility:    make(map[string]bool, len(cfg.Visibility)),
	}

	for genre, name := range cfg.Names {
		n.names[NormalizeLabel(genre)] = name
	}
	for genre, desc := range cfg.Descriptions {
		n.descriptions[NormalizeLabel(genre)] = desc
	}
	for genre, public := range cfg.Visibility {
		n.visibility[NormalizeLabel(genre)] = public
	}

	return n, nil
}

// Template returns the compiled name template, shared with the target resolver.
func (n *TargetNaming) Template() *NameTemplate {
	return n.template
}

// NameFor returns the playlist name for a genre label: the per-genre override
// when present, the rendered template otherwise.
func (n *TargetNaming) NameFor(label string) string {
	if name, ok := n.names[NormalizeLabel(label)]; ok {
		return name
	}
	return n.template.Render(label)
}

// DescriptionFor returns the playlist description for a genre label.
func (n *TargetNaming) DescriptionFor(label string) string {
	normalized := NormalizeLabel(label)
	if desc, ok := n.descriptions[normalized]; ok {
		return desc
	}
	return strings.ReplaceAll(n.descTemplate, genreSlot, titleCaser.String(normalized))
}

// PublicFor returns the visibility flag for a genre label.
func (n *TargetNaming) PublicFor(label string) bool {
	if public, ok := n.visibility[NormalizeLabel(label)]; ok {
		return public
	}
	return n.defaultPublic
}
