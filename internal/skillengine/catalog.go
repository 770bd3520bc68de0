// Package skillengine loads the declarative skill catalog and executes
// one skill invocation at a time. The catalog format keeps the
// teacher's internal/skills YAML-frontmatter idiom but repoints it at a
// single skills.yaml of short declarative records, since farm skills
// are primitive-list templates, not long-form markdown instructions.
package skillengine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sandahltim/StardewAI-sub000/internal/bridge"
	"github.com/sandahltim/StardewAI-sub000/internal/verifier"
)

// PreconditionKind names a precondition check §4.5 lists.
type PreconditionKind string

const (
	PreAdjacentToEntity PreconditionKind = "adjacent_to_entity" // value: tile kind/object kind
	PreToolCategory     PreconditionKind = "tool_category"      // value: "hoe", "axe", ...
	PreResourceLevel    PreconditionKind = "resource_level"     // value: "water>0"
	PreLocation         PreconditionKind = "location"           // value: location name
	PreTimeWindow       PreconditionKind = "time_window"        // value: "06:00-20:00"
)

// Precondition is one evaluable gate on a skill invocation.
type Precondition struct {
	Kind  PreconditionKind `yaml:"kind"`
	Value string           `yaml:"value"`
}

// PrimitiveTemplate is one primitive call with unresolved `{var}` params.
type PrimitiveTemplate struct {
	Opcode bridge.Opcode          `yaml:"opcode"`
	Params map[string]interface{} `yaml:"params,omitempty"`
}

// SuccessCriterionTemplate mirrors verifier.Criterion but with
// substitutable tile/item placeholders resolved at invocation time.
type SuccessCriterionTemplate struct {
	Kind     verifier.CriterionKind `yaml:"kind"`
	Item     string                 `yaml:"item,omitempty"`
	Delta    int                    `yaml:"delta,omitempty"`
	Location string                 `yaml:"location,omitempty"`
	Facing   string                 `yaml:"facing,omitempty"`
}

// FailureRecoveryHint tells the executor what to try when a precondition fails.
type FailureRecoveryHint struct {
	Kind string `yaml:"kind"` // "auto_equip", "select_seed", "skip"
	Tool string `yaml:"tool,omitempty"`
}

// SkillDef is one declarative skill record (§4.5).
type SkillDef struct {
	Name         string                     `yaml:"name"`
	Category     string                     `yaml:"category"`
	RequiresTool string                     `yaml:"requires_tool,omitempty"` // fuzzy tool category, auto-selected
	Preconditions []Precondition            `yaml:"preconditions,omitempty"`
	Actions      []PrimitiveTemplate        `yaml:"actions"`
	Success      []SuccessCriterionTemplate `yaml:"success"`
	OnFailure    map[string]FailureRecoveryHint `yaml:"on_failure,omitempty"`
}

// Catalog is the process-wide, immutable-after-load set of skills.
type Catalog struct {
	skills map[string]SkillDef
}

// LoadCatalog reads a skills.yaml file into an immutable Catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses a skills.yaml document (list of SkillDef).
func ParseCatalog(data []byte) (*Catalog, error) {
	var defs []SkillDef
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse skill catalog: %w", err)
	}
	c := &Catalog{skills: make(map[string]SkillDef, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("skill missing name")
		}
		if len(d.Actions) == 0 {
			return nil, fmt.Errorf("skill %q has no actions", d.Name)
		}
		c.skills[d.Name] = d
	}
	return c, nil
}

// Get returns the named skill definition.
func (c *Catalog) Get(name string) (SkillDef, bool) {
	d, ok := c.skills[name]
	return d, ok
}

// Names lists all loaded skill names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.skills))
	for n := range c.skills {
		names = append(names, n)
	}
	return names
}
