package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"argus/internal/domain"
)

// builtinDorks are the default search-dork templates, keyed by category.
// {target} is replaced with the investigation target.
var builtinDorks = map[string][]string{
	"documents": {
		`"{target}" filetype:pdf OR filetype:doc OR filetype:docx OR filetype:xls`,
		`"{target}" filetype:txt OR filetype:csv`,
	},
	"credentials": {
		`"{target}" intext:password OR intext:passwd OR intext:credentials`,
		`"{target}" site:pastebin.com OR site:paste.ee`,
	},
	"profiles": {
		`"{target}" site:linkedin.com/in OR site:about.me`,
		`"{target}" intitle:"profile" OR intitle:"curriculum"`,
	},
	"exposed": {
		`site:{target} intitle:"index of"`,
		`site:{target} inurl:admin OR inurl:login OR inurl:backup`,
		`site:{target} ext:sql OR ext:env OR ext:log`,
	},
	"subdomains": {
		`site:*.{target} -site:www.{target}`,
	},
}

type dorkArgs struct {
	Target   string `json:"target" jsonschema:"required,description=Investigation target (name, domain or email) to build dorks for"`
	Category string `json:"category,omitempty" jsonschema:"description=Optional category: documents, credentials, profiles, exposed, subdomains. Empty builds all."`
}

// DorkTool generates search-engine dork queries for a target. Templates can
// be extended or overridden with a dorks.yaml file in the data directory.
type DorkTool struct {
	schema string
	dorks  map[string][]string
}

// NewDorkTool builds the tool from the built-in templates merged with an
// optional YAML override file. A missing or malformed file leaves the
// built-ins untouched.
func NewDorkTool(overridePath string) *DorkTool {
	dorks := make(map[string][]string, len(builtinDorks))
	for category, templates := range builtinDorks {
		dorks[category] = append([]string(nil), templates...)
	}
	if overridePath != "" {
		if data, err := os.ReadFile(overridePath); err == nil {
			var overrides map[string][]string
			if err := yaml.Unmarshal(data, &overrides); err == nil {
				for category, templates := range overrides {
					dorks[category] = templates
				}
			}
		}
	}
	return &DorkTool{schema: GenerateSchema(&dorkArgs{}), dorks: dorks}
}

func (t *DorkTool) Name() string { return "generate_dorks" }

func (t *DorkTool) Description() string {
	return "Generate advanced search-engine dork queries for a target. Categories: documents, credentials, profiles, exposed, subdomains."
}

func (t *DorkTool) Definition() string { return t.schema }

func (t *DorkTool) Call(_ context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a dorkArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	target := strings.TrimSpace(a.Target)
	if target == "" {
		return nil, fmt.Errorf("target must not be empty")
	}

	categories := make([]string, 0, len(t.dorks))
	if a.Category != "" {
		if _, ok := t.dorks[a.Category]; !ok {
			return nil, fmt.Errorf("unknown dork category %q (have: %s)", a.Category, strings.Join(t.categories(), ", "))
		}
		categories = append(categories, a.Category)
	} else {
		categories = t.categories()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search dorks for %q:\n", target)
	for _, category := range categories {
		fmt.Fprintf(&sb, "\n[%s]\n", category)
		for _, tmpl := range t.dorks[category] {
			sb.WriteString(strings.ReplaceAll(tmpl, "{target}", target))
			sb.WriteString("\n")
		}
	}
	return &domain.ToolResult{Data: sb.String()}, nil
}

func (t *DorkTool) categories() []string {
	out := make([]string, 0, len(t.dorks))
	for category := range t.dorks {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
