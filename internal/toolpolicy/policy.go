// Package toolpolicy defines the autonomy/sandboxing gate a ToolCall
// must pass before an (external, out of scope per spec.md §1) tool
// executor is invoked. nullclaw's core only owns the decision — which
// tools are allowed, and which additionally require a human
// confirmation round-trip before running — not the sandboxing or
// execution itself.
package toolpolicy

import "strings"

// Decision is the outcome of evaluating a ToolCall against a Policy.
type Decision struct {
	Allow             bool
	RequiresConfirmation bool
	Reason            string
}

// Rule describes one tool's autonomy level.
type Rule struct {
	ToolName             string
	RequiresConfirmation bool
}

// Policy is an allowlist of tool names plus their autonomy level. A tool
// absent from the allowlist is denied; this is a closed-world default,
// matching the daemon's no-public-ingress, least-privilege posture.
type Policy struct {
	rules map[string]Rule
}

// NewPolicy builds a Policy from rules. Later entries for the same tool
// name replace earlier ones.
func NewPolicy(rules []Rule) *Policy {
	p := &Policy{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		p.rules[r.ToolName] = r
	}
	return p
}

// Evaluate decides whether toolName may run. An unknown tool is denied
// with a reason naming it; a known tool is allowed, flagged for
// confirmation per its Rule.
func (p *Policy) Evaluate(toolName string) Decision {
	rule, ok := p.rules[toolName]
	if !ok {
		return Decision{Allow: false, Reason: "tool \"" + toolName + "\" is not on the allowlist"}
	}
	return Decision{Allow: true, RequiresConfirmation: rule.RequiresConfirmation}
}

// ParseAllowlist builds rules from a comma-separated config string,
// where a tool name suffixed with "!" requires confirmation (e.g.
// "read_file,shell_exec!,send_email!"). Blank entries are skipped.
func ParseAllowlist(spec string) []Rule {
	var rules []Rule
	for _, entry := range strings.Split(spec, ",") {
		name := strings.TrimSpace(entry)
		if name == "" {
			continue
		}
		requiresConfirmation := strings.HasSuffix(name, "!")
		if requiresConfirmation {
			name = strings.TrimSuffix(name, "!")
		}
		rules = append(rules, Rule{ToolName: name, RequiresConfirmation: requiresConfirmation})
	}
	return rules
}
