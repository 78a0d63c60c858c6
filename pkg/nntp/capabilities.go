package nntp

import "strings"

// Capabilities is the parsed result of a CAPABILITIES response: a mapping
// from capability name to its argument tokens, preserving the server's
// advertisement order. Name lookups are case-insensitive.
type Capabilities struct {
	order []string            // upper-cased names in insertion order
	args  map[string][]string // upper-cased name -> argument tokens
}

// ParseCapabilities parses the body lines of a CAPABILITIES response.
// Blank lines are skipped; duplicate capability names keep the first
// occurrence's position but take the last occurrence's arguments.
func ParseCapabilities(lines []string) *Capabilities {
	caps := &Capabilities{args: make(map[string][]string)}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := strings.ToUpper(fields[0])
		if _, seen := caps.args[name]; !seen {
			caps.order = append(caps.order, name)
		}
		caps.args[name] = fields[1:]
	}
	return caps
}

// Has reports whether the capability is advertised.
func (c *Capabilities) Has(name string) bool {
	_, ok := c.args[strings.ToUpper(name)]
	return ok
}

// HasArg reports whether the capability is advertised with the given
// argument token. Both comparisons are case-insensitive.
func (c *Capabilities) HasArg(name, arg string) bool {
	tokens, ok := c.args[strings.ToUpper(name)]
	if !ok {
		return false
	}
	arg = strings.ToUpper(arg)
	for _, tok := range tokens {
		if strings.ToUpper(tok) == arg {
			return true
		}
	}
	return false
}

// Args returns the argument tokens for a capability, and whether the
// capability is advertised at all.
func (c *Capabilities) Args(name string) ([]string, bool) {
	tokens, ok := c.args[strings.ToUpper(name)]
	return tokens, ok
}

// List returns the advertised capability names in server order.
func (c *Capabilities) List() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
