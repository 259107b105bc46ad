package payload

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the payload
func (p *Payload) Summary() string {
	if c, ok := p.Coordinate(); ok {
		return fmt.Sprintf("%d settings, location %s", len(p.Entries), c)
	}
	return fmt.Sprintf("%d settings", len(p.Entries))
}

// FormatDetailed returns one aligned line per entry, with the decoded
// coordinate after the encoded latitude and longitude.
func (p *Payload) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Settings Payload ===\n")
	if len(p.Entries) == 0 {
		b.WriteString("(empty)\n")
		return b.String()
	}

	width := 0
	for _, e := range p.Entries {
		if len(e.ID) > width {
			width = len(e.ID)
		}
	}

	for _, e := range p.Entries {
		b.WriteString(fmt.Sprintf("%-*s  %-8s %s", width+1, e.ID+":", typeName(e.Value), formatValue(e.Value)))
		if n, ok := e.Value.(int32); ok && (e.ID == p.opts.LatitudeID || e.ID == p.opts.LongitudeID) {
			b.WriteString(fmt.Sprintf("  (%.2f°)", float64(n)/float64(p.opts.Scale)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCompact returns the payload as id=value pairs on one line
func (p *Payload) FormatCompact() string {
	parts := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		parts = append(parts, e.ID+"="+formatValue(e.Value))
	}
	return strings.Join(parts, " ")
}

func typeName(v any) string {
	switch v.(type) {
	case int32:
		return "int32"
	case bool:
		return "bool"
	case string:
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
