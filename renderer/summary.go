package renderer

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"github.com/etnz/marketcache"
)

type summaryView struct {
	marketcache.Summary
	Sections []section
}

// section is one fundamentals module: its scalar fields as a table and
// whatever is nested as indented JSON.
type section struct {
	Name   string
	Fields [][2]string
	JSON   string
}

// SummaryMarkdown renders a fundamentals summary, one section per module.
func SummaryMarkdown(s *marketcache.Summary) string {
	v := summaryView{Summary: *s}
	for _, name := range slices.Sorted(maps.Keys(s.Modules)) {
		v.Sections = append(v.Sections, newSection(name, s.Modules[name]))
	}
	partials := map[string]string{
		"summary_module": "summary_module.md",
	}
	return renderTemplate("summary", "summary.md", partials, v)
}

func newSection(name string, raw json.RawMessage) section {
	sec := section{Name: name}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		sec.JSON = indent(raw)
		return sec
	}
	nested := make(map[string]json.RawMessage)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		value := bytes.TrimSpace(fields[key])
		if len(value) == 0 || string(value) == "null" {
			continue
		}
		switch value[0] {
		case '{', '[':
			nested[key] = value
		case '"':
			var str string
			json.Unmarshal(value, &str)
			if str != "" {
				sec.Fields = append(sec.Fields, [2]string{key, str})
			}
		default:
			sec.Fields = append(sec.Fields, [2]string{key, string(value)})
		}
	}
	if len(nested) > 0 {
		b, _ := json.Marshal(nested)
		sec.JSON = indent(b)
	}
	return sec
}

func indent(raw []byte) string {
	var b bytes.Buffer
	if err := json.Indent(&b, raw, "", "  "); err != nil {
		return string(raw)
	}
	return b.String()
}
