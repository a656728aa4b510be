package jsondb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultTemplate renders a record as: [000] "data" [tag1, tag2] {key: value; key: value}
const DefaultTemplate = `[%id(3)] "%data()" [%tags(", ")] {%attrs(": ","; ")}`

// FormatOptions controls [DB.Format].
type FormatOptions struct {
	// Template is the line template; empty means [DefaultTemplate].
	//
	// Macros:
	//   %id(WIDTH,"FILL")    id right-justified to WIDTH with FILL (default "0")
	//   %data(WIDTH,"FILL")  data left-justified to WIDTH with FILL (default " ")
	//   %tags("SEP")         tags joined by SEP
	//   %attrs("SEP1","SEP2") key SEP1 value pairs joined by SEP2
	//
	// WIDTH may be empty (no padding). Each macro is resolved from its first
	// occurrence; identical copies of that occurrence are replaced too.
	Template string

	// UseRealIDs renders database indices for %id instead of the position
	// within the requested ids.
	UseRealIDs bool
}

var (
	reIDMacro    = regexp.MustCompile(`%id\((\d*)(,\s*"(.*?)")?\)`)
	reDataMacro  = regexp.MustCompile(`%data\((\d*)(,\s*"(.*?)")?\)`)
	reTagsMacro  = regexp.MustCompile(`%tags\("(.*?)"\)`)
	reAttrsMacro = regexp.MustCompile(`%attrs\("(.*?)",\s*"(.*?)"\)`)
)

type padMacro struct {
	text  string
	width int
	fill  string
}

type template struct {
	raw   string
	id    *padMacro
	data  *padMacro
	tags  []string // [text, sep]
	attrs []string // [text, sep1, sep2]
}

func parseTemplate(raw string) (template, error) {
	t := template{raw: raw}

	var err error

	t.id, err = parsePadMacro(reIDMacro, raw, "0")
	if err != nil {
		return template{}, err
	}

	t.data, err = parsePadMacro(reDataMacro, raw, " ")
	if err != nil {
		return template{}, err
	}

	t.tags = reTagsMacro.FindStringSubmatch(raw)
	t.attrs = reAttrsMacro.FindStringSubmatch(raw)

	return t, nil
}

func parsePadMacro(re *regexp.Regexp, raw, defaultFill string) (*padMacro, error) {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return nil, nil
	}

	p := &padMacro{text: m[0], fill: m[3]}

	if m[1] != "" {
		width, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: width in %s", ErrInvalidTemplate, m[0])
		}

		p.width = width
	}

	if p.fill == "" {
		p.fill = defaultFill
	}

	if utf8.RuneCountInString(p.fill) != 1 {
		return nil, fmt.Errorf("%w: fill %q in %s must be a single character", ErrInvalidTemplate, p.fill, m[0])
	}

	return p, nil
}

// Format renders one line per id, joined by newlines.
//
// Any id outside the database fails the whole call with [ErrIndexNotFound];
// no partial output is returned.
func (db *DB) Format(ids []int, opts FormatOptions) (string, error) {
	raw := opts.Template
	if raw == "" {
		raw = DefaultTemplate
	}

	tmpl, err := parseTemplate(raw)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(ids))

	for pos, id := range ids {
		if err := db.checkIndex(id); err != nil {
			return "", err
		}

		shown := pos
		if opts.UseRealIDs {
			shown = id
		}

		lines = append(lines, tmpl.render(shown, db.records[id]))
	}

	return strings.Join(lines, "\n"), nil
}

// render substitutes macros in fixed order: id, data, tags, attrs. Each step
// operates on the output of the previous one.
func (t template) render(id int, r Record) string {
	line := t.raw

	if t.id != nil {
		line = strings.ReplaceAll(line, t.id.text, padLeft(strconv.Itoa(id), t.id.width, t.id.fill))
	}

	if t.data != nil {
		line = strings.ReplaceAll(line, t.data.text, padRight(r.Data, t.data.width, t.data.fill))
	}

	if t.tags != nil {
		line = strings.ReplaceAll(line, t.tags[0], strings.Join(r.Tags.Sorted(), t.tags[1]))
	}

	if t.attrs != nil {
		pairs := make([]string, 0, r.Attrs.Len())
		for k, v := range r.Attrs.All() {
			pairs = append(pairs, k+t.attrs[1]+v.String())
		}

		line = strings.ReplaceAll(line, t.attrs[0], strings.Join(pairs, t.attrs[2]))
	}

	return line
}

func padLeft(s string, width int, fill string) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}

	return strings.Repeat(fill, width-n) + s
}

func padRight(s string, width int, fill string) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}

	return s + strings.Repeat(fill, width-n)
}
