package openai

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
)

//go:embed templates/*.txt
var builtinFS embed.FS

// spaceMark stands in for spaces the model tends to drop or collapse.
const spaceMark = "§"

var ifdef = regexp.MustCompile(`^#ifdef (\w+)$`)

// Templates maps template ids to prompt templates.
//
// A template is plain text with [[key]] placeholders and line-level
// conditionals:
//
//	#ifdef key
//	included when inputs[key] is non-empty
//	#else
//	included otherwise
//	#endif
//
// A line ending in a backslash is joined with the next one.
type Templates map[string]string

// Builtin returns the templates shipped with the package.
func Builtin() Templates {
	t, err := LoadTemplates(builtinFS, "templates")
	if err != nil {
		panic(fmt.Sprintf("openai: builtin templates: %v", err))
	}
	return t
}

// LoadTemplates reads every *.txt file in dir of fsys. The file name without
// extension is the template id.
func LoadTemplates(fsys fs.FS, dir string) (Templates, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	t := make(Templates, len(matches))
	for _, m := range matches {
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", m, err)
		}
		t[strings.TrimSuffix(path.Base(m), ".txt")] = string(data)
	}
	return t, nil
}

// Merge returns a copy of t with other's templates added or replaced.
func (t Templates) Merge(other Templates) Templates {
	out := make(Templates, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// IDs returns the template ids, sorted.
func (t Templates) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Expand renders template id with inputs.
func (t Templates) Expand(id string, inputs map[string]string) (string, error) {
	tmpl, ok := t[id]
	if !ok {
		return "", fmt.Errorf("unknown template %q", id)
	}

	var (
		lines   []string
		include []bool
	)
	for n, line := range strings.Split(tmpl, "\n") {
		switch {
		case ifdef.MatchString(line):
			key := ifdef.FindStringSubmatch(line)[1]
			include = append(include, inputs[key] != "")
			continue
		case line == "#else":
			if len(include) == 0 {
				return "", fmt.Errorf("template %s:%d: #else without #ifdef", id, n+1)
			}
			include[len(include)-1] = !include[len(include)-1]
			continue
		case line == "#endif":
			if len(include) == 0 {
				return "", fmt.Errorf("template %s:%d: #endif without #ifdef", id, n+1)
			}
			include = include[:len(include)-1]
			continue
		}
		if all(include) {
			lines = append(lines, line)
		}
	}
	if len(include) != 0 {
		return "", fmt.Errorf("template %s: unterminated #ifdef", id)
	}

	prompt := strings.ReplaceAll(strings.Join(lines, "\n"), "\\\n", "")

	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	language := inputs["language"]
	for _, key := range keys {
		value := inputs[key]
		if key == "text" {
			value = markSpaces(id, language, value)
		}
		prompt = strings.ReplaceAll(prompt, "[["+key+"]]", value)
	}
	return prompt, nil
}

// markSpaces protects spaces in the typed text. Japanese text keeps every
// space; word templates keep inner spaces but leave a trailing one so the
// model knows the last word is complete.
func markSpaces(id, language, text string) string {
	if language == "Japanese" {
		text = strings.ReplaceAll(text, " ", spaceMark)
	}
	if strings.HasPrefix(id, "Word") {
		text = strings.ReplaceAll(text, " ", spaceMark)
		if strings.HasSuffix(text, spaceMark) {
			text = strings.TrimSuffix(text, spaceMark) + " "
		}
	}
	return text
}

func all(bs []bool) bool {
	for _, b := range bs {
		if !b {
			return false
		}
	}
	return true
}
