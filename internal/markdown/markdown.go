// Package markdown renders item notes for the terminal.
package markdown

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func cleanNote(value string) string {
	return strings.TrimRight(newlines.Replace(value), "\n")
}

type renderer interface {
	Render(string) (string, error)
}

var (
	rendererMu sync.Mutex
	renderers  = map[int]renderer{}
)

// Render formats markdown text for terminal output. Text the renderer
// rejects is returned as written.
func Render(width, indent int, input []byte) []byte {
	value := cleanNote(string(input))
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if width < 1 {
		width = 1
	}
	if indent < 0 {
		indent = 0
	}
	renderWidth := max(width-indent, 1)

	rendered := value
	if r := markdownRenderer(renderWidth); r != nil {
		if formatted, err := r.Render(value); err == nil {
			rendered = formatted
		}
	}
	rendered = strings.TrimRight(rendered, "\r\n")
	if strings.TrimSpace(rendered) == "" {
		return nil
	}
	return []byte(indentBlock(rendered, indent))
}

// SafeRender is Render, falling back to the trimmed input if the renderer
// panics.
func SafeRender(width, indent int, input []byte) (out []byte) {
	defer func() {
		if recover() != nil {
			out = []byte(indentBlock(cleanNote(string(input)), indent))
		}
	}()
	return Render(width, indent, input)
}

// RenderNote renders an item note, keeping link annotation lines intact.
func RenderNote(width, indent int, note string) string {
	var annotations, body []string
	lines := strings.Split(newlines.Replace(note), "\n")
	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}
		if !isAnnotation(line) {
			break
		}
		annotations = append(annotations, line)
	}
	body = lines[i:]

	var parts []string
	if len(annotations) > 0 {
		parts = append(parts, indentBlock(strings.Join(annotations, "\n"), indent))
	}
	if rendered := SafeRender(width, indent, []byte(strings.Join(body, "\n"))); len(rendered) > 0 {
		parts = append(parts, string(rendered))
	}
	return strings.Join(parts, "\n\n")
}

func isAnnotation(line string) bool {
	for _, prefix := range []string{"[PREREQUISITE: ", "[DEPENDANT: ", "[ PREREQUISITE: ", "[ DEPENDANT: "} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func markdownRenderer(width int) renderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if cached, ok := renderers[width]; ok {
		return cached
	}
	style := styles.ASCIIStyleConfig
	style.Item.BlockPrefix = "- "
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[width] = created
	return created
}

func indentBlock(value string, spaces int) string {
	if spaces <= 0 {
		return value
	}
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
