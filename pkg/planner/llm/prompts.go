package llm

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/stepwise/pkg/domain"
)

//go:embed prompts/*.md
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.md"))

type planData struct {
	Domain   string
	Goal     string
	Depth    domain.Depth
	MaxSteps int
}

type planView struct {
	Goal    string
	Steps   []domain.Step
	Current domain.Step
	Limit   int
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return b.String(), nil
}
