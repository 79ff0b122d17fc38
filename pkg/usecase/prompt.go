package usecase

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/service/reference"
)

var (
	//go:embed prompt/reference.md
	referencePromptTmpl string
	//go:embed prompt/media.md
	mediaPrompt string
	//go:embed prompt/deep_dive.md
	deepDivePromptTmpl string
	//go:embed prompt/chat_system.md
	chatSystemPromptTmpl string
)

var (
	referencePrompt  = template.Must(template.New("reference").Parse(referencePromptTmpl))
	deepDivePrompt   = template.Must(template.New("deep_dive").Parse(deepDivePromptTmpl))
	chatSystemPrompt = template.Must(template.New("chat_system").Parse(chatSystemPromptTmpl))
)

type referencePromptData struct {
	Source string
	Page   *reference.Page
}

type deepDivePromptData struct {
	Summary     string
	Explanation string
	Source      string
}

type chatSystemPromptData struct {
	Summary      string
	Explanation  string
	Platform     string
	Sentiment    string
	KeyTakeaways []string
	Transcript   model.Transcript
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render prompt", goerr.V("template", tmpl.Name()))
	}
	return buf.String(), nil
}
