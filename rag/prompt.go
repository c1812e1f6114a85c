package rag

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/memtide/memtide/errors"
)

const answerPromptTmpl = `You are a careful assistant answering from retrieved reference material.
{{- if .Context }}

Reference material:
{{ .Context }}

Answer using the reference material above. When it does not cover the
question, say so before answering from general knowledge.
{{- else }}

No reference material matched this question. Answer from general knowledge
and state clearly that nothing relevant was found in the corpus.
{{- end }}

Question: {{ .Query | trim }}`

var answerPrompt = template.Must(template.New("answer").Funcs(sprig.TxtFuncMap()).Parse(answerPromptTmpl))

func buildPrompt(query, context string) (string, error) {
	var b strings.Builder
	err := answerPrompt.Execute(&b, map[string]any{
		"Query":   query,
		"Context": context,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to render answer prompt")
	}
	return b.String(), nil
}
