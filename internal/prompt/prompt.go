// Package prompt renders the instructions sent to the completion API.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/garnizeh/bidwright/internal/extract"
	"github.com/garnizeh/bidwright/internal/models"
)

const SystemPrompt = "You are an expert construction bid generator. Your task is to create detailed, accurate bids based on the information provided."

// Fields are the sanitized project fields submitted with a generation request.
type Fields struct {
	ConstructionField string
	ProjectType       string
	ProjectAddress    string
	CompanyLocation   string
	SupportingInfo    string
}

type excerpt struct {
	Label string
	Text  string
}

const bidTemplate = `Generate a construction bid for a {{.Fields.ConstructionField}}{{with .Fields.ProjectType}} ({{.}}){{end}} project at {{.Fields.ProjectAddress}}.
Company Location: {{.Fields.CompanyLocation}}.
{{- with .Fields.SupportingInfo}}
Supporting information: {{.}}
{{- end}}
{{range .Excerpts}}
Key information extracted from the provided {{.Label}} document:
{{.Text}}
{{end}}
Please provide the following in your response:
1. Project Name
2. Location
3. Estimated Timeframe
4. Project Description
5. At least 5 Line Items with Name, Price, Quantity, and Unit

Format your response as a JSON object with exactly these keys: projectName, location, timeframe, description, lineItems (an array of objects with the keys name, price, quantity, unit).
DO NOT include any markdown formatting or explanation text. Respond with the JSON object only.`

const editTemplate = `Here is the current construction bid:
Project Name: {{.ProjectName}}
Location: {{.Location}}
Timeframe: {{.Timeframe}}
Description: {{.Description}}
{{- with .ProjectType}}
Project Type: {{.}}
{{- end}}
{{- with .ConstructionField}}
Construction Field: {{.}}
{{- end}}
Line Items:
{{- range .LineItems}}
- {{.Name}}: {{.Quantity}} {{.Unit}} at ${{.Price}}
{{- else}}
(none)
{{- end}}

The user asks: {{.Message}}

Suggest concrete edits to this bid. Answer in plain text.`

var (
	bidTpl  = template.Must(template.New("bid").Parse(bidTemplate))
	editTpl = template.Must(template.New("edit").Parse(editTemplate))
)

// Build renders the bid generation prompt. Non-empty excerpts are appended in
// canonical document order.
func Build(f Fields, excerpts map[extract.DocType]string) (string, error) {
	data := struct {
		Fields   Fields
		Excerpts []excerpt
	}{Fields: f}

	for _, dt := range extract.DocTypes() {
		if text := strings.TrimSpace(excerpts[dt]); text != "" {
			data.Excerpts = append(data.Excerpts, excerpt{Label: dt.Label(), Text: text})
		}
	}

	return render(bidTpl, data)
}

// EditSuggestion renders the prompt asking for free-text edits to bid.
func EditSuggestion(bid models.Bid, message string) (string, error) {
	data := struct {
		models.Bid
		Message string
	}{Bid: bid, Message: strings.TrimSpace(message)}

	return render(editTpl, data)
}

func render(tpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tpl.Name(), err)
	}

	return buf.String(), nil
}
