// Package prompt renders the engine's system prompt from embedded
// mustache templates.
package prompt

import (
	"embed"

	"github.com/cbroglie/mustache"

	"github.com/sidedotdev/agentic/tools"
)

func init() {
	mustache.AllowMissingVariables = false
}

//go:embed templates/*
var templatesFS embed.FS

func panicParseMustache(name string) *mustache.Template {
	data, err := templatesFS.ReadFile("templates/" + name + ".mustache")
	if err != nil {
		panic(err)
	}
	template, err := mustache.ParseString(string(data))
	if err != nil {
		panic(err)
	}
	return template
}

var systemTemplate = panicParseMustache("system")

type toolLine struct {
	Name        string
	Description string
}

type systemData struct {
	WorkspaceRoot string
	Tools         []toolLine
}

// RenderSystem produces the system prompt enumerating the tool surface and
// the JSON reply contract for the given workspace root.
func RenderSystem(workspaceRoot string) string {
	data := systemData{WorkspaceRoot: workspaceRoot}
	for _, s := range tools.Specs() {
		data.Tools = append(data.Tools, toolLine{Name: s.Name, Description: s.Description})
	}
	result, err := systemTemplate.Render(data)
	if err != nil {
		panic(err)
	}
	return result
}
