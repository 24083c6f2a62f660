package harmony

import (
	"strings"
)

func renderSystemContent(s SystemContent, opts RenderOptions) string {
	var sections []string

	var top []string
	if s.ModelIdentity != "" {
		top = append(top, s.ModelIdentity)
	}
	if s.KnowledgeCutoff != "" {
		top = append(top, "Knowledge cutoff: "+s.KnowledgeCutoff)
	}
	if s.ConversationStartDate != "" {
		top = append(top, "Current date: "+s.ConversationStartDate)
	}
	if len(top) > 0 {
		sections = append(sections, strings.Join(top, "\n"))
	}

	if s.ReasoningEffort != "" {
		sections = append(sections, "Reasoning: "+string(s.ReasoningEffort))
	}

	if tools := renderToolsSection(s.Tools); tools != "" {
		sections = append(sections, tools)
	}

	if cc := s.ChannelConfig; cc != nil && len(cc.ValidChannels) > 0 {
		header := "# Valid channels: " + strings.Join(cc.ValidChannels, ", ") + "."
		if cc.ChannelRequired {
			header += " Channel must be included for every message."
		}
		if opts.ConversationHasFunctionTools {
			header += "\nCalls to these tools must go to the commentary channel: '" + FunctionsNamespace + "'."
		}
		sections = append(sections, header)
	}

	return strings.Join(sections, "\n\n")
}

func renderDeveloperContent(d DeveloperContent) string {
	var sections []string
	if d.Instructions != "" {
		sections = append(sections, "# Instructions\n\n"+d.Instructions)
	}
	if tools := renderToolsSection(d.Tools); tools != "" {
		sections = append(sections, tools)
	}
	return strings.Join(sections, "\n\n")
}

func renderToolsSection(tools map[string]ToolNamespaceConfig) string {
	if len(tools) == 0 {
		return ""
	}
	namespaces := sortedNamespaces(tools)
	rendered := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		rendered = append(rendered, renderNamespace(ns))
	}
	return "# Tools\n\n" + strings.Join(rendered, "\n\n")
}

// renderNamespace renders a namespace as TypeScript-style declarations.
// A namespace without tools renders its description as plain prose.
func renderNamespace(ns ToolNamespaceConfig) string {
	lines := []string{"## " + ns.Name + "\n"}
	if ns.Description != "" {
		for _, line := range strings.Split(ns.Description, "\n") {
			if len(ns.Tools) > 0 {
				lines = append(lines, "// "+line)
			} else {
				lines = append(lines, line)
			}
		}
	}
	if len(ns.Tools) == 0 {
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "namespace "+ns.Name+" {\n")
	for _, tool := range ns.Tools {
		if tool.Description != "" {
			for _, line := range strings.Split(tool.Description, "\n") {
				lines = append(lines, "// "+line)
			}
		}
		if len(tool.Parameters) > 0 && string(tool.Parameters) != "null" {
			lines = append(lines, "type "+tool.Name+" = (_: "+schemaToTypeScript(tool.Parameters)+") => any;\n")
		} else {
			lines = append(lines, "type "+tool.Name+" = () => any;\n")
		}
	}
	lines = append(lines, "} // namespace "+ns.Name)
	return strings.Join(lines, "\n")
}
