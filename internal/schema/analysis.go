package schema

// Analysis is the closed shape of a /analyze result.
var Analysis = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"vocabulary": arrayOf(closedObject(map[string]any{
			"word":    str(),
			"meaning": str(),
		})),
		"title": str(),
		"main_idea": closedObject(map[string]any{
			"direct":   str(),
			"indirect": str(),
		}),
		"facts_opinions_inferences": arrayOf(closedObject(map[string]any{
			"type": enum("Fact", "Opinion", "Inference"),
			"text": str(),
		})),
		"transitions": arrayOf(closedObject(map[string]any{
			"src":      str(),
			"dest":     str(),
			"relation": enum("logical", "contrastive", "sequential", "causal"),
		})),
		"keywords": arrayOf(str()),
		"purpose":  str(),
	},
	"required": []any{
		"vocabulary",
		"title",
		"main_idea",
		"facts_opinions_inferences",
		"transitions",
		"keywords",
		"purpose",
	},
	"additionalProperties": false,
}

func str() map[string]any {
	return map[string]any{"type": "string"}
}

func enum(values ...string) map[string]any {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return map[string]any{"type": "string", "enum": vs}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

// closedObject requires every listed property and forbids any other.
func closedObject(props map[string]any) map[string]any {
	required := make([]any, 0, len(props))
	for _, name := range sortedKeys(props) {
		required = append(required, name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}
