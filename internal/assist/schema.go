package assist

import "github.com/sashabaranov/go-openai/jsonschema"

func generateJsonSchema(value any) *jsonschema.Definition {
	result, err := jsonschema.GenerateSchemaForType(value)
	if err != nil {
		panic(err)
	}
	return result
}

type draftContinuation struct {
	Continuation string `json:"continuation" description:"The text that should come next, continuing the draft naturally. Must not repeat the draft itself." required:"true"`
}

var CONTINUATION_SCHEMA = generateJsonSchema(draftContinuation{})

type suggestionItem struct {
	Category string `json:"category" description:"A short category for the suggestion, such as context, scope, or format" required:"true"`
	Label    string `json:"label" description:"A few-word label naming the improvement" required:"true"`
	Detail   string `json:"detail" description:"The concrete sentence to add to the draft" required:"true"`
}

type draftSuggestions struct {
	Suggestions []suggestionItem `json:"suggestions" description:"Structured improvements the writer can append to the draft" required:"true"`
}

var SUGGESTIONS_SCHEMA = generateJsonSchema(draftSuggestions{})

type issueItem struct {
	Span    string `json:"span" description:"The exact substring of the draft the issue applies to, copied verbatim" required:"true"`
	Message string `json:"message" description:"A concise explanation of why this part of the draft is a problem" required:"true"`
}

type draftIssues struct {
	Issues []issueItem `json:"issues" description:"Critical issues found in the draft" required:"true"`
}

var ISSUES_SCHEMA = generateJsonSchema(draftIssues{})

type rewrittenDraft struct {
	Rewritten string `json:"rewritten" description:"The full rewritten draft, preserving the writer's intent" required:"true"`
}

var REWRITTEN_SCHEMA = generateJsonSchema(rewrittenDraft{})
