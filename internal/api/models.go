package api

// DefaultModel is the model the summarization service uses when none is sent.
const DefaultModel = "anthropic.claude-3-5-sonnet-20240620-v1:0"

// AllowedModels are the model IDs the summarization service accepts.
var AllowedModels = []string{
	"anthropic.claude-3-sonnet-20240229-v1:0:28k",
	"anthropic.claude-3-sonnet-20240229-v1:0:200k",
	"anthropic.claude-3-sonnet-20240229-v1:0",
	"anthropic.claude-3-haiku-20240307-v1:0:48k",
	"anthropic.claude-3-haiku-20240307-v1:0:200k",
	"anthropic.claude-3-haiku-20240307-v1:0",
	"anthropic.claude-3-5-sonnet-20240620-v1:0:18k",
	"anthropic.claude-3-5-sonnet-20240620-v1:0:51k",
	"anthropic.claude-3-5-sonnet-20240620-v1:0:200k",
	"anthropic.claude-3-5-sonnet-20240620-v1:0",
}

// IsAllowedModel reports whether id is in AllowedModels.
func IsAllowedModel(id string) bool {
	for _, m := range AllowedModels {
		if m == id {
			return true
		}
	}
	return false
}
