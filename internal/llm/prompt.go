package llm

import (
	"fmt"
	"regexp"
	"strings"
)

// healthEventPrompt asks for the tagged Output block the summary renderer
// understands. The first verb is the event description, the second the
// affected entities.
const healthEventPrompt = `You are an expert in interpreting AWS Health events.

Summary:
Based on the content of the AWS Health event %s, summarize the following:

1. What problem occurred?
2. What action does the customer need to take? If none, say "No action required".
3. The possible impact or consequences of this event.

Keep the summary short and answer each point directly without repeating the question. Put each point on its own line.

Action:
If the customer needs to act, give AWS CLI steps as follows:

1. Provide explicit CLI commands for the given resources %s.
2. If the resource information is incomplete, give generic CLI commands with variables, using ACCOUNT for the AWS account.
3. Keep the steps in a natural order that is easy to follow.

If no action is needed, reply "No customer action required".

Write the steps in a friendly, customer-facing tone.

<Output>
    <Summary>the summary described above</Summary>
    <Action>the action steps described above, if any</Action>
</Output>
`

// BuildPrompt renders the summarization prompt for one event with account
// IDs inside ARNs masked.
func BuildPrompt(description string, affectedEntities []string) string {
	entities := "[" + strings.Join(affectedEntities, ", ") + "]"
	return MaskAccounts(fmt.Sprintf(healthEventPrompt, description, entities))
}

var arnAccount = regexp.MustCompile(`(arn:aws:[a-z0-9\-]+:[a-z0-9\-]*:)([0-9]+)(:[a-z0-9\-:/]*)`)

// MaskAccounts replaces the account ID segment of every ARN in s with ACCOUNT.
func MaskAccounts(s string) string {
	return arnAccount.ReplaceAllString(s, "${1}ACCOUNT${3}")
}
