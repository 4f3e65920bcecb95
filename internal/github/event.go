package github

import (
	"fmt"

	gh "github.com/google/go-github/v66/github"

	"github.com/pders01/intent/internal/models"
)

// EventName is the webhook event the approval flow listens to
const EventName = "issue_comment"

// ParseCommentEvent decodes an issue_comment payload, such as the file at
// GITHUB_EVENT_PATH
func ParseCommentEvent(payload []byte) (*models.CommentEvent, error) {
	parsed, err := gh.ParseWebHook(EventName, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", EventName, err)
	}
	event, ok := parsed.(*gh.IssueCommentEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", parsed)
	}
	if event.Comment == nil || event.Issue == nil {
		return nil, fmt.Errorf("payload has no comment or issue")
	}

	ev := &models.CommentEvent{
		Action:        event.GetAction(),
		CommentID:     event.GetComment().GetID(),
		Body:          event.GetComment().GetBody(),
		PRNumber:      event.GetIssue().GetNumber(),
		IsPullRequest: event.GetIssue().IsPullRequest(),
		Sender:        event.GetSender().GetLogin(),
		SenderIsBot:   event.GetSender().GetType() == "Bot",
	}
	if body := event.GetChanges().GetBody(); body != nil && body.From != nil {
		previous := body.GetFrom()
		ev.PreviousBody = &previous
	}
	return ev, nil
}
