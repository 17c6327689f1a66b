package domain

// Intent is a recognized user intent tag.
type Intent string

const (
	IntentSendEmail       Intent = "send_email"
	IntentScheduleMeeting Intent = "schedule_meeting"
	IntentSearchWeb       Intent = "search_web"
	IntentCreateContent   Intent = "create_content"
	IntentFindContact     Intent = "find_contact"
	IntentStop            Intent = "stop"
)

// Known reports whether the intent is one of the supported tags.
func (i Intent) Known() bool {
	switch i {
	case IntentSendEmail, IntentScheduleMeeting, IntentSearchWeb,
		IntentCreateContent, IntentFindContact, IntentStop:
		return true
	}
	return false
}

// Action returns the action kind that serves the intent.
// The second value is false for intents without a handler (e.g. stop).
func (i Intent) Action() (ActionKind, bool) {
	switch i {
	case IntentSendEmail:
		return ActionEmail, true
	case IntentScheduleMeeting:
		return ActionCalendar, true
	case IntentSearchWeb:
		return ActionWebSearch, true
	case IntentCreateContent:
		return ActionContent, true
	case IntentFindContact:
		return ActionContact, true
	}
	return "", false
}

// RequiredEntities lists the entity keys an intent cannot be served without.
func (i Intent) RequiredEntities() []string {
	switch i {
	case IntentSendEmail:
		return []string{"recipient", "subject", "body"}
	case IntentScheduleMeeting:
		return []string{"date", "time", "participants"}
	case IntentSearchWeb:
		return []string{"query"}
	case IntentCreateContent:
		return []string{"content_topic"}
	case IntentFindContact:
		return []string{"contact_name"}
	}
	return nil
}
