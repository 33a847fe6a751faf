package accusation

// NotificationKind discriminates engine notifications. The interface layer keys its effects
// (portraits, counters, narration) off the kind instead of string matching.
type NotificationKind string

const (
	NotificationSuspectSelectionStarted NotificationKind = "suspect-selection-started"
	NotificationAttemptStarted          NotificationKind = "attempt-started"
	NotificationEvidencePresented       NotificationKind = "evidence-presented"
	NotificationStatementAdvanced       NotificationKind = "statement-advanced"
	NotificationConfrontationSucceeded  NotificationKind = "confrontation-succeeded"
	NotificationConfrontationFailed     NotificationKind = "confrontation-failed"
	NotificationBadEndingTriggered      NotificationKind = "bad-ending-triggered"
	NotificationAttemptCancelled        NotificationKind = "attempt-cancelled"
	NotificationStateReset              NotificationKind = "state-reset"
	NotificationPersistenceDegraded     NotificationKind = "persistence-degraded"
)

// Notification is a gameplay event emitted by the coordinator. Fields beyond Kind are filled
// when they apply to the event.
type Notification struct {
	Kind              NotificationKind
	SuspectID         string
	EvidenceID        string
	StatementIndex    int
	Correct           bool
	IsBonus           bool
	TooEarly          bool
	MistakeCount      int
	FailedAccusations int
}

// Listener receives notifications synchronously in emission order. Listeners must not call
// back into the coordinator.
type Listener func(Notification)
