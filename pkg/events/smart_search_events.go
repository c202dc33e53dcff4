package events

import "time"

const (
	TypeStageCompleted = "stage_completed"
	TypeWorkflowError  = "workflow_error"
)

// StageCompleted is raised after a Smart Search action succeeds.
func StageCompleted(userID, workflowID, sessionID, action, stage string, at time.Time) Event {
	return BaseEvent{
		Type: TypeStageCompleted,
		Data: map[string]interface{}{
			"user_id":     userID,
			"workflow_id": workflowID,
			"session_id":  sessionID,
			"action":      action,
			"stage":       stage,
		},
		OccurredAt: at,
	}
}

// WorkflowError is raised when a Smart Search action fails. The workflow keeps
// the error until the user clears it.
func WorkflowError(userID, workflowID, sessionID, action, message string, at time.Time) Event {
	return BaseEvent{
		Type: TypeWorkflowError,
		Data: map[string]interface{}{
			"user_id":     userID,
			"workflow_id": workflowID,
			"session_id":  sessionID,
			"action":      action,
			"error":       message,
		},
		OccurredAt: at,
	}
}
