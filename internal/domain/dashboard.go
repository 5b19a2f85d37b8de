package domain

// Dashboard is the composed summary returned to a learner.
type Dashboard struct {
	User      *User
	StudyTime StudyTimeSummary
	DueToday  []RevisionSchedule
	Queue     []RevisionSchedule
}
