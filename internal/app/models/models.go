package models

// RecordStatus is the lifecycle flag shared by programs and courses
type RecordStatus string

const (
	StatusActive   RecordStatus = "active"
	StatusInactive RecordStatus = "inactive"
)

// AssignmentStatus is the lifecycle of a student/program link
type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentWithdrawn AssignmentStatus = "withdrawn"
)

// TagStatus marks tags as live or soft-deleted
type TagStatus string

const (
	TagActive  TagStatus = "active"
	TagDeleted TagStatus = "deleted"
)
