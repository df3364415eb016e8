package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressStatus_CanTransitionTo(t *testing.T) {
	all := []ProgressStatus{ProgressNotStarted, ProgressInProgress, ProgressCompleted}
	allowed := map[[2]ProgressStatus]bool{
		{ProgressNotStarted, ProgressNotStarted}: true,
		{ProgressNotStarted, ProgressInProgress}: true,
		{ProgressNotStarted, ProgressCompleted}:  true,
		{ProgressInProgress, ProgressInProgress}: true,
		{ProgressInProgress, ProgressCompleted}:  true,
		{ProgressCompleted, ProgressCompleted}:   true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]ProgressStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, ProgressStatus("paused").Valid())
}

func TestProgressUpdate_Apply(t *testing.T) {
	grade := "B+"
	status := ProgressInProgress
	p := &CourseProgress{Status: ProgressNotStarted}

	u := ProgressUpdate{Status: &status, Grade: &grade}
	assert.False(t, u.IsEmpty())
	u.Apply(p)

	assert.Equal(t, ProgressInProgress, p.Status)
	assert.Equal(t, "B+", *p.Grade)
	assert.Nil(t, p.Notes)
	assert.True(t, ProgressUpdate{}.IsEmpty())

	notes, cleared := "late submission", ""
	ProgressUpdate{Notes: &notes}.Apply(p)
	assert.Equal(t, "late submission", *p.Notes)
	ProgressUpdate{Notes: &cleared}.Apply(p)
	assert.Nil(t, p.Notes)
}

func TestStudentProfile_CanonicalID(t *testing.T) {
	p := StudentProfile{}
	assert.True(t, p.IsCanonical())
	assert.Equal(t, p.ID, p.CanonicalID())

	target := p.ID
	target[0] ^= 0xff
	p.MergedIntoID = &target
	assert.False(t, p.IsCanonical())
	assert.Equal(t, target, p.CanonicalID())
}
