package coursename

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "data structures", Normalize("  Data   Structures "))
	assert.Equal(t, "cs101", Normalize("ＣＳ１０１"))
	assert.Equal(t, "", Normalize("   "))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Java Programming", "java  programming"))
	assert.False(t, Equal("", ""))
	assert.False(t, Equal("Java", "JavaScript"))
}

func TestMatch(t *testing.T) {
	courses := []string{"Introduction to Programming", "Data Structures", "Advanced Data Structures", "Calculus I"}

	tests := []struct {
		name  string
		label string
		want  int
	}{
		{name: "exact", label: "data structures", want: 1},
		{name: "label inside course name", label: "Calculus", want: 3},
		{name: "course name inside label", label: "Intro: Introduction to Programming (2024)", want: 0},
		{name: "longest containing candidate", label: "Advanced Data", want: 2},
		{name: "no match", label: "Physics", want: -1},
		{name: "blank", label: " ", want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.label, courses))
		})
	}
}
