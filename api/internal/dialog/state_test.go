package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassificationFromIntent(t *testing.T) {
	cases := []struct {
		intent string
		want   Classification
		known  bool
	}{
		{"Theft", ClassTheft, true},
		{"theft", ClassTheft, true},
		{"ASSAULT", ClassAssault, true},
		{"Harassment", ClassHarassment, true},
		{"CarCrash", ClassCarCrash, true},
		{"CriminalDamage", ClassCriminalDamage, true},
		{"Information", ClassInformation, true},
		{"None", ClassNone, true},
		{" Theft ", ClassTheft, true},
		{"OrderPizza", ClassNone, false},
		{"", ClassNone, false},
	}
	for _, tc := range cases {
		got, known := ClassificationFromIntent(tc.intent)
		assert.Equal(t, tc.want, got, tc.intent)
		assert.Equal(t, tc.known, known, tc.intent)
	}
}

func TestSessionsGetCreatesOnce(t *testing.T) {
	s := NewSessions()

	a := s.Get(7)
	assert.Equal(t, StateStart, a.State)
	assert.NotEmpty(t, a.CorrelationID)

	b := s.Get(7)
	assert.Same(t, a, b)

	s.Reset(7)
	c := s.Get(7)
	assert.NotSame(t, a, c)
	assert.NotEqual(t, a.CorrelationID, c.CorrelationID)
}
