package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{name: "Project 2", expected: "project2"},
		{name: " PROJECT\t2\n", expected: "project2"},
		{name: "CS 1114", expected: "cs1114"},
		{name: "", expected: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, NormalizeName(test.name), test.name)
	}
}
