package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger", "snake"}, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "word inside a sentence", input: "The badger is here", expected: "The ****** is here"},
		{name: "repeated word", input: "badger badger", expected: "****** ******"},
		{name: "leet speak with punctuation", input: "a B.4.d.g.3r!", expected: "a **********!"},
		{name: "uppercase with dashes", input: "S-N-A-K-E", expected: "*********"},
		{name: "accents are kept", input: "été badger", expected: "été ******"},
		{name: "nothing to censor", input: "all good", expected: "all good"},
		{name: "empty text", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestModerator_NoUsableWordsIsNoop(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"...", "", " "}, replacementChar)
	req.NoError(err)
	req.Equal("badger ...", mod.Censor("badger ..."))

	var nilMod *Moderator
	req.Equal("text", nilMod.Censor("text"))
}
