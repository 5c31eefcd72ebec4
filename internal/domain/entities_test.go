package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentence_Equal(t *testing.T) {
	split := Sentence{Words: []Word{{Morphs: []string{"hous", "e"}}}}

	assert.True(t, Sentence{}.Equal(NewSentence()), "nil and empty word lists")
	assert.True(t, split.Equal(Sentence{Words: []Word{{Morphs: []string{"hous", "e"}}}}))
	assert.False(t, split.Equal(NewSentence("house")), "same text, different morphs")
	assert.False(t, split.Equal(NewSentence("house", "dog")))
	assert.Equal(t, []string{"house"}, split.Tokens())
}
