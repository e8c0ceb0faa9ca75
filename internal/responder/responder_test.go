package responder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondGroups(t *testing.T) {
	tests := []struct {
		name  string
		input string
		group string
	}{
		{"greeting", "Hello", "greeting"},
		{"greeting case", "GOOD MORNING folks", "greeting"},
		{"availability", "Do you have the blue hatchback in stock?", "availability"},
		{"pricing", "How much is the SUV?", "pricing"},
		{"test drive", "Can I book a test drive on Friday?", "test_drive"},
		{"financing", "What financing options are there?", "financing"},
		{"service", "I need an oil change", "service"},
		{"hours", "What are your hours?", "hours"},
		{"location", "What's your address?", "location"},
		{"greeting with punctuation", "Hi!", "greeting"},
		{"greeting with comma", "hi, anyone there?", "greeting"},
		{"hyphenated test drive", "Could I test-drive it?", "test_drive"},
		{"prefix keyword", "Is there finance on the truck?", "financing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Respond(tt.input)
			assert.Equal(t, replyFor(t, tt.group), got.Text)
			assert.False(t, got.NeedsHuman)
		})
	}
}

func TestRespondFirstMatchWins(t *testing.T) {
	got := Respond("Hello, how much is the sedan?")
	assert.Equal(t, replyFor(t, "greeting"), got.Text)
}

func TestRespondFallback(t *testing.T) {
	got := Respond("I want to speak to someone about a recall issue")

	assert.Equal(t, Fallback(), got.Text)
	assert.True(t, got.NeedsHuman)
	assert.Contains(t, got.Text, HandoffPhrase)
}

func TestRespondMatchesWholeWords(t *testing.T) {
	for _, input := range []string{"my Delhi order", "this and that", "Chip says thanks"} {
		got := Respond(input)
		assert.Equal(t, Fallback(), got.Text, input)
		assert.True(t, got.NeedsHuman, input)
	}
}

func TestRespondTotal(t *testing.T) {
	for _, input := range []string{"", "   ", "\x00\xff", strings.Repeat("z", 10000)} {
		got := Respond(input)
		assert.Equal(t, NeedsHuman(got.Text), got.NeedsHuman)
	}
}

func TestOnlyFallbackHandsOff(t *testing.T) {
	for _, g := range groups {
		assert.False(t, NeedsHuman(g.reply), g.name)
	}
}

func replyFor(t *testing.T, name string) string {
	t.Helper()
	for _, g := range groups {
		if g.name == name {
			return g.reply
		}
	}
	t.Fatalf("unknown group %s", name)
	return ""
}
