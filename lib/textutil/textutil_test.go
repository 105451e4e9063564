package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	for _, tt := range []struct {
		name string
		text string
		want []string
	}{
		{
			name: "mixed case with repeat",
			text: "Hello World hello",
			want: []string{"hello", "world", "hello"},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
		{
			name: "whitespace only",
			text: " \t\n ",
			want: nil,
		},
		{
			name: "punctuation stays attached",
			text: "Hello, world!",
			want: []string{"hello,", "world!"},
		},
		{
			name: "runs of whitespace",
			text: "  one   two\tthree\n",
			want: []string{"one", "two", "three"},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestWordIDDeterministic(t *testing.T) {
	// md5("hello") = 5d41402abc4b2a76b9719d911017c592
	require.Equal(t, "word_5d41402a", WordID("hello"))
	// md5("world") = 7d793037a0760186574b0282f2f435e7
	require.Equal(t, "word_7d793037", WordID("world"))

	for i := 0; i < 100; i++ {
		require.Equal(t, WordID("hello"), WordID("hello"))
	}
	require.NotEqual(t, WordID("hello"), WordID("hello "))
}

func TestUniqueCount(t *testing.T) {
	require.Equal(t, 0, UniqueCount(nil))
	require.Equal(t, 2, UniqueCount([]string{"word_a", "word_b", "word_a"}))
}

func TestMatchKey(t *testing.T) {
	require.Equal(t, "beyond the horizon", MatchKey("  Beyond   The Horizon "))
	require.Equal(t, "deja vu", MatchKey("Déjà Vu"))
	require.Equal(t, MatchKey("Fearless (Taylor's Version)"), MatchKey("fearless (taylor's version)"))
}
