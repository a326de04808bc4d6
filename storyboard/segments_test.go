package storyboard

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildSegments_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		maxWords int
		want     []string
	}{
		{name: "empty", text: "", maxWords: 50, want: nil},
		{name: "whitespace only", text: "   \n\t ", maxWords: 50, want: nil},
		{name: "terminators only", text: "...!?", maxWords: 50, want: nil},
		{name: "no terminators", text: "hello world", maxWords: 50, want: []string{"hello world."}},
		{
			name:     "flush before overflowing sentence",
			text:     "A B C. D E F G H. I.",
			maxWords: 3,
			want:     []string{"A B C.", "D E F G H.", "I."},
		},
		{
			name:     "empty sentence between terminators dropped",
			text:     "A. . B.",
			maxWords: 1,
			want:     []string{"A.", "B."},
		},
		{
			name:     "empty sentence between terminators packs",
			text:     "A. . B.",
			maxWords: 10,
			want:     []string{"A B."},
		},
		{
			name:     "exclamation and question normalized",
			text:     "Wow! Really?? Yes.",
			maxWords: 50,
			want:     []string{"Wow Really Yes."},
		},
		{
			name:     "exact budget stays together",
			text:     "one two. three four.",
			maxWords: 4,
			want:     []string{"one two three four."},
		},
		{
			name:     "oversized sentence first",
			text:     "a b c d e f. g.",
			maxWords: 2,
			want:     []string{"a b c d e f.", "g."},
		},
		{
			name:     "inner whitespace kept",
			text:     "  spaced   out  words . next",
			maxWords: 50,
			want:     []string{"spaced   out  words next."},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildSegments(tt.text, tt.maxWords)
			if err != nil {
				t.Fatalf("BuildSegments: %v", err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("BuildSegments(%q, %d)=%q, want %q", tt.text, tt.maxWords, got, tt.want)
			}
		})
	}
}

func TestBuildSegments_RejectsNonPositiveBudget(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, -1} {
		_, err := BuildSegments("a. b.", n)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("maxWords=%d err=%v, want ErrInvalidConfiguration", n, err)
		}
	}
}

func TestBuildSegments_NoLossAndBudget(t *testing.T) {
	t.Parallel()

	text := `The river rose overnight! Nobody in the village expected it. Farmers moved their animals to the hills,
and the school opened its doors as a shelter. By noon the water had reached the bakery? It had.
A very long sentence that keeps going and going well past any sensible budget without a single stop in sight at all.
Short one. Another short one. End`

	for _, maxWords := range []int{1, 3, 7, 12, 50, 500} {
		segs, err := BuildSegments(text, maxWords)
		if err != nil {
			t.Fatalf("BuildSegments: %v", err)
		}

		var recovered []string
		for _, s := range segs {
			if !strings.HasSuffix(s, ".") || strings.HasSuffix(s, "..") {
				t.Fatalf("segment %q must end with exactly one '.'", s)
			}
			sentences := SplitSentences(s)
			if len(sentences) != 1 {
				t.Fatalf("segment %q re-split into %d sentences, want 1", s, len(sentences))
			}
			recovered = append(recovered, strings.Fields(sentences[0])...)
		}

		var want []string
		for _, s := range SplitSentences(text) {
			want = append(want, strings.Fields(s)...)
		}
		if !reflect.DeepEqual(recovered, want) {
			t.Fatalf("maxWords=%d lost or reordered words:\n got=%v\nwant=%v", maxWords, recovered, want)
		}
	}
}

func TestBuildSegments_BudgetRespectedExceptSingleSentence(t *testing.T) {
	t.Parallel()

	text := "a b. c d e. f. g h i j k l. m n."
	maxWords := 3
	segs, err := BuildSegments(text, maxWords)
	if err != nil {
		t.Fatalf("BuildSegments: %v", err)
	}
	want := []string{"a b.", "c d e.", "f.", "g h i j k l.", "m n."}
	if !reflect.DeepEqual(segs, want) {
		t.Fatalf("segments=%q, want %q", segs, want)
	}
	for _, s := range segs {
		if n := len(strings.Fields(s)); n > maxWords && s != "g h i j k l." {
			t.Fatalf("segment %q has %d words, budget %d", s, n, maxWords)
		}
	}
}

func TestImagePrompt(t *testing.T) {
	t.Parallel()

	if got := ImagePrompt("", "A cat."); got != "A cat." {
		t.Fatalf("ImagePrompt=%q", got)
	}
	if got := ImagePrompt(DefaultImagePromptPrefix, "A cat."); got != DefaultImagePromptPrefix+"A cat." {
		t.Fatalf("ImagePrompt=%q", got)
	}
}
