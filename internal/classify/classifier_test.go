package classify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald/internal/nowplaying"
)

type fakeLists struct {
	blacklist map[string]bool
	whitelist map[string]bool
}

func (f fakeLists) Blacklist(context.Context) (map[string]bool, error) { return f.blacklist, nil }
func (f fakeLists) Whitelist(context.Context) (map[string]bool, error) { return f.whitelist, nil }

func newClassifier(blacklist, whitelist []string) *ListClassifier {
	lists := fakeLists{blacklist: map[string]bool{}, whitelist: map[string]bool{}}
	for _, a := range blacklist {
		lists.blacklist[a] = true
	}
	for _, a := range whitelist {
		lists.whitelist[a] = true
	}
	return NewListClassifier(lists, zerolog.Nop())
}

func track(artist string) *nowplaying.Track {
	return &nowplaying.Track{Artist: artist, Title: "Some Title"}
}

func TestBlacklistWinsOverEverything(t *testing.T) {
	// Same artist on both lists and matching the heuristic: the blacklist
	// must short-circuit before either.
	c := newClassifier([]string{"rachel adams"}, []string{"rachel adams"})
	if c.IsLecture(track("Rachel Adams")) {
		t.Fatal("blacklisted artist classified as lecture")
	}
}

func TestWhitelistWinsOverHeuristic(t *testing.T) {
	c := newClassifier(nil, []string{"john smith"})
	if !c.IsLecture(track("John Smith")) {
		t.Fatal("whitelisted artist not classified as lecture")
	}
}

func TestHeuristicFirstLetter(t *testing.T) {
	c := newClassifier(nil, nil)
	cases := []struct {
		artist string
		want   bool
	}{
		{"Rachel Adams", true},
		{"rachel adams", true},
		{"Bob Dylan", false},
		{"The Rollers", false},
	}
	for _, tc := range cases {
		if got := c.IsLecture(track(tc.artist)); got != tc.want {
			t.Fatalf("IsLecture(%q) = %v, want %v", tc.artist, got, tc.want)
		}
	}
}

func TestAbsentArtistIsNeverLecture(t *testing.T) {
	c := newClassifier(nil, []string{""})
	if c.IsLecture(nil) {
		t.Fatal("nil track classified as lecture")
	}
	if c.IsLecture(track("")) {
		t.Fatal("empty artist classified as lecture")
	}
	if c.IsLecture(track("   ")) {
		t.Fatal("blank artist classified as lecture")
	}
}

func TestListMatchingIsCaseInsensitive(t *testing.T) {
	c := newClassifier([]string{"radio drama ensemble"}, nil)
	// Starts with R, so only the blacklist can keep it out.
	if c.IsLecture(track("RADIO DRAMA ENSEMBLE")) {
		t.Fatal("blacklist match should be case-insensitive")
	}
}

func TestNopClassifier(t *testing.T) {
	if (Nop{}).IsLecture(track("Rachel Adams")) {
		t.Fatal("nop classifier must never report lecture")
	}
}
