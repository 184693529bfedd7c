package adschedule

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald/internal/nowplaying"
)

type fakeTracks struct {
	cur  *nowplaying.Track
	next *nowplaying.Track
}

func (f *fakeTracks) CurrentTrack() *nowplaying.Track { return f.cur }
func (f *fakeTracks) NextTrack() *nowplaying.Track    { return f.next }

type fixedClassifier bool

func (c fixedClassifier) IsLecture(*nowplaying.Track) bool { return bool(c) }

type panicClassifier struct{}

func (panicClassifier) IsLecture(*nowplaying.Track) bool { panic("boom") }

type recordingInserter struct {
	instant    int
	scheduled  int
	hourStarts []bool
}

func (r *recordingInserter) InsertInstant(_ context.Context, isHourStart bool) error {
	r.instant++
	r.hourStarts = append(r.hourStarts, isHourStart)
	return nil
}

func (r *recordingInserter) InsertScheduled(context.Context) error {
	r.scheduled++
	return nil
}

func newTestEngine(tracks *fakeTracks, classifier Classifier, inserter Inserter) *Engine {
	return New("north", tracks, classifier, inserter, nil, zerolog.Nop())
}

func TestFirstTickEvaluatesCurrentHour(t *testing.T) {
	// Mid-hour start with an empty queue: the hour must still be evaluated,
	// here resolving to no insertion.
	tracks := &fakeTracks{cur: trackAt("A", base, 10*time.Minute)}
	inserter := &recordingInserter{}
	engine := newTestEngine(tracks, fixedClassifier(false), inserter)

	if err := engine.tick(context.Background(), base.Add(20*time.Minute)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if engine.lastHourChecked != 10 {
		t.Fatalf("lastHourChecked = %d, want 10", engine.lastHourChecked)
	}
	if engine.state != StateIdle {
		t.Fatalf("state = %v, want idle", engine.state)
	}
	if inserter.instant+inserter.scheduled != 0 {
		t.Fatal("no insertion expected for an empty queue")
	}
}

func TestHourStartInstantInsertion(t *testing.T) {
	// Ten seconds into the hour with no current track: instant insertion,
	// but past the hour-start window so no station identifier.
	tracks := &fakeTracks{next: trackAt("B", time.Time{}, 4*time.Minute)}
	inserter := &recordingInserter{}
	engine := newTestEngine(tracks, fixedClassifier(false), inserter)

	if err := engine.tick(context.Background(), base.Add(10*time.Second)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if inserter.instant != 1 {
		t.Fatalf("instant insertions = %d, want 1", inserter.instant)
	}
	if inserter.hourStarts[0] {
		t.Fatal("10s past the hour is outside the hour-start window")
	}

	// Directly at the boundary the window applies.
	engine2 := newTestEngine(tracks, fixedClassifier(false), &recordingInserter{})
	inserter2 := engine2.inserter.(*recordingInserter)
	if err := engine2.tick(context.Background(), base.Add(3*time.Second)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(inserter2.hourStarts) != 1 || !inserter2.hourStarts[0] {
		t.Fatalf("expected hour-start insertion, got %v", inserter2.hourStarts)
	}
}

func TestTrackBoundaryReevaluation(t *testing.T) {
	now := base.Add(5 * time.Minute)
	cur := trackAt("A", base.Add(4*time.Minute), 4*time.Minute)
	tracks := &fakeTracks{cur: cur, next: trackAt("B", time.Time{}, 4*time.Minute)}
	inserter := &recordingInserter{}
	engine := newTestEngine(tracks, fixedClassifier(false), inserter)

	if err := engine.tick(context.Background(), now); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if engine.state != StateWaitingForTrackBoundary {
		t.Fatalf("state = %v, want waiting", engine.state)
	}
	if inserter.instant != 0 {
		t.Fatal("waiting decision must not insert")
	}

	// Same track at the next poll: still waiting.
	if err := engine.tick(context.Background(), now.Add(trackPollInterval)); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if engine.state != StateWaitingForTrackBoundary {
		t.Fatal("unchanged track must keep the engine waiting")
	}

	// Track changed and the remaining window shrank: re-evaluation inserts.
	tracks.cur = trackAt("B", now.Add(10*time.Minute), 50*time.Minute)
	if err := engine.tick(context.Background(), now.Add(2*trackPollInterval)); err != nil {
		t.Fatalf("third tick: %v", err)
	}
	if inserter.instant != 1 {
		t.Fatalf("instant insertions = %d, want 1 after boundary", inserter.instant)
	}
	if engine.state != StateIdle {
		t.Fatalf("state = %v, want idle after insertion", engine.state)
	}
}

func TestDecisionPanicFallsBackToInstant(t *testing.T) {
	now := base.Add(5 * time.Minute)
	tracks := &fakeTracks{
		cur:  trackAt("A", base.Add(4*time.Minute), 4*time.Minute),
		next: trackAt("B", time.Time{}, 4*time.Minute),
	}
	inserter := &recordingInserter{}
	engine := newTestEngine(tracks, panicClassifier{}, inserter)

	if err := engine.tick(context.Background(), now); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if inserter.instant != 1 {
		t.Fatalf("expected instant fallback after panic, got %d", inserter.instant)
	}
}

func TestSleepInterval(t *testing.T) {
	engine := newTestEngine(&fakeTracks{}, fixedClassifier(false), &recordingInserter{})

	// Far from the hour boundary the cap applies.
	if got := engine.sleepInterval(base.Add(5 * time.Minute)); got != maxSleep {
		t.Fatalf("sleepInterval mid-hour = %s, want %s", got, maxSleep)
	}

	// Close to the boundary the wakeup lands just past it.
	near := base.Add(59*time.Minute + 30*time.Second)
	if got := engine.sleepInterval(near); got != 30*time.Second+hourBuffer {
		t.Fatalf("sleepInterval near boundary = %s", got)
	}

	// A pending track poll shortens the sleep further, floored at minSleep.
	engine.state = StateWaitingForTrackBoundary
	engine.nextTrackPoll = near.Add(200 * time.Millisecond)
	if got := engine.sleepInterval(near); got != minSleep {
		t.Fatalf("sleepInterval with imminent poll = %s, want %s", got, minSleep)
	}
}
