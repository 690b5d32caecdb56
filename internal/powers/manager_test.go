package powers

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"github.com/questline/go-geoquest/internal/timers"
	"github.com/questline/go-geoquest/internal/world"
)

func testCatalog() []*ChallengeSpec {
	return []*ChallengeSpec{
		{Kind: world.ChallengeText, Prompt: "Reflect on {{.Name}}"},
	}
}

func testSetup(cfg Config) (*world.State, *timers.Registry, *timers.ManualClock, *Manager) {
	state := world.NewState(world.Settings{
		Width:             200,
		Height:            200,
		InteractionRadius: 10,
	})
	reg := timers.NewRegistry()
	clock := &timers.ManualClock{T: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	rng := rand.New(rand.NewSource(42))
	return state, reg, clock, NewManager(state, reg, clock, rng, cfg, testCatalog())
}

func TestSpawnBatchRespectsCapAndLimit(t *testing.T) {
	state, _, clock, m := testSetup(Config{Cap: 8, BatchLimit: 5, Lifetime: time.Minute})

	first := m.SpawnBatch()
	testutil.AssertEqual(t, "first burst", len(first), 5)

	second := m.SpawnBatch()
	testutil.AssertEqual(t, "second burst stops at cap", len(second), 3)
	testutil.AssertEqual(t, "active", state.ActivePowerCount(), 8)

	testutil.AssertEqual(t, "at cap", len(m.SpawnBatch()), 0)

	for _, p := range first {
		if p.Pos.X < 0 || p.Pos.X > 200 || p.Pos.Y < 0 || p.Pos.Y > 200 {
			t.Errorf("power %s spawned out of bounds at %+v", p.ID, p.Pos)
		}
		testutil.AssertEqual(t, "despawn deadline", p.DespawnAt, clock.T.Add(time.Minute))
		if p.Challenge.Prompt == "" {
			t.Errorf("power %s spawned without a challenge", p.ID)
		}
	}
}

func TestSpawnBatchEmptyCatalog(t *testing.T) {
	state := world.NewState(world.Settings{Width: 100, Height: 100})
	reg := timers.NewRegistry()
	clock := &timers.ManualClock{T: time.Now()}
	m := NewManager(state, reg, clock, rand.New(rand.NewSource(1)), Config{Cap: 5}, nil)

	testutil.AssertEqual(t, "no spawns", len(m.SpawnBatch()), 0)
}

func TestInteract(t *testing.T) {
	state, _, _, m := testSetup(Config{Cap: 5})
	state.AddPower(&world.Power{ID: "pw1", Active: true, Pos: world.Position{X: 50, Y: 50}})
	state.AddPower(&world.Power{ID: "pw2", Active: false, Pos: world.Position{X: 50, Y: 50}})

	tests := map[string]struct {
		playerPos world.Position
		powerID   string
		expErr    error
	}{
		"in range":        {playerPos: world.Position{X: 55, Y: 50}, powerID: "pw1"},
		"on the boundary": {playerPos: world.Position{X: 60, Y: 50}, powerID: "pw1"},
		"too far":         {playerPos: world.Position{X: 61, Y: 50}, powerID: "pw1", expErr: world.ErrTooFar},
		"unknown power":   {playerPos: world.Position{X: 50, Y: 50}, powerID: "ghost", expErr: world.ErrPowerNotFound},
		"inactive power":  {playerPos: world.Position{X: 50, Y: 50}, powerID: "pw2", expErr: world.ErrPowerNotActive},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := &world.Player{ID: "u1", Pos: tt.playerPos}
			got, err := m.Interact(p, tt.powerID)
			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("expected %v, got %v", tt.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "power id", got.ID, tt.powerID)
		})
	}
}

func TestCaptureSuccess(t *testing.T) {
	state, reg, clock, m := testSetup(Config{Cap: 5})

	// A full-length response on a common power clamps the chance to 1, so
	// the success draw cannot miss.
	pw := &world.Power{
		ID:        "pw1",
		Type:      "light",
		Rarity:    world.RarityCommon,
		Active:    true,
		Pos:       world.Position{X: 50, Y: 50},
		Challenge: world.Challenge{Kind: world.ChallengeText, MinLength: 20},
	}
	state.AddPower(pw)
	player := &world.Player{ID: "u1", Pos: world.Position{X: 50, Y: 50}}

	res, err := m.Capture(player, "pw1", Response{Text: strings.Repeat("x", 20)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "captured", res.Captured, true)
	testutil.AssertEqual(t, "reward", res.Reward, 10)
	testutil.AssertEqual(t, "owned", player.OwnsPower("pw1"), true)
	testutil.AssertEqual(t, "type tally", player.OwnsType("light"), true)
	testutil.AssertEqual(t, "xp", player.XP, 10)
	testutil.AssertEqual(t, "coins", player.Coins, 5)
	testutil.AssertEqual(t, "deactivated", pw.Active, false)

	// The power lingers briefly so clients observe the capture, then the
	// removal timer clears it.
	if state.Power("pw1") == nil {
		t.Fatal("power removed before linger elapsed")
	}
	clock.Advance(capturedLinger)
	reg.Fire(clock.Now())
	if state.Power("pw1") != nil {
		t.Error("power still present after linger removal")
	}
}

func TestCaptureWrongChoiceNeverSucceeds(t *testing.T) {
	state, _, _, m := testSetup(Config{Cap: 5})

	pw := &world.Power{
		ID:     "pw1",
		Rarity: world.RarityCommon,
		Active: true,
		Pos:    world.Position{X: 50, Y: 50},
		Challenge: world.Challenge{
			Kind:    world.ChallengeChoice,
			Options: []string{"a", "b"},
			Answer:  1,
		},
	}
	state.AddPower(pw)
	player := &world.Player{ID: "u1", Pos: world.Position{X: 50, Y: 50}}

	wrong := 0
	res, err := m.Capture(player, "pw1", Response{Choice: &wrong})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "captured", res.Captured, false)
	testutil.AssertEqual(t, "power stays active", pw.Active, true)
	testutil.AssertEqual(t, "nothing owned", player.OwnsPower("pw1"), false)
	testutil.AssertEqual(t, "no xp", player.XP, 0)

	// The power is re-attemptable after a failure.
	right := 1
	if _, err := m.Capture(player, "pw1", Response{Choice: &right}); err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
}

func TestCaptureOutOfRange(t *testing.T) {
	state, _, _, m := testSetup(Config{Cap: 5})
	state.AddPower(&world.Power{ID: "pw1", Active: true, Pos: world.Position{X: 0, Y: 0}})
	player := &world.Player{ID: "u1", Pos: world.Position{X: 100, Y: 100}}

	_, err := m.Capture(player, "pw1", Response{})
	if !errors.Is(err, world.ErrTooFar) {
		t.Fatalf("expected ErrTooFar, got %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	state, reg, clock, m := testSetup(Config{Cap: 5})
	now := clock.Now()

	state.AddPower(&world.Power{ID: "fresh", Active: true, DespawnAt: now.Add(time.Minute)})
	state.AddPower(&world.Power{ID: "expired", Active: true, DespawnAt: now.Add(-time.Second)})
	state.AddPower(&world.Power{ID: "orphaned", Active: false})

	// A captured power with a pending removal timer is left for the timer.
	state.AddPower(&world.Power{ID: "lingering", Active: false})
	reg.Schedule(timers.Key{EntityID: "lingering", Purpose: timerPurposeRemove}, now.Add(time.Second), func() {})

	removed := m.SweepExpired(now)

	testutil.AssertEqual(t, "removed count", len(removed), 2)
	if state.Power("expired") != nil {
		t.Error("expired power survived the sweep")
	}
	if state.Power("orphaned") != nil {
		t.Error("orphaned inactive power survived the sweep")
	}
	if state.Power("fresh") == nil {
		t.Error("fresh power was swept")
	}
	if state.Power("lingering") == nil {
		t.Error("lingering captured power was swept ahead of its timer")
	}
}
