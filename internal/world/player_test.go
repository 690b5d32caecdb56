package world

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestGrantPowerTracksTypes(t *testing.T) {
	p := &Player{ID: "u1"}

	p.GrantPower("pw1", "light")
	p.GrantPower("pw2", "light")

	testutil.AssertEqual(t, "owns pw1", p.OwnsPower("pw1"), true)
	testutil.AssertEqual(t, "owns unknown", p.OwnsPower("pw9"), false)
	testutil.AssertEqual(t, "owns light", p.OwnsType("light"), true)
	testutil.AssertEqual(t, "owns water", p.OwnsType("water"), false)
	testutil.AssertEqual(t, "light tally", p.OwnedTypes["light"], 2)
}

func TestLinklessReattach(t *testing.T) {
	p := &Player{ID: "u1", ConnID: "c1"}
	now := testTime()

	p.MarkLinkless(now)
	testutil.AssertEqual(t, "linkless", p.Linkless, true)
	testutil.AssertEqual(t, "linkless at", p.LinklessAt, now)

	later := now.Add(5 * time.Second)
	p.Reattach("c2", later)

	testutil.AssertEqual(t, "linkless cleared", p.Linkless, false)
	testutil.AssertEqual(t, "conn id", p.ConnID, "c2")
	testutil.AssertEqual(t, "active", p.Active, true)
	testutil.AssertEqual(t, "last activity", p.LastActivity, later)
}

func TestParseActivity(t *testing.T) {
	tests := map[string]struct {
		in     string
		exp    PlayerActivity
		expErr bool
	}{
		"idle":    {in: "idle", exp: ActivityIdle},
		"moving":  {in: "moving", exp: ActivityMoving},
		"unknown": {in: "flying", expErr: true},
		"empty":   {in: "", expErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseActivity(tt.in)
			if tt.expErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "activity", got, tt.exp)
		})
	}
}
