package powers

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
	"github.com/questline/go-geoquest/internal/world"
)

func TestChallengeSpecValidate(t *testing.T) {
	tests := map[string]struct {
		spec   ChallengeSpec
		expErr bool
	}{
		"valid text": {
			spec: ChallengeSpec{Kind: world.ChallengeText, Prompt: "Reflect on {{.Name}}"},
		},
		"valid choice": {
			spec: ChallengeSpec{Kind: world.ChallengeChoice, Prompt: "Pick one", Options: []string{"a", "b"}, Answer: 1},
		},
		"unknown kind": {
			spec:   ChallengeSpec{Kind: "riddle", Prompt: "?"},
			expErr: true,
		},
		"missing prompt": {
			spec:   ChallengeSpec{Kind: world.ChallengeText},
			expErr: true,
		},
		"bad template": {
			spec:   ChallengeSpec{Kind: world.ChallengeText, Prompt: "{{.Name"},
			expErr: true,
		},
		"text with options": {
			spec:   ChallengeSpec{Kind: world.ChallengeText, Prompt: "x", Options: []string{"a"}},
			expErr: true,
		},
		"choice with one option": {
			spec:   ChallengeSpec{Kind: world.ChallengeChoice, Prompt: "x", Options: []string{"a"}},
			expErr: true,
		},
		"answer out of range": {
			spec:   ChallengeSpec{Kind: world.ChallengeChoice, Prompt: "x", Options: []string{"a", "b"}, Answer: 2},
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.expErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tt.expErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildExpandsPromptAndScalesLength(t *testing.T) {
	spec := &ChallengeSpec{
		Kind:   world.ChallengeText,
		Prompt: "What does {{.Name}} ({{.Rarity}} {{.Type}}) mean to you, {{upper .Type}}?",
	}

	ch, err := spec.Build("Dawn Spark", "light", world.RarityRare)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(ch.Prompt, "Dawn Spark") || !strings.Contains(ch.Prompt, "rare") {
		t.Errorf("prompt not expanded: %q", ch.Prompt)
	}
	if !strings.Contains(ch.Prompt, "LIGHT") {
		t.Errorf("sprig function not applied: %q", ch.Prompt)
	}

	// Rarer powers demand longer reflections.
	common, _ := spec.Build("Dawn Spark", "light", world.RarityCommon)
	if ch.MinLength <= common.MinLength {
		t.Errorf("rare min length %d not above common %d", ch.MinLength, common.MinLength)
	}
}

func TestCaptureChance(t *testing.T) {
	textCh := world.Challenge{Kind: world.ChallengeText, MinLength: 20}
	choiceCh := world.Challenge{Kind: world.ChallengeChoice, Options: []string{"a", "b"}, Answer: 1}
	right, wrong := 1, 0

	tests := map[string]struct {
		rarity world.Rarity
		ch     world.Challenge
		resp   Response
		exp    float64
		expOk  bool
	}{
		"full text response": {
			rarity: world.RarityRare,
			ch:     textCh,
			resp:   Response{Text: strings.Repeat("x", 20)},
			exp:    0.55 + maxQualityBonus,
			expOk:  true,
		},
		"half text response": {
			rarity: world.RarityRare,
			ch:     textCh,
			resp:   Response{Text: strings.Repeat("x", 10)},
			exp:    0.55 + maxQualityBonus/2,
			expOk:  true,
		},
		"empty text response": {
			rarity: world.RarityRare,
			ch:     textCh,
			resp:   Response{},
			exp:    0.55,
			expOk:  true,
		},
		"overlong text caps": {
			rarity: world.RarityCommon,
			ch:     textCh,
			resp:   Response{Text: strings.Repeat("x", 500)},
			exp:    1, // 0.90 + 0.15 clamps
			expOk:  true,
		},
		"correct choice": {
			rarity: world.RarityLegendary,
			ch:     choiceCh,
			resp:   Response{Choice: &right},
			exp:    0.20 + maxQualityBonus,
			expOk:  true,
		},
		"wrong choice fails outright": {
			rarity: world.RarityCommon,
			ch:     choiceCh,
			resp:   Response{Choice: &wrong},
			expOk:  false,
		},
		"missing choice fails outright": {
			rarity: world.RarityCommon,
			ch:     choiceCh,
			resp:   Response{},
			expOk:  false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := CaptureChance(tt.rarity, tt.ch, tt.resp)
			testutil.AssertEqual(t, "ok", ok, tt.expOk)
			if tt.expOk {
				testutil.AssertEqual(t, "chance", got, tt.exp)
			}
		})
	}
}

func TestCaptureChanceDecreasesWithRarity(t *testing.T) {
	ch := world.Challenge{Kind: world.ChallengeText, MinLength: 20}
	resp := Response{Text: strings.Repeat("x", 20)}

	prev := 2.0
	for _, tier := range world.RarityTable {
		got, ok := CaptureChance(tier.Rarity, ch, resp)
		if !ok {
			t.Fatalf("rarity %s rejected a valid response", tier.Rarity)
		}
		if got >= prev {
			t.Errorf("rarity %s chance %f not below previous %f", tier.Rarity, got, prev)
		}
		prev = got
	}
}
