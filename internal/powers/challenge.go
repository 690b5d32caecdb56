package powers

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-errors"

	"github.com/questline/go-geoquest/internal/world"
)

var promptFuncs = sprig.TxtFuncMap()

// ChallengeSpec is a capture challenge definition loaded from the
// challenge catalog. The prompt is a text/template expanded against the
// power being spawned.
type ChallengeSpec struct {
	Kind   world.ChallengeKind `json:"kind"`
	Prompt string              `json:"prompt"`

	// Choice challenges only.
	Options []string `json:"options,omitempty"`
	Answer  int      `json:"answer,omitempty"`
}

// Validate satisfies storage.ValidatingSpec.
func (c *ChallengeSpec) Validate() error {
	el := errors.NewErrorList()

	switch c.Kind {
	case world.ChallengeText:
		if len(c.Options) > 0 {
			el.Add(fmt.Errorf("text challenges must not have options"))
		}
	case world.ChallengeChoice:
		if len(c.Options) < 2 {
			el.Add(fmt.Errorf("choice challenges need at least 2 options"))
		}
		if c.Answer < 0 || c.Answer >= len(c.Options) {
			el.Add(fmt.Errorf("answer index %d out of range", c.Answer))
		}
	default:
		el.Add(fmt.Errorf("unknown challenge kind %q", c.Kind))
	}

	if c.Prompt == "" {
		el.Add(fmt.Errorf("prompt is required"))
	} else if _, err := template.New("").Funcs(promptFuncs).Parse(c.Prompt); err != nil {
		el.Add(fmt.Errorf("parsing prompt template: %w", err))
	}

	return el.Err()
}

// PromptData is what a challenge prompt template can reference.
type PromptData struct {
	Name   string
	Type   string
	Rarity string
}

// textLengthBase is the minimum reflection length for a common power;
// each rarity step above common adds textLengthStep.
const (
	textLengthBase = 20
	textLengthStep = 15
)

// Build instantiates the spec into a concrete challenge for a power,
// scaling difficulty with rarity.
func (c *ChallengeSpec) Build(name, typ string, rarity world.Rarity) (world.Challenge, error) {
	tmpl, err := template.New("").Funcs(promptFuncs).Parse(c.Prompt)
	if err != nil {
		return world.Challenge{}, fmt.Errorf("parsing prompt template: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, PromptData{Name: name, Type: typ, Rarity: rarity.String()})
	if err != nil {
		return world.Challenge{}, fmt.Errorf("executing prompt template: %w", err)
	}

	ch := world.Challenge{
		Kind:   c.Kind,
		Prompt: buf.String(),
	}
	switch c.Kind {
	case world.ChallengeText:
		ch.MinLength = textLengthBase + int(rarity)*textLengthStep
	case world.ChallengeChoice:
		ch.Options = append([]string(nil), c.Options...)
		ch.Answer = c.Answer
	}
	return ch, nil
}

// Response is a client's answer to a capture challenge.
type Response struct {
	Text   string `json:"text,omitempty"`
	Choice *int   `json:"choice,omitempty"`
}

// qualityBonus scores a response against the challenge, returning an
// additive success-probability bonus in [0, maxQualityBonus], or ok=false
// when the response outright fails the challenge (wrong multiple-choice
// answer).
const maxQualityBonus = 0.15

func qualityBonus(ch world.Challenge, resp Response) (float64, bool) {
	switch ch.Kind {
	case world.ChallengeText:
		if ch.MinLength <= 0 {
			return maxQualityBonus, true
		}
		frac := float64(len(resp.Text)) / float64(ch.MinLength)
		if frac > 1 {
			frac = 1
		}
		return frac * maxQualityBonus, true
	case world.ChallengeChoice:
		if resp.Choice == nil || *resp.Choice != ch.Answer {
			return 0, false
		}
		return maxQualityBonus, true
	default:
		return 0, false
	}
}

// CaptureChance combines the rarity base rate with the response quality
// bonus, clamped to [0,1]. Monotonically decreasing in rarity for a
// fixed response.
func CaptureChance(rarity world.Rarity, ch world.Challenge, resp Response) (float64, bool) {
	bonus, ok := qualityBonus(ch, resp)
	if !ok {
		return 0, false
	}
	p := rarity.Tier().BaseCapture + bonus
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return p, true
}
