package offer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() Input {
	return Input{
		OfferRef:      "OFF-1A2B3C4D",
		Date:          "2026-08-28",
		Company:       "Bygg & Co AB",
		Contact:       "info@byggco.example, 070-123 45 67",
		Customer:      "Anna Andersson",
		Location:      "Stockholm",
		JobType:       "Bathroom renovation",
		Size:          "6 sqm",
		Material:      "Tiles, waterproofing membrane",
		Comment:       "Start preferably in September",
		PriceWork:     42000,
		PriceMaterial: 18500,
		PriceOther:    1500,
	}
}

type stubAI struct {
	text string
	err  error
	seen string
}

func (s *stubAI) Generate(_ context.Context, _, prompt string) (string, error) {
	s.seen = prompt
	return s.text, s.err
}

func TestFallbackTextHasAllSections(t *testing.T) {
	in := sampleInput()
	text := FallbackText(in)

	for _, section := range []string{
		"Project description",
		"Work items",
		"Materials",
		"Timeline",
		"Price",
		"Terms",
		"Contact",
	} {
		assert.Contains(t, text, "## "+section)
	}

	// the stated total is the exact sum of the three components
	total := in.PriceWork + in.PriceMaterial + in.PriceOther
	assert.Contains(t, text, fmt.Sprintf("**Total incl. VAT:** %d SEK", total))
	assert.Contains(t, text, "Work: 42000 SEK")
	assert.Contains(t, text, "Material: 18500 SEK")
	assert.Contains(t, text, "Other: 1500 SEK")
}

func TestFallbackTextDefaultsMaterial(t *testing.T) {
	in := sampleInput()
	in.Material = "   "
	assert.Contains(t, FallbackText(in), "## Materials\n- As agreed")
}

func TestComposeWithoutAIUsesFallback(t *testing.T) {
	g := NewGenerator(nil)
	text, err := g.Compose(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Contains(t, text, "## Project description")
}

func TestComposeFallsBackOnGenerationError(t *testing.T) {
	g := NewGenerator(&stubAI{err: errors.New("rate limited")})
	text, err := g.Compose(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Contains(t, text, "## Terms")
}

func TestComposeFallsBackOnBlankCompletion(t *testing.T) {
	g := NewGenerator(&stubAI{text: "  \n "})
	text, err := g.Compose(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Contains(t, text, "## Price")
}

func TestComposeUsesGeneratedText(t *testing.T) {
	ai := &stubAI{text: "# Quote\n\ngenerated body"}
	g := NewGenerator(ai)
	text, err := g.Compose(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "# Quote\n\ngenerated body", text)

	// the prompt pins the literal numbers and the required headings
	assert.Contains(t, ai.seen, "Total incl. VAT: 62000 SEK")
	assert.Contains(t, ai.seen, "Project description, Work items, Materials, Timeline, Price, Terms, Contact")
}

func TestComposeRejectsInvalidInput(t *testing.T) {
	g := NewGenerator(nil)

	in := sampleInput()
	in.Customer = ""
	_, err := g.Compose(context.Background(), in)
	require.Error(t, err)

	in = sampleInput()
	in.PriceWork = -1
	_, err = g.Compose(context.Background(), in)
	require.Error(t, err)
}

func TestTotalIsExactSum(t *testing.T) {
	in := Input{PriceWork: 1, PriceMaterial: 2, PriceOther: 3}
	if got := in.Total(); got != 6 {
		t.Fatalf("Total() = %d, want 6", got)
	}
	text := FallbackText(sampleInput())
	if !strings.Contains(text, "62000") {
		t.Fatalf("fallback does not state the summed total:\n%s", text)
	}
}
