package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMeta() Meta {
	return Meta{
		OfferRef:      "OFF-1A2B3C4D",
		Date:          "2026-08-28",
		Company:       "Bygg & Co AB",
		Contact:       "info@byggco.example",
		Customer:      "Anna Andersson",
		Location:      "Stockholm",
		JobType:       "Bathroom renovation",
		Size:          "6 sqm",
		Material:      "Tiles",
		PriceWork:     42000,
		PriceMaterial: 18500,
		PriceOther:    1500,
		Total:         62000,
	}
}

const sampleBody = `# Quote for Bathroom renovation

## Project description
We hereby submit a quote for **Bathroom renovation**.

## Work items
- Review and planning
- Execution as agreed

## Price
**Total incl. VAT:** 62000 SEK
`

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(sampleBody, sampleMeta(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output is not a PDF stream")
}

func TestRenderWithLogo(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 60))
	for x := 0; x < 120; x++ {
		for y := 0; y < 60; y++ {
			img.Set(x, y, color.RGBA{R: 30, G: 90, B: 200, A: 255})
		}
	}
	var logo bytes.Buffer
	require.NoError(t, png.Encode(&logo, img))

	out, err := Render(sampleBody, sampleMeta(), logo.Bytes())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderSkipsUndecodableLogo(t *testing.T) {
	out, err := Render(sampleBody, sampleMeta(), []byte("not an image"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderPaginatesLongBody(t *testing.T) {
	long := sampleBody + strings.Repeat("\nAdditional clause line that keeps the text flowing onto more pages.", 400)
	short, err := Render(sampleBody, sampleMeta(), nil)
	require.NoError(t, err)
	out, err := Render(long, sampleMeta(), nil)
	require.NoError(t, err)
	assert.Greater(t, len(out), len(short), "long body should produce more output, not get cut off")
	assert.Greater(t, bytes.Count(out, []byte("/Page")), bytes.Count(short, []byte("/Page")))
}
