package offer

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
)

// Input carries everything a quote is composed from. The three price
// components are entered by the user; the stated total is always their sum,
// never a number the text generator invented.
type Input struct {
	OfferRef string `validate:"required"`
	Date     string `validate:"required"`

	Company  string `validate:"required,max=150"`
	Contact  string `validate:"max=200"`
	Customer string `validate:"required,max=150"`
	Location string `validate:"required,max=150"`

	JobType  string `validate:"required,max=150"`
	Size     string `validate:"max=200"`
	Material string `validate:"max=500"`
	Comment  string `validate:"max=1000"`

	PriceWork     int64 `validate:"gte=0"`
	PriceMaterial int64 `validate:"gte=0"`
	PriceOther    int64 `validate:"gte=0"`
}

// Total is the binding quote total: the exact sum of the three components.
func (in Input) Total() int64 {
	return in.PriceWork + in.PriceMaterial + in.PriceOther
}

// Validate checks the input against its field constraints.
func (in Input) Validate() error {
	return validator.New().Struct(in)
}

// TextGenerator produces quote body text from a system and user instruction.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Generator composes the markdown body of a quote. With a configured text
// generator it prompts for the text; without one, or when generation fails,
// it falls back to a deterministic template with the same section structure.
type Generator struct {
	ai TextGenerator
}

// NewGenerator creates a quote composer. ai may be nil, which pins the
// generator to the deterministic template.
func NewGenerator(ai TextGenerator) *Generator {
	return &Generator{ai: ai}
}

const systemInstruction = "You write professional quotes for construction and plumbing services offered to private customers."

// Compose returns the markdown quote text for the input. Generation failures
// are logged and answered with the fallback template, so quote creation never
// fails on an unavailable text service.
func (g *Generator) Compose(ctx context.Context, in Input) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	if g.ai == nil {
		return FallbackText(in), nil
	}

	text, err := g.ai.Generate(ctx, systemInstruction, buildPrompt(in))
	if err != nil {
		log.Warnf("[Offer] text generation failed, using fallback template: %v", err)
		return FallbackText(in), nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackText(in), nil
	}
	return text, nil
}

func buildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a clear, professional quote based on:\n\n")
	fmt.Fprintf(&b, "Company: %s\nContact: %s\nDate: %s\nCustomer: %s\nLocation: %s\n\n", in.Company, in.Contact, in.Date, in.Customer, in.Location)
	fmt.Fprintf(&b, "Service / job type: %s\nScope/size: %s\nMaterial: %s\nNotes: %s\n\n", in.JobType, in.Size, in.Material, in.Comment)
	fmt.Fprintf(&b, "Pricing (use exactly these numbers):\n")
	fmt.Fprintf(&b, "- Work: %d SEK\n- Material: %d SEK\n- Other: %d SEK\n- Total incl. VAT: %d SEK\n\n", in.PriceWork, in.PriceMaterial, in.PriceOther, in.Total())
	b.WriteString("Requirements:\n")
	b.WriteString("- Use the headings: Project description, Work items, Materials, Timeline, Price, Terms, Contact\n")
	b.WriteString("- Work items: bullet list\n")
	b.WriteString("- Materials: bullet list\n")
	b.WriteString("- Timeline: realistic\n")
	b.WriteString("- Price: show the breakdown plus the total incl. VAT\n")
	b.WriteString("- 4-6 terms: validity period, payment, additions/changes, start date\n")
	fmt.Fprintf(&b, "- The date must be exactly: %s\n\n", in.Date)
	b.WriteString("Keep it short, clear and professional.")
	return b.String()
}

// FallbackText renders the deterministic quote template. It contains the same
// sections a generated quote has and states the total as the exact sum of the
// supplied price components.
func FallbackText(in Input) string {
	material := strings.TrimSpace(in.Material)
	if material == "" {
		material = "As agreed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Quote for %s\n\n", in.JobType)
	fmt.Fprintf(&b, "**Quote ID:** %s  \n**Date:** %s  \n**Company:** %s  \n**Contact:** %s  \n**Customer:** %s  \n**Location:** %s\n\n",
		in.OfferRef, in.Date, in.Company, in.Contact, in.Customer, in.Location)
	fmt.Fprintf(&b, "## Project description\nWe hereby submit a quote for **%s** based on the details provided.\n\n", in.JobType)
	b.WriteString("## Work items\n- Review and planning\n- Execution as agreed\n- Check and final inspection\n\n")
	fmt.Fprintf(&b, "## Materials\n- %s\n\n", material)
	b.WriteString("## Timeline\nStart date: as agreed.\n\n")
	fmt.Fprintf(&b, "## Price\n- Work: %d SEK  \n- Material: %d SEK  \n- Other: %d SEK  \n**Total incl. VAT:** %d SEK\n\n",
		in.PriceWork, in.PriceMaterial, in.PriceOther, in.Total())
	b.WriteString("## Terms\n1. The quote is valid for 30 days.\n2. Payment terms: 30 days.\n3. Additional work is billed as agreed.\n4. Start date as agreed.\n\n")
	fmt.Fprintf(&b, "## Contact\n%s - %s\n", in.Company, in.Contact)
	return strings.TrimSpace(b.String())
}
