package controllers

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Offertly/app/models"
	"github.com/ManuelReschke/Offertly/app/repository"
	"github.com/ManuelReschke/Offertly/internal/pkg/docarchive"
	"github.com/ManuelReschke/Offertly/internal/pkg/offer"
	"github.com/ManuelReschke/Offertly/internal/pkg/pdf"
	"github.com/ManuelReschke/Offertly/internal/pkg/quota"
	"github.com/ManuelReschke/Offertly/internal/pkg/usercontext"
)

const maxLogoBytes = 2 * 1024 * 1024
const recentOffersLimit = 10

var (
	offerGenerator *offer.Generator
	usageMeter     *quota.Meter
	archiveClient  *docarchive.Client
)

// SetOfferDependencies wires the collaborators used by the offer handlers.
// archive may be nil when the document archive is disabled.
func SetOfferDependencies(gen *offer.Generator, meter *quota.Meter, archive *docarchive.Client) {
	offerGenerator = gen
	usageMeter = meter
	archiveClient = archive
}

type offerRequest struct {
	Company  string `json:"company" form:"company"`
	Contact  string `json:"contact" form:"contact"`
	Customer string `json:"customer" form:"customer"`
	Location string `json:"location" form:"location"`
	JobType  string `json:"job_type" form:"job_type"`
	Size     string `json:"size" form:"size"`
	Material string `json:"material" form:"material"`
	Comment  string `json:"comment" form:"comment"`

	PriceWork     int64 `json:"price_work" form:"price_work"`
	PriceMaterial int64 `json:"price_material" form:"price_material"`
	PriceOther    int64 `json:"price_other" form:"price_other"`
}

// HandleOfferCreate generates a new quote. The request is only fulfilled if
// the user's monthly quota still has room: the quota check and the ledger
// append happen atomically inside the meter.
func HandleOfferCreate(c *fiber.Ctx) error {
	var req offerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "validation_failed", "message": "Could not parse request body",
		})
	}

	userCtx := usercontext.GetUserContext(c)
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not load user",
		})
	}

	// fast pre-check so we don't pay for text generation when the quota is
	// clearly gone; the authoritative check is inside Consume
	used, plan, err := usageMeter.Usage(user.ID, user.PlanKey)
	if err == nil && used >= int64(plan.MonthlyLimit) {
		return quotaExceededResponse(c, &quota.ExceededError{
			PlanKey: plan.Key, PlanLabel: plan.Label, Limit: plan.MonthlyLimit,
		})
	}

	in := offer.Input{
		OfferRef:      models.NewOfferRef(),
		Date:          time.Now().UTC().Format("2006-01-02"),
		Company:       req.Company,
		Contact:       req.Contact,
		Customer:      req.Customer,
		Location:      req.Location,
		JobType:       req.JobType,
		Size:          req.Size,
		Material:      req.Material,
		Comment:       req.Comment,
		PriceWork:     req.PriceWork,
		PriceMaterial: req.PriceMaterial,
		PriceOther:    req.PriceOther,
	}

	markdown, err := offerGenerator.Compose(c.Context(), in)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := fiber.Map{}
			for _, fe := range verrs {
				fields[fe.Field()] = fmt.Sprintf("invalid value (%s)", fe.Tag())
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "validation_failed", "fields": fields,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not compose quote text",
		})
	}

	row := &models.Offer{
		OfferRef:      in.OfferRef,
		UserID:        user.ID,
		JobType:       in.JobType,
		CustomerName:  in.Customer,
		Location:      in.Location,
		Company:       in.Company,
		Contact:       in.Contact,
		Size:          in.Size,
		Material:      in.Material,
		PriceWork:     in.PriceWork,
		PriceMaterial: in.PriceMaterial,
		PriceOther:    in.PriceOther,
		TotalPrice:    in.Total(),
		Markdown:      markdown,
	}
	if err := usageMeter.Consume(c.Context(), user, row); err != nil {
		var exceeded *quota.ExceededError
		if errors.As(err, &exceeded) {
			return quotaExceededResponse(c, exceeded)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not record quote",
		})
	}

	archiveOffer(c, row)

	used, plan, _ = usageMeter.Usage(user.ID, user.PlanKey)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"offer_ref":   row.OfferRef,
		"total_price": row.TotalPrice,
		"pdf_url":     "/api/v1/offers/" + row.OfferRef + "/pdf",
		"usage": fiber.Map{
			"used":  used,
			"limit": plan.MonthlyLimit,
			"plan":  plan.Key,
		},
	})
}

// HandleOfferList returns the user's most recent quotes plus current usage.
func HandleOfferList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	offers, err := repository.GetGlobalFactory().GetOfferRepository().GetRecentByUserID(userCtx.UserID, recentOffersLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not load quotes",
		})
	}

	items := make([]fiber.Map, 0, len(offers))
	for _, o := range offers {
		items = append(items, fiber.Map{
			"offer_ref":   o.OfferRef,
			"created_at":  o.CreatedAt.UTC().Format(time.RFC3339),
			"job_type":    o.JobType,
			"customer":    o.CustomerName,
			"location":    o.Location,
			"total_price": o.TotalPrice,
			"pdf_url":     "/api/v1/offers/" + o.OfferRef + "/pdf",
		})
	}

	used, plan, err := usageMeter.Usage(userCtx.UserID, userCtx.Plan)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not load usage",
		})
	}

	return c.JSON(fiber.Map{
		"offers": items,
		"usage": fiber.Map{
			"used":  used,
			"limit": plan.MonthlyLimit,
			"plan":  plan.Key,
		},
	})
}

// HandleOfferPDF renders a stored quote as PDF. Quotes are private: a
// reference belonging to another user answers 404, not 403, so references
// cannot be probed.
func HandleOfferPDF(c *fiber.Ctx) error {
	ref := c.Params("ref")

	row, err := repository.GetGlobalFactory().GetOfferRepository().GetByRef(ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "not_found", "message": "Quote not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not load quote",
		})
	}
	if row.UserID != usercontext.GetUserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not_found", "message": "Quote not found",
		})
	}

	logo := readLogo(c)
	out, err := pdf.Render(row.Markdown, renderMeta(row), logo)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Could not render PDF",
		})
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "offert_"+row.OfferRef+".pdf"))
	return c.Send(out)
}

// archiveOffer pushes the rendered document to the archive, best effort.
func archiveOffer(c *fiber.Ctx, row *models.Offer) {
	if archiveClient == nil {
		return
	}
	out, err := pdf.Render(row.Markdown, renderMeta(row), readLogo(c))
	if err != nil {
		log.Warnf("[Offer] skipping archive for %s, render failed: %v", row.OfferRef, err)
		return
	}
	if _, err := archiveClient.Archive(c.Context(), row.OfferRef, out); err != nil {
		log.Warnf("[Offer] archive for %s failed: %v", row.OfferRef, err)
	}
}

// readLogo extracts an optional uploaded logo from a multipart request.
func readLogo(c *fiber.Ctx) []byte {
	fh, err := c.FormFile("logo")
	if err != nil || fh == nil || fh.Size == 0 || fh.Size > maxLogoBytes {
		return nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil
	}
	return data
}

func renderMeta(row *models.Offer) pdf.Meta {
	return pdf.Meta{
		OfferRef:      row.OfferRef,
		Date:          row.CreatedAt.UTC().Format("2006-01-02"),
		Company:       row.Company,
		Contact:       row.Contact,
		Customer:      row.CustomerName,
		Location:      row.Location,
		JobType:       row.JobType,
		Size:          row.Size,
		Material:      row.Material,
		PriceWork:     row.PriceWork,
		PriceMaterial: row.PriceMaterial,
		PriceOther:    row.PriceOther,
		Total:         row.TotalPrice,
	}
}

func quotaExceededResponse(c *fiber.Ctx, err *quota.ExceededError) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":   "quota_exceeded",
		"message": fmt.Sprintf("Monthly limit of %d quotes on plan %s reached", err.Limit, err.PlanLabel),
		"plan":    err.PlanKey,
		"limit":   err.Limit,
	})
}
