package certificateController

import (
	"code212/middleware"
	"code212/services/certification"
	"code212/validators"
	certificateValidator "code212/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

// ListCertificates lists certificates filtered by formation, status and issue date
func (ctl *Controller) ListCertificates(c *fiber.Ctx) error {
	q, _ := c.Locals("validatedList").(*certificateValidator.ListQuery)
	if q == nil {
		q = &certificateValidator.ListQuery{}
	}

	filter := certification.CertificateFilter{
		FormationID: q.FormationID,
		Status:      q.Status,
		Page:        q.Page,
		Limit:       q.Limit,
	}
	if q.IssuedOn != "" {
		day, err := validators.ParseDate(q.IssuedOn)
		if err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"issued_on": "Invalid date!"})
		}
		filter.IssuedOn = &day
	}

	certs, total, err := ctl.Certification.ListCertificates(c.UserContext(), filter)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to fetch certificates!")
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": certs,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GenerateCertificate issues a single certificate
func (ctl *Controller) GenerateCertificate(c *fiber.Ctx) error {
	cert, err := ctl.Certification.Generate(c.UserContext(), c.Locals("id").(uint))
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to generate certificate!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate generated successfully!", cert)
}

// BulkGenerate issues several certificates and reports each outcome
func (ctl *Controller) BulkGenerate(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedBulk").(*certificateValidator.BulkGenerateRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	results := ctl.Certification.BulkGenerate(c.UserContext(), reqData.IDs)
	generated := 0
	for _, r := range results {
		if r.OK {
			generated++
		}
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Bulk generation finished.", fiber.Map{
		"generated": generated,
		"failed":    len(results) - generated,
		"results":   results,
	})
}
