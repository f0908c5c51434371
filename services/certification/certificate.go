package certification

import (
	"bytes"
	"code212/models"
	"code212/models/formation"
	"code212/services/apperror"
	"code212/utils/render"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCodeAttempts = 5

// certificateCode is swapped in tests to force code collisions.
var certificateCode = newCertificateCode

// newCertificateCode returns a human readable code such as C212-2025-0003-9f2c1a.
func newCertificateCode(formationID uint, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("C212-%d-%04d-%s", at.Year(), formationID, suffix)
}

func newVerificationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// EnsureCertificate returns the learner's certificate for the formation,
// creating the not yet generated row on first access.
func (s *Service) EnsureCertificate(ctx context.Context, userID, formationID uint) (formation.Certificate, error) {
	db := s.db.WithContext(ctx)

	var reg formation.FormationRegistration
	err := db.Where("user_id = ? AND formation_id = ? AND status = ?", userID, formationID, formation.RegistrationApproved).
		First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return formation.Certificate{}, fmt.Errorf("formation %d: %w", formationID, apperror.ErrNotEnrolled)
	}
	if err != nil {
		return formation.Certificate{}, fmt.Errorf("load registration: %w", err)
	}

	cert, err := findCertificate(db, userID, formationID)
	if err == nil {
		return cert, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return formation.Certificate{}, fmt.Errorf("load certificate: %w", err)
	}

	student, f, err := loadSnapshotSources(db, userID, formationID)
	if err != nil {
		return formation.Certificate{}, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		cert = formation.Certificate{
			UserID:         userID,
			FormationID:    formationID,
			Code:           certificateCode(formationID, s.now()),
			RegisteredDate: reg.RegisteredAt,
			StudentName:    student.Name,
			FormationTitle: f.Title,
		}
		// A concurrent first access may have inserted the row already; keep theirs.
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "formation_id"}},
			DoNothing: true,
		}).Create(&cert).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Code collision with another certificate.
			continue
		}
		if err != nil {
			return formation.Certificate{}, fmt.Errorf("create certificate: %w", err)
		}

		cert, err = findCertificate(db, userID, formationID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Dialects without a conflict target skip the row on a code collision too.
			continue
		}
		if err != nil {
			return formation.Certificate{}, fmt.Errorf("reload certificate: %w", err)
		}
		return cert, nil
	}
	return formation.Certificate{}, fmt.Errorf("create certificate for user %d formation %d: no free certificate code after %d attempts",
		userID, formationID, maxCodeAttempts)
}

func findCertificate(db *gorm.DB, userID, formationID uint) (formation.Certificate, error) {
	var cert formation.Certificate
	err := db.Where("user_id = ? AND formation_id = ?", userID, formationID).First(&cert).Error
	return cert, err
}

func loadSnapshotSources(db *gorm.DB, userID, formationID uint) (models.User, formation.Formation, error) {
	var student models.User
	if err := db.First(&student, userID).Error; err != nil {
		return models.User{}, formation.Formation{}, apperror.FromDB(err, "user", userID)
	}
	var f formation.Formation
	if err := db.First(&f, formationID).Error; err != nil {
		return models.User{}, formation.Formation{}, apperror.FromDB(err, "formation", formationID)
	}
	return student, f, nil
}

// Generate issues a certificate: it renders and stores the documents, then
// flips the record to generated. Ineligible or already generated certificates
// are rejected with ErrIneligible and left untouched.
func (s *Service) Generate(ctx context.Context, certificateID uint) (formation.Certificate, error) {
	db := s.db.WithContext(ctx)

	var cert formation.Certificate
	if err := db.First(&cert, certificateID).Error; err != nil {
		return formation.Certificate{}, apperror.FromDB(err, "certificate", certificateID)
	}
	if cert.IsGenerated {
		return formation.Certificate{}, fmt.Errorf("certificate %d already generated: %w", cert.ID, apperror.ErrIneligible)
	}

	elig, err := eligibility(db, cert.UserID, cert.FormationID)
	if err != nil {
		return formation.Certificate{}, err
	}
	if !elig.CanGenerate {
		return formation.Certificate{}, ineligible(cert.ID, elig)
	}

	student, f, err := loadSnapshotSources(db, cert.UserID, cert.FormationID)
	if err != nil {
		return formation.Certificate{}, err
	}

	verification := newVerificationCode()
	if cert.VerificationCode != nil && *cert.VerificationCode != "" {
		verification = *cert.VerificationCode
	}
	issued := s.now()

	doc, err := s.renderer.Render(render.CertificateData{
		StudentName:      student.Name,
		FormationTitle:   f.Title,
		DurationHours:    f.Duration,
		Code:             cert.Code,
		VerificationCode: verification,
		VerifyURL:        s.VerifyURL(verification),
		IssuedAt:         issued,
		RegisteredAt:     cert.RegisteredDate,
	})
	if err != nil {
		return formation.Certificate{}, fmt.Errorf("render certificate %d: %w", cert.ID, err)
	}

	// Each attempt writes under its own key so a losing concurrent attempt
	// never replaces the objects the persisted row points at.
	attempt := newVerificationCode()[:12]
	base := fmt.Sprintf("certificates/%d/%s-%s", cert.FormationID, cert.Code, attempt)
	pdfPath, err := s.storage.Save(ctx, base+".pdf", bytes.NewReader(doc.PDF))
	if err != nil {
		return formation.Certificate{}, fmt.Errorf("store certificate pdf: %w", err)
	}
	previewPath, err := s.storage.Save(ctx, base+".png", bytes.NewReader(doc.Preview))
	if err != nil {
		s.discard(ctx, pdfPath)
		return formation.Certificate{}, fmt.Errorf("store certificate preview: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Completions may have been withdrawn while rendering.
		elig, err := eligibility(tx, cert.UserID, cert.FormationID)
		if err != nil {
			return err
		}
		if !elig.CanGenerate {
			return ineligible(cert.ID, elig)
		}

		res := tx.Model(&formation.Certificate{}).
			Where("id = ? AND is_generated = ?", cert.ID, false).
			Updates(map[string]interface{}{
				"is_generated":      true,
				"issued_date":       issued,
				"pdf_path":          pdfPath,
				"preview_image":     previewPath,
				"student_name":      student.Name,
				"formation_title":   f.Title,
				"verification_code": verification,
			})
		if res.Error != nil {
			return fmt.Errorf("mark certificate generated: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("certificate %d already generated: %w", cert.ID, apperror.ErrIneligible)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, pdfPath, previewPath)
		return formation.Certificate{}, err
	}

	if err := db.First(&cert, cert.ID).Error; err != nil {
		return formation.Certificate{}, fmt.Errorf("reload certificate: %w", err)
	}
	s.log.Info("certificate generated",
		"certificate_id", cert.ID,
		"code", cert.Code,
		"user_id", cert.UserID,
		"formation_id", cert.FormationID,
	)
	return cert, nil
}

// discard removes objects written by an attempt that was not persisted.
func (s *Service) discard(ctx context.Context, keys ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.log.Warn("failed to remove unused certificate file", "key", key, "error", err)
		}
	}
}

func ineligible(certificateID uint, e Eligibility) error {
	if !e.Approved {
		return fmt.Errorf("certificate %d: enrollment not approved: %w", certificateID, apperror.ErrIneligible)
	}
	return fmt.Errorf("certificate %d: %d of %d modules completed: %w",
		certificateID, e.Progress.CompletedCount, e.Progress.TotalCount, apperror.ErrIneligible)
}

type BulkResult struct {
	ID          uint                   `json:"id"`
	OK          bool                   `json:"ok"`
	Error       string                 `json:"error,omitempty"`
	Certificate *formation.Certificate `json:"certificate,omitempty"`
}

// BulkGenerate runs Generate for every id independently.
func (s *Service) BulkGenerate(ctx context.Context, ids []uint) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		cert, err := s.Generate(ctx, id)
		if err != nil {
			s.log.Warn("bulk generation skipped certificate", "certificate_id", id, "error", err)
			results = append(results, BulkResult{ID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{ID: id, OK: true, Certificate: &cert})
	}
	return results
}

// Verification is what the public sees for a generated certificate.
type Verification struct {
	Code           string    `json:"code"`
	StudentName    string    `json:"student_name"`
	FormationTitle string    `json:"formation_title"`
	IssuedDate     time.Time `json:"issued_date"`
	RegisteredDate time.Time `json:"registered_date"`
	PDFURL         string    `json:"pdf_url"`
	PreviewURL     string    `json:"preview_url"`
}

// Verify looks a generated certificate up by its verification code.
func (s *Service) Verify(ctx context.Context, verificationCode string) (Verification, error) {
	code := strings.TrimSpace(verificationCode)
	if code == "" {
		return Verification{}, fmt.Errorf("empty verification code: %w", apperror.ErrNotFound)
	}

	var cert formation.Certificate
	err := s.db.WithContext(ctx).
		Where("verification_code = ? AND is_generated = ?", code, true).
		First(&cert).Error
	if err != nil {
		return Verification{}, apperror.FromDB(err, "certificate", code)
	}

	v := Verification{
		Code:           cert.Code,
		StudentName:    cert.StudentName,
		FormationTitle: cert.FormationTitle,
		RegisteredDate: cert.RegisteredDate,
		PDFURL:         s.fileURL(cert.PDFPath),
		PreviewURL:     s.fileURL(cert.PreviewImage),
	}
	if cert.IssuedDate != nil {
		v.IssuedDate = *cert.IssuedDate
	}
	return v, nil
}

// CertificateView adds resolved file URLs to a certificate.
type CertificateView struct {
	formation.Certificate
	PDFURL     string `json:"pdf_url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	VerifyURL  string `json:"verify_url,omitempty"`
}

func (s *Service) view(c formation.Certificate) CertificateView {
	v := CertificateView{
		Certificate: c,
		PDFURL:      s.fileURL(c.PDFPath),
		PreviewURL:  s.fileURL(c.PreviewImage),
	}
	if c.IsGenerated && c.VerificationCode != nil {
		v.VerifyURL = s.VerifyURL(*c.VerificationCode)
	}
	return v
}

const (
	CertificateGenerated = "generated"
	CertificatePending   = "pending"
)

type CertificateFilter struct {
	FormationID uint
	Status      string // generated, pending or empty for both
	IssuedOn    *time.Time
	Page        int
	Limit       int
}

// ListCertificates is the administrator listing. Missing rows of approved
// enrollments are materialized first so that pending certificates show up.
func (s *Service) ListCertificates(ctx context.Context, filter CertificateFilter) ([]CertificateView, int64, error) {
	if _, err := s.Materialize(ctx, 0, filter.FormationID); err != nil {
		return nil, 0, err
	}
	page, limit := normalizePage(filter.Page, filter.Limit)

	q := s.db.WithContext(ctx).Model(&formation.Certificate{})
	if filter.FormationID != 0 {
		q = q.Where("formation_id = ?", filter.FormationID)
	}
	switch filter.Status {
	case CertificateGenerated:
		q = q.Where("is_generated = ?", true)
	case CertificatePending:
		q = q.Where("is_generated = ?", false)
	}
	if filter.IssuedOn != nil {
		day := now.With(*filter.IssuedOn)
		q = q.Where("issued_date BETWEEN ? AND ?", day.BeginningOfDay(), day.EndOfDay())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count certificates: %w", err)
	}
	var certs []formation.Certificate
	if err := q.Offset((page - 1) * limit).Limit(limit).Order("id desc").Find(&certs).Error; err != nil {
		return nil, 0, fmt.Errorf("list certificates: %w", err)
	}

	views := make([]CertificateView, 0, len(certs))
	for _, c := range certs {
		views = append(views, s.view(c))
	}
	return views, total, nil
}

// LearnerCertificate is a certificate together with the owner's progress.
type LearnerCertificate struct {
	CertificateView
	Progress    Progress `json:"progress"`
	CanGenerate bool     `json:"can_generate"`
}

// UserCertificates lists the learner's certificates, one per approved enrollment.
func (s *Service) UserCertificates(ctx context.Context, userID uint) ([]LearnerCertificate, error) {
	if _, err := s.Materialize(ctx, userID, 0); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var certs []formation.Certificate
	if err := db.Where("user_id = ?", userID).Order("id asc").Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}

	out := make([]LearnerCertificate, 0, len(certs))
	for _, c := range certs {
		elig, err := eligibility(db, userID, c.FormationID)
		if err != nil {
			return nil, err
		}
		out = append(out, LearnerCertificate{
			CertificateView: s.view(c),
			Progress:        elig.Progress,
			CanGenerate:     !c.IsGenerated && elig.CanGenerate,
		})
	}
	return out, nil
}

// Materialize creates the missing certificate rows of approved enrollments,
// optionally restricted to one learner or one formation, and returns how many
// were created.
func (s *Service) Materialize(ctx context.Context, userID, formationID uint) (int, error) {
	q := s.db.WithContext(ctx).Model(&formation.FormationRegistration{}).
		Joins("LEFT JOIN certificates ON certificates.user_id = formation_registrations.user_id"+
			" AND certificates.formation_id = formation_registrations.formation_id"+
			" AND certificates.deleted_at IS NULL").
		Where("formation_registrations.status = ? AND certificates.id IS NULL", formation.RegistrationApproved)
	if userID != 0 {
		q = q.Where("formation_registrations.user_id = ?", userID)
	}
	if formationID != 0 {
		q = q.Where("formation_registrations.formation_id = ?", formationID)
	}

	var missing []formation.FormationRegistration
	if err := q.Select("formation_registrations.*").Find(&missing).Error; err != nil {
		return 0, fmt.Errorf("find enrollments without certificate: %w", err)
	}

	created := 0
	for _, reg := range missing {
		if _, err := s.EnsureCertificate(ctx, reg.UserID, reg.FormationID); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
