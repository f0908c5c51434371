package certification

import (
	"code212/database/dbtest"
	"code212/models"
	"code212/models/formation"
	"code212/services/apperror"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var certificateCodePattern = regexp.MustCompile(`^C212-\d{4}-\d{4,}-[0-9a-f]{6}$`)

func TestNewCertificateCode(t *testing.T) {
	code := newCertificateCode(3, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, certificateCodePattern, code)
	assert.Contains(t, code, "C212-2025-0003-")
	assert.NotEqual(t, code, newCertificateCode(3, time.Now()))

	assert.Len(t, newVerificationCode(), 32)
}

func TestEnsureCertificate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, f, _ := fx.enrolled(t, "Sara", "A")

	first, err := fx.svc.EnsureCertificate(ctx, u.ID, f.ID)
	require.NoError(t, err)
	assert.Regexp(t, certificateCodePattern, first.Code)
	assert.False(t, first.IsGenerated)
	assert.Nil(t, first.VerificationCode)
	assert.Nil(t, first.IssuedDate)

	second, err := fx.svc.EnsureCertificate(ctx, u.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Code, second.Code)

	stranger := dbtest.SeedUser(t, fx.db, "X", models.RoleStudent)
	_, err = fx.svc.EnsureCertificate(ctx, stranger.ID, f.ID)
	assert.ErrorIs(t, err, apperror.ErrNotEnrolled)
}

func TestEnsureCertificateRetriesOnCodeCollision(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	first, f, _ := fx.enrolled(t, "Hamza", "A")
	taken, err := fx.svc.EnsureCertificate(ctx, first.ID, f.ID)
	require.NoError(t, err)

	second := dbtest.SeedUser(t, fx.db, "Nora", models.RoleStudent)
	dbtest.SeedRegistration(t, fx.db, second.ID, f.ID, formation.RegistrationApproved)

	calls := 0
	certificateCode = func(formationID uint, at time.Time) string {
		calls++
		if calls == 1 {
			return taken.Code
		}
		return newCertificateCode(formationID, at)
	}
	t.Cleanup(func() { certificateCode = newCertificateCode })

	cert, err := fx.svc.EnsureCertificate(ctx, second.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, second.ID, cert.UserID)
	assert.NotEqual(t, taken.Code, cert.Code)

	// Every candidate collides: the caller gets an error, not a missing row.
	third := dbtest.SeedUser(t, fx.db, "Ilyas", models.RoleStudent)
	dbtest.SeedRegistration(t, fx.db, third.ID, f.ID, formation.RegistrationApproved)
	certificateCode = func(uint, time.Time) string { return taken.Code }
	_, err = fx.svc.EnsureCertificate(ctx, third.ID, f.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no free certificate code")
}

// Three modules: two done is 67% and not eligible, the third makes it 100%
// and generation issues a verifiable certificate.
func TestThreeModuleScenario(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, f, mods := fx.enrolled(t, "Aya Benali", "Découverte", "Atelier", "Projet final")

	for _, m := range mods[:2] {
		done, err := fx.svc.ToggleCompletion(ctx, u.ID, m.ID)
		require.NoError(t, err)
		require.True(t, done)
	}
	e, err := fx.svc.Eligibility(ctx, u.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, e.Progress.Percentage)
	assert.False(t, e.CanGenerate)

	cert, err := fx.svc.EnsureCertificate(ctx, u.ID, f.ID)
	require.NoError(t, err)
	_, err = fx.svc.Generate(ctx, cert.ID)
	assert.ErrorIs(t, err, apperror.ErrIneligible)

	_, err = fx.svc.ToggleCompletion(ctx, u.ID, mods[2].ID)
	require.NoError(t, err)
	e, err = fx.svc.Eligibility(ctx, u.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, e.Progress.Percentage)
	assert.True(t, e.CanGenerate)

	generated, err := fx.svc.Generate(ctx, cert.ID)
	require.NoError(t, err)
	assert.True(t, generated.IsGenerated)
	require.NotNil(t, generated.IssuedDate)
	assert.Equal(t, fx.clock, generated.IssuedDate.UTC())
	require.NotNil(t, generated.VerificationCode)
	require.NotNil(t, generated.PDFPath)
	require.NotNil(t, generated.PreviewImage)
	assert.Equal(t, "Aya Benali", generated.StudentName)
	assert.Equal(t, "Formation Aya Benali", generated.FormationTitle)

	assert.Contains(t, fx.storage.objects, *generated.PDFPath)
	assert.Contains(t, fx.storage.objects, *generated.PreviewImage)
	require.Len(t, fx.renderer.calls, 1)
	assert.Equal(t, "https://code212.test/certificates/verify/"+*generated.VerificationCode, fx.renderer.calls[0].VerifyURL)

	v, err := fx.svc.Verify(ctx, *generated.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, generated.Code, v.Code)
	assert.Equal(t, "Aya Benali", v.StudentName)
	assert.Equal(t, "https://files.test/"+*generated.PDFPath, v.PDFURL)
	assert.Equal(t, "https://files.test/"+*generated.PreviewImage, v.PreviewURL)

	// A second learner's code must differ.
	u2 := dbtest.SeedUser(t, fx.db, "Rim", models.RoleStudent)
	dbtest.SeedRegistration(t, fx.db, u2.ID, f.ID, formation.RegistrationApproved)
	fx.completeAll(t, u2.ID, mods)
	cert2, err := fx.svc.EnsureCertificate(ctx, u2.ID, f.ID)
	require.NoError(t, err)
	generated2, err := fx.svc.Generate(ctx, cert2.ID)
	require.NoError(t, err)
	assert.NotEqual(t, *generated.VerificationCode, *generated2.VerificationCode)
	assert.NotEqual(t, generated.Code, generated2.Code)
}

func TestGenerateTwiceIsIneligibleAndLeavesRecordUnchanged(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, f, mods := fx.enrolled(t, "Hamza", "A", "B")
	fx.completeAll(t, u.ID, mods)
	cert, err := fx.svc.EnsureCertificate(ctx, u.ID, f.ID)
	require.NoError(t, err)

	generated, err := fx.svc.Generate(ctx, cert.ID)
	require.NoError(t, err)

	fx.clock = fx.clock.Add(48 * time.Hour)
	_, err = fx.svc.Generate(ctx, cert.ID)
	assert.ErrorIs(t, err, apperror.ErrIneligible)

	var reloaded formation.Certificate
	require.NoError(t, fx.db.First(&reloaded, cert.ID).Error)
	assert.Equal(t, *generated.VerificationCode, *reloaded.VerificationCode)
	assert.Equal(t, generated.IssuedDate.UTC(), reloaded.IssuedDate.UTC())
	assert.Equal(t, *generated.PDFPath, *reloaded.PDFPath)
	assert.Len(t, fx.renderer.calls, 1)
}

func TestGenerateFailuresMakeNoMutation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, f, mods := fx.enrolled(t, "Imane", "A", "B", "C")
	fx.completeAll(t, u.ID, mods[:2])
	cert, err := fx.svc.EnsureCertificate(ctx, u.ID, f.ID)
	require.NoError(t, err)

	_, err = fx.svc.Generate(ctx, cert.ID)
	assert.ErrorIs(t, err, apperror.ErrIneligible)
	assert.Empty(t, fx.renderer.calls)

	dbtest.SeedCompletion(t, fx.db, u.ID, mods[2].ID)
	fx.renderer.err = errRenderFailed
	_, err = fx.svc.Generate(ctx, cert.ID)
	assert.ErrorIs(t, err, errRenderFailed)

	var reloaded formation.Certificate
	require.NoError(t, fx.db.First(&reloaded, cert.ID).Error)
	assert.False(t, reloaded.IsGenerated)
	assert.Nil(t, reloaded.IssuedDate)
	assert.Nil(t, reloaded.VerificationCode)
	assert.Empty(t, fx.storage.objects)

	_, err = fx.svc.Generate(ctx, 31337)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestConcurrentGenerateKeepsStoredFilesInSync(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, f, mods := fx.enrolled(t, "Zineb", "Capteurs", "Projet")
	fx.completeAll(t, u.ID, mods)
	cert, err := fx.svc.EnsureCertificate(ctx, u.ID, f.ID)
	require.NoError(t, err)

	gate := newGatedRenderer(fx.renderer)
	fx.svc.renderer = gate

	slow := make(chan error, 1)
	go func() {
		_, err := fx.svc.Generate(ctx, cert.ID)
		slow <- err
	}()
	<-gate.entered

	winner, err := fx.svc.Generate(ctx, cert.ID)
	require.NoError(t, err)
	close(gate.release)
	assert.ErrorIs(t, <-slow, apperror.ErrIneligible)

	var stored formation.Certificate
	require.NoError(t, fx.db.First(&stored, cert.ID).Error)
	require.NotNil(t, stored.VerificationCode)
	assert.Equal(t, *winner.VerificationCode, *stored.VerificationCode)

	fx.storage.mu.Lock()
	pdf := string(fx.storage.objects[*stored.PDFPath])
	preview := string(fx.storage.objects[*stored.PreviewImage])
	objects := len(fx.storage.objects)
	fx.storage.mu.Unlock()
	assert.Contains(t, pdf, *stored.VerificationCode)
	assert.Contains(t, preview, *stored.VerificationCode)
	assert.Equal(t, 2, objects, "the rejected attempt removes its own files")

	v, err := fx.svc.Verify(ctx, *stored.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/"+*stored.PDFPath, v.PDFURL)
}

func TestGenerateRejectsRevokedApproval(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, f, mods := fx.enrolled(t, "Oussama", "A")
	fx.completeAll(t, u.ID, mods)
	cert, err := fx.svc.EnsureCertificate(ctx, u.ID, f.ID)
	require.NoError(t, err)

	require.NoError(t, fx.db.Model(&formation.FormationRegistration{}).
		Where("user_id = ?", u.ID).Update("status", formation.RegistrationPending).Error)

	_, err = fx.svc.Generate(ctx, cert.ID)
	assert.ErrorIs(t, err, apperror.ErrIneligible)
	assert.Contains(t, err.Error(), "enrollment not approved")
}

func TestVerifyUnknownOrPendingCode(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Verify(ctx, "deadbeef")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = fx.svc.Verify(ctx, "   ")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// A code stored on a certificate that is not generated is not verifiable.
	u, f, _ := fx.enrolled(t, "Walid", "A")
	cert, err := fx.svc.EnsureCertificate(ctx, u.ID, f.ID)
	require.NoError(t, err)
	require.NoError(t, fx.db.Model(&cert).Update("verification_code", "reserved0001").Error)

	_, err = fx.svc.Verify(ctx, "reserved0001")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestVerifyReturnsSnapshotAfterRename(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, f, mods := fx.enrolled(t, "Khadija", "A")
	fx.completeAll(t, u.ID, mods)
	cert, err := fx.svc.EnsureCertificate(ctx, u.ID, f.ID)
	require.NoError(t, err)
	generated, err := fx.svc.Generate(ctx, cert.ID)
	require.NoError(t, err)

	require.NoError(t, fx.db.Model(&formation.Formation{}).Where("id = ?", f.ID).Update("title", "Nouveau titre").Error)
	require.NoError(t, fx.db.Model(&models.User{}).Where("id = ?", u.ID).Update("name", "K. Renamed").Error)

	v, err := fx.svc.Verify(ctx, *generated.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, "Formation Khadija", v.FormationTitle)
	assert.Equal(t, "Khadija", v.StudentName)
	assert.Equal(t, fx.clock, v.IssuedDate.UTC())
}

func TestBulkGenerateReportsEachOutcome(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	done, fDone, mods := fx.enrolled(t, "Ready", "A")
	fx.completeAll(t, done.ID, mods)
	ready, err := fx.svc.EnsureCertificate(ctx, done.ID, fDone.ID)
	require.NoError(t, err)

	partial, fPartial, _ := fx.enrolled(t, "Partial", "A", "B")
	notReady, err := fx.svc.EnsureCertificate(ctx, partial.ID, fPartial.ID)
	require.NoError(t, err)

	results := fx.svc.BulkGenerate(ctx, []uint{ready.ID, notReady.ID, 777})
	require.Len(t, results, 3)

	assert.True(t, results[0].OK)
	require.NotNil(t, results[0].Certificate)
	assert.True(t, results[0].Certificate.IsGenerated)

	assert.False(t, results[1].OK)
	assert.Contains(t, results[1].Error, "not eligible")

	assert.False(t, results[2].OK)
	assert.Contains(t, results[2].Error, "not found")
}

func TestListCertificatesFilters(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, f, mods := fx.enrolled(t, "Alpha", "A")
	fx.completeAll(t, a.ID, mods)
	b := dbtest.SeedUser(t, fx.db, "Beta", models.RoleStudent)
	dbtest.SeedRegistration(t, fx.db, b.ID, f.ID, formation.RegistrationApproved)
	c := dbtest.SeedUser(t, fx.db, "Gamma", models.RoleStudent)
	dbtest.SeedRegistration(t, fx.db, c.ID, f.ID, formation.RegistrationPending)

	// Listing materializes the rows of approved enrollments only.
	all, total, err := fx.svc.ListCertificates(ctx, CertificateFilter{FormationID: f.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, all, 2)

	var alphaCert CertificateView
	for _, v := range all {
		if v.UserID == a.ID {
			alphaCert = v
		}
	}
	require.NotZero(t, alphaCert.ID)
	_, err = fx.svc.Generate(ctx, alphaCert.ID)
	require.NoError(t, err)

	generated, total, err := fx.svc.ListCertificates(ctx, CertificateFilter{FormationID: f.ID, Status: CertificateGenerated})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, generated, 1)
	assert.NotEmpty(t, generated[0].PDFURL)
	assert.NotEmpty(t, generated[0].VerifyURL)

	pending, total, err := fx.svc.ListCertificates(ctx, CertificateFilter{FormationID: f.ID, Status: CertificatePending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ID, pending[0].UserID)
	assert.Empty(t, pending[0].PDFURL)

	sameDay := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	_, total, err = fx.svc.ListCertificates(ctx, CertificateFilter{IssuedOn: &sameDay})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	nextDay := sameDay.AddDate(0, 0, 1)
	_, total, err = fx.svc.ListCertificates(ctx, CertificateFilter{IssuedOn: &nextDay})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestUserCertificates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	u, f, mods := fx.enrolled(t, "Noura", "A", "B")
	dbtest.SeedCompletion(t, fx.db, u.ID, mods[0].ID)

	other, _ := dbtest.SeedFormation(t, fx.db, "En attente", "A")
	dbtest.SeedRegistration(t, fx.db, u.ID, other.ID, formation.RegistrationPending)

	certs, err := fx.svc.UserCertificates(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, f.ID, certs[0].FormationID)
	assert.Equal(t, 50, certs[0].Progress.Percentage)
	assert.False(t, certs[0].CanGenerate)

	dbtest.SeedCompletion(t, fx.db, u.ID, mods[1].ID)
	certs, err = fx.svc.UserCertificates(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.True(t, certs[0].CanGenerate)
}
