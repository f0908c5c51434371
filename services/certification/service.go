// Package certification tracks learner progress through formations and issues
// verifiable certificates once every module is completed.
package certification

import (
	"code212/utils/logger"
	"code212/utils/render"
	"code212/utils/storage"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Renderer draws the certificate preview and PDF.
type Renderer interface {
	Render(data render.CertificateData) (*render.Document, error)
}

type Options struct {
	Renderer Renderer
	Storage  storage.Storage
	// PublicBaseURL prefixes the verification links printed on certificates.
	PublicBaseURL string
	Now           func() time.Time
}

type Service struct {
	db            *gorm.DB
	log           *logger.Logger
	renderer      Renderer
	storage       storage.Storage
	publicBaseURL string
	now           func() time.Time
}

func New(db *gorm.DB, log *logger.Logger, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		db:            db,
		log:           log.With("service", "certification"),
		renderer:      opts.Renderer,
		storage:       opts.Storage,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		now:           now,
	}
}

// VerifyURL is the public address at which a certificate can be checked.
func (s *Service) VerifyURL(verificationCode string) string {
	return s.publicBaseURL + "/certificates/verify/" + verificationCode
}

func (s *Service) fileURL(key *string) string {
	if key == nil || *key == "" || s.storage == nil {
		return ""
	}
	return s.storage.URL(*key)
}
