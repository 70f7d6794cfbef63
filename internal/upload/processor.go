package upload

import (
	"fmt"
	"mime/multipart"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"homestead/server/internal/apperrors"
	"homestead/server/internal/storage"
)

// FileField is the multipart field name carrying image uploads.
const FileField = "images"

// Processor coordinates validation and storage across an upload batch.
type Processor struct {
	writer *storage.Writer
	logger *logrus.Logger
}

func NewProcessor(writer *storage.Writer, logger *logrus.Logger) *Processor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Processor{writer: writer, logger: logger}
}

// Process stores each file of a batch independently and returns the URL
// paths of the successes, preserving input order. Per-file failures are
// recorded without aborting siblings; the batch as a whole fails only
// when nothing succeeded and at least one error occurred. Partial
// success is returned silently.
func (p *Processor) Process(files []*multipart.FileHeader) ([]string, error) {
	var urls []string
	var errs []string

	for _, header := range files {
		url, err := p.processOne(header)
		if err != nil {
			p.logger.WithError(err).WithField("filename", header.Filename).Error("Failed to process image")
			errs = append(errs, err.Error())
			continue
		}
		urls = append(urls, url)
	}

	if len(urls) == 0 && len(errs) > 0 {
		return nil, apperrors.Validation("Failed to process any images: " + strings.Join(errs, ", "))
	}

	return urls, nil
}

func (p *Processor) processOne(header *multipart.FileHeader) (string, error) {
	if err := ValidateFile(header.Filename, header.Size); err != nil {
		return "", err
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("%s: failed to open upload: %w", header.Filename, err)
	}
	defer src.Close()

	url, err := p.writer.Save(FileField, header.Filename, src)
	if err != nil {
		return "", fmt.Errorf("%s: %w", header.Filename, err)
	}
	return url, nil
}
