// Package ingest turns uploaded files into raw claim documents: it detects
// the file kind, pulls text out of PDFs and images, normalises it and guesses
// its language.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/claims-cli/internal/config"
	"github.com/sells-group/claims-cli/internal/model"
)

// Extractor pulls text out of a file on disk. mime is the detected media type.
type Extractor interface {
	ExtractText(ctx context.Context, path, mime string) (string, error)
}

// PDFExtensions and ImageExtensions are the upload extensions ingestion
// understands, lower-case with the leading dot.
var (
	PDFExtensions   = []string{".pdf"}
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".webp"}
)

var imageMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".webp": "image/webp",
}

// Service ingests uploads. Build one per process with New and release it with
// Close.
type Service struct {
	workDir string
	pdf     Extractor
	ocr     Extractor // nil when no OCR provider is configured
}

// New builds the extractors named by cfg and creates the scratch directory
// uploads are spooled to.
func New(cfg config.IngestConfig) (*Service, error) {
	var pdf, ocr Extractor

	switch cfg.OCRProvider {
	case "":
	case config.OCRProviderMistral:
		if cfg.MistralAPIKey == "" {
			return nil, eris.New("ingest: mistral provider requires mistral_api_key")
		}
		ocr = NewMistralOCR(cfg.MistralAPIKey, cfg.MistralURL, cfg.MistralModel)
	default:
		return nil, eris.Errorf("ingest: unknown ocr provider %q", cfg.OCRProvider)
	}

	switch cfg.PDFProvider {
	case config.PDFProviderLocal, "":
		pdf = NewPdfToText(cfg.PdfToTextPath)
	case config.PDFProviderMistral:
		if cfg.MistralAPIKey == "" {
			return nil, eris.New("ingest: mistral provider requires mistral_api_key")
		}
		pdf = NewMistralOCR(cfg.MistralAPIKey, cfg.MistralURL, cfg.MistralModel)
	default:
		return nil, eris.Errorf("ingest: unknown pdf provider %q", cfg.PDFProvider)
	}

	return NewService(pdf, ocr)
}

// NewService builds a Service from explicit extractors. ocr may be nil.
func NewService(pdf, ocr Extractor) (*Service, error) {
	dir, err := os.MkdirTemp("", "claims-ingest-*")
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create work dir")
	}
	return &Service{workDir: dir, pdf: pdf, ocr: ocr}, nil
}

// Close removes the scratch directory.
func (s *Service) Close() error {
	if s == nil || s.workDir == "" {
		return nil
	}
	if err := os.RemoveAll(s.workDir); err != nil {
		return eris.Wrap(err, "ingest: remove work dir")
	}
	return nil
}

// OCREnabled reports whether image uploads can yield text.
func (s *Service) OCREnabled() bool {
	return s.ocr != nil
}

// Ingest converts one uploaded file into a RawDocument. It never fails: a file
// whose text cannot be read becomes a document with empty text and unknown
// language, which the pipeline treats as short input.
func (s *Service) Ingest(ctx context.Context, fileName string, data []byte) model.RawDocument {
	log := zap.L().With(zap.String("file", fileName))

	source, mime := DetectSource(fileName, data)
	text, err := s.extract(ctx, fileName, data, source, mime)
	if err != nil {
		log.Warn("ingest: text extraction failed", zap.String("mime", mime), zap.Error(err))
		return model.NewRawDocument(fileName, "", model.LanguageUnknown, source)
	}

	text = strings.TrimSpace(norm.NFC.String(text))
	lang := DetectLanguage(text)
	log.Debug("ingest: document read",
		zap.String("source", string(source)),
		zap.String("language", lang),
		zap.Int("bytes", len(data)),
	)
	return model.NewRawDocument(fileName, text, lang, source)
}

func (s *Service) extract(ctx context.Context, fileName string, data []byte, source model.SourceType, mime string) (string, error) {
	if source == model.SourceTypeImage && s.ocr == nil {
		zap.L().Info("ingest: no OCR provider configured, image yields no text", zap.String("file", fileName))
		return "", nil
	}

	path, err := s.spool(fileName, data)
	if err != nil {
		return "", err
	}
	defer os.Remove(path) //nolint:errcheck

	if source == model.SourceTypeImage {
		return s.ocr.ExtractText(ctx, path, mime)
	}

	text, err := s.pdf.ExtractText(ctx, path, mime)
	if err != nil && s.ocr == nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" || s.ocr == nil {
		return text, nil
	}

	// No usable text layer; fall back to OCR.
	if err != nil {
		zap.L().Debug("ingest: pdf text layer failed, trying OCR", zap.String("file", fileName), zap.Error(err))
	}
	return s.ocr.ExtractText(ctx, path, mime)
}

func (s *Service) spool(fileName string, data []byte) (string, error) {
	f, err := os.CreateTemp(s.workDir, "upload-*"+strings.ToLower(filepath.Ext(fileName)))
	if err != nil {
		return "", eris.Wrap(err, "ingest: create temp file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.Write(data); err != nil {
		return "", eris.Wrapf(err, "ingest: write temp file for %s", fileName)
	}
	return f.Name(), nil
}

// DetectSource sniffs data to decide whether it is a PDF or an image. When the
// content is inconclusive the file extension decides. The returned mime is
// what OCR backends are told the file is.
func DetectSource(fileName string, data []byte) (model.SourceType, string) {
	mt := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(fileName))

	switch {
	case mt.Is("application/pdf"):
		if !hasExt(PDFExtensions, ext) {
			zap.L().Warn("ingest: extension does not match content",
				zap.String("file", fileName), zap.String("mime", mt.String()))
		}
		return model.SourceTypePDF, "application/pdf"
	case strings.HasPrefix(mt.String(), "image/"):
		if !hasExt(ImageExtensions, ext) {
			zap.L().Warn("ingest: extension does not match content",
				zap.String("file", fileName), zap.String("mime", mt.String()))
		}
		return model.SourceTypeImage, mt.String()
	case hasExt(ImageExtensions, ext):
		return model.SourceTypeImage, imageMIME[ext]
	default:
		return model.SourceTypePDF, "application/pdf"
	}
}

// AllowedExtension reports whether fileName has an extension ingestion
// accepts. Images are only accepted when allowImages is set.
func AllowedExtension(fileName string, allowImages bool) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	if hasExt(PDFExtensions, ext) {
		return true
	}
	return allowImages && hasExt(ImageExtensions, ext)
}

func hasExt(exts []string, ext string) bool {
	return slices.Contains(exts, ext)
}
