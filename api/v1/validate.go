package v1

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	// MaxAttachmentSize caps a single attachment at 10 MiB.
	MaxAttachmentSize = 10 << 20

	// MaxAttachments is the number of files one submission may carry
	// (resume plus cover letter).
	MaxAttachments = 2

	availabilityLayout = "2006-01-02"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z' .-]{1,49}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[0-9+()\- ]{7,20}$`)
)

// allowedMimeTypes maps each accepted declared content type to the file
// extensions it may carry. The declared type comes from the user agent and
// is not verified against the actual content.
var allowedMimeTypes = map[string][]string{
	"application/pdf":    {".pdf"},
	"application/msword": {".doc"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {".docx"},
	"text/plain": {".txt"},
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
}

func allowedExtensions() []string {
	seen := map[string]bool{}
	for _, exts := range allowedMimeTypes {
		for _, ext := range exts {
			seen[ext] = true
		}
	}
	out := make([]string, 0, len(seen))
	for ext := range seen {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Application holds the applicant fields of one submission.
type Application struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AvailableFrom string `json:"availableFrom"`
}

// Validate returns one message per invalid field, empty when the
// application is acceptable.
func (a Application) Validate() []string {
	var errs []string
	if !nameRe.MatchString(strings.TrimSpace(a.Name)) {
		errs = append(errs, "name must be 2-50 letters")
	}
	if !emailRe.MatchString(strings.TrimSpace(a.Email)) {
		errs = append(errs, "email address is not valid")
	}
	if !phoneRe.MatchString(strings.TrimSpace(a.Phone)) {
		errs = append(errs, "phone number is not valid")
	}
	if _, err := time.Parse(availabilityLayout, a.AvailableFrom); err != nil {
		errs = append(errs, "availability date must be YYYY-MM-DD")
	}
	return errs
}

// validateAttachment checks size, extension and the declared content type
// of one uploaded file. Content is never sniffed; this mirrors the
// client-side rules and is just as bypassable.
func validateAttachment(fh *multipart.FileHeader) error {
	if fh.Filename == "" {
		return fmt.Errorf("no file name")
	}
	if fh.Size > MaxAttachmentSize {
		return fmt.Errorf("file %q exceeds the %dMB limit", fh.Filename, MaxAttachmentSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	declared := fh.Header.Get("Content-Type")

	exts, ok := allowedMimeTypes[declared]
	if !ok {
		return fmt.Errorf("file type %q not allowed", declared)
	}
	for _, e := range exts {
		if e == ext {
			return nil
		}
	}
	return fmt.Errorf("extension %q does not match declared type %q", ext, declared)
}
