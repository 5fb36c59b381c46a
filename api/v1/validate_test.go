package v1

import (
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
)

func TestApplicationValidate(t *testing.T) {
	valid := Application{
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		Phone:         "+1 555 0100",
		AvailableFrom: "2026-10-01",
	}
	if errs := valid.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid application, got %v", errs)
	}

	for _, tc := range []struct {
		name   string
		mutate func(*Application)
	}{
		{"empty name", func(a *Application) { a.Name = "" }},
		{"name too long", func(a *Application) { a.Name = strings.Repeat("a", 60) }},
		{"name with digits", func(a *Application) { a.Name = "Jane 123" }},
		{"email without at", func(a *Application) { a.Email = "jane.example.com" }},
		{"email without domain", func(a *Application) { a.Email = "jane@" }},
		{"phone too short", func(a *Application) { a.Phone = "123" }},
		{"phone with letters", func(a *Application) { a.Phone = "call me maybe" }},
		{"bad date format", func(a *Application) { a.AvailableFrom = "01/10/2026" }},
		{"empty date", func(a *Application) { a.AvailableFrom = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			app := valid
			tc.mutate(&app)
			if errs := app.Validate(); len(errs) == 0 {
				t.Errorf("expected validation error for %+v", app)
			}
		})
	}
}

func fileHeader(filename, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	return &multipart.FileHeader{
		Filename: filename,
		Header:   h,
		Size:     size,
	}
}

func TestValidateAttachment(t *testing.T) {
	for _, tc := range []struct {
		name string
		fh   *multipart.FileHeader
		ok   bool
	}{
		{"pdf", fileHeader("resume.pdf", "application/pdf", 100), true},
		{"docx", fileHeader("resume.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 100), true},
		{"jpeg with jpg extension", fileHeader("photo.jpg", "image/jpeg", 100), true},
		{"uppercase extension", fileHeader("RESUME.PDF", "application/pdf", 100), true},
		{"empty filename", fileHeader("", "application/pdf", 100), false},
		{"executable", fileHeader("payload.exe", "application/x-msdownload", 100), false},
		{"unknown declared type", fileHeader("resume.pdf", "application/octet-stream", 100), false},
		{"extension does not match type", fileHeader("resume.pdf", "image/png", 100), false},
		{"over the size cap", fileHeader("resume.pdf", "application/pdf", MaxAttachmentSize+1), false},
		{"exactly at the size cap", fileHeader("resume.pdf", "application/pdf", MaxAttachmentSize), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := validateAttachment(tc.fh)
			if tc.ok && err != nil {
				t.Errorf("expected %q to pass, got %v", tc.fh.Filename, err)
			}
			if !tc.ok && err == nil {
				t.Errorf("expected %q to fail", tc.fh.Filename)
			}
		})
	}
}
