package testsupport

import (
	"context"
	"sync"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/upload"
)

// BasicSchema is a flat contact form covering the text-like kinds.
func BasicSchema() schema.Schema {
	return schema.Schema{
		ID:    "basic",
		Title: "Basic Form",
		Fields: []schema.Field{
			{Name: "name", Title: "Full Name", Kind: schema.KindText, Required: true, Placeholder: "Enter your full name"},
			{Name: "email", Title: "Email Address", Kind: schema.KindEmail, Required: true, Pattern: `[^\s@]+@[^\s@]+\.[^\s@]+`, ErrorMessage: "Please enter a valid email address"},
			{Name: "phone", Title: "Phone Number", Kind: schema.KindTel, Pattern: `\+?[0-9 ()-]{7,}`},
			{Name: "age", Title: "Age", Kind: schema.KindNumber, Min: "18", Max: "100", Step: "1"},
			{Name: "bio", Title: "Biography", Kind: schema.KindTextarea, Placeholder: "Tell us about yourself"},
		},
	}
}

// AdvancedSchema nests a group and exercises every choice, temporal, and file
// kind.
func AdvancedSchema() schema.Schema {
	return schema.Schema{
		ID:    "advanced",
		Title: "Advanced Form",
		Fields: []schema.Field{
			{Name: "birthdate", Title: "Date of Birth", Kind: schema.KindDate, Min: "1900-01-01", Max: "2010-12-31"},
			{Name: "appointment", Title: "Appointment", Kind: schema.KindDatetime, Min: "2024-01-01T09:00"},
			{Name: "country", Title: "Country", Kind: schema.KindSelect, Required: true, Options: []schema.Option{
				{ID: "us", Title: "United States"},
				{ID: "it", Title: "Italy"},
				{ID: "jp", Title: "Japan"},
			}},
			{Name: "interests", Title: "Interests", Kind: schema.KindMultiselect, Required: true, Options: []schema.Option{
				{ID: "sports", Title: "Sports"},
				{ID: "music", Title: "Music"},
				{ID: "travel", Title: "Travel"},
			}},
			{Name: "plan", Title: "Plan", Kind: schema.KindButtons, Default: "basic", Options: []schema.Option{
				{ID: "basic", Title: "Basic"},
				{ID: "pro", Title: "Pro"},
			}},
			{Name: "resume", Title: "Resume", Kind: schema.KindFile, Upload: &schema.UploadEndpoint{
				URL:    "https://uploads.example.com/resume",
				Method: "POST",
			}},
			{Name: "address", Title: "Address", Kind: schema.KindGroup, Children: []schema.Field{
				{Name: "street", Title: "Street", Kind: schema.KindText, Required: true},
				{Name: "city", Title: "City", Kind: schema.KindText, Required: true},
				{Name: "zip", Title: "ZIP Code", Kind: schema.KindText, Pattern: `[0-9]{5}`},
			}},
		},
	}
}

// Catalog returns a fresh catalog with the basic and advanced schemas.
func Catalog() *schema.Catalog {
	return schema.MustCatalog(BasicSchema(), AdvancedSchema())
}

// StubUploader records calls and answers with Display or Err. Block, when
// set, is waited on before answering.
type StubUploader struct {
	Display string
	Err     error
	Block   <-chan struct{}

	mu    sync.Mutex
	calls []upload.File
}

// Upload implements upload.Uploader.
func (s *StubUploader) Upload(ctx context.Context, _ schema.Field, file upload.File) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, file)
	s.mu.Unlock()

	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	if s.Display != "" {
		return s.Display, nil
	}
	return file.DisplayName(), nil
}

// Calls returns the files received so far.
func (s *StubUploader) Calls() []upload.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]upload.File(nil), s.calls...)
}
