package server

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/session"
)

// Hidden inputs the rendered form carries back on submit.
const (
	formSchemaField     = "_schema"
	formGenerationField = "_generation"
)

var (
	errStaleForm   = errors.New("server: form was rendered for a previous schema")
	errInvalidForm = errors.New("server: invalid form body")
)

func isFormPost(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "multipart/form-data" || mediaType == "application/x-www-form-urlencoded"
}

// applyFormPost copies a browser form post into sess. Every leaf the schema
// declares is taken from the body; an absent multiselect means nothing is
// checked. File inputs left empty keep the current value. The post must name
// the generation it was rendered for, and all writes are bound to it.
func (s *Server) applyFormPost(r *http.Request, sess *session.Session) error {
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("%w: %v", errInvalidForm, err)
	}

	posted := r.PostForm.Get(formGenerationField)
	if posted == "" {
		return fmt.Errorf("%w: missing %s", errInvalidForm, formGenerationField)
	}
	generation, err := strconv.ParseUint(posted, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errInvalidForm, formGenerationField, err)
	}

	current, at := sess.Current()
	if generation != at || r.PostForm.Get(formSchemaField) != current.ID {
		return errStaleForm
	}

	values := map[string]any{}
	var files []string
	schema.Walk(current.Fields, "", func(field schema.Field, parent string) bool {
		if field.Kind.IsGroup() {
			return true
		}
		path := fieldpath.Join(parent, field.Name)
		switch {
		case field.Kind == schema.KindFile:
			files = append(files, path)
		case field.Kind.IsMultiValued():
			list := r.PostForm[path]
			if list == nil {
				list = []string{}
			}
			values[path] = list
		default:
			if list, ok := r.PostForm[path]; ok {
				values[path] = list[0]
			}
		}
		return true
	})

	if err := sess.ApplyChanges(generation, values); err != nil {
		return formError(err)
	}
	for _, path := range files {
		if err := s.applyFormFile(r, sess, generation, path); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) applyFormFile(r *http.Request, sess *session.Session, generation uint64, path string) error {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[path]
	if len(headers) == 0 || headers[0].Filename == "" {
		return nil
	}
	file, err := headers[0].Open()
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	defer file.Close()

	outcome, err := sess.ChangeFileAt(r.Context(), generation, path, uploadFrom(headers[0], file))
	if err != nil {
		return formError(err)
	}
	if outcome == session.UploadSuperseded {
		return errStaleForm
	}
	return nil
}

func formError(err error) error {
	if errors.Is(err, session.ErrStaleGeneration) {
		return fmt.Errorf("%w: %v", errStaleForm, err)
	}
	return err
}
