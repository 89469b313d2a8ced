package server

import (
	"mime/multipart"

	"github.com/goliatone/go-formengine/pkg/upload"
)

func uploadFrom(header *multipart.FileHeader, file multipart.File) upload.File {
	return upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}
