package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/simp-lee/hireline/internal/domain"
)

// FormField is one scalar part of a multipart body. Order is preserved.
type FormField struct {
	Name  string
	Value string
}

// FilePart is one binary part of a multipart body.
type FilePart struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     io.Reader
}

// MultipartForm is the body of a multipart POST.
type MultipartForm struct {
	Fields []FormField
	Files  []FilePart
}

// Add appends a scalar field.
func (f *MultipartForm) Add(name, value string) {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
}

// PostMultipart encodes form as multipart/form-data and POSTs it.
func (c *Client) PostMultipart(ctx context.Context, path string, form *MultipartForm, out any) error {
	body, contentType, err := encodeMultipart(form)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "encode multipart body", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, body, contentType, out)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(form *MultipartForm) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if form != nil {
		for _, f := range form.Fields {
			if err := w.WriteField(f.Name, f.Value); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
			}
		}
		for _, file := range form.Files {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				quoteEscaper.Replace(file.FieldName), quoteEscaper.Replace(file.FileName)))
			ct := file.ContentType
			if ct == "" {
				ct = "application/octet-stream"
			}
			h.Set("Content-Type", ct)

			part, err := w.CreatePart(h)
			if err != nil {
				return nil, "", fmt.Errorf("create part %s: %w", file.FieldName, err)
			}
			if file.Content != nil {
				if _, err := io.Copy(part, file.Content); err != nil {
					return nil, "", fmt.Errorf("copy part %s: %w", file.FieldName, err)
				}
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
