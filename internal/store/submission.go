package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/hireline/internal/apiclient"
)

// MaxAttachmentSize is the largest CV accepted.
const MaxAttachmentSize = 5 << 20

// Accepted CV content types.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOC  = "application/msword"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedAttachmentTypes = []string{MIMEPDF, MIMEDOC, MIMEDOCX}

// Attachment is an uploaded CV. Size defaults to len(Data).
type Attachment struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// AttachmentFromFile reads a CV from disk. Files larger than
// MaxAttachmentSize are not read past the limit; Size still reports the
// real size so validation can reject them.
func AttachmentFromFile(path string) (*Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return &Attachment{FileName: filepath.Base(path), Size: info.Size(), Data: data}, nil
}

func (a *Attachment) size() int64 {
	if a.Size > 0 {
		return a.Size
	}
	return int64(len(a.Data))
}

// contentType returns the declared type, or the sniffed one when nothing
// specific was declared.
func (a *Attachment) contentType() string {
	declared, _, _ := strings.Cut(a.ContentType, ";")
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(a.Data).String()
}

func (a *Attachment) allowedType() bool {
	ct := a.contentType()
	for _, allowed := range allowedAttachmentTypes {
		if ct == allowed {
			return true
		}
	}
	m := mimetype.Lookup(ct)
	if m == nil {
		return false
	}
	for _, allowed := range allowedAttachmentTypes {
		if m.Is(allowed) {
			return true
		}
	}
	return false
}

// ApplicationSubmission is the public application form.
type ApplicationSubmission struct {
	JobID       uint        `json:"jobId" validate:"required"`
	Email       string      `json:"email" validate:"required,mailshape"`
	FirstName   string      `json:"firstName" validate:"min=2"`
	LastName    string      `json:"lastName" validate:"min=2"`
	PhoneNumber string      `json:"phoneNumber" validate:"omitempty,max=15"`
	CoverLetter string      `json:"coverLetter" validate:"omitempty,max=2000"`
	CV          *Attachment `json:"cvFile" validate:"-"`
}

func (s ApplicationSubmission) normalize() ApplicationSubmission {
	s.Email = strings.TrimSpace(s.Email)
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.PhoneNumber = strings.TrimSpace(s.PhoneNumber)
	s.CoverLetter = strings.TrimSpace(s.CoverLetter)
	return s
}

func (s ApplicationSubmission) form() *apiclient.MultipartForm {
	form := &apiclient.MultipartForm{}
	form.Add("jobId", strconv.FormatUint(uint64(s.JobID), 10))
	form.Add("email", s.Email)
	form.Add("firstName", s.FirstName)
	form.Add("lastName", s.LastName)
	if s.PhoneNumber != "" {
		form.Add("phoneNumber", s.PhoneNumber)
	}
	if s.CoverLetter != "" {
		form.Add("coverLetter", s.CoverLetter)
	}
	form.Files = append(form.Files, apiclient.FilePart{
		FieldName:   "cvFile",
		FileName:    s.CV.FileName,
		ContentType: s.CV.contentType(),
		Content:     bytes.NewReader(s.CV.Data),
	})
	return form
}

var mailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type submissionValidator struct {
	v *validator.Validate
}

func newSubmissionValidator() *submissionValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("mailshape", func(fl validator.FieldLevel) bool {
		return mailShape.MatchString(fl.Field().String())
	})
	return &submissionValidator{v: v}
}

// check returns field messages for every violated rule, or nil.
func (sv *submissionValidator) check(sub ApplicationSubmission) map[string]string {
	fields := make(map[string]string)

	var ve validator.ValidationErrors
	if err := sv.v.Struct(sub); errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}

	switch cv := sub.CV; {
	case cv == nil || cv.size() == 0:
		fields["cvFile"] = "a CV file is required"
	case !cv.allowedType():
		fields["cvFile"] = "CV must be a PDF, DOC or DOCX file"
	case cv.size() > MaxAttachmentSize:
		fields["cvFile"] = "CV must be 5 MB or smaller"
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "mailshape":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return fe.Tag()
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
