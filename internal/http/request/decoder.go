package request

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
)

// MaxRequestBodySize is the maximum allowed request body size (1MB)
const MaxRequestBodySize = 1 << 20

// ErrInvalidBody is returned when a request body cannot be decoded
var ErrInvalidBody = apperrors.NewError(apperrors.ErrorTypeBadRequest, "invalid request format").WithCode("INVALID_REQUEST")

// FormDecoder is implemented by requests that can also be read from a
// url-encoded form
type FormDecoder interface {
	DecodeForm(form map[string][]string)
}

// StringTrimmer is implemented by requests that normalise their string fields
type StringTrimmer interface {
	TrimStrings()
}

// Decoder decodes and validates request bodies
type Decoder struct {
	trimStrings bool
}

// NewDecoder creates a new request decoder
func NewDecoder() *Decoder {
	return &Decoder{trimStrings: true}
}

// DecodeAndValidate decodes the request body into v and validates it
func (d *Decoder) DecodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := d.Decode(w, r, v); err != nil {
		return err
	}

	if d.trimStrings {
		if trimmer, ok := v.(StringTrimmer); ok {
			trimmer.TrimStrings()
		}
	}

	return ValidateStruct(v)
}

// Decode reads a JSON body, or a url-encoded form when v implements FormDecoder
func (d *Decoder) Decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return ErrInvalidBody.WithCause(errors.New("request body is empty"))
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if fd, ok := v.(FormDecoder); ok && isForm(r) {
		if err := r.ParseForm(); err != nil {
			return ErrInvalidBody.WithCause(err)
		}
		fd.DecodeForm(r.PostForm)
		return nil
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrInvalidBody.WithCause(errors.New("request body is empty"))
		}
		return ErrInvalidBody.WithCause(err)
	}

	if decoder.More() {
		return ErrInvalidBody.WithCause(errors.New("request body must contain only one JSON object"))
	}

	return nil
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || strings.HasPrefix(mediaType, "multipart/form-data")
}
