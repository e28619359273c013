package binding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"

	"github.com/toyz/fnbridge/pkg/web"
)

var ErrMalformedForm = errors.New("malformed form")

const (
	mediaURLEncoded = "application/x-www-form-urlencoded"
	mediaMultipart  = "multipart/form-data"
)

func hasFormContentType(ctx web.RequestContext) bool {
	media, _, err := mime.ParseMediaType(ctx.Request().ContentType())
	return err == nil && (media == mediaURLEncoded || media == mediaMultipart)
}

// readForm reads the form values of the request within limits. File parts of
// multipart bodies are skipped.
func readForm(body []byte, contentType string, limits FormOptions) (url.Values, error) {
	if limits.MultipartBodyLengthLimit > 0 && int64(len(body)) > limits.MultipartBodyLengthLimit {
		return nil, fmt.Errorf("%w: body length limit %d exceeded", ErrMalformedForm, limits.MultipartBodyLengthLimit)
	}

	media, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}

	values := url.Values{}
	switch media {
	case mediaURLEncoded:
		values, err = url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
		}
	case mediaMultipart:
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("%w: missing multipart boundary", ErrMalformedForm)
		}
		reader := multipart.NewReader(bytes.NewReader(body), boundary)
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
			}
			if part.FileName() != "" || part.FormName() == "" {
				continue
			}
			var r io.Reader = part
			if limits.ValueLengthLimit > 0 {
				r = io.LimitReader(part, int64(limits.ValueLengthLimit)+1)
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
			}
			values.Add(part.FormName(), string(data))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrMalformedForm, media)
	}

	return values, checkLimits(values, limits)
}

func checkLimits(values url.Values, limits FormOptions) error {
	count := 0
	for key, vs := range values {
		if limits.KeyLengthLimit > 0 && len(key) > limits.KeyLengthLimit {
			return fmt.Errorf("%w: key length limit %d exceeded", ErrMalformedForm, limits.KeyLengthLimit)
		}
		for _, v := range vs {
			if limits.ValueLengthLimit > 0 && len(v) > limits.ValueLengthLimit {
				return fmt.Errorf("%w: value length limit %d exceeded for %s", ErrMalformedForm, limits.ValueLengthLimit, key)
			}
		}
		count += len(vs)
	}
	if limits.ValueCountLimit > 0 && count > limits.ValueCountLimit {
		return fmt.Errorf("%w: form value count limit %d exceeded", ErrMalformedForm, limits.ValueCountLimit)
	}
	return nil
}
