package service

import (
	"errors"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const maxTagLength = 50

// LinkInput is the payload for creating a link.
type LinkInput struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// LinkPatch is a partial link update. A nil field keeps the stored value.
type LinkPatch struct {
	URL         *string   `json:"url"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

// Empty reports whether the patch changes nothing.
func (p LinkPatch) Empty() bool {
	return p.URL == nil && p.Title == nil && p.Description == nil && p.Tags == nil
}

// UserInput is the payload for creating a user.
type UserInput struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UserPatch is a partial user update.
type UserPatch struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
}

func (in *LinkInput) validate() error {
	return toValidationError(validation.ValidateStruct(in,
		validation.Field(&in.URL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&in.Title, validation.Required, validation.RuneLength(3, 100)),
		validation.Field(&in.Description, validation.Required, validation.RuneLength(3, 500)),
		validation.Field(&in.Tags, validation.By(tagList)),
	))
}

func (p *LinkPatch) validate() error {
	return toValidationError(validation.ValidateStruct(p,
		validation.Field(&p.URL, validation.NilOrNotEmpty, validation.By(absoluteURL)),
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.RuneLength(3, 100)),
		validation.Field(&p.Description, validation.NilOrNotEmpty, validation.RuneLength(3, 500)),
		validation.Field(&p.Tags, validation.By(tagList)),
	))
}

func (in *UserInput) validate() error {
	return toValidationError(validation.ValidateStruct(in,
		validation.Field(&in.ID, validation.Required),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Username, validation.Required, validation.RuneLength(3, 50)),
	))
}

func (p *UserPatch) validate() error {
	return toValidationError(validation.ValidateStruct(p,
		validation.Field(&p.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&p.Username, validation.NilOrNotEmpty, validation.RuneLength(3, 50)),
	))
}

// absoluteURL requires a scheme and a host. Empty values are left to Required.
func absoluteURL(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return errors.New("must be a string")
	}
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New("must be a valid absolute URL")
	}
	return nil
}

// tagList checks every tag is non-blank and short enough.
func tagList(value interface{}) error {
	var tags []string
	switch v := value.(type) {
	case []string:
		tags = v
	case *[]string:
		if v == nil {
			return nil
		}
		tags = *v
	default:
		return errors.New("must be a list of strings")
	}
	return validation.Validate(tags, validation.Each(validation.Required, validation.RuneLength(1, maxTagLength)))
}
