package request

import "strings"

// UpdateProfileRequest represents the changeable profile fields
type UpdateProfileRequest struct {
	Password  string  `json:"password" validate:"omitempty,min=8,max=72"`
	Password2 string  `json:"password2" validate:"eqfield=Password"`
	Name      *string `json:"name,omitempty" validate:"omitempty,max=100"`
}

// TrimStrings trims the name; passwords are kept verbatim
func (r *UpdateProfileRequest) TrimStrings() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
}

// DecodeForm reads the request from form values
func (r *UpdateProfileRequest) DecodeForm(form map[string][]string) {
	r.Password = first(form["password"])
	r.Password2 = first(form["password2"])
	if v, ok := form["name"]; ok {
		name := first(v)
		r.Name = &name
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
