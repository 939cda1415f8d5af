package checkout

import (
	"regexp"
	"strings"

	"github.com/buildunia/commerce/internal/domain"
)

// ShippingForm is what the user submits on the shipping step. MentorID is
// meaningful only when the cart contains a mentorship session.
type ShippingForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Country  string `json:"country"`
	MentorID string `json:"mentor_id,omitempty"`
}

// FieldErrors maps field name to a user-facing message. Empty means valid.
type FieldErrors map[string]string

var (
	// Indian mobile numbers: exactly 10 digits starting 6-9.
	phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	// Indian postal codes: exactly 6 digits, no leading zero.
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// ValidateShipping checks every field and returns all failures at once so
// the form can show them inline. requireMentor is set when any cart line is
// a mentorship session.
func ValidateShipping(form ShippingForm, requireMentor bool) FieldErrors {
	errs := make(FieldErrors)

	if len(strings.TrimSpace(form.Name)) < 2 {
		errs["name"] = "name must be at least 2 characters"
	}
	if !phonePattern.MatchString(form.Phone) {
		errs["phone"] = "phone must be a 10-digit Indian mobile number"
	}
	if strings.TrimSpace(form.Address) == "" {
		errs["address"] = "address is required"
	}
	if strings.TrimSpace(form.City) == "" {
		errs["city"] = "city is required"
	}
	if strings.TrimSpace(form.State) == "" {
		errs["state"] = "state is required"
	}
	if !pincodePattern.MatchString(form.Pincode) {
		errs["pincode"] = "pincode must be a valid 6-digit postal code"
	}
	if requireMentor && form.MentorID == "" {
		errs["mentor_id"] = "a mentor must be selected for mentorship sessions"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (f ShippingForm) ToAddress() domain.ShippingAddress {
	country := f.Country
	if country == "" {
		country = "India"
	}
	return domain.ShippingAddress{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		Address: f.Address,
		City:    f.City,
		State:   f.State,
		Pincode: f.Pincode,
		Country: country,
	}
}
