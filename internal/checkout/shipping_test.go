package checkout

import "testing"

func validForm() ShippingForm {
	return ShippingForm{
		Name:    "Asha Verma",
		Email:   "asha@example.com",
		Phone:   "9876543210",
		Address: "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	}
}

func TestValidateShipping(t *testing.T) {
	t.Run("valid form passes", func(t *testing.T) {
		if errs := ValidateShipping(validForm(), false); errs != nil {
			t.Errorf("expected no errors, got %v", errs)
		}
	})

	t.Run("short name rejected", func(t *testing.T) {
		form := validForm()
		form.Name = "A"
		errs := ValidateShipping(form, false)
		if errs["name"] == "" {
			t.Errorf("expected name error, got %v", errs)
		}
	})

	t.Run("phone must be 10 digits starting 6-9", func(t *testing.T) {
		for _, phone := range []string{"12345", "0876543210", "98765432101", "987654321", "98765abc10", "5876543210"} {
			form := validForm()
			form.Phone = phone
			if errs := ValidateShipping(form, false); errs["phone"] == "" {
				t.Errorf("phone %q: expected error", phone)
			}
		}

		for _, phone := range []string{"6000000000", "7123456789", "8999999999", "9876543210"} {
			form := validForm()
			form.Phone = phone
			if errs := ValidateShipping(form, false); errs["phone"] != "" {
				t.Errorf("phone %q: unexpected error %q", phone, errs["phone"])
			}
		}
	})

	t.Run("five digit pincode rejected", func(t *testing.T) {
		form := validForm()
		form.Pincode = "12345"
		errs := ValidateShipping(form, false)
		if errs["pincode"] == "" {
			t.Errorf("expected pincode error, got %v", errs)
		}
	})

	t.Run("pincode must not start with zero", func(t *testing.T) {
		form := validForm()
		form.Pincode = "056001"
		if errs := ValidateShipping(form, false); errs["pincode"] == "" {
			t.Errorf("expected pincode error")
		}
	})

	t.Run("blank address city state rejected together", func(t *testing.T) {
		form := validForm()
		form.Address = "  "
		form.City = ""
		form.State = ""
		errs := ValidateShipping(form, false)
		for _, field := range []string{"address", "city", "state"} {
			if errs[field] == "" {
				t.Errorf("expected %s error, got %v", field, errs)
			}
		}
	})

	t.Run("mentor required only with mentorship in cart", func(t *testing.T) {
		form := validForm()

		if errs := ValidateShipping(form, true); errs["mentor_id"] == "" {
			t.Errorf("expected mentor_id error, got %v", errs)
		}

		form.MentorID = "mentor-7"
		if errs := ValidateShipping(form, true); errs != nil {
			t.Errorf("expected no errors with mentor selected, got %v", errs)
		}

		form.MentorID = ""
		if errs := ValidateShipping(form, false); errs != nil {
			t.Errorf("expected no errors without mentorship, got %v", errs)
		}
	})
}

func TestShippingForm_ToAddress(t *testing.T) {
	addr := validForm().ToAddress()
	if addr.Country != "India" {
		t.Errorf("expected default country India, got %q", addr.Country)
	}
	if addr.Name != "Asha Verma" || addr.Pincode != "560001" {
		t.Errorf("unexpected address: %+v", addr)
	}
}
