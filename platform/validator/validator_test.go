package validator

import "testing"

type phoneInput struct {
	Phone string `validate:"omitempty,phone_digits"`
}

func TestPhoneDigitsRule(t *testing.T) {
	val := New()

	tests := []struct {
		phone string
		ok    bool
	}{
		{"+1 (555) 010-2030", true},
		{"", true},
		{"12345", false},
		{"1234567890123456", false},
	}

	for _, tc := range tests {
		err := val.Struct(phoneInput{Phone: tc.phone})
		if (err == nil) != tc.ok {
			t.Errorf("phone %q: got err=%v, want ok=%v", tc.phone, err, tc.ok)
		}
	}
}
