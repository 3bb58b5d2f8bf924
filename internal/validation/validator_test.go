package validation

import "testing"

type sample struct {
	Date  string `json:"date" validate:"required,date"`
	Time  string `json:"time" validate:"required,clock"`
	Phone string `json:"customerPhone" validate:"omitempty,phone"`
}

func TestValidatorCustomTags(t *testing.T) {
	v := New()

	if err := v.Struct(sample{Date: "2026-02-04", Time: "09:00", Phone: "(11) 98765-4321"}); err != nil {
		t.Fatalf("expected valid sample, got %v", err)
	}

	err := v.Struct(sample{Date: "04/02/2026", Time: "9:00", Phone: "abc"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	errs := v.ValidationErrors(err)
	if len(errs) != 3 {
		t.Fatalf("expected 3 field errors, got %d", len(errs))
	}
	fields := map[string]string{}
	for _, fe := range errs {
		fields[fe.Field()] = fe.Tag()
	}
	if fields["date"] != "date" || fields["time"] != "clock" || fields["customerPhone"] != "phone" {
		t.Fatalf("unexpected field errors: %v", fields)
	}
}

func TestValidationErrorsNil(t *testing.T) {
	if errs := New().ValidationErrors(nil); errs != nil {
		t.Fatalf("expected nil errors")
	}
}
