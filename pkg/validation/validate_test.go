package validation

import (
	"strings"
	"testing"
	"time"

	"hoaportal/pkg/models"
)

func TestValidateOwner(t *testing.T) {
	ok := models.Owner{Email: "a@b.com", Name: "Alice", Role: models.RoleOwner}
	if err := ValidateOwner(ok); err != nil {
		t.Fatalf("expected valid owner, got %v", err)
	}
	bad := models.Owner{Email: "not-an-email", Name: "", Role: "superuser"}
	err := ValidateOwner(bad)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"email", "name", "role"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage(models.Message{ReceiverID: "o1", Body: "hi"}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessage(models.Message{}); err == nil {
		t.Fatal("expected error for empty message")
	}
	long := models.Message{ReceiverID: "o1", Body: strings.Repeat("x", maxBodyLen+1)}
	if err := ValidateMessage(long); err == nil {
		t.Fatal("expected error for oversized body")
	}
}

func TestValidateAmount(t *testing.T) {
	for _, s := range []string{"50", "0.01", "1234.56"} {
		if err := ValidateAmount(s); err != nil {
			t.Errorf("amount %q: %v", s, err)
		}
	}
	for _, s := range []string{"", "abc", "-5", "0", "1.999"} {
		if err := ValidateAmount(s); err == nil {
			t.Errorf("amount %q: expected error", s)
		}
	}
}

func TestValidateCard(t *testing.T) {
	good := models.CreditCard{Brand: "Visa", Last4: "4242", ExpMonth: 12, ExpYear: time.Now().UTC().Year() + 1}
	if err := ValidateCard(good); err != nil {
		t.Fatalf("expected valid card, got %v", err)
	}
	bad := models.CreditCard{Brand: "", Last4: "42x2", ExpMonth: 13, ExpYear: 1999}
	if err := ValidateCard(bad); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidateSurvey(t *testing.T) {
	good := models.Survey{Title: "Pool hours", Question: "Extend to 10pm?", Options: []string{"yes", "no"}}
	if err := ValidateSurvey(good); err != nil {
		t.Fatalf("expected valid survey, got %v", err)
	}
	if err := ValidateSurvey(models.Survey{Title: "t", Question: "q", Options: []string{"only one"}}); err == nil {
		t.Fatal("expected error for single option")
	}
}

func TestEmailish(t *testing.T) {
	for _, s := range []string{"a@b.co", "x.y@z.example.com"} {
		if !emailish(s) {
			t.Errorf("%q should pass", s)
		}
	}
	for _, s := range []string{"", "a", "@b.co", "a@", "a@b", "a@b@c.co", "a@.co"} {
		if emailish(s) {
			t.Errorf("%q should fail", s)
		}
	}
}
