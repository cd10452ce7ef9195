package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hoaportal/pkg/models"
)

const (
	maxSubjectLen = 200
	maxBodyLen    = 10_000
	maxNameLen    = 120
	maxOptionLen  = 200
)

// ValidateOwner checks a new or updated owner record.
func ValidateOwner(o models.Owner) error {
	var errs []string
	if strings.TrimSpace(o.Email) == "" {
		errs = append(errs, "email is required")
	} else if !emailish(o.Email) {
		errs = append(errs, "email is malformed")
	}
	if strings.TrimSpace(o.Name) == "" {
		errs = append(errs, "name is required")
	} else if len(o.Name) > maxNameLen {
		errs = append(errs, fmt.Sprintf("name exceeds %d characters", maxNameLen))
	}
	switch o.Role {
	case models.RoleOwner, models.RoleBoard, models.RoleAdmin:
	case "":
		errs = append(errs, "role is required")
	default:
		errs = append(errs, "role is not one of owner, board, admin")
	}
	return joinErrs(errs)
}

// ValidateMessage checks a message before it is stored.
func ValidateMessage(m models.Message) error {
	var errs []string
	if strings.TrimSpace(m.ReceiverID) == "" {
		errs = append(errs, "receiver_id is required")
	}
	if strings.TrimSpace(m.Body) == "" {
		errs = append(errs, "body is required")
	} else if len(m.Body) > maxBodyLen {
		errs = append(errs, fmt.Sprintf("body exceeds %d characters", maxBodyLen))
	}
	if len(m.Subject) > maxSubjectLen {
		errs = append(errs, fmt.Sprintf("subject exceeds %d characters", maxSubjectLen))
	}
	return joinErrs(errs)
}

// ValidateAmount checks a money string: decimal, positive, at most two
// fractional digits.
func ValidateAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("amount is not a decimal number")
	}
	if d.IsNegative() || d.IsZero() {
		return errors.New("amount must be positive")
	}
	if d.Exponent() < -2 {
		return errors.New("amount has more than two decimal places")
	}
	return nil
}

// ValidateCard checks a card record before it is stored. Only masked
// data is ever kept, so the checks cover shape, not card numbers.
func ValidateCard(c models.CreditCard) error {
	var errs []string
	if strings.TrimSpace(c.Brand) == "" {
		errs = append(errs, "brand is required")
	}
	if len(c.Last4) != 4 {
		errs = append(errs, "last4 must be four digits")
	} else {
		for _, r := range c.Last4 {
			if r < '0' || r > '9' {
				errs = append(errs, "last4 must be four digits")
				break
			}
		}
	}
	if c.ExpMonth < 1 || c.ExpMonth > 12 {
		errs = append(errs, "exp_month must be 1-12")
	}
	if c.ExpYear < time.Now().UTC().Year() {
		errs = append(errs, "card is expired")
	}
	return joinErrs(errs)
}

// ValidateSurvey checks a survey definition.
func ValidateSurvey(s models.Survey) error {
	var errs []string
	if strings.TrimSpace(s.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(s.Question) == "" {
		errs = append(errs, "question is required")
	}
	if len(s.Options) < 2 {
		errs = append(errs, "at least two options are required")
	}
	for i, opt := range s.Options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, fmt.Sprintf("option %d is empty", i))
		} else if len(opt) > maxOptionLen {
			errs = append(errs, fmt.Sprintf("option %d exceeds %d characters", i, maxOptionLen))
		}
	}
	return joinErrs(errs)
}

// ValidateAnnouncement checks an announcement before it is stored.
func ValidateAnnouncement(a models.Announcement) error {
	var errs []string
	if strings.TrimSpace(a.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(a.Body) == "" {
		errs = append(errs, "body is required")
	} else if len(a.Body) > maxBodyLen {
		errs = append(errs, fmt.Sprintf("body exceeds %d characters", maxBodyLen))
	}
	return joinErrs(errs)
}

// emailish is a shape check, not RFC validation: one @ with something
// on both sides and a dot in the domain.
func emailish(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	if strings.Contains(domain, "@") {
		return false
	}
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
