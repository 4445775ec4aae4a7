package password

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	upperRe  = regexp.MustCompile(`[A-Z]`)
	lowerRe  = regexp.MustCompile(`[a-z]`)
	digitRe  = regexp.MustCompile(`\d`)
	symbolRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
)

// Policy is the set of enabled strength rules
type Policy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSymbols bool
}

// DefaultPolicy enables every rule with a minimum length of 8
func DefaultPolicy() Policy {
	return Policy{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSymbols: true,
	}
}

// Check returns every violated rule, in a stable order. An empty result
// means the password is acceptable.
func (p Policy) Check(password string) []string {
	var problems []string

	minLen := p.MinLength
	if minLen <= 0 {
		minLen = 8
	}
	if utf8.RuneCountInString(password) < minLen {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters long", minLen))
	}
	if p.RequireUpper && !upperRe.MatchString(password) {
		problems = append(problems, "password must contain at least one uppercase letter")
	}
	if p.RequireLower && !lowerRe.MatchString(password) {
		problems = append(problems, "password must contain at least one lowercase letter")
	}
	if p.RequireNumber && !digitRe.MatchString(password) {
		problems = append(problems, "password must contain at least one number")
	}
	if p.RequireSymbols && !symbolRe.MatchString(password) {
		problems = append(problems, "password must contain at least one special character")
	}
	return problems
}
