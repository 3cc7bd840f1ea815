package rosterimport

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"trainingops/internal/domain/person"
)

// DefaultSyntheticEmailDomain is the address domain used for identifier-based
// addresses when the caller does not configure one.
const DefaultSyntheticEmailDomain = "staff.local"

// Fixed column positions of the specialized personnel-list export.
const (
	specIndexCol      = 0
	specNameCol       = 1
	specCodeCol       = 2
	specPositionCol   = 3
	specTerritoryCol  = 4
	specExperienceCol = 5
	specEmailCol      = 6
	specPhoneCol      = 7
	specApprovalCol   = 8
)

// minSpecializedNameRunes filters separator rows such as "Итого" or single letters.
const minSpecializedNameRunes = 3

// Options tunes row normalization.
type Options struct {
	// SyntheticEmailDomain is appended to identifier codes of specialized rows
	// that carry no address of their own.
	SyntheticEmailDomain string
}

func (o Options) emailDomain() string {
	if d := strings.TrimSpace(o.SyntheticEmailDomain); d != "" {
		return strings.TrimPrefix(d, "@")
	}
	return DefaultSyntheticEmailDomain
}

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	leadingIndexRe = regexp.MustCompile(`^\d+\.?$`)
	floatTailRe    = regexp.MustCompile(`^(\d+)\.0+$`)
)

// NormalizeRow turns one raw row into a Candidate.
// PRE: rowNum is the 1-based sheet row number used in error reporting
// POST: ok=false means the row is not data (blank, separator) and must be dropped silently;
//
//	otherwise the candidate carries either Status=StatusNew or Status=StatusError with a reason.
func NormalizeRow(row RawRow, rowNum int, mapping ColumnMapping, layout Layout, opts Options) (Candidate, bool) {
	if isBlank(row) {
		return Candidate{}, false
	}
	if layout == LayoutSpecialized {
		return normalizeSpecialized(row, rowNum, opts)
	}
	return normalizeGeneric(row, rowNum, mapping, opts), true
}

func normalizeGeneric(row RawRow, rowNum int, mapping ColumnMapping, opts Options) Candidate {
	get := func(f Field) string {
		idx, ok := mapping.Column(f)
		if !ok {
			return ""
		}
		return cell(row, idx)
	}

	c := Candidate{
		Row:            rowNum,
		FullName:       get(FieldFullName),
		IdentifierCode: normalizeCode(get(FieldIdentifierCode)),
		Email:          normalizeEmail(get(FieldEmail)),
		PositionLabel:  get(FieldPosition),
		TerritoryLabel: get(FieldTerritory),
		ExperienceDays: parseDays(get(FieldExperienceDays)),
		Phone:          normalizePhone(get(FieldPhone)),
	}
	return Revalidate(c, opts)
}

func normalizeSpecialized(row RawRow, rowNum int, opts Options) (Candidate, bool) {
	if !leadingIndexRe.MatchString(cell(row, specIndexCol)) {
		return Candidate{}, false
	}
	name := cell(row, specNameCol)
	if countLetters(name) < minSpecializedNameRunes {
		return Candidate{}, false
	}

	c := Candidate{
		Row:            rowNum,
		FullName:       name,
		IdentifierCode: normalizeCode(cell(row, specCodeCol)),
		Email:          normalizeEmail(cell(row, specEmailCol)),
		PositionLabel:  cell(row, specPositionCol),
		TerritoryLabel: cell(row, specTerritoryCol),
		ExperienceDays: parseDays(cell(row, specExperienceCol)),
		Phone:          normalizePhone(cell(row, specPhoneCol)),
		Specialized:    true,
		ApprovalStatus: cell(row, specApprovalCol),
	}
	return Revalidate(c, opts), true
}

// Validate checks the required-field rules for a candidate.
// PRE: none
// POST: returns nil or a *RowValidationError naming the first violated rule
func Validate(c Candidate) error {
	if strings.TrimSpace(c.FullName) == "" {
		return &RowValidationError{Row: c.Row, Message: "full name is required"}
	}
	if utf8.RuneCountInString(c.FullName) > person.MaxNameLength {
		return &RowValidationError{Row: c.Row, Message: fmt.Sprintf("full name exceeds %d characters", person.MaxNameLength)}
	}
	if utf8.RuneCountInString(c.IdentifierCode) > person.MaxCodeLength {
		return &RowValidationError{Row: c.Row, Message: fmt.Sprintf("identifier code exceeds %d characters", person.MaxCodeLength)}
	}
	if c.Specialized {
		if c.IdentifierCode == "" {
			return &RowValidationError{Row: c.Row, Message: "identifier code is required"}
		}
	} else if c.IdentifierCode == "" && c.Email == "" {
		return &RowValidationError{Row: c.Row, Message: "identifier code or email is required"}
	}
	if c.Email != "" && !validEmail(c.Email) {
		return &RowValidationError{Row: c.Row, Message: "invalid email: " + c.Email}
	}
	return nil
}

// Revalidate re-runs Validate and resets ValidationError and Status accordingly.
// Valid specialized candidates without an address get the identifier-based one.
// PRE: c may have been edited by an operator after preview
// POST: a fixed candidate loses its error and becomes StatusNew; a broken one becomes StatusError
func Revalidate(c Candidate, opts Options) Candidate {
	c.FullName = cleanCell(c.FullName)
	c.IdentifierCode = normalizeCode(c.IdentifierCode)
	c.Email = normalizeEmail(c.Email)
	if err := Validate(c); err != nil {
		msg := err.Error()
		var rv *RowValidationError
		if errors.As(err, &rv) {
			msg = rv.Message
		}
		c.ValidationError = msg
		c.Status = StatusError
		c.PersonID = ""
		return c
	}
	c.ValidationError = ""
	if c.Specialized && c.Email == "" {
		c.Email = c.IdentifierCode + "@" + opts.emailDomain()
	}
	if c.Status != StatusExisting {
		c.Status = StatusNew
	}
	return c
}

func validEmail(s string) bool {
	if !emailPattern.MatchString(s) {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && strings.EqualFold(addr.Address, s)
}

func normalizeEmail(s string) string {
	return strings.ToLower(cleanCell(s))
}

// normalizeCode strips whitespace and spreadsheet float artefacts ("50161090.0").
func normalizeCode(s string) string {
	s = strings.Join(strings.Fields(cleanCell(s)), "")
	if m := floatTailRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// normalizePhone keeps digits and a leading plus sign; other punctuation is dropped.
func normalizePhone(s string) string {
	s = cleanCell(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseDays coerces an experience cell to whole days. Anything unparseable is 0.
func parseDays(s string) int {
	s = strings.ReplaceAll(cleanCell(s), ",", ".")
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > 1e9 {
		return 0
	}
	return int(f)
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
