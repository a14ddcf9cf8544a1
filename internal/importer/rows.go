package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Column keys used in Row.Errors.
const (
	ColName           = "name"
	ColEmail          = "email"
	ColEmployeeID     = "employeeId"
	ColDepartment     = "department"
	ColCampus         = "campus"
	ColPhone          = "phone"
	ColSubject        = "subject"
	ColSubjects       = "subjects"
	ColMaxHoursPerDay = "maxHoursPerDay"
)

// RequiredColumns must be present in every roster.
var RequiredColumns = []string{ColName, ColEmail, ColEmployeeID, ColCampus, ColDepartment}

// headerAliases maps a normalized header (lowercase, no spaces, underscores or dashes) to
// its column key.
var headerAliases = map[string]string{
	"name":           ColName,
	"fullname":       ColName,
	"facultyname":    ColName,
	"email":          ColEmail,
	"emailaddress":   ColEmail,
	"mail":           ColEmail,
	"employeeid":     ColEmployeeID,
	"empid":          ColEmployeeID,
	"employeeno":     ColEmployeeID,
	"employeenumber": ColEmployeeID,
	"department":     ColDepartment,
	"dept":           ColDepartment,
	"campus":         ColCampus,
	"phone":          ColPhone,
	"phonenumber":    ColPhone,
	"mobile":         ColPhone,
	"contact":        ColPhone,
	"subject":        ColSubject,
	"subjects":       ColSubjects,
	"maxhoursperday": ColMaxHoursPerDay,
	"maxhours":       ColMaxHoursPerDay,
}

var validate = validator.New()

// Row is one parsed roster line. Line is the 1-based line in the source file.
type Row struct {
	Line           int               `json:"row"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	EmployeeID     string            `json:"employeeId"`
	Department     string            `json:"department"`
	Campus         string            `json:"campus"`
	Phone          string            `json:"phone,omitempty"`
	Subject        string            `json:"subject,omitempty"`
	Subjects       []string          `json:"subjects,omitempty"`
	MaxHoursPerDay int               `json:"maxHoursPerDay,omitempty"`
	Valid          bool              `json:"valid"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// MissingColumnsError lists required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// Read parses a roster file. The format is chosen from filename's extension. Blank lines
// are skipped. Within the file, a row repeating the employee id or email of an earlier row
// is marked invalid.
func Read(filename string, r io.Reader) ([]Row, error) {
	tbl, err := readTable(filename, r)
	if err != nil {
		return nil, err
	}

	index := indexHeader(tbl.header)
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	seenEmployeeIDs := make(map[string]int)
	seenEmails := make(map[string]int)
	rows := make([]Row, 0, len(tbl.records))

	for i, record := range tbl.records {
		if blank(record) {
			continue
		}
		row := buildRow(tbl.lines[i], record, index)

		if row.EmployeeID != "" {
			if first, dup := seenEmployeeIDs[row.EmployeeID]; dup {
				row.addError(ColEmployeeID, fmt.Sprintf("duplicate in file (row %d)", first))
			} else {
				seenEmployeeIDs[row.EmployeeID] = row.Line
			}
		}
		if row.Email != "" {
			if first, dup := seenEmails[row.Email]; dup {
				row.addError(ColEmail, fmt.Sprintf("duplicate in file (row %d)", first))
			} else {
				seenEmails[row.Email] = row.Line
			}
		}
		row.Valid = len(row.Errors) == 0
		rows = append(rows, row)
	}
	return rows, nil
}

// NormalizeHeader lowercases h and strips spaces, underscores and dashes.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func indexHeader(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		col, ok := headerAliases[NormalizeHeader(h)]
		if !ok {
			continue
		}
		if _, taken := index[col]; !taken {
			index[col] = i
		}
	}
	return index
}

func buildRow(line int, record []string, index map[string]int) Row {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := Row{
		Line:       line,
		Name:       cell(ColName),
		Email:      strings.ToLower(cell(ColEmail)),
		EmployeeID: cell(ColEmployeeID),
		Department: cell(ColDepartment),
		Campus:     cell(ColCampus),
		Phone:      cell(ColPhone),
		Subject:    cell(ColSubject),
		Subjects:   splitList(cell(ColSubjects)),
	}

	for _, col := range RequiredColumns {
		if cell(col) == "" {
			row.addError(col, "required")
		}
	}
	if row.Email != "" && validate.Var(row.Email, "email") != nil {
		row.addError(ColEmail, "invalid email")
	}
	if raw := cell(ColMaxHoursPerDay); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 1 || hours > 24 {
			row.addError(ColMaxHoursPerDay, "must be a whole number between 1 and 24")
		} else {
			row.MaxHoursPerDay = hours
		}
	}
	if row.Subject == "" && len(row.Subjects) > 0 {
		row.Subject = row.Subjects[0]
	}
	return row
}

func (r *Row) addError(col, msg string) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	if _, exists := r.Errors[col]; !exists {
		r.Errors[col] = msg
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
