// Package prompt assembles the grounded system instruction for the model
// session: persona, hard formatting rules, and a digest of the fetched
// records. Composition is ordered and append-only.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/campuslens/campuslens/internal/fetcher"
	"github.com/campuslens/campuslens/internal/models"
	"github.com/campuslens/campuslens/pkg/utils"
)

// persona is the base tone instruction for the assistant.
const persona = `You are CampusLens, a friendly and knowledgeable college advisor for students and parents. You answer questions about college admissions, costs, enrollment, and financial aid using the statistical data provided below. Be concise, warm, and factual. When the data below does not cover a question, say so plainly instead of guessing numbers.`

// formattingRules are hard output constraints. The renderer depends on them:
// no emphasis markup, dash-only bullets, plain-text names.
const formattingRules = `Formatting rules, always:
- Never use asterisks, underscores, or any bold/italic markup. Write plain text only.
- Use dashes (-) for bullet lists.
- Write college names as plain text.`

// comparisonRules instruct the model to emit the pipe-delimited table layout
// the renderer parses, with explicit example rows.
const comparisonRules = `When you discuss two or more colleges together, present the numbers as a table with one column per college, using pipes to separate cells. Example layout:
Metric | College A | College B
Acceptance Rate | 5.2% | 7.9%
Tuition | $62,000 | $58,500
Total Undergraduates | 6,700 | 7,200
Keep the first row as the header row and one metric per row.`

// scholarshipRules dictate the dashed-delimiter block layout the renderer
// re-parses into scholarship cards.
const scholarshipRules = `When you list scholarships, format each one as its own block, surrounded by a line containing only three dashes, exactly like this:
---
SCHOLARSHIP: Example Merit Award
Amount: $10,000 per year
Deadline: January 15
Eligibility: 3.8 GPA, first-year applicants
Type: Merit
More Info: https://example.edu/aid
---
Fill in only the fields you have data for.`

// Input carries everything the composer folds into the system instruction.
type Input struct {
	Fetched          *fetcher.Result
	Page             *models.PageContext
	WantScholarships bool
}

// Composer builds system instructions. SnippetLength bounds the raw-text
// excerpt included per scholarship.
type Composer struct {
	snippetLength int
}

// NewComposer returns a composer. snippetLength <= 0 defaults to 300.
func NewComposer(snippetLength int) *Composer {
	if snippetLength <= 0 {
		snippetLength = 300
	}
	return &Composer{snippetLength: snippetLength}
}

// Compose returns the full system instruction string.
func (c *Composer) Compose(in *Input) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString(formattingRules)
	b.WriteString("\n")

	if in.Fetched != nil && len(in.Fetched.Institutions) >= 2 {
		b.WriteString("\n")
		b.WriteString(comparisonRules)
		b.WriteString("\n")
	}

	if in.Page != nil && in.Page.CollegeName != "" {
		fmt.Fprintf(&b, "\nThe user is currently viewing the %s page for %s.\n",
			pageTypeOrDefault(in.Page.PageType), in.Page.CollegeName)
	}

	if in.Fetched != nil {
		for _, name := range in.Fetched.Order {
			if rec, ok := in.Fetched.Institutions[name]; ok {
				b.WriteString("\n")
				b.WriteString(digestBlock(name, rec))
			}
		}
		if len(in.Fetched.Unmatched) > 0 {
			fmt.Fprintf(&b, "\nNo statistical data is available for: %s. Tell the user you do not have data for these rather than estimating.\n",
				strings.Join(in.Fetched.Unmatched, ", "))
		}
	}

	if in.WantScholarships && in.Fetched != nil {
		for _, name := range in.Fetched.Order {
			scholarships, ok := in.Fetched.Scholarships[name]
			if !ok {
				continue
			}
			b.WriteString("\n")
			b.WriteString(c.scholarshipBlock(name, scholarships))
		}
		if anyScholarships(in.Fetched) {
			b.WriteString("\n")
			b.WriteString(scholarshipRules)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func pageTypeOrDefault(pageType string) string {
	if pageType == "" {
		return "profile"
	}
	return pageType
}

func anyScholarships(r *fetcher.Result) bool {
	for _, list := range r.Scholarships {
		if len(list) > 0 {
			return true
		}
	}
	return false
}

// digestBlock renders one institution's Common Data Set figures as a
// delimited plain-text block. Absent fields are omitted entirely; in
// particular the acceptance rate line only appears when both the applied and
// admitted counts are present.
func digestBlock(name string, rec *models.InstitutionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Data for %s ===\n", name)

	if g := rec.General; g != nil {
		if g.City != "" || g.State != "" {
			fmt.Fprintf(&b, "Location: %s\n", joinNonEmpty(", ", g.City, g.State))
		}
		if g.Website != "" {
			fmt.Fprintf(&b, "Website: %s\n", g.Website)
		}
		if g.Control != "" {
			fmt.Fprintf(&b, "Control: %s\n", g.Control)
		}
	}

	if e := rec.Enrollment; e != nil {
		if e.TotalUndergrad != nil {
			fmt.Fprintf(&b, "Total undergraduate enrollment: %s\n", formatCount(*e.TotalUndergrad))
		}
		if e.TotalGraduate != nil {
			fmt.Fprintf(&b, "Total graduate enrollment: %s\n", formatCount(*e.TotalGraduate))
		}
		if e.RetentionRate != nil {
			fmt.Fprintf(&b, "First-year retention rate: %.1f%%\n", *e.RetentionRate)
		}
	}

	if a := rec.Admissions; a != nil {
		counts := admissionCounts(a)
		if counts != "" {
			fmt.Fprintf(&b, "%s\n", counts)
		}
		if rate, ok := a.AcceptanceRate(); ok {
			fmt.Fprintf(&b, "Acceptance rate: %.1f%%\n", rate)
		}
		if s := scoreTriple(a.SATComposite); s != "" {
			fmt.Fprintf(&b, "SAT composite (25th/50th/75th percentile): %s\n", s)
		}
		if s := scoreTriple(a.ACTComposite); s != "" {
			fmt.Fprintf(&b, "ACT composite (25th/50th/75th percentile): %s\n", s)
		}
	}

	if c := rec.Costs; c != nil {
		if t := c.Tuition(); t != nil {
			fmt.Fprintf(&b, "Tuition: %s\n", formatMoney(*t))
		}
		if c.TuitionInState != nil && c.TuitionOutOfState != nil {
			fmt.Fprintf(&b, "Out-of-state tuition: %s\n", formatMoney(*c.TuitionOutOfState))
		}
		if c.Fees != nil {
			fmt.Fprintf(&b, "Required fees: %s\n", formatMoney(*c.Fees))
		}
		if c.RoomAndBoard != nil {
			fmt.Fprintf(&b, "Room and board: %s\n", formatMoney(*c.RoomAndBoard))
		}
	}

	if f := rec.FinancialAid; f != nil {
		if f.AverageAidPackage != nil {
			fmt.Fprintf(&b, "Average aid package: %s\n", formatMoney(*f.AverageAidPackage))
		}
		if f.PercentNeedMet != nil {
			fmt.Fprintf(&b, "Average percent of need met: %.1f%%\n", *f.PercentNeedMet)
		}
	}

	if rec.Enrollment != nil && rec.Enrollment.StudentFacultyRatio != "" {
		fmt.Fprintf(&b, "Student-faculty ratio: %s\n", rec.Enrollment.StudentFacultyRatio)
	}

	b.WriteString("=== End data ===\n")
	return b.String()
}

// admissionCounts renders the applied/admitted/enrolled line, omitting
// absent counts. Returns "" when all three are absent.
func admissionCounts(a *models.Admissions) string {
	var parts []string
	if a.TotalApplied != nil {
		parts = append(parts, "Applied: "+formatCount(*a.TotalApplied))
	}
	if a.TotalAdmitted != nil {
		parts = append(parts, "Admitted: "+formatCount(*a.TotalAdmitted))
	}
	if a.TotalEnrolled != nil {
		parts = append(parts, "Enrolled: "+formatCount(*a.TotalEnrolled))
	}
	return strings.Join(parts, " | ")
}

// scoreTriple joins the 25th/50th/75th percentiles with "/"; returns "" when
// any percentile is absent.
func scoreTriple(r *models.ScoreRange) string {
	if r == nil || r.P25 == nil || r.P50 == nil || r.P75 == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d/%d", *r.P25, *r.P50, *r.P75)
}

// scholarshipBlock lists an institution's scholarships as a delimited block,
// or the literal no-data sentence when none were found.
func (c *Composer) scholarshipBlock(name string, scholarships []*models.ScholarshipRecord) string {
	if len(scholarships) == 0 {
		return fmt.Sprintf("No scholarships found in our database for %s.\n", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Scholarships for %s ===\n", name)
	for _, s := range scholarships {
		fmt.Fprintf(&b, "- %s", s.Name)
		if s.Amount != "" {
			fmt.Fprintf(&b, " | Amount: %s", s.Amount)
		}
		if s.Deadline != "" {
			fmt.Fprintf(&b, " | Deadline: %s", s.Deadline)
		}
		if len(s.Eligibility) > 0 {
			fmt.Fprintf(&b, " | Eligibility: %s", strings.Join(s.Eligibility, ", "))
		}
		if s.Category != "" {
			fmt.Fprintf(&b, " | Type: %s", s.Category)
		}
		if s.StudentType != "" {
			fmt.Fprintf(&b, " | For: %s students", s.StudentType)
		}
		if s.SourceURL != "" {
			fmt.Fprintf(&b, " | More Info: %s", s.SourceURL)
		}
		b.WriteString("\n")
		if s.RawText != "" {
			snippet := utils.Truncate(utils.CollapseNewlines(s.RawText), c.snippetLength)
			fmt.Fprintf(&b, "  Notes: %s\n", snippet)
		}
	}
	b.WriteString("=== End scholarships ===\n")
	return b.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// formatCount renders an integer with thousands separators (52,303).
func formatCount(n int) string {
	return groupDigits(strconv.Itoa(n))
}

// formatMoney renders a dollar amount with thousands separators, dropping
// cents when the value is whole.
func formatMoney(v float64) string {
	if v == float64(int64(v)) {
		return "$" + groupDigits(strconv.FormatInt(int64(v), 10))
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.Index(s, ".")
	return "$" + groupDigits(s[:dot]) + s[dot:]
}

func groupDigits(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
