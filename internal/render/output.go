package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samvad-hq/samvad-blog-client/internal/domain"
	"github.com/samvad-hq/samvad-blog-client/internal/storage"
	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"

	listExcerptRunes   = 60
	detailExcerptRunes = 400
)

// Message is a plain acknowledgement for commands without a resource result.
type Message struct {
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Write prints v to w in the requested format.
func Write(w io.Writer, format string, v any) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatText:
		return writeText(w, v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeText(w io.Writer, v any) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	switch val := v.(type) {
	case Message:
		if val.Detail != "" {
			fmt.Fprintf(tw, "%s: %s\n", val.Status, val.Detail)
		} else {
			fmt.Fprintln(tw, val.Status)
		}
	case *domain.User:
		writeUser(tw, val)
	case []domain.User:
		fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tROLE\tACTIVE")
		for _, u := range val {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Username, fullName(u), u.Role, u.IsActive)
		}
	case *domain.Blog:
		writeBlog(tw, val)
	case []domain.Blog:
		fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tTAGS\tCREATED\tEXCERPT")
		for _, b := range val {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author.Username, tagNames(b.Tags),
				formatTime(b.CreatedAt.Time), Excerpt(b.Content, listExcerptRunes))
		}
	case *domain.Comment:
		fmt.Fprintf(tw, "ID\t%d\nBLOG\t%d\nAUTHOR\t%s\nCREATED\t%s\nCONTENT\t%s\n",
			val.ID, val.BlogID, val.Author.Username, formatTime(val.CreatedAt.Time), Excerpt(val.Content, 0))
	case []domain.Comment:
		fmt.Fprintln(tw, "ID\tAUTHOR\tCREATED\tCONTENT")
		for _, c := range val {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Author.Username, formatTime(c.CreatedAt.Time), Excerpt(c.Content, listExcerptRunes))
		}
	case []storage.SessionInfo:
		fmt.Fprintln(tw, "PROFILE\tCOOKIES\tEXPIRES")
		for _, si := range val {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", si.Profile, si.Cookies, formatTime(si.ExpiresAt))
		}
	default:
		fmt.Fprintf(tw, "%+v\n", v)
	}
	return tw.Flush()
}

func writeUser(w io.Writer, u *domain.User) {
	fmt.Fprintf(w, "ID\t%d\nUSERNAME\t%s\nNAME\t%s\nEMAIL\t%s\nROLE\t%s\nACTIVE\t%t\n",
		u.ID, u.Username, fullName(*u), u.Email, u.Role, u.IsActive)
	if u.LastLogin != nil {
		fmt.Fprintf(w, "LAST LOGIN\t%s\n", formatTime(u.LastLogin.Time))
	}
	fmt.Fprintf(w, "CREATED\t%s\n", formatTime(u.CreatedAt.Time))
}

func writeBlog(w io.Writer, b *domain.Blog) {
	fmt.Fprintf(w, "ID\t%d\nTITLE\t%s\nAUTHOR\t%s\nTAGS\t%s\nCREATED\t%s\nUPDATED\t%s\n",
		b.ID, b.Title, b.Author.Username, tagNames(b.Tags), formatTime(b.CreatedAt.Time), formatTime(b.UpdatedAt.Time))
	if img := FirstImage(b.Content); img != "" {
		fmt.Fprintf(w, "IMAGE\t%s\n", img)
	}
	fmt.Fprintf(w, "CONTENT\t%s\n", Excerpt(b.Content, detailExcerptRunes))
}

func fullName(u domain.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func tagNames(tags []domain.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ",")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
