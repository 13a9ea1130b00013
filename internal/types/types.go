package types

import "time"

// Source identifies the county every record is scraped for.
const Source = "Boulder"

// TimestampLayout is the local-time format of CrawlTimestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the CSV header row, in MeetingRecord field order. The County
// column carries Source.
var Header = []string{
	"Title",
	"Date",
	"Location",
	"Meeting Link",
	"HTML_Agenda_Link",
	"PDF_Agenda_Link",
	"Agenda_contents",
	"County",
	"Crawl_Timestamp",
}

// MeetingRecord represents one meeting occurrence scraped from the listing page
type MeetingRecord struct {
	Title          string
	Date           string
	Location       string
	MeetingLink    string
	HtmlAgendaLink string
	PdfAgendaLink  string
	AgendaContents string
	Source         string
	CrawlTimestamp string
}

// Row returns the record's fields in Header order.
func (r MeetingRecord) Row() []string {
	return []string{
		r.Title,
		r.Date,
		r.Location,
		r.MeetingLink,
		r.HtmlAgendaLink,
		r.PdfAgendaLink,
		r.AgendaContents,
		r.Source,
		r.CrawlTimestamp,
	}
}

// CrawlTimestamp formats t the way every record of a run stamps it.
func CrawlTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}
