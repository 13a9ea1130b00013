// Package extractor turns the rendered meetings calendar into MeetingRecords.
//
// Traversal is single-pass and best effort: the past-meetings container must
// exist, but a grouping or entry that cannot be read is logged and skipped
// without affecting its siblings.
package extractor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/meetings/internal/dom"
	"github.com/go-scripts/meetings/internal/types"
)

// TitleCutoff marks where the weekday suffix starts in a meeting heading.
// Everything from its first occurrence onward is dropped.
const TitleCutoff = "Thursday"

// PreviewLength is how much page markup is logged when the container is missing.
const PreviewLength = 1000

// ErrContainerNotFound is returned when the past-meetings region is absent.
var ErrContainerNotFound = errors.New("past meetings region not found")

// Stats counts what the traversal saw and skipped.
type Stats struct {
	Groupings         int
	GroupingsFailed   int
	Entries           int
	EntriesFailed     int
	HTMLAgendaMissing int
	PDFAgendaMissing  int
}

// Result holds the records of one extraction in page order.
type Result struct {
	Records []types.MeetingRecord
	Stats   Stats
}

// Extractor walks a page with a fixed selector table.
type Extractor struct {
	selectors Selectors
	logger    *log.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSelectors overrides the default selector table.
func WithSelectors(s Selectors) Option {
	return func(x *Extractor) { x.selectors = s }
}

// WithLogger sets the logger used for progress and skipped items.
func WithLogger(l *log.Logger) Option {
	return func(x *Extractor) {
		if l != nil {
			x.logger = l
		}
	}
}

// New creates an Extractor for the eScribe calendar layout.
func New(opts ...Option) *Extractor {
	x := &Extractor{
		selectors: DefaultSelectors(),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// CleanTitle strips the weekday suffix from a meeting heading.
func CleanTitle(raw string) string {
	title, _, _ := strings.Cut(raw, TitleCutoff)
	return strings.TrimSpace(title)
}

// Extract reads every meeting on page. All records share crawledAt as their
// CrawlTimestamp. The only error is a missing container; the result may
// still hold zero records when it is nil.
func (x *Extractor) Extract(page *dom.Page, crawledAt time.Time) (*Result, error) {
	result := &Result{Records: make([]types.MeetingRecord, 0)}
	stamp := types.CrawlTimestamp(crawledAt)

	region, err := page.FindOne(x.selectors.Container)
	if err != nil {
		x.logger.Error("Error finding meetings region", "err", err)
		x.logger.Error("Page source preview", "html", page.Preview(PreviewLength))
		return result, fmt.Errorf("%w: %v", ErrContainerNotFound, err)
	}
	x.logger.Info("Found past meetings region")

	groupings, err := region.FindAll(x.selectors.Groupings)
	if err != nil {
		x.logger.Error("Error finding meeting type lists", "err", err)
		return result, fmt.Errorf("%w: %v", ErrContainerNotFound, err)
	}
	x.logger.Info("Found meeting type lists", "count", len(groupings))

	for i, grouping := range groupings {
		result.Stats.Groupings++
		if err := x.extractGrouping(grouping, stamp, result); err != nil {
			result.Stats.GroupingsFailed++
			x.logger.Warn("Error processing meeting list", "list", i, "err", err)
			continue
		}
	}

	x.logger.Info("Total meetings scraped", "count", len(result.Records))
	return result, nil
}

func (x *Extractor) extractGrouping(grouping *dom.Element, stamp string, result *Result) error {
	entries, err := grouping.FindAll(x.selectors.Entries)
	if err != nil {
		return fmt.Errorf("find meetings: %w", err)
	}
	x.logger.Info("Found meetings in list", "count", len(entries))

	for i, entry := range entries {
		result.Stats.Entries++
		record, err := x.extractEntry(entry, stamp, &result.Stats)
		if err != nil {
			result.Stats.EntriesFailed++
			x.logger.Warn("Error scraping individual meeting", "entry", i, "err", err)
			continue
		}
		result.Records = append(result.Records, record)
		x.logger.Info("Successfully scraped meeting", "title", record.Title)
	}
	return nil
}

func (x *Extractor) extractEntry(entry *dom.Element, stamp string, stats *Stats) (types.MeetingRecord, error) {
	anchor, err := entry.FindOne(x.selectors.Title)
	if err != nil {
		return types.MeetingRecord{}, fmt.Errorf("title: %w", err)
	}
	date, err := entry.FindOne(x.selectors.Date)
	if err != nil {
		return types.MeetingRecord{}, fmt.Errorf("date: %w", err)
	}
	location, err := entry.FindOne(x.selectors.Location)
	if err != nil {
		return types.MeetingRecord{}, fmt.Errorf("location: %w", err)
	}
	link, ok := anchor.Attribute("href")
	if !ok {
		return types.MeetingRecord{}, fmt.Errorf("meeting link: title anchor has no href")
	}

	htmlAgenda, found := x.agendaLink(entry, x.selectors.HTMLAgenda)
	if !found {
		stats.HTMLAgendaMissing++
		x.logger.Info("Could not find HTML agenda link", "meeting", link)
	}
	pdfAgenda, found := x.agendaLink(entry, x.selectors.PDFAgenda)
	if !found {
		stats.PDFAgendaMissing++
		x.logger.Info("Could not find PDF agenda link", "meeting", link)
	}

	return types.MeetingRecord{
		Title:          CleanTitle(anchor.Text()),
		Date:           date.Text(),
		Location:       location.Text(),
		MeetingLink:    link,
		HtmlAgendaLink: htmlAgenda,
		PdfAgendaLink:  pdfAgenda,
		AgendaContents: "",
		Source:         types.Source,
		CrawlTimestamp: stamp,
	}, nil
}

// agendaLink returns the href of the first anchor matching loc. A miss is
// normal for meetings without a published agenda.
func (x *Extractor) agendaLink(entry *dom.Element, loc dom.Locator) (string, bool) {
	anchor, err := entry.FindOne(loc)
	if err != nil {
		return "", false
	}
	href, ok := anchor.Attribute("href")
	if !ok {
		return "", false
	}
	return href, true
}
