package extractor

import "github.com/go-scripts/meetings/internal/dom"

// Selectors maps every logical field of the listing page to its locator.
// Entry-level locators are evaluated relative to one entry element.
type Selectors struct {
	Container  dom.Locator
	Groupings  dom.Locator
	Entries    dom.Locator
	Title      dom.Locator
	Date       dom.Locator
	Location   dom.Locator
	HTMLAgenda dom.Locator
	PDFAgenda  dom.Locator
}

// DefaultSelectors returns the locators for the eScribe meetings calendar.
func DefaultSelectors() Selectors {
	return Selectors{
		Container:  dom.ClassName("past-meetings-region"),
		Groupings:  dom.ClassName("MeetingTypeList"),
		Entries:    dom.CSS("div.Year0 > div"),
		Title:      dom.CSS("div:nth-child(2) > div:nth-child(1) > h3 > a"),
		Date:       dom.CSS("div:nth-child(2) > div:nth-child(2) > div:nth-child(1) > div:nth-child(1)"),
		Location:   dom.CSS("div:nth-child(2) > div:nth-child(2) > div:nth-child(1) > div:nth-child(2)"),
		HTMLAgenda: dom.CSS(`a[aria-label*="HTML Agenda"]`),
		PDFAgenda:  dom.CSS(`a[aria-label*="PDF Agenda for Board of County Commissioners"]`),
	}
}
