package scrapers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/normalize"
	"github.com/dispodojo/agentfinder/internal/property"
)

// GoogleCSE is the last-resort fallback: it searches the configured
// Custom Search Engine for the property address and regexes agent
// name/phone/email/brokerage candidates out of the result snippets.
// Grounded on scrapers/google_search.py.
type GoogleCSE struct {
	svc   *customsearch.Service
	cseID string
}

// NewGoogleCSE builds a GoogleCSE source, or returns (nil, nil) when
// apiKey or cseID is empty — the source is simply omitted from the
// registry rather than registered disabled. httpClient is the shared
// client used by every other source's Gateway; the customsearch SDK
// manages its own request construction, so the Gateway's rate limiter and
// circuit breaker don't wrap this source's calls the way they do the
// HTML/JSON scrapers, and the 0.2 rps set for google_search in
// internal/config is not applied to these calls.
func NewGoogleCSE(ctx context.Context, apiKey, cseID string, httpClient *http.Client) (*GoogleCSE, error) {
	if apiKey == "" || cseID == "" {
		return nil, nil
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey), option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	return &GoogleCSE{svc: svc, cseID: cseID}, nil
}

func (g *GoogleCSE) Name() string { return config.SourceGoogle }

func (g *GoogleCSE) Search(p property.Property) (*property.AgentInfo, error) {
	query := `"` + p.SearchQuery() + `" listing agent real estate`
	call := g.svc.Cse.List().Cx(g.cseID).Q(query).Num(5)
	result, err := call.Do()
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, nil
	}
	return parseGoogleResults(result.Items), nil
}

var (
	phoneSnippetRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailSnippetRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	namePatterns   = []*regexp.Regexp{
		regexp.MustCompile(`[Ll]isted?\s+by\s+([A-Z][a-z]+\s+[A-Z][a-z]+)`),
		regexp.MustCompile(`[Ll]isting\s+[Aa]gent:?\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
		regexp.MustCompile(`[Aa]gent:?\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	}
	brokerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:courtesy of|brokered by|offered by)\s+(.+?)(?:\.|,|$)`),
		regexp.MustCompile(`[A-Z][a-zA-Z\s]+(?:Realty|Real Estate|Properties|Group|Associates|Brokers)`),
	}
	listingSiteMarkers = []string{"redfin.com", "realtor.com", "zillow.com"}
)

func parseGoogleResults(items []*customsearch.Result) *property.AgentInfo {
	var agentName, brokerage, phone, email, listingURL string

	for _, item := range items {
		snippet := item.Snippet
		link := item.Link

		for _, site := range listingSiteMarkers {
			if strings.Contains(link, site) {
				listingURL = link
				break
			}
		}

		if phone == "" {
			if m := phoneSnippetRe.FindString(snippet); m != "" {
				phone = m
			}
		}
		if email == "" {
			if m := emailSnippetRe.FindString(snippet); m != "" {
				email = m
			}
		}
		if agentName == "" {
			for _, re := range namePatterns {
				if m := re.FindStringSubmatch(snippet); m != nil {
					agentName = m[1]
					break
				}
			}
		}
		if brokerage == "" {
			for _, re := range brokerPatterns {
				if m := re.FindStringSubmatch(snippet); m != nil {
					if len(m) > 1 {
						brokerage = strings.TrimSpace(m[1])
					} else {
						brokerage = strings.TrimSpace(m[0])
					}
					break
				}
			}
		}
	}

	if agentName == "" {
		return nil
	}

	return &property.AgentInfo{
		AgentName:  normalize.CleanName(agentName),
		Brokerage:  strings.TrimSpace(brokerage),
		Phone:      CleanPhone(phone),
		Email:      CleanEmail(email),
		Source:     config.SourceGoogle,
		ListingURL: listingURL,
	}
}
