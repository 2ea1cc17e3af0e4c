package resolve

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/dispodojo/agentfinder/internal/gateway"
	"github.com/dispodojo/agentfinder/internal/property"
	"github.com/dispodojo/agentfinder/internal/scrapers"
)

// nationalBrokerageSearchURLs maps a brokerage-name substring to an
// agent-search URL prefix, tried as a best-effort profile lookup when an
// agent has a brokerage but no phone or email. Grounded on
// enrichment.py's _search_brokerage_site.
var nationalBrokerageSearchURLs = map[string]string{
	"keller williams":    "https://www.kw.com/agent/search?q=",
	"coldwell banker":    "https://www.coldwellbanker.com/agent/search?q=",
	"re/max":             "https://www.remax.com/real-estate-agents/search?q=",
	"century 21":         "https://www.century21.com/real-estate-agents/search?q=",
	"compass":            "https://www.compass.com/agents/?q=",
	"sotheby":            "https://www.sothebysrealty.com/eng/associates?q=",
	"exp realty":         "https://www.exprealty.com/agents.html?search=",
	"berkshire hathaway": "https://www.bhhs.com/agent-search?q=",
}

// brokerageEmailDomains maps a brokerage-name substring to the domain
// used for a first.last@domain email guess. Grounded on enrichment.py's
// _guess_email.
var brokerageEmailDomains = map[string]string{
	"keller williams":    "kw.com",
	"coldwell banker":    "cbexchange.com",
	"re/max":             "remax.net",
	"century 21":         "century21.com",
	"compass":            "compass.com",
	"sotheby":            "sothebysrealty.com",
	"exp realty":         "exprealty.com",
	"berkshire hathaway": "bhhsmail.com",
	"douglas elliman":    "elliman.com",
}

var enrichPhoneRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
var enrichEmailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
var skipEmailPrefixes = []string{"info@", "support@", "admin@", "webmaster@", "noreply@", "contact@"}
var nonLowerLetterRe = regexp.MustCompile(`[^a-z]`)

// EnrichContactInfo fills in a missing phone or email on an otherwise
// complete AgentInfo, trying a national-brokerage profile-page scrape
// first and a common email-pattern guess second. Returns info unchanged
// if it already has both a phone and an email, or has no brokerage to
// work from. Grounded
// on enrichment.py's enrich_contact_info.
func EnrichContactInfo(ctx context.Context, info property.AgentInfo, client *http.Client) property.AgentInfo {
	if (info.Phone != "" && info.Email != "") || info.Brokerage == "" {
		return info
	}

	enriched := info

	if enriched.Phone == "" || enriched.Email == "" {
		if profile := searchBrokerageSite(ctx, info.AgentName, info.Brokerage, client); profile != nil {
			if enriched.Phone == "" && profile.phone != "" {
				enriched.Phone = scrapers.CleanPhone(profile.phone)
			}
			if enriched.Email == "" && profile.email != "" {
				enriched.Email = scrapers.CleanEmail(profile.email)
			}
		}
	}

	if enriched.Email == "" {
		if guessed := guessEmail(info.AgentName, info.Brokerage); guessed != "" {
			enriched.Email = guessed
		}
	}

	if enriched.Phone != info.Phone || enriched.Email != info.Email {
		enriched.Source = info.Source + "+enriched"
	}
	return enriched
}

type brokerageProfile struct {
	phone string
	email string
}

func searchBrokerageSite(ctx context.Context, agentName, brokerage string, client *http.Client) *brokerageProfile {
	brokerageLower := strings.ToLower(brokerage)
	var searchURL string
	for key, prefix := range nationalBrokerageSearchURLs {
		if strings.Contains(brokerageLower, key) {
			agentQuery := strings.ReplaceAll(agentName, " ", "+")
			searchURL = prefix + agentQuery
			break
		}
	}
	if searchURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil
	}
	headers := gateway.BrowserHeaders()
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return extractContactFromHTML(string(body))
}

func extractContactFromHTML(html string) *brokerageProfile {
	var profile brokerageProfile
	if m := enrichPhoneRe.FindString(html); m != "" {
		profile.phone = m
	}
	for _, m := range enrichEmailRe.FindAllString(html, -1) {
		lower := strings.ToLower(m)
		skip := false
		for _, prefix := range skipEmailPrefixes {
			if strings.HasPrefix(lower, prefix) {
				skip = true
				break
			}
		}
		if !skip {
			profile.email = m
			break
		}
	}
	if profile.phone == "" && profile.email == "" {
		return nil
	}
	return &profile
}

func guessEmail(agentName, brokerage string) string {
	parts := strings.Fields(strings.ToLower(agentName))
	if len(parts) < 2 {
		return ""
	}
	first := nonLowerLetterRe.ReplaceAllString(parts[0], "")
	last := nonLowerLetterRe.ReplaceAllString(parts[len(parts)-1], "")
	if first == "" || last == "" {
		return ""
	}

	brokerageLower := strings.ToLower(brokerage)
	var domain string
	for key, d := range brokerageEmailDomains {
		if strings.Contains(brokerageLower, key) {
			domain = d
			break
		}
	}
	if domain == "" {
		return ""
	}
	return first + "." + last + "@" + domain
}
