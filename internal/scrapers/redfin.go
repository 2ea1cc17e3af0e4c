package scrapers

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/gateway"
	"github.com/dispodojo/agentfinder/internal/normalize"
	"github.com/dispodojo/agentfinder/internal/property"
)

// Redfin scrapes Redfin's undocumented Stingray API for listing-agent
// data: a three-step dance of autocomplete → initialInfo →
// belowTheFold. Grounded on scrapers/redfin.py.
type Redfin struct {
	gw *gateway.Gateway
}

// NewRedfin builds a Redfin source against gw.
func NewRedfin(gw *gateway.Gateway) *Redfin { return &Redfin{gw: gw} }

func (r *Redfin) Name() string { return config.SourceRedfin }

func (r *Redfin) Search(p property.Property) (*property.AgentInfo, error) {
	ctx := context.Background()
	queries := normalize.Variants(normalize.AddressParts{
		AddressLine: p.AddressLine,
		RawAddress:  p.RawAddress,
		City:        p.City,
		State:       p.State,
		ZipCode:     p.ZipCode,
	})
	if len(queries) == 0 {
		queries = []string{p.SearchQuery()}
	}

	for _, q := range queries {
		urlPath, err := r.searchProperty(ctx, q)
		if err != nil {
			return nil, err
		}
		if urlPath == "" {
			continue
		}
		propertyID, listingID, err := r.getIDs(ctx, urlPath)
		if err != nil {
			return nil, err
		}
		if propertyID == "" {
			continue
		}
		info, err := r.getAgentDetails(ctx, propertyID, listingID, urlPath)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}
	return nil, nil
}

func stripStingrayPrefix(body []byte) []byte {
	const prefix = "{}&&"
	if strings.HasPrefix(string(body), prefix) {
		return body[len(prefix):]
	}
	return body
}

func (r *Redfin) searchProperty(ctx context.Context, query string) (string, error) {
	url := config.RedfinStingrayBase + "/do/location-autocomplete"
	headers := gateway.APIHeaders()
	headers.Set("Referer", config.RedfinBaseURL)
	params := map[string]string{
		"location": query, "start": "0", "count": "5", "v": "2",
		"al": "1", "iss": "false", "ooa": "true", "mrs": "false",
	}

	resp, body, err := r.gw.Get(ctx, url, headers, params)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", nil
	}

	var data map[string]any
	if err := sonic.Unmarshal(stripStingrayPrefix(body), &data); err != nil {
		return "", fmt.Errorf("redfin autocomplete: malformed response: %w", err)
	}
	payload, _ := data["payload"].(map[string]any)
	if payload == nil {
		return "", nil
	}
	if exact, ok := payload["exactMatch"].(map[string]any); ok {
		if u, ok := exact["url"].(string); ok && u != "" {
			return u, nil
		}
	}
	sections, _ := payload["sections"].([]any)
	for _, s := range sections {
		section, _ := s.(map[string]any)
		rows, _ := section["rows"].([]any)
		for _, rw := range rows {
			row, _ := rw.(map[string]any)
			if typ, _ := row["type"].(string); typ == "1" {
				if u, ok := row["url"].(string); ok && u != "" {
					return u, nil
				}
			}
		}
	}
	return "", nil
}

func (r *Redfin) getIDs(ctx context.Context, urlPath string) (string, string, error) {
	url := config.RedfinStingrayBase + "/api/home/details/initialInfo"
	headers := gateway.APIHeaders()
	headers.Set("Referer", config.RedfinBaseURL+urlPath)

	resp, body, err := r.gw.Get(ctx, url, headers, map[string]string{"path": urlPath})
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != 200 {
		return "", "", nil
	}

	var data map[string]any
	if err := sonic.Unmarshal(stripStingrayPrefix(body), &data); err != nil {
		return "", "", fmt.Errorf("redfin initialInfo: malformed response: %w", err)
	}
	payload, _ := data["payload"].(map[string]any)
	propertyID := stringify(payload["propertyId"])
	listingID := stringify(payload["listingId"])
	return propertyID, listingID, nil
}

func (r *Redfin) getAgentDetails(ctx context.Context, propertyID, listingID, urlPath string) (*property.AgentInfo, error) {
	url := config.RedfinStingrayBase + "/api/home/details/belowTheFold"
	headers := gateway.APIHeaders()
	headers.Set("Referer", config.RedfinBaseURL)
	params := map[string]string{"propertyId": propertyID}
	if listingID != "" {
		params["listingId"] = listingID
	}

	resp, body, err := r.gw.Get(ctx, url, headers, params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, nil
	}

	var data map[string]any
	if err := sonic.Unmarshal(stripStingrayPrefix(body), &data); err != nil {
		return nil, fmt.Errorf("redfin belowTheFold: malformed response: %w", err)
	}
	payload, _ := data["payload"].(map[string]any)
	if payload == nil {
		return nil, nil
	}
	return extractRedfinAgent(payload, urlPath), nil
}

// extractRedfinAgent probes every documented path in order, matching
// redfin.py's _extract_agent_from_payload exactly.
func extractRedfinAgent(payload map[string]any, urlPath string) *property.AgentInfo {
	var agentName, brokerage, phone, listDate, daysOnMarket string

	if broker, ok := payload["listingBroker"].(map[string]any); ok && broker != nil {
		agentName = stringify(broker["listingAgentName"])
		brokerage = firstNonEmpty(stringify(broker["brokerName"]), stringify(broker["listingBrokerName"]))
		phone = firstNonEmpty(stringify(broker["listingAgentPhone"]), stringify(broker["brokerPhone"]))
		listDate = stringify(broker["listingDate"])
	}

	history, _ := payload["propertyHistoryInfo"].(map[string]any)
	events, _ := history["events"].([]any)

	if agentName == "" {
		for _, e := range events {
			event, _ := e.(map[string]any)
			if isListedEvent(stringify(event["eventType"])) {
				agentName = stringify(event["listingAgentName"])
				brokerage = stringify(event["listingBrokerName"])
				if listDate == "" {
					listDate = stringify(event["eventDate"])
				}
				break
			}
		}
	}
	if listDate == "" {
		for _, e := range events {
			event, _ := e.(map[string]any)
			if isListedEvent(stringify(event["eventType"])) {
				listDate = stringify(event["eventDate"])
				break
			}
		}
	}

	mainInfo, _ := payload["mainHouseInfo"].(map[string]any)
	if agentName == "" {
		agentName = stringify(mainInfo["listingAgentName"])
		brokerage = stringify(mainInfo["listingBrokerName"])
	}
	if daysOnMarket == "" {
		dom := firstNonEmpty(stringify(mainInfo["daysOnMarket"]), stringify(mainInfo["timeOnRedfin"]))
		daysOnMarket = dom
	}

	if agentName == "" {
		pr, _ := payload["publicRecordsInfo"].(map[string]any)
		agentName = stringify(pr["listingAgentName"])
		brokerage = stringify(pr["listingBrokerName"])
	}

	if agentName == "" {
		atf, _ := payload["aboveTheFoldInfo"].(map[string]any)
		agentName = stringify(atf["listingAgentName"])
		brokerage = stringify(atf["listingBrokerName"])
		if agentName == "" {
			if atfBroker, ok := atf["listingBroker"].(map[string]any); ok && atfBroker != nil {
				agentName = stringify(atfBroker["listingAgentName"])
				brokerage = stringify(atfBroker["brokerName"])
			}
		}
	}

	if agentName == "" {
		if listingAgent, ok := payload["listingAgent"].(map[string]any); ok && listingAgent != nil {
			agentName = firstNonEmpty(stringify(listingAgent["name"]), stringify(listingAgent["agentName"]))
			if p := stringify(listingAgent["phone"]); p != "" {
				phone = p
			}
			if o := stringify(listingAgent["officeName"]); o != "" {
				brokerage = o
			}
		}
	}

	if agentName == "" {
		return nil
	}

	if daysOnMarket == "" && listDate != "" {
		daysOnMarket = ComputeDaysOnMarket(listDate)
	}

	priceVal := firstNonEmpty(
		stringify(payload["listingPrice"]), stringify(payload["price"]),
		stringify(mainInfo["listingPrice"]), stringify(mainInfo["price"]),
	)
	if atf, ok := payload["aboveTheFoldInfo"].(map[string]any); ok {
		priceVal = firstNonEmpty(priceVal, stringify(atf["price"]), stringify(atf["listingPrice"]))
	}
	listingPrice := formatRedfinPrice(priceVal)

	listingURL := ""
	if urlPath != "" {
		listingURL = config.RedfinBaseURL + urlPath
	}

	return &property.AgentInfo{
		AgentName:    normalize.CleanName(agentName),
		Brokerage:    strings.TrimSpace(brokerage),
		Phone:        CleanPhone(phone),
		Source:       config.SourceRedfin,
		ListingURL:   listingURL,
		ListDate:     listDate,
		DaysOnMarket: daysOnMarket,
		ListingPrice: listingPrice,
	}
}

func isListedEvent(eventType string) bool {
	switch eventType {
	case "Listed", "listed", "Listing":
		return true
	default:
		return false
	}
}

func formatRedfinPrice(raw string) string {
	if raw == "" {
		return ""
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err == nil {
		return FormatPrice(n)
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
