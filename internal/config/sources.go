package config

import (
	"time"

	"github.com/dispodojo/agentfinder/internal/gateway"
)

// Source names, matching config.py's SourceConfig.name values exactly —
// they appear verbatim in AgentInfo.Source provenance tags and in cache
// failure ledgers.
const (
	SourceRedfin      = "redfin"
	SourceHomeHarvest = "homeharvest"
	SourceRealtor     = "realtor"
	SourceZillow      = "zillow"
	SourceGoogle      = "google_search"

	SourceFSBOCom         = "fsbo.com"
	SourceForSaleByOwner  = "forsalebyowner.com"
	SourceZillowFSBO      = "zillow_fsbo"
	SourceRealtorFSBO     = "realtor_fsbo"
	SourceCraigslist      = "craigslist"
)

// DefaultSourceConfigs mirrors config.py's per-source SourceConfig values
// exactly (rps, concurrency, retries, timeout).
func DefaultSourceConfigs() map[string]gateway.Config {
	return map[string]gateway.Config{
		SourceRedfin: {
			Name: SourceRedfin, Enabled: true,
			RequestsPerSecond: 2.0, MaxConcurrent: 5, MaxRetries: 3, Timeout: 30 * time.Second,
		},
		SourceHomeHarvest: {
			Name: SourceHomeHarvest, Enabled: true,
			RequestsPerSecond: 1.0, MaxConcurrent: 3, MaxRetries: 2, Timeout: 45 * time.Second,
		},
		SourceRealtor: {
			Name: SourceRealtor, Enabled: true,
			RequestsPerSecond: 0.5, MaxConcurrent: 3, MaxRetries: 2, Timeout: 30 * time.Second,
		},
		SourceZillow: {
			Name: SourceZillow, Enabled: true,
			RequestsPerSecond: 0.5, MaxConcurrent: 2, MaxRetries: 2, Timeout: 30 * time.Second,
		},
		SourceGoogle: {
			Name: SourceGoogle, Enabled: false, // requires API key to enable
			RequestsPerSecond: 0.2, MaxConcurrent: 2, MaxRetries: 1, Timeout: 15 * time.Second,
		},
		SourceFSBOCom: {
			Name: SourceFSBOCom, Enabled: true,
			RequestsPerSecond: 1.0, MaxConcurrent: 4, MaxRetries: 3, Timeout: 30 * time.Second,
		},
		SourceForSaleByOwner: {
			Name: SourceForSaleByOwner, Enabled: true,
			RequestsPerSecond: 1.0, MaxConcurrent: 4, MaxRetries: 3, Timeout: 30 * time.Second,
		},
		SourceZillowFSBO: {
			Name: SourceZillowFSBO, Enabled: true,
			RequestsPerSecond: 0.5, MaxConcurrent: 2, MaxRetries: 2, Timeout: 30 * time.Second,
		},
		SourceRealtorFSBO: {
			Name: SourceRealtorFSBO, Enabled: true,
			RequestsPerSecond: 0.5, MaxConcurrent: 3, MaxRetries: 2, Timeout: 45 * time.Second,
		},
		SourceCraigslist: {
			Name: SourceCraigslist, Enabled: true,
			RequestsPerSecond: 1.0, MaxConcurrent: 4, MaxRetries: 3, Timeout: 30 * time.Second,
		},
	}
}

// SourcePriority is the default waterfall order for agent resolution,
// preserved from config.py's SOURCE_PRIORITY.
var SourcePriority = []string{
	SourceRedfin, SourceHomeHarvest, SourceRealtor, SourceZillow, SourceGoogle,
}

// Global pipeline constants, preserved from config.py.
const (
	MaxGlobalConcurrency = 50
	CacheTTLDays         = 7

	RedfinBaseURL       = "https://www.redfin.com"
	RedfinStingrayBase  = "https://www.redfin.com/stingray"
	RealtorBaseURL      = "https://www.realtor.com"
	GoogleCSEURL        = "https://www.googleapis.com/customsearch/v1"

	FSBOComBaseURL         = "https://www.fsbo.com"
	ForSaleByOwnerBaseURL  = "https://www.forsalebyowner.com"
	ZillowBaseURL          = "https://www.zillow.com"

	// FSBOMaxPages bounds search-result pagination for every FSBO source,
	// matching the FSBO_MAX_PAGES cap shared across fsbo_com.py,
	// forsalebyowner_com.py and craigslist_fsbo.py.
	FSBOMaxPages = 3
)

// FSBOSourcePriority is the fan-out order for the FSBO aggregator. Unlike
// agent resolution's waterfall, every source here runs concurrently —
// this list only governs display/merge precedence.
var FSBOSourcePriority = []string{
	SourceFSBOCom, SourceForSaleByOwner, SourceZillowFSBO, SourceRealtorFSBO, SourceCraigslist,
}
