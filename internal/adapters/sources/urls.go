package sources

// URL layout of the San Mateo County housing site. The site has no API;
// these are the public pages the adapters scrape.
const baseURL = "https://www.smcgov.org"
const housingBase = baseURL + "/housing"

const (
	dashboardsURL    = housingBase + "/doh-dashboards"
	publicNoticesURL = housingBase + "/doh-public-notices"
	applyProgramsURL = housingBase + "/apply-housing-programs"
	projectsURL      = housingBase + "/doh-dashboards/projects"
	incomeLimitsURL  = housingBase + "/income-limits-and-rent-payments"
)
