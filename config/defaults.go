package config

// DefaultProviders are used when no provider yaml overrides them.
func DefaultProviders() map[string]*ProviderConfig {
	providers := []*ProviderConfig{
		{
			ID: "fixture_skateparks", Name: "Sample skateparks", Handler: HandlerFixture, Fixture: "skateparks",
			Categories: []Category{{Label: "Skateparks", SportType: "skateboarding", VenueType: "skatepark", Discipline: "street"}},
		},
		{
			ID: "fixture_ice_rinks", Name: "Sample ice rinks", Handler: HandlerFixture, Fixture: "ice_rinks",
			Categories: []Category{{Label: "Ice rinks", SportType: "ice_skating", VenueType: "ice_rink", Discipline: "recreational"}},
		},
		{
			ID: "fixture_roller_rinks", Name: "Sample roller rinks", Handler: HandlerFixture, Fixture: "roller_rinks",
			Categories: []Category{{Label: "Roller rinks", SportType: "roller_skating", VenueType: "roller_rink", Discipline: "recreational"}},
		},
		{
			ID: "fixture_trails", Name: "Sample inline trails", Handler: HandlerFixture, Fixture: "trails",
			Categories: []Category{{Label: "Inline trails", SportType: "inline_skating", VenueType: "trail", Discipline: "recreational"}},
		},
		{
			ID:          "concrete_disciples",
			Name:        "Concrete Disciples",
			Handler:     HandlerHTML,
			Fetcher:     FetcherHTTP,
			RateLimitMS: 1000,
			MaxResults:  20,
			MaxPages:    5,
			Endpoints: map[string]string{
				"base": "https://www.concretedisciples.com",
			},
			States:     []string{"AL", "AK", "AZ", "AR", "CA"},
			Categories: []Category{{Label: "Skateparks", SportType: "skateboarding", VenueType: "skatepark", Discipline: "street"}},
		},
		{
			ID:          "google_places",
			Name:        "Google Places",
			Handler:     HandlerPlaces,
			Verified:    true,
			PageDelayMS: 2000,
			MaxPages:    3,
			Endpoints: map[string]string{
				"search":  "https://maps.googleapis.com/maps/api/place/textsearch/json",
				"details": "https://maps.googleapis.com/maps/api/place/details/json",
			},
			Categories: []Category{
				{Label: "Skateparks", SportType: "skateboarding", VenueType: "skatepark", Query: "skatepark in {city}, {state}"},
				{Label: "Ice rinks", SportType: "ice_skating", VenueType: "ice_rink", Query: "ice skating rink in {city}, {state}"},
				{Label: "Roller rinks", SportType: "roller_skating", VenueType: "roller_rink", Query: "roller skating rink in {city}, {state}"},
			},
		},
	}

	out := make(map[string]*ProviderConfig, len(providers))
	for _, p := range providers {
		out[p.ID] = p
	}
	return out
}

// DefaultCities is the list of the 100 largest US cities used by bulk runs.
func DefaultCities() []City {
	return []City{
		{"New York", "NY"}, {"Los Angeles", "CA"}, {"Chicago", "IL"}, {"Houston", "TX"},
		{"Phoenix", "AZ"}, {"Philadelphia", "PA"}, {"San Antonio", "TX"}, {"San Diego", "CA"},
		{"Dallas", "TX"}, {"San Jose", "CA"}, {"Austin", "TX"}, {"Jacksonville", "FL"},
		{"Fort Worth", "TX"}, {"Columbus", "OH"}, {"Charlotte", "NC"}, {"San Francisco", "CA"},
		{"Indianapolis", "IN"}, {"Seattle", "WA"}, {"Denver", "CO"}, {"Washington", "DC"},
		{"Boston", "MA"}, {"El Paso", "TX"}, {"Nashville", "TN"}, {"Detroit", "MI"},
		{"Oklahoma City", "OK"}, {"Portland", "OR"}, {"Las Vegas", "NV"}, {"Memphis", "TN"},
		{"Louisville", "KY"}, {"Baltimore", "MD"}, {"Milwaukee", "WI"}, {"Albuquerque", "NM"},
		{"Tucson", "AZ"}, {"Fresno", "CA"}, {"Mesa", "AZ"}, {"Sacramento", "CA"},
		{"Atlanta", "GA"}, {"Kansas City", "MO"}, {"Colorado Springs", "CO"}, {"Raleigh", "NC"},
		{"Miami", "FL"}, {"Long Beach", "CA"}, {"Virginia Beach", "VA"}, {"Omaha", "NE"},
		{"Oakland", "CA"}, {"Minneapolis", "MN"}, {"Tulsa", "OK"}, {"Tampa", "FL"},
		{"Arlington", "TX"}, {"New Orleans", "LA"}, {"Wichita", "KS"}, {"Cleveland", "OH"},
		{"Bakersfield", "CA"}, {"Aurora", "CO"}, {"Anaheim", "CA"}, {"Honolulu", "HI"},
		{"Santa Ana", "CA"}, {"Riverside", "CA"}, {"Corpus Christi", "TX"}, {"Lexington", "KY"},
		{"Henderson", "NV"}, {"Stockton", "CA"}, {"Saint Paul", "MN"}, {"Cincinnati", "OH"},
		{"St. Louis", "MO"}, {"Pittsburgh", "PA"}, {"Greensboro", "NC"}, {"Anchorage", "AK"},
		{"Plano", "TX"}, {"Lincoln", "NE"}, {"Orlando", "FL"}, {"Irvine", "CA"},
		{"Newark", "NJ"}, {"Durham", "NC"}, {"Chula Vista", "CA"}, {"Toledo", "OH"},
		{"Fort Wayne", "IN"}, {"St. Petersburg", "FL"}, {"Laredo", "TX"}, {"Jersey City", "NJ"},
		{"Chandler", "AZ"}, {"Madison", "WI"}, {"Lubbock", "TX"}, {"Scottsdale", "AZ"},
		{"Reno", "NV"}, {"Buffalo", "NY"}, {"Gilbert", "AZ"}, {"Glendale", "AZ"},
		{"North Las Vegas", "NV"}, {"Winston-Salem", "NC"}, {"Chesapeake", "VA"}, {"Norfolk", "VA"},
		{"Fremont", "CA"}, {"Garland", "TX"}, {"Irving", "TX"}, {"Hialeah", "FL"},
		{"Richmond", "VA"}, {"Boise", "ID"}, {"Spokane", "WA"}, {"Baton Rouge", "LA"},
	}
}
