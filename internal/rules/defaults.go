package rules

import "github.com/fazal-lab/xia/internal/domain"

// Default returns the baked-in rule set, grounded on spec.md §4.2-§4.5 and
// the keyword/threshold constants recovered from
// original_source/backend/console/screen_profiler/google_maps_utils.py and
// original_source/backend/xia/views.py.
func Default() *Rules {
	return &Rules{
		NoiseTerms: []string{
			"andhra pradesh", "arunachal pradesh", "assam", "bihar", "chhattisgarh",
			"goa", "gujarat", "haryana", "himachal pradesh", "jharkhand", "karnataka",
			"kerala", "madhya pradesh", "maharashtra", "manipur", "meghalaya", "mizoram",
			"nagaland", "odisha", "punjab", "rajasthan", "sikkim", "tamil nadu",
			"telangana", "tripura", "uttar pradesh", "uttarakhand", "west bengal",
			"andaman and nicobar islands", "chandigarh",
			"dadra and nagar haveli and daman and diu", "delhi", "jammu and kashmir",
			"ladakh", "lakshadweep", "puducherry", "india",
		},
		GenericPlaceTypes: []string{
			"establishment", "point_of_interest", "place", "premise",
		},
		PlaceGroups: map[string]domain.PlaceGroup{
			"subway_station": domain.GroupTransit, "train_station": domain.GroupTransit,
			"transit_station": domain.GroupTransit, "bus_station": domain.GroupTransit,
			"airport": domain.GroupTransit, "light_rail_station": domain.GroupTransit,
			"taxi_stand": domain.GroupTransit,

			"hospital": domain.GroupHealthcare, "doctor": domain.GroupHealthcare,
			"dentist": domain.GroupHealthcare, "pharmacy": domain.GroupHealthcare,
			"physiotherapist": domain.GroupHealthcare, "health": domain.GroupHealthcare,

			"hindu_temple": domain.GroupReligious, "church": domain.GroupReligious,
			"mosque": domain.GroupReligious, "synagogue": domain.GroupReligious,
			"place_of_worship": domain.GroupReligious,

			"school": domain.GroupEducation, "primary_school": domain.GroupEducation,
			"secondary_school": domain.GroupEducation, "university": domain.GroupEducation,
			"college": domain.GroupEducation, "library": domain.GroupEducation,

			"city_hall": domain.GroupGovernment, "courthouse": domain.GroupGovernment,
			"local_government_office": domain.GroupGovernment, "embassy": domain.GroupGovernment,
			"police": domain.GroupGovernment, "post_office": domain.GroupGovernment,
			"fire_station": domain.GroupGovernment,

			"bank": domain.GroupFinance, "atm": domain.GroupFinance,
			"finance": domain.GroupFinance, "accounting": domain.GroupFinance,
			"insurance_agency": domain.GroupFinance,

			"corporate_office": domain.GroupOffice, "coworking_space": domain.GroupOffice,

			"shopping_mall": domain.GroupRetail, "supermarket": domain.GroupRetail,
			"department_store": domain.GroupRetail, "clothing_store": domain.GroupRetail,
			"convenience_store": domain.GroupRetail, "store": domain.GroupRetail,
			"electronics_store": domain.GroupRetail, "furniture_store": domain.GroupRetail,
			"jewelry_store": domain.GroupRetail, "shoe_store": domain.GroupRetail,
			"book_store": domain.GroupRetail, "hardware_store": domain.GroupRetail,

			"restaurant": domain.GroupFoodBeverage, "cafe": domain.GroupFoodBeverage,
			"bar": domain.GroupFoodBeverage, "bakery": domain.GroupFoodBeverage,
			"meal_takeaway": domain.GroupFoodBeverage, "food": domain.GroupFoodBeverage,

			"movie_theater": domain.GroupEntertainment, "night_club": domain.GroupEntertainment,
			"bowling_alley": domain.GroupEntertainment, "casino": domain.GroupEntertainment,
			"amusement_park": domain.GroupEntertainment,

			"stadium": domain.GroupSports, "gym": domain.GroupSports, "park": domain.GroupSports,

			"hotel": domain.GroupHospitality, "lodging": domain.GroupHospitality,
			"guest_house": domain.GroupHospitality,

			"tourist_attraction": domain.GroupTourism, "museum": domain.GroupTourism,
			"art_gallery": domain.GroupTourism, "zoo": domain.GroupTourism,

			"warehouse": domain.GroupIndustrial, "factory": domain.GroupIndustrial,
			"storage": domain.GroupIndustrial,

			"residential": domain.GroupResidential, "apartment_complex": domain.GroupResidential,
			"housing_complex": domain.GroupResidential,
		},
		AuthorityTypes: []AuthorityType{
			{Group: domain.GroupHealthcare, PlaceTypes: []string{"hospital"}, ContextLabel: "Hospital Entrance Zone", SignificanceThresh: 100, MajorThreshold: 500},
			{Group: domain.GroupHealthcare, PlaceTypes: []string{"doctor"}, ContextLabel: "Clinic Zone", SignificanceThresh: 50, NamePatterns: []string{"clinic", "medical", "health centre", "health center"}},
			{Group: domain.GroupReligious, PlaceTypes: []string{"hindu_temple"}, ContextLabel: "Temple Zone", SignificanceThresh: 80, NamePatterns: []string{"temple", "mandir", "kovil"}},
			{Group: domain.GroupReligious, PlaceTypes: []string{"church"}, ContextLabel: "Church Zone", SignificanceThresh: 60, NamePatterns: []string{"church", "cathedral", "basilica"}},
			{Group: domain.GroupReligious, PlaceTypes: []string{"mosque"}, ContextLabel: "Mosque Zone", SignificanceThresh: 60, NamePatterns: []string{"mosque", "masjid"}},
			{Group: domain.GroupTransit, PlaceTypes: []string{"subway_station", "train_station", "light_rail_station"}, ContextLabel: "Metro/Rail Station Zone", SignificanceThresh: 150, NamePatterns: []string{"metro", "railway", "junction", "station"}},
			{Group: domain.GroupTransit, PlaceTypes: []string{"airport"}, ContextLabel: "Airport Zone", SignificanceThresh: 100, MajorThreshold: 100, NamePatterns: []string{"airport", "terminal"}},
			{Group: domain.GroupTransit, PlaceTypes: []string{"bus_station"}, ContextLabel: "Bus Terminal Zone", SignificanceThresh: 100, NamePatterns: []string{"bus stand", "bus terminal", "bus depot"}},
			{Group: domain.GroupSports, PlaceTypes: []string{"stadium"}, ContextLabel: "Stadium Zone", SignificanceThresh: 150, NamePatterns: []string{"stadium", "arena"}},
			{Group: domain.GroupEducation, PlaceTypes: []string{"university"}, ContextLabel: "University Zone", SignificanceThresh: 100, NamePatterns: []string{"university", "institute of technology"}},
			{Group: domain.GroupEducation, PlaceTypes: []string{"college"}, ContextLabel: "College Zone", SignificanceThresh: 80, NamePatterns: []string{"college", "polytechnic"}},
			{Group: domain.GroupRetail, PlaceTypes: []string{"shopping_mall"}, ContextLabel: "Mall Zone", SignificanceThresh: 100, NamePatterns: []string{"mall", "plaza"}},
			{Group: domain.GroupGovernment, PlaceTypes: []string{"courthouse"}, ContextLabel: "Courthouse Zone", SignificanceThresh: 60, NamePatterns: []string{"court", "judicial"}},
			{Group: domain.GroupGovernment, PlaceTypes: []string{"city_hall", "local_government_office"}, ContextLabel: "Civic Center Zone", SignificanceThresh: 60, NamePatterns: []string{"municipal", "corporation", "secretariat", "collectorate"}},
			{Group: domain.GroupEntertainment, PlaceTypes: []string{"amusement_park"}, ContextLabel: "Theme Park Zone", SignificanceThresh: 150, NamePatterns: []string{"amusement", "theme park", "water park"}},
		},
		HospitalRatingThreshold: 100,
		MedicalNamePatterns:     []string{"medical college", "medical institute", "aiims", "hospital", "health sciences"},
		TransitNamePatterns:     []string{"metro", "railway", "junction", "terminal", "depot", "bus stand"},
		TransitMinRating:        150,
		CityTiers: map[string]domain.CityTier{
			"mumbai": domain.Tier1, "delhi": domain.Tier1, "bengaluru": domain.Tier1,
			"bangalore": domain.Tier1, "chennai": domain.Tier1, "kolkata": domain.Tier1,
			"hyderabad": domain.Tier1, "pune": domain.Tier1, "ahmedabad": domain.Tier1,
			"jaipur": domain.Tier2, "lucknow": domain.Tier2, "coimbatore": domain.Tier2,
			"nagpur": domain.Tier2, "indore": domain.Tier2, "kochi": domain.Tier2,
			"chandigarh": domain.Tier2, "vadodara": domain.Tier2, "visakhapatnam": domain.Tier2,
			"bhopal": domain.Tier2, "madurai": domain.Tier2, "nashik": domain.Tier2,
		},
		HighwayKeywords:  []string{"expressway", "national highway", "nh", "highway"},
		ArterialKeywords: []string{"main road", "ring road", "bypass", "arterial", "boulevard", "avenue"},
		JunctionKeywords: []string{"junction", "intersection", "signal", "cross", "circle", "roundabout"},
		PedestrianTypes: []string{
			"park", "shopping_mall", "tourist_attraction", "school", "university",
			"transit_station", "bus_station", "train_station", "subway_station",
			"movie_theater",
		},
		DominantThreshold:     0.55,
		StrongBiasThreshold:   0.40,
		ModerateBiasThreshold: 0.28,
		WeakBiasThreshold:     0.18,
		CoDominantSpread:      0.08,
		DwellGroupWeights: map[domain.PlaceGroup]float64{
			domain.GroupHealthcare:    0.75,
			domain.GroupTransit:       0.70,
			domain.GroupEducation:     0.65,
			domain.GroupGovernment:    0.60,
			domain.GroupReligious:     0.60,
			domain.GroupRetail:        0.55,
			domain.GroupEntertainment: 0.55,
			domain.GroupHospitality:   0.50,
			domain.GroupTourism:       0.50,
			domain.GroupSports:        0.45,
			domain.GroupFinance:       0.40,
			domain.GroupOffice:        0.35,
			domain.GroupFoodBeverage:  0.35,
			domain.GroupIndustrial:    0.20,
			domain.GroupResidential:   0.30,
		},
		DwellMovementModifier: map[domain.MovementType]float64{
			domain.MovementPassBy:    -0.25,
			domain.MovementStopAndGo: 0,
			domain.MovementSlowFlow:  0.10,
			domain.MovementPedestrian: 0.20,
		},
		InvalidPlaceholders: []string{
			"not specified", "unknown", "n/a", "none", "any", "",
			"not provided", "na", "null", "undefined", "tbd", "not sure",
			"not applicable", "not available", "not yet", "pending", "general",
		},
		BudgetKeywords: []string{"my budget", "i have", "can spend", "budget is", "spending"},
		PriceKeywords:  []string{"per slot", "slot price", "price per slot", "cost per slot"},
		RejectionSignals: []string{
			"no", "don't", "cancel", "keep current", "skip", "remove", "not now", "nope",
		},
	}
}
