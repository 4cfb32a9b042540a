// Package domain models user-submitted city anomaly reports.
//
// # Data Source
//
// Reports originate from field submissions: a photo of an urban anomaly
// (pothole, flooding, structural damage, ...) plus the WGS-84 coordinates of
// where it was taken. Two AI-driven branches turn a submission into a merged
// record: a vision model describes the image and a structuring model maps the
// description onto [AnomalyRecord], while a reverse geocoder and a second
// structuring call map the coordinates onto [AddressRecord].
//
// # Event Types
//
// event_type is a closed set. Anything the structuring model emits outside it
// is rejected (after case-insensitive canonicalization):
//
//	Structural Damage      cracked buildings, broken bridges, deteriorating infrastructure
//	Environmental Hazard   pollution, spills, illegal dumping, natural disasters
//	Traffic Anomaly        accidents, road blockages, malfunctioning signals
//	Unusual Activity       vandalism, unexpected object placements, suspicious gatherings
//	Infrastructure Issue   potholes, sinkholes, streetlight outages, burst pipes
//	Public Safety Concern  fires, exposed wires, missing manhole covers
//	Weather-Related Damage flooding, waterlogging, fallen trees, damaged power lines
//	Utility Disruption     power outages, water supply interruptions, network failures
//	Normal                 no anomaly visible
//
// sub_event_type refines broad categories, mainly Weather-Related Damage
// (e.g. "heavy rain", "flooding", "waterlogging", "sewage overflow", "storms",
// "fallen trees", "damaged power lines", "structural impact").
//
// # Severity Scoring
//
// severity_score is an integer in [1,10] assigned by the structuring model
// against a five-tier rubric. The bands are part of the contract: any local
// classifier substituted for the model must reproduce them.
//
//	1-2  minimal       isolated, cosmetic, routine maintenance
//	     (shallow pothole on a quiet street, minor graffiti, one flickering street light)
//	3-4  minor         small-area damage, repair within a week
//	     (medium pothole, crack in a non-load-bearing wall, a few dark streetlights)
//	5-6  medium        street-segment impact, 24-48h response
//	     (large pothole forcing swerves, broken traffic light, localized pipe-burst flooding)
//	7-8  significant   multi-street impact, hours-scale emergency response
//	     (road collapse, flooding submerging vehicles, tree blocking a main road)
//	9-10 catastrophic  district-scale impact, immediate emergency response
//	     (building collapse, flash flooding with rapid currents, grid failure, bridge collapse)
//
// Normal reports carry minimal severity: validation clamps their score into
// the 1-2 band. See [NormalizeAnomaly].
//
// # Merge Semantics
//
// A [CityAnomalyReport] only exists once both branches produced valid output;
// partial reports are never constructed. The anomaly and address schemas are
// disjoint by construction. Should a future schema change introduce a field
// collision, the address branch wins: [MergeReport] assigns anomaly fields
// first and address fields second.
package domain
