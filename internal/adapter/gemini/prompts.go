package gemini

// Prompt and instruction text for the model operations. The severity rubric
// and the closed event-type set are contractual: keep them in sync with the
// domain package documentation.

const describeImagePrompt = `Identify all significant city events and anomalies visible in this image.
Detail the type of each, explain it, and describe how severe it is. Focus on
any elements indicating damage, disruption, or unusual activity (structural
issues, traffic incidents, environmental hazards, utility problems, public
safety concerns, weather impacts). Be concise but specific about what makes
each an anomaly. If there is no anomaly in the image, return "Normal".`

const structureAnomalyInstruction = `You are a structuring agent. Transform the raw image description below into a
structured city anomaly record.

The "event_type" must be exactly one of:
- "Structural Damage": cracked buildings, broken bridges, deteriorating infrastructure.
- "Environmental Hazard": pollution, spills, illegal dumping, natural disasters.
- "Traffic Anomaly": accidents, road blockages, illegal parking, malfunctioning traffic lights.
- "Unusual Activity": suspicious gatherings, unexpected object placements, vandalism.
- "Infrastructure Issue": potholes, sinkholes, streetlight outages, water pipe bursts, damaged public amenities.
- "Public Safety Concern": fires, hazardous situations, exposed wires, missing manhole covers.
- "Weather-Related Damage": flooding, waterlogging, sewage overflow, fallen trees, damaged power lines.
- "Utility Disruption": power outages, water supply interruptions, gas line issues, network failures.
- "Normal": if there is no anomaly.

Populate "sub_event_type" when the event type is broad, especially
"Weather-Related Damage" (for example: "heavy rain", "flooding",
"waterlogging", "sewage overflow", "storms", "fallen trees", "damaged power
lines", "structural impact"). Leave it null when no specific refinement
applies.

The "description" must clearly and concisely summarize what is observed and
why it is an anomaly.

The "severity_score" must be an integer from 1 to 10:
- 1-2 (Minimal Impact): no threat to life, cosmetic localized damage, routine
  maintenance. Examples: small shallow pothole on a quiet street, minor
  graffiti, a single flickering street light.
- 3-4 (Minor Impact): low injury potential, small-area damage, repair within a
  few days to a week, slight traffic inconvenience. Examples: medium pothole
  on a moderately busy street, crack in a non-load-bearing wall, a few dark
  streetlights, overflowing waste bins.
- 5-6 (Medium Impact): moderate injury potential, street-segment disruption,
  response within 24-48 hours, detours or slow-downs. Examples: large pothole
  forcing vehicles to swerve, broken traffic light at a quieter intersection,
  burst pipe flooding a sidewalk, fallen tree obstructing a sidewalk.
- 7-8 (Significant Impact): high potential for serious injury, severe damage
  to critical infrastructure, major service disruption across multiple
  streets, response within hours. Examples: road collapse, flooding
  submerging vehicles on major routes, widespread outage from a damaged
  utility pole, large tree blocking a main road, building at risk of collapse.
- 9-10 (Catastrophic Impact): imminent severe threat to life, district-scale
  infrastructure failure, immediate emergency response and possible
  evacuation. Examples: building collapse, flash flooding with rapid
  currents, prolonged grid failure, chemical spill, major bridge collapse.

Example input: "The image shows heavy rainfall causing significant
waterlogging on Main Street, completely submerging vehicle tires and leading
to traffic jams. Visible sewage overflow from drains is also present."
Example output:
{"event_type": "Weather-Related Damage", "sub_event_type": "waterlogging",
"description": "Heavy rainfall has led to severe waterlogging on Main Street, submerging vehicle tires and causing traffic jams, with visible sewage overflow from drains.",
"severity_score": 8}

Example input: "The image shows a large pothole on a busy street, causing
traffic to swerve. There is also a broken street light nearby."
Example output:
{"event_type": "Infrastructure Issue", "sub_event_type": "traffic disruption",
"description": "A large pothole on a busy street is causing traffic disruptions. A broken street light is also observed nearby.",
"severity_score": 5}

Image description to structure:
`

const structureAddressInstruction = `You are an address structuring agent. Using the reverse geocoding output and
coordinates below, emit a structured address record. The "formatted_address"
must be a full human-readable address string. Fill each optional component
("house_number", "street_name", "area_name", "city", "district", "state",
"country", "country_code", "postal_code") only when the geocoding output
resolves it; never fabricate a component, leave unknown ones null.

`

const extractStreetsInstruction = `Extract the street or road names mentioned in the route query below. Return
each street name exactly as written, without surrounding words like "via" or
"through". Return an empty list when the query names no streets.

Query:
`

const composeAnswerInstruction = `You are a route-planning assistant for city travel. Answer the user's query
using the historical anomaly records below, which were previously reported on
streets the query mentions. Warn about streets with recent anomalies, mention
their type, severity band, and a one-line summary, and suggest caution or an
alternative where severity is significant or worse. If no records are listed,
say the route has no known reported anomalies. Keep the answer short and
practical.

`
