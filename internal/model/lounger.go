package model

// Lounger is a bookable beach lounger.  Inventory is managed elsewhere;
// the booking core only reads the rate and the active flag.
//
// Fields:
//  ID        – primary key identifier.
//  BeachID   – beach the lounger stands on.
//  BeachName – display name of the beach.
//  Number    – label painted on the lounger, unique per beach.
//  Type      – standard, premium or vip.
//  Row, Col  – position on the beach map.
//  RateCents – flat price per started hour in cents.
//  Active    – inactive loungers accept no new reservations.
type Lounger struct {
    ID        uint64 `json:"id"`
    BeachID   uint64 `json:"beach_id"`
    BeachName string `json:"beach_name"`
    Number    string `json:"number"`
    Type      string `json:"type"`
    Row       int    `json:"row"`
    Col       int    `json:"col"`
    RateCents int64  `json:"price_per_hour_cents"`
    Active    bool   `json:"is_active"`
}
