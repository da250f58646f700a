// Package model holds the value types shared by the registry, the analyzer
// and the renderers.
package model

import "github.com/sells-group/hubmatch/internal/geo"

// Hub is a delivery hub with its location and the postal codes currently
// assigned to it. A postal code may appear under several hubs.
type Hub struct {
	Name     string    `json:"name" yaml:"name"`
	Location geo.Point `json:"location" yaml:",inline"`
	Pincodes []string  `json:"pincodes" yaml:"pincodes"`
}

// Assignment is one row of an assignment table: a postal code handled by a hub.
type Assignment struct {
	Hub     string `json:"hub_name"`
	Pincode string `json:"postal_code"`
}
