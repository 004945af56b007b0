package payment

// Package is a purchasable bundle of credits. AmountMinor is in halalas.
type Package struct {
	Code        string `json:"code"`
	Credits     int64  `json:"credits"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// Packages is the credit catalogue, cheapest first.
var Packages = []Package{
	{Code: "credits_100", Credits: 100, AmountMinor: 1000, Currency: "SAR"},
	{Code: "credits_300", Credits: 300, AmountMinor: 2500, Currency: "SAR"},
	{Code: "credits_1000", Credits: 1000, AmountMinor: 7500, Currency: "SAR"},
}

// LookupPackage finds a package by code.
func LookupPackage(code string) (Package, bool) {
	for _, p := range Packages {
		if p.Code == code {
			return p, true
		}
	}
	return Package{}, false
}
