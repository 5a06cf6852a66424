package gecko

import (
	"slices"
	"strings"

	"github.com/rickgao/price-feed/internal/failure"
)

// Currency is a provider-supported quote currency code (lower case).
type Currency string

// USD is the default quote currency for ingestion.
const USD Currency = "usd"

// supportedCurrencies mirrors GET /simple/supported_vs_currencies.
var supportedCurrencies = []Currency{
	// Crypto
	"btc", "eth", "ltc", "bch", "bnb", "eos", "xrp", "xlm", "link", "dot", "yfi",
	// Fiat
	"usd", "aed", "ars", "aud", "bdt", "bhd", "bmd", "brl", "cad", "chf", "clp",
	"cny", "czk", "dkk", "eur", "gbp", "gel", "hkd", "huf", "idr", "ils", "inr",
	"jpy", "krw", "kwd", "lkr", "mmk", "mxn", "myr", "ngn", "nok", "nzd", "php",
	"pkr", "pln", "rub", "sar", "sek", "sgd", "thb", "try", "twd", "uah", "vef",
	"vnd", "zar",
	// Commodities and units
	"xdr", "xag", "xau", "bits", "sats",
}

// ParseCurrency validates a currency code against the supported set.
// Codes are matched case-insensitively.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToLower(strings.TrimSpace(code)))
	if c == "" {
		return "", failure.Newf(failure.Validation, "parse currency", "currency is required")
	}
	if !slices.Contains(supportedCurrencies, c) {
		return "", failure.Newf(failure.Validation, "parse currency", "unsupported currency %q", code)
	}
	return c, nil
}

// SupportedCurrencies returns a copy of the supported set.
func SupportedCurrencies() []Currency {
	return slices.Clone(supportedCurrencies)
}

func (c Currency) String() string {
	return string(c)
}
