package types

import "strings"

// CURRENCY_CODES_SYMBOLS is a map of 3 digit ISO currency codes to their symbols
var CURRENCY_CODES_SYMBOLS = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"aud": "AU$",
	"cad": "CA$",
	"chf": "CHF",
	"sek": "kr",
	"nzd": "NZ$",
	"jpy": "¥",
	"inr": "₹",
	"brl": "R$",
	"krw": "₩",
}

// currencyPrecision lists currencies whose minor unit is not 2 decimals
var currencyPrecision = map[string]int32{
	"jpy": 0,
	"krw": 0,
	"clp": 0,
	"isk": 0,
	"bhd": 3,
	"kwd": 3,
	"jod": 3,
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	if symbol, ok := CURRENCY_CODES_SYMBOLS[strings.ToLower(code)]; ok {
		return symbol
	}
	return code
}

// GetCurrencyPrecision returns the number of decimal places amounts are rounded to
func GetCurrencyPrecision(code string) int32 {
	if p, ok := currencyPrecision[strings.ToLower(code)]; ok {
		return p
	}
	return 2
}
