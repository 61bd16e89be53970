// Copyright 2025 Interledger Foundation

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     https://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package currency

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/interledger/publisher-tools/openpayments"
)

// DisplayAmount is the user-facing rendering of a protocol amount.
type DisplayAmount struct {
	// Numeric is the decimal value, for callers that do their own formatting.
	Numeric float64 `json:"numeric"`
	// Formatted is the locale-formatted value including the symbol.
	Formatted string `json:"formatted"`
	// Symbol is the currency symbol for recognized ISO-4217 codes, or the
	// uppercased asset code otherwise.
	Symbol string `json:"symbol"`
}

// Display renders an amount for presentation. Recognized 3-letter ISO-4217
// asset codes are formatted with their currency symbol; any other asset code
// is rendered verbatim, uppercased.
func Display(a openpayments.Amount) (DisplayAmount, error) {
	num, err := Numeric(a)
	if err != nil {
		return DisplayAmount{}, err
	}

	unit, err := currency.ParseISO(a.AssetCode)
	if err != nil {
		code := strings.ToUpper(a.AssetCode)
		return DisplayAmount{
			Numeric:   num,
			Formatted: code + " " + strconv.FormatFloat(num, 'f', a.AssetScale, 64),
			Symbol:    code,
		}, nil
	}

	p := message.NewPrinter(language.English)
	return DisplayAmount{
		Numeric:   num,
		Formatted: p.Sprintf("%v", currency.Symbol(unit.Amount(num))),
		Symbol:    symbolOf(p, unit),
	}, nil
}

// symbolOf extracts the bare currency symbol by formatting a zero amount and
// stripping the numeric part.
func symbolOf(p *message.Printer, unit currency.Unit) string {
	formatted := p.Sprintf("%v", currency.Symbol(unit.Amount(0)))
	return strings.TrimFunc(formatted, func(r rune) bool {
		return unicode.IsDigit(r) || unicode.IsSpace(r) || r == '.' || r == ','
	})
}
