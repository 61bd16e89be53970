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

// currency converts between user-facing decimal amounts and the protocol's
// integer minor-unit representation. The remote services only ever see exact
// integer strings; all rounding happens here, once, on the way in.
package currency

import (
	"errors"
	"math"
	"math/big"
	"strconv"

	"github.com/interledger/publisher-tools/openpayments"
)

// MaxAssetScale is the largest minor-unit exponent we accept. No real asset
// uses more; anything beyond it is a sign of corrupted wallet metadata.
const MaxAssetScale = 18

var (
	// ErrNegative indicates a negative amount where only non-negative
	// amounts are representable.
	ErrNegative = errors.New("amount is negative")
	// ErrNotFinite indicates a NaN or infinite amount.
	ErrNotFinite = errors.New("amount is not a finite number")
	// ErrScaleOutOfRange indicates an asset scale outside [0, MaxAssetScale].
	ErrScaleOutOfRange = errors.New("asset scale out of range")
)

// InvalidAmountError indicates an amount that cannot be converted to the
// protocol representation.
type InvalidAmountError struct {
	Err error
}

func (e InvalidAmountError) Error() string {
	return "invalid amount: " + e.Err.Error()
}

func (e InvalidAmountError) Unwrap() error {
	return e.Err
}

// ToMinorUnits converts a decimal user-facing amount into the integer
// minor-unit string the protocol expects, rounding to the nearest integer
// with ties away from zero.
func ToMinorUnits(amount float64, assetScale int) (string, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", InvalidAmountError{Err: ErrNotFinite}
	}
	if amount < 0 {
		return "", InvalidAmountError{Err: ErrNegative}
	}
	if assetScale < 0 || assetScale > MaxAssetScale {
		return "", InvalidAmountError{Err: ErrScaleOutOfRange}
	}

	scaled := math.Round(amount * math.Pow10(assetScale))
	if math.IsInf(scaled, 0) {
		return "", InvalidAmountError{Err: ErrNotFinite}
	}
	return strconv.FormatFloat(scaled, 'f', -1, 64), nil
}

// Numeric converts an amount back into its user-facing decimal value.
func Numeric(a openpayments.Amount) (float64, error) {
	if a.AssetScale < 0 || a.AssetScale > MaxAssetScale {
		return 0, InvalidAmountError{Err: ErrScaleOutOfRange}
	}

	v, err := a.BigValue()
	if err != nil {
		return 0, InvalidAmountError{Err: err}
	}
	if v.Sign() < 0 {
		return 0, InvalidAmountError{Err: ErrNegative}
	}

	scale := new(big.Float).SetFloat64(math.Pow10(a.AssetScale))
	num, _ := new(big.Float).Quo(new(big.Float).SetInt(v), scale).Float64()
	return num, nil
}
