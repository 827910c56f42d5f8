// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"taxform-scan/internal/detector"
)

var (
	dollarAmount  = regexp.MustCompile(`\$([0-9,]+(?:\.\d{2})?)`)
	amountPrinter = message.NewPrinter(language.English)
)

// ExtractFinancialAmounts returns every "$"-prefixed amount in text order.
// Literals that do not parse, such as "$,", are skipped.
func ExtractFinancialAmounts(text string) []FinancialAmount {
	return extractAmounts(text, detector.NewContextExtractor())
}

func extractAmounts(text string, ce *detector.ContextExtractor) []FinancialAmount {
	amounts := []FinancialAmount{}
	offsets := detector.NewOffsets(text)
	for _, loc := range dollarAmount.FindAllStringSubmatchIndex(text, -1) {
		digits := strings.ReplaceAll(text[loc[2]:loc[3]], ",", "")
		value, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			continue
		}
		amounts = append(amounts, FinancialAmount{
			Amount:          value,
			FormattedAmount: FormatDollars(value),
			Context:         ce.ExtractContext(text, loc[0], loc[1]).Snippet,
			Position:        offsets.Char(loc[0]),
		})
	}
	return amounts
}

// FormatDollars renders an amount as "$1,234.50"
func FormatDollars(v float64) string {
	return amountPrinter.Sprintf("$%.2f", v)
}
