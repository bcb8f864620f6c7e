package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
)

// Package is a purchasable bundle of credits.
type Package struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Credits decimal.Decimal `json:"credits"`
}

var packages = []Package{
	{ID: "micro-bridge", Name: "Micro Bridge", Credits: decimal.NewFromInt(10)},
	{ID: "quantum-node", Name: "Quantum Node", Credits: decimal.NewFromInt(50)},
	{ID: "galaxy-reserve", Name: "Galaxy Reserve", Credits: decimal.NewFromInt(250)},
}

// Packages lists the credit packages in price order.
func Packages() []Package {
	out := make([]Package, len(packages))
	copy(out, packages)
	return out
}

// LookupPackage finds a package by ID.
func LookupPackage(id string) (Package, error) {
	for _, p := range packages {
		if p.ID == id {
			return p, nil
		}
	}
	return Package{}, fmt.Errorf("%w: %q", domain.ErrUnknownPackage, id)
}
