package main

import (
	"testing"

	"leadmarket_backend/internal/geo/repository"
)

func TestNormalizeLineStoresResolvableForms(t *testing.T) {
	zone, ok := normalizeLine(importLine{
		CountryISO:  "no",
		CountryName: " Norway ",
		Name:        " Oslo ",
		Kind:        "municipality",
		PostalCodes: []string{" 0150", "0151 ", "0150", "", "ab1 2cd"},
	})
	if !ok {
		t.Fatal("expected line to be accepted")
	}
	if zone.CountryISO != "NO" {
		t.Errorf("expected ISO NO, got %q", zone.CountryISO)
	}
	if zone.Name != "Oslo" || zone.CountryName != "Norway" {
		t.Errorf("expected trimmed names, got %q / %q", zone.Name, zone.CountryName)
	}
	if zone.Kind != repository.KindMunicipality {
		t.Errorf("expected municipality kind, got %q", zone.Kind)
	}
	want := []string{"0150", "0151", "AB1 2CD"}
	if len(zone.PostalCodes) != len(want) {
		t.Fatalf("expected %d postal codes, got %v", len(want), zone.PostalCodes)
	}
	for i, code := range want {
		if zone.PostalCodes[i] != code {
			t.Errorf("postal code %d: expected %q, got %q", i, code, zone.PostalCodes[i])
		}
	}
}

func TestNormalizeLineRejectsUnusableLines(t *testing.T) {
	cases := map[string]importLine{
		"missing iso":      {Name: "Oslo", PostalCodes: []string{"0150"}},
		"missing name":     {CountryISO: "NO", PostalCodes: []string{"0150"}},
		"no postal codes":  {CountryISO: "NO", Name: "Oslo"},
		"only blank codes": {CountryISO: "NO", Name: "Oslo", PostalCodes: []string{" ", ""}},
	}
	for name, line := range cases {
		if _, ok := normalizeLine(line); ok {
			t.Errorf("%s: expected line to be rejected", name)
		}
	}
}
