package data

import (
	"testing"
)

func TestLoadReferenceData(t *testing.T) {
	data, err := Load()
	if err != nil {
		t.Fatalf("Failed to load reference data: %v", err)
	}

	// Test country lookup
	t.Run("GetCountry", func(t *testing.T) {
		sg, ok := data.GetCountry("SGP")
		if !ok {
			t.Fatal("Failed to find SGP country")
		}
		if sg.Name != "Singapore" {
			t.Errorf("Expected 'Singapore', got '%s'", sg.Name)
		}
		if sg.Currency != "SGD" {
			t.Errorf("Expected 'SGD', got '%s'", sg.Currency)
		}
	})

	// Test region lookup
	t.Run("GetRegion", func(t *testing.T) {
		if region := data.GetRegion("HKG"); region != "east_asia" {
			t.Errorf("Expected 'east_asia', got '%s'", region)
		}
		if region := data.GetRegion("XXX"); region != DefaultRegion {
			t.Errorf("Expected fallback '%s', got '%s'", DefaultRegion, region)
		}
	})

	// Every country must resolve to a region with names
	t.Run("NamesForEveryCountry", func(t *testing.T) {
		for _, c := range data.AllCountries() {
			region := data.GetRegion(c.Code)
			if len(data.GetFirstNames(region, true)) == 0 {
				t.Errorf("No male first names for %s (%s)", c.Code, region)
			}
			if len(data.GetFirstNames(region, false)) == 0 {
				t.Errorf("No female first names for %s (%s)", c.Code, region)
			}
			if len(data.GetLastNames(region)) == 0 {
				t.Errorf("No last names for %s (%s)", c.Code, region)
			}
		}
	})

	// Test streets lookup with fallback
	t.Run("GetStreets", func(t *testing.T) {
		if len(data.GetStreets("SGP")) == 0 {
			t.Error("Expected streets for SGP, got none")
		}
		if len(data.GetStreets("AUS")) == 0 {
			t.Error("Expected fallback streets for AUS, got none")
		}
	})

	t.Run("Institutions", func(t *testing.T) {
		inst := data.Institutions
		if len(inst.CounterpartyBanks) == 0 || len(inst.InquiryCreditors) == 0 ||
			len(inst.TradelineCreditors) == 0 || len(inst.Bureaus) == 0 {
			t.Errorf("Institution lists incomplete: %+v", inst)
		}
	})

	t.Run("Merchants", func(t *testing.T) {
		categories := map[string]int{}
		for _, m := range data.Merchants.Merchants {
			if m.Name == "" {
				t.Error("Merchant with empty name")
			}
			categories[m.Category]++
		}
		for _, c := range []string{"RETAIL", "FOOD", "TRAVEL", "UTILITIES"} {
			if categories[c] == 0 {
				t.Errorf("No merchants in category %s", c)
			}
		}
	})
}

func TestLoadIsIdempotent(t *testing.T) {
	a, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	b, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if a != b {
		t.Error("Expected Load to return the same instance")
	}
}
